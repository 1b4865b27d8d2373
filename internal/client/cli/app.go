package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/authflow"
	"github.com/dmitrijs2005/filedeck/internal/bootstrap"
	"github.com/dmitrijs2005/filedeck/internal/config"
	"github.com/dmitrijs2005/filedeck/internal/files"
	"github.com/dmitrijs2005/filedeck/internal/filex"
	"github.com/dmitrijs2005/filedeck/internal/identity"
	"github.com/dmitrijs2005/filedeck/internal/logging"
	"github.com/dmitrijs2005/filedeck/internal/notify"
	"github.com/dmitrijs2005/filedeck/internal/sessionstore"
	"github.com/dmitrijs2005/filedeck/internal/view"
	"github.com/google/uuid"
)

// tokenStore persists the session between runs.
type tokenStore interface {
	Save(session identity.Session) error
	Load() (identity.Session, error)
	Clear() error
	SessionID(newID func() string) (string, error)
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	files    *files.Orchestrator
	browser  *view.Browser
	auth     *authflow.Controller
	provider identity.Provider
	tokens   tokenStore
	notifier notify.Notifier
	sink     *dirSink
	closer   io.Closer

	sid     string
	session *identity.Session

	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time
}

// deps are the parts of App that tests replace.
type deps struct {
	config   *config.Config
	logger   logging.Logger
	storage  files.Storage
	provider identity.Provider
	sessions sessionstore.Store
	tokens   tokenStore
	in       io.Reader
	out      io.Writer
	dir      string
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, "text", c.LogLevel)

	backends, err := bootstrap.Build(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("backends init error: %w", err)
	}

	dir, err := filex.EnsureDir(c.DownloadDir)
	if err != nil {
		_ = backends.Close()
		return nil, err
	}

	home, err := os.UserConfigDir()
	if err != nil {
		home = "."
	}
	tokens, err := OpenSessionStore(filepath.Join(home, KeyringServiceName), func(prompt string) (string, error) {
		return GetPassword(os.Stdout, prompt)
	})
	if err != nil {
		_ = backends.Close()
		return nil, err
	}

	a, err := newApp(deps{
		config:   c,
		logger:   logger,
		storage:  backends.Storage,
		provider: backends.Provider,
		sessions: backends.Sessions,
		tokens:   tokens,
		in:       os.Stdin,
		out:      os.Stdout,
		dir:      dir,
	})
	if err != nil {
		_ = backends.Close()
		return nil, err
	}
	a.closer = backends
	return a, nil
}

func newApp(d deps) (*App, error) {
	sid, err := d.tokens.SessionID(uuid.NewString)
	if err != nil {
		return nil, err
	}

	notifier := terminalNotifier(d.out)

	fo := files.NewOrchestrator(d.storage, notifier, d.logger,
		files.WithListLimit(d.config.ListLimit),
		files.WithClearDelay(d.config.UploadClearDelay),
	)
	auth := authflow.NewController(d.provider, d.sessions, notifier, d.logger, d.config.SiteURL,
		authflow.WithInviteDelay(d.config.InviteDelay),
	)

	return &App{
		config:   d.config,
		logger:   d.logger,
		files:    fo,
		browser:  view.NewBrowser(fo, osc52Clipboard{w: d.out}, notifier, 4),
		auth:     auth,
		provider: d.provider,
		tokens:   d.tokens,
		notifier: notifier,
		sink:     &dirSink{dir: d.dir},
		sid:      sid,
		reader:   bufio.NewReader(d.in),
		out:      d.out,
		now:      time.Now,
	}, nil
}

// terminalNotifier prints notifications as single lines.
func terminalNotifier(w io.Writer) notify.Notifier {
	return notify.Func(func(_ context.Context, n notify.Notification) {
		if n.Title != "" {
			fmt.Fprintf(w, "[%s] %s: %s\n", n.Level, n.Title, n.Message)
			return
		}
		fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Message)
	})
}

func (a *App) isLoggedIn() bool {
	return a.session != nil && a.session.Active(a.now())
}

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return ""
	}
	u := a.session.User
	name := u.Username
	if name == "" {
		name = u.Email
	}
	if name == "" {
		name = u.Phone
	}
	if name == "" {
		return "(signed in)"
	}
	return fmt.Sprintf("(%s)", name)
}

// restoreSession picks up a still valid session from the keyring.
func (a *App) restoreSession() {
	s, err := a.tokens.Load()
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			a.logger.Warn(context.Background(), "restore session", "error", err)
		}
		return
	}
	if s.Active(a.now()) {
		a.session = &s
	}
}

func (a *App) setSession(s *identity.Session) {
	if s == nil || s.AccessToken == "" {
		return
	}
	a.session = s
	if err := a.tokens.Save(*s); err != nil {
		a.logger.Warn(context.Background(), "store session", "error", err)
	}
}

func (a *App) Run(ctx context.Context) {
	if a.closer != nil {
		defer a.closer.Close()
	}

	fmt.Fprintln(a.out, "Welcome to FileDeck (type 'help' for commands)")
	a.restoreSession()

	if err := a.files.Refresh(ctx); err == nil {
		_ = a.browser.Render(a.out)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
