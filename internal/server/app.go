package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/authflow"
	"github.com/dmitrijs2005/filedeck/internal/bootstrap"
	"github.com/dmitrijs2005/filedeck/internal/config"
	"github.com/dmitrijs2005/filedeck/internal/files"
	"github.com/dmitrijs2005/filedeck/internal/logging"
	"github.com/dmitrijs2005/filedeck/internal/notify"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	backends *bootstrap.Backends
	files    *files.Orchestrator
	hub      *Hub
	server   *Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	backends, err := bootstrap.Build(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("backends init error: %w", err)
	}

	return newApp(c, logger, backends), nil
}

func newApp(c *config.Config, logger logging.Logger, backends *bootstrap.Backends) *App {
	hub := NewHub(logger)
	notifier := notify.Routed{Default: hub}

	fo := files.NewOrchestrator(backends.Storage, notifier, logger,
		files.WithListLimit(c.ListLimit),
		files.WithClearDelay(c.UploadClearDelay),
	)
	fo.Subscribe(hub.PublishState)

	auth := authflow.NewController(backends.Provider, backends.Sessions, notifier, logger, c.SiteURL,
		authflow.WithInviteDelay(c.InviteDelay),
	)

	srv := New(Deps{
		Files:        fo,
		Auth:         auth,
		Provider:     backends.Provider,
		Hub:          hub,
		Logger:       logger,
		SignedURLTTL: c.SignedURLValidity,
	})

	return &App{config: c, logger: logger, backends: backends, files: fo, hub: hub, server: srv}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "listen failed", "address", app.config.HTTPAddr, "error", err)
		cancelFunc()
		return fmt.Errorf("listen %s: %w", app.config.HTTPAddr, err)
	}
	return nil
}

// Run serves until ctx is cancelled or a signal arrives, then closes the
// backends. It fails only when the listener cannot be started.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	// The first listing is best effort; failures are logged and reported.
	_ = app.files.Refresh(ctx)

	var wg sync.WaitGroup
	var serveErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		serveErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.backends.Close(); err != nil {
		app.logger.Error(context.Background(), "close backends", "error", err)
	}
	return serveErr
}
