// Package local is a self-hosted identity.Provider on PostgreSQL. Accounts,
// pending one-time codes and invite codes live in the database; sessions
// are stateless HS256 tokens.
package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/dmitrijs2005/filedeck/internal/cryptox"
	"github.com/dmitrijs2005/filedeck/internal/dbx"
	"github.com/dmitrijs2005/filedeck/internal/identity"
	"github.com/dmitrijs2005/filedeck/internal/identity/local/repositories/otps"
	"github.com/dmitrijs2005/filedeck/internal/identity/local/repositories/repomanager"
	"github.com/dmitrijs2005/filedeck/internal/identity/local/repositories/users"
	"github.com/dmitrijs2005/filedeck/internal/logging"
)

const (
	DefaultTokenTTL    = time.Hour
	DefaultRecoveryTTL = time.Hour
	DefaultOTPTTL      = 5 * time.Minute

	otpDigits     = 6
	stateTTL      = 10 * time.Minute
	inviteCredits = 200
	inviteXP      = 500
)

type Config struct {
	Secret      []byte
	TokenTTL    time.Duration
	RecoveryTTL time.Duration
	OTPTTL      time.Duration
}

type Service struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	tokens   tokenIssuer
	cfg      Config
	sender   Sender
	mailer   Mailer
	oauth    *oauth2.Config
	userInfo string
	logger   logging.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithSender(s Sender) Option {
	return func(svc *Service) { svc.sender = s }
}

func WithMailer(m Mailer) Option {
	return func(svc *Service) { svc.mailer = m }
}

// WithGoogle enables the Google OAuth flow. cfg.RedirectURL must point at
// the callback route of this server.
func WithGoogle(cfg *oauth2.Config) Option {
	return func(svc *Service) { svc.oauth = cfg }
}

func NewService(db *sql.DB, repos repomanager.RepositoryManager, cfg Config, logger logging.Logger, opts ...Option) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret cannot be empty")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.RecoveryTTL <= 0 {
		cfg.RecoveryTTL = DefaultRecoveryTTL
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = DefaultOTPTTL
	}

	logger = logger.With("component", "identity")
	svc := &Service{
		db:       db,
		repos:    repos,
		cfg:      cfg,
		sender:   LogDelivery{Logger: logger},
		mailer:   LogDelivery{Logger: logger},
		userInfo: googleUserInfoURL,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.tokens = tokenIssuer{secret: cfg.Secret, now: func() time.Time { return svc.now() }}
	return svc, nil
}

func toIdentityUser(u *users.User) identity.User {
	return identity.User{
		ID:        u.ID,
		Email:     u.Email,
		Phone:     u.Phone,
		Username:  u.Username,
		Birthday:  u.Birthday,
		CreatedAt: u.CreatedAt,
	}
}

func (s *Service) issueSession(u *users.User) (identity.Session, error) {
	token, expires, err := s.tokens.generate(Claims{UserID: u.ID, Purpose: purposeAccess}, s.cfg.TokenTTL)
	if err != nil {
		return identity.Session{}, fmt.Errorf("issue token: %w", err)
	}
	return identity.Session{AccessToken: token, ExpiresAt: expires, User: toIdentityUser(u)}, nil
}

func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (identity.Session, error) {
	u, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return identity.Session{}, identity.ErrInvalidCredentials
		}
		return identity.Session{}, err
	}
	if u.PasswordHash == "" {
		return identity.Session{}, identity.ErrInvalidCredentials
	}

	ok, err := cryptox.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		return identity.Session{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return identity.Session{}, identity.ErrInvalidCredentials
	}
	return s.issueSession(u)
}

// SignUp creates the account and signs it in right away; there is no
// confirmation step.
func (s *Service) SignUp(ctx context.Context, p identity.SignUpParams) (identity.Session, error) {
	repo := s.repos.Users(s.db)

	if _, err := repo.GetByEmail(ctx, p.Email); err == nil {
		return identity.Session{}, identity.ErrAlreadyRegistered
	} else if !errors.Is(err, users.ErrNotFound) {
		return identity.Session{}, err
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return identity.Session{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := repo.Create(ctx, &users.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(p.Email),
		Username:     p.Username,
		Birthday:     p.Birthday,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, users.ErrExists) {
			return identity.Session{}, identity.ErrAlreadyRegistered
		}
		return identity.Session{}, err
	}

	s.logger.Info(ctx, "user signed up", "user_id", u.ID)
	return s.issueSession(u)
}

func (s *Service) SendOTP(ctx context.Context, phone, username string) error {
	code, err := cryptox.RandomDigits(otpDigits)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	err = s.repos.OTPs(s.db).Put(ctx, &otps.Code{
		Phone:     phone,
		CodeHash:  cryptox.VerifierHex(code),
		Username:  username,
		ExpiresAt: s.now().Add(s.cfg.OTPTTL),
	})
	if err != nil {
		return err
	}

	return s.sender.SendSMS(ctx, phone, fmt.Sprintf("Your FileDeck code is %s", code))
}

// VerifyOTP checks the code and signs the phone in, creating the account
// on first use.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (identity.Session, error) {
	var u *users.User

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		codes := s.repos.OTPs(tx)
		pending, err := codes.Get(ctx, phone)
		if err != nil {
			if errors.Is(err, otps.ErrNotFound) {
				return identity.ErrInvalidOTP
			}
			return err
		}
		if !s.now().Before(pending.ExpiresAt) || !cryptox.ConstantTimeEqual(pending.CodeHash, cryptox.VerifierHex(code)) {
			return identity.ErrInvalidOTP
		}
		if err := codes.Delete(ctx, phone); err != nil {
			return err
		}

		repo := s.repos.Users(tx)
		u, err = repo.GetByPhone(ctx, phone)
		if errors.Is(err, users.ErrNotFound) {
			u, err = repo.Create(ctx, &users.User{ID: uuid.NewString(), Phone: phone, Username: pending.Username})
		}
		return err
	})
	if err != nil {
		return identity.Session{}, err
	}

	return s.issueSession(u)
}

func (s *Service) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	u, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// unknown addresses get the same answer as known ones
			s.logger.Debug(ctx, "recovery for unknown email", "email", email)
			return nil
		}
		return err
	}

	token, expires, err := s.tokens.generate(Claims{UserID: u.ID, Purpose: purposeRecovery}, s.cfg.RecoveryTTL)
	if err != nil {
		return fmt.Errorf("issue recovery token: %w", err)
	}

	link := withFragment(redirectTo, url.Values{
		"access_token": {token},
		"expires_at":   {strconv.FormatInt(expires.Unix(), 10)},
		"token_type":   {"bearer"},
		"type":         {"recovery"},
	})
	body := fmt.Sprintf("Follow this link to reset your password:\n\n%s\n", link)
	return s.mailer.SendMail(ctx, u.Email, "Reset your password", body)
}

func (s *Service) UpdatePassword(ctx context.Context, token, password string) error {
	claims, err := s.tokens.parse(token, purposeAccess, purposeRecovery)
	if err != nil {
		return err
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repos.Users(s.db).UpdatePassword(ctx, claims.UserID, hash); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return identity.ErrInvalidToken
		}
		return err
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, token string) (identity.User, error) {
	claims, err := s.tokens.parse(token, purposeAccess)
	if err != nil {
		return identity.User{}, err
	}
	u, err := s.repos.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return identity.User{}, identity.ErrInvalidToken
		}
		return identity.User{}, err
	}
	return toIdentityUser(u), nil
}

// RedeemInviteCode grants the invite bonus once per code.
func (s *Service) RedeemInviteCode(ctx context.Context, token, code string) (bool, error) {
	claims, err := s.tokens.parse(token, purposeAccess)
	if err != nil {
		return false, err
	}

	var granted bool
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := s.repos.Invites(tx).Redeem(ctx, code, claims.UserID)
		if err != nil || !ok {
			return err
		}
		if err := s.repos.Users(tx).AddRewards(ctx, claims.UserID, inviteCredits, inviteXP); err != nil {
			return err
		}
		granted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if granted {
		s.logger.Info(ctx, "invite redeemed", "user_id", claims.UserID, "code", code)
	}
	return granted, nil
}

// withFragment appends params as the URL fragment of base.
func withFragment(base string, params url.Values) string {
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base = base[:i]
	}
	return base + "#" + params.Encode()
}
