package authflow

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/identity"
	"github.com/dmitrijs2005/filedeck/internal/logging"
	"github.com/dmitrijs2005/filedeck/internal/notify"
	"github.com/dmitrijs2005/filedeck/internal/sessionstore"
)

const (
	DefaultInviteDelay = time.Second
	// inviteTTL bounds how long a remembered invite code waits for signup.
	inviteTTL = 24 * time.Hour

	landingPath = "/"
	authPath    = "/auth"
)

// Result tells the presentation layer what to do after a submission.
type Result struct {
	Redirect      string            `json:"redirect,omitempty"`
	ClearFragment bool              `json:"clear_fragment,omitempty"`
	OAuthURL      string            `json:"oauth_url,omitempty"`
	Session       *identity.Session `json:"session,omitempty"`
}

// Controller drives the auth screens against an identity.Provider.
type Controller struct {
	provider identity.Provider
	sessions sessionstore.Store
	notifier notify.Notifier
	logger   logging.Logger

	siteURL     string
	inviteDelay time.Duration
	intn        func(n int) int
	afterFunc   func(d time.Duration, f func())
}

type Option func(*Controller)

// WithInviteDelay sets how long after signup a pending invite is redeemed.
func WithInviteDelay(d time.Duration) Option {
	return func(c *Controller) { c.inviteDelay = d }
}

// WithRand replaces the source of username suffixes.
func WithRand(intn func(n int) int) Option {
	return func(c *Controller) { c.intn = intn }
}

// NewController builds a controller. siteURL is the public origin of the
// application and is used for redirect targets handed to the provider.
func NewController(provider identity.Provider, sessions sessionstore.Store, notifier notify.Notifier, logger logging.Logger, siteURL string, opts ...Option) *Controller {
	if notifier == nil {
		notifier = notify.Discard
	}
	c := &Controller{
		provider:    provider,
		sessions:    sessions,
		notifier:    notifier,
		logger:      logger.With("component", "authflow"),
		siteURL:     strings.TrimRight(siteURL, "/"),
		inviteDelay: DefaultInviteDelay,
		intn:        rand.IntN,
		afterFunc:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetEmail updates the email field. On the signup form it also refreshes
// the username unless the user has typed one of their own.
func (c *Controller) SetEmail(s *State, email string) {
	s.Form.Email = email
	if s.View != ViewSignup || s.Method != MethodEmail || !looksGenerated(s.Form.Username) {
		return
	}
	if u := GenerateUsername(email, c.intn); u != "" {
		s.Form.Username = u
	}
}

// RememberInviteCode keeps code for the session until it signs up.
func (c *Controller) RememberInviteCode(ctx context.Context, sid, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	if err := c.sessions.Set(ctx, sid, sessionstore.KeyPendingInviteCode, code, inviteTTL); err != nil {
		return fmt.Errorf("remember invite code: %w", err)
	}
	return nil
}

func (c *Controller) fail(ctx context.Context, title, msg string) {
	c.notifier.Notify(ctx, notify.Error(title, msg))
}

// SubmitEmail handles the email form for both login and signup.
func (c *Controller) SubmitEmail(ctx context.Context, sid string, s *State) (Result, error) {
	if !s.apply(validateEmailForm(*s)) {
		return Result{}, ErrValidation
	}

	if s.View == ViewSignup {
		return c.signUp(ctx, sid, s)
	}

	s.Loading = true
	defer func() { s.Loading = false }()

	session, err := c.provider.SignInWithPassword(ctx, s.Form.Email, s.Form.Password)
	if err != nil {
		c.logger.Warn(ctx, "sign in failed", "email", s.Form.Email, "error", err)
		if errors.Is(err, identity.ErrInvalidCredentials) {
			c.fail(ctx, "Login Failed", "Invalid email or password")
		} else {
			c.fail(ctx, "Error", identity.Message(err, "Failed to sign in"))
		}
		return Result{}, fmt.Errorf("sign in: %w", err)
	}

	c.notifier.Notify(ctx, notify.Success("Welcome back!", "You have successfully logged in"))
	return Result{Redirect: landingPath, Session: &session}, nil
}

func (c *Controller) signUp(ctx context.Context, sid string, s *State) (Result, error) {
	if s.Form.Birthday == "" {
		c.fail(ctx, "Birthday Required", "Please enter your birthday to create an account")
		return Result{}, fmt.Errorf("%w: birthday required", ErrValidation)
	}

	s.Loading = true
	defer func() { s.Loading = false }()

	session, err := c.provider.SignUp(ctx, identity.SignUpParams{
		Email:    s.Form.Email,
		Password: s.Form.Password,
		Username: s.Form.Username,
		Birthday: s.Form.Birthday,
	})
	if err != nil {
		c.logger.Warn(ctx, "sign up failed", "email", s.Form.Email, "error", err)
		if errors.Is(err, identity.ErrAlreadyRegistered) {
			c.fail(ctx, "Account Exists", "This email is already registered. Try logging in.")
		} else {
			c.fail(ctx, "Error", identity.Message(err, "Failed to create account"))
		}
		return Result{}, fmt.Errorf("sign up: %w", err)
	}

	c.redeemPendingInvite(ctx, sid, session.AccessToken)

	c.notifier.Notify(ctx, notify.Success("Account Created!", "Welcome to FileDeck!"))
	return Result{Redirect: landingPath, Session: &session}, nil
}

// redeemPendingInvite consumes the remembered invite code and redeems it
// once the new account has had time to settle.
func (c *Controller) redeemPendingInvite(ctx context.Context, sid, token string) {
	code, err := c.sessions.Take(ctx, sid, sessionstore.KeyPendingInviteCode)
	if err != nil {
		if !errors.Is(err, sessionstore.ErrNotFound) {
			c.logger.Error(ctx, "read pending invite code", "error", err)
		}
		return
	}

	bg := context.WithoutCancel(ctx)
	c.afterFunc(c.inviteDelay, func() {
		ok, err := c.provider.RedeemInviteCode(bg, token, code)
		if err != nil {
			c.logger.Error(bg, "redeem invite code", "code", code, "error", err)
			return
		}
		if ok {
			c.notifier.Notify(bg, notify.Success("Invite Bonus!", "You received 200 Credits and 500 XP from your invite!"))
		}
	})
}

// SubmitPhone sends the one-time code on the first call and verifies it on
// the second.
func (c *Controller) SubmitPhone(ctx context.Context, s *State) (Result, error) {
	if !s.OTPSent {
		if !s.apply(validatePhoneForm(*s)) {
			return Result{}, ErrValidation
		}

		s.Loading = true
		defer func() { s.Loading = false }()

		if err := c.provider.SendOTP(ctx, s.Form.Phone, s.Form.Username); err != nil {
			c.logger.Warn(ctx, "send otp failed", "phone", s.Form.Phone, "error", err)
			c.fail(ctx, "Error", identity.Message(err, "Failed to send verification code"))
			return Result{}, fmt.Errorf("send otp: %w", err)
		}

		s.OTPSent = true
		c.notifier.Notify(ctx, notify.Success("Code Sent!", "Check your phone for the verification code"))
		return Result{}, nil
	}

	s.Loading = true
	defer func() { s.Loading = false }()

	session, err := c.provider.VerifyOTP(ctx, s.Form.Phone, s.Form.OTP)
	if err != nil {
		c.logger.Warn(ctx, "verify otp failed", "phone", s.Form.Phone, "error", err)
		c.fail(ctx, "Error", identity.Message(err, "Invalid verification code"))
		return Result{}, fmt.Errorf("verify otp: %w", err)
	}

	c.notifier.Notify(ctx, notify.Success("Welcome!", "You have successfully logged in"))
	return Result{Redirect: landingPath, Session: &session}, nil
}

// SubmitForgotPassword mails a recovery link that leads back to the auth
// surface.
func (c *Controller) SubmitForgotPassword(ctx context.Context, s *State) (Result, error) {
	if !validEmail(s.Form.Email) {
		s.Errors = map[string]string{FieldEmail: msgInvalidEmail}
		return Result{}, ErrValidation
	}
	s.Errors = nil

	s.Loading = true
	defer func() { s.Loading = false }()

	if err := c.provider.ResetPasswordForEmail(ctx, s.Form.Email, c.siteURL+authPath); err != nil {
		c.logger.Warn(ctx, "reset password email failed", "email", s.Form.Email, "error", err)
		c.fail(ctx, "Error", identity.Message(err, "Failed to send reset email"))
		return Result{}, fmt.Errorf("reset password for email: %w", err)
	}

	c.notifier.Notify(ctx, notify.Success("Reset Email Sent", "Check your email for the password reset link"))
	s.View = ViewLogin
	return Result{}, nil
}

// SubmitResetPassword sets a new password using the recovery token picked
// up by DetectRecovery, or token when the state has none.
func (c *Controller) SubmitResetPassword(ctx context.Context, s *State, token string) (Result, error) {
	if !s.apply(validateResetForm(*s)) {
		return Result{}, ErrValidation
	}
	if s.RecoveryToken != "" {
		token = s.RecoveryToken
	}

	s.Loading = true
	defer func() { s.Loading = false }()

	if err := c.provider.UpdatePassword(ctx, token, s.Form.Password); err != nil {
		c.logger.Warn(ctx, "update password failed", "error", err)
		c.fail(ctx, "Error", identity.Message(err, "Failed to reset password"))
		return Result{}, fmt.Errorf("update password: %w", err)
	}

	c.notifier.Notify(ctx, notify.Success("Password Updated", "Your password has been reset successfully"))
	s.RecoveryToken = ""
	return Result{Redirect: landingPath, ClearFragment: true}, nil
}

// SignInWithOAuth starts the Google flow. On success the state stays
// loading since the visitor is about to leave.
func (c *Controller) SignInWithOAuth(ctx context.Context, s *State) (Result, error) {
	s.Loading = true

	u, err := c.provider.OAuthURL(ctx, identity.ProviderGoogle, c.siteURL+landingPath)
	if err != nil {
		s.Loading = false
		c.logger.Warn(ctx, "oauth url failed", "error", err)
		c.fail(ctx, "Error", identity.Message(err, "Failed to login with Google"))
		return Result{}, fmt.Errorf("oauth: %w", err)
	}
	return Result{OAuthURL: u}, nil
}
