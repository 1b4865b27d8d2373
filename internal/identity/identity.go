// Package identity defines the contract of the identity backend: password
// and phone sign-in, OAuth, password recovery and invite redemption.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidCredentials  = errors.New("invalid login credentials")
	ErrAlreadyRegistered   = errors.New("user already registered")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInvalidOTP          = errors.New("token has expired or is invalid")
	ErrUnsupportedProvider = errors.New("unsupported oauth provider")
)

const ProviderGoogle = "google"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Username  string    `json:"username,omitempty"`
	Birthday  string    `json:"birthday,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is an authenticated session. AccessToken is empty when the
// backend requires a confirmation step before signing the user in.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Active reports whether the session carries a token that has not expired.
func (s Session) Active(now time.Time) bool {
	if s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

type SignUpParams struct {
	Email    string
	Password string
	Username string
	Birthday string
}

type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, p SignUpParams) (Session, error)
	// SendOTP texts a one-time code; username is stored as profile data
	// when the phone number signs up.
	SendOTP(ctx context.Context, phone, username string) error
	VerifyOTP(ctx context.Context, phone, code string) (Session, error)
	// OAuthURL returns where the browser must go to start the provider flow.
	OAuthURL(ctx context.Context, provider, redirectTo string) (string, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, token, password string) error
	GetUser(ctx context.Context, token string) (User, error)
	// RedeemInviteCode reports whether the code granted a bonus.
	RedeemInviteCode(ctx context.Context, token, code string) (bool, error)
}

// APIError is an error reported by a remote identity service. It matches
// the package sentinels by message so callers can use errors.Is.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	msg := strings.ToLower(e.Message)
	switch target {
	case ErrInvalidCredentials:
		return strings.Contains(msg, "invalid login credentials")
	case ErrAlreadyRegistered:
		return strings.Contains(msg, "already registered")
	case ErrInvalidOTP:
		return e.Code == "otp_expired" || strings.Contains(msg, "token has expired or is invalid")
	case ErrInvalidToken:
		return e.Status == 401 || e.Code == "bad_jwt"
	}
	return false
}

// Message returns the text to show a user for err, or fallback when err
// carries nothing useful.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err == nil || err.Error() == "" {
		return fallback
	}
	for _, sentinel := range []error{ErrInvalidCredentials, ErrAlreadyRegistered, ErrInvalidToken, ErrInvalidOTP, ErrUnsupportedProvider} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return fallback
}
