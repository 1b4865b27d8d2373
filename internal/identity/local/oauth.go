package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dmitrijs2005/filedeck/internal/identity"
	"github.com/dmitrijs2005/filedeck/internal/identity/local/repositories/users"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var ErrOAuthNotConfigured = errors.New("oauth provider is not configured")

// GoogleConfig builds the OAuth client configuration for the Google flow.
func GoogleConfig(clientID, clientSecret, callbackURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// OAuthURL returns the Google consent URL. The state parameter is a
// short-lived signed token holding redirectTo, so the callback needs no
// server-side storage.
func (s *Service) OAuthURL(_ context.Context, provider, redirectTo string) (string, error) {
	if provider != identity.ProviderGoogle {
		return "", fmt.Errorf("%w: %s", identity.ErrUnsupportedProvider, provider)
	}
	if s.oauth == nil || s.oauth.ClientID == "" {
		return "", ErrOAuthNotConfigured
	}

	state, _, err := s.tokens.generate(Claims{Purpose: purposeState, RedirectTo: redirectTo}, stateTTL)
	if err != nil {
		return "", fmt.Errorf("issue state: %w", err)
	}
	return s.oauth.AuthCodeURL(state), nil
}

// HandleOAuthCallback completes the Google flow and returns where to send
// the browser: the original redirect target with the session in the
// fragment.
func (s *Service) HandleOAuthCallback(ctx context.Context, state, code string) (string, error) {
	if s.oauth == nil {
		return "", ErrOAuthNotConfigured
	}
	claims, err := s.tokens.parse(state, purposeState)
	if err != nil {
		return "", fmt.Errorf("oauth state: %w", err)
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}

	gu, err := s.fetchGoogleUser(ctx, tok)
	if err != nil {
		return "", err
	}
	if gu.Email == "" {
		return "", errors.New("google account has no email")
	}

	u, err := s.findOrCreateGoogleUser(ctx, gu)
	if err != nil {
		return "", err
	}

	session, err := s.issueSession(u)
	if err != nil {
		return "", err
	}

	return withFragment(claims.RedirectTo, url.Values{
		"access_token": {session.AccessToken},
		"expires_at":   {strconv.FormatInt(session.ExpiresAt.Unix(), 10)},
		"token_type":   {"bearer"},
	}), nil
}

func (s *Service) fetchGoogleUser(ctx context.Context, tok *oauth2.Token) (*googleUser, error) {
	client := s.oauth.Client(ctx, tok)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfo, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var gu googleUser
	if err := json.Unmarshal(body, &gu); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &gu, nil
}

func (s *Service) findOrCreateGoogleUser(ctx context.Context, gu *googleUser) (*users.User, error) {
	repo := s.repos.Users(s.db)

	u, err := repo.GetByEmail(ctx, gu.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, err
	}

	s.logger.Info(ctx, "creating user from google account", "email", gu.Email)
	return repo.Create(ctx, &users.User{ID: uuid.NewString(), Email: gu.Email, Username: gu.Name})
}
