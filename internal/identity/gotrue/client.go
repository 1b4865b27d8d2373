// Package gotrue is an identity.Provider backed by a hosted GoTrue-compatible
// auth API and the platform's RPC endpoint.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	gotrueapi "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/dmitrijs2005/filedeck/internal/identity"
)

const defaultTimeout = 15 * time.Second

type Config struct {
	// AuthURL is the base of the auth API, e.g. https://<ref>.supabase.co/auth/v1.
	AuthURL string
	// RestURL is the base of the RPC API, e.g. https://<ref>.supabase.co/rest/v1.
	RestURL string
	// APIKey is the public (anon) key sent with every request.
	APIKey string
}

// Client talks to the auth API through the gotrue-go SDK. Calls the SDK
// cannot express (redirect_to on recovery, JSON replies from POST /verify,
// database RPC) go through do.
type Client struct {
	api     gotrueapi.Client
	authURL string
	restURL string
	apiKey  string
	http    *http.Client
	now     func() time.Time
}

func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.AuthURL == "" {
		return nil, errors.New("auth url cannot be empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	authURL := strings.TrimRight(cfg.AuthURL, "/")

	api := gotrueapi.New("", cfg.APIKey).
		WithCustomGoTrueURL(authURL).
		WithClient(*httpClient)
	if cfg.APIKey != "" {
		api = api.WithToken(cfg.APIKey)
	}

	return &Client{
		api:     api,
		authURL: authURL,
		restURL: strings.TrimRight(cfg.RestURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		now:     time.Now,
	}, nil
}

func toUser(u types.User) identity.User {
	out := identity.User{
		Email:     u.Email,
		Phone:     u.Phone,
		Username:  metaString(u.UserMetadata, "username"),
		Birthday:  metaString(u.UserMetadata, "birthday"),
		CreatedAt: u.CreatedAt,
	}
	if u.ID != uuid.Nil {
		out.ID = u.ID.String()
	}
	return out
}

func metaString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func (c *Client) toSession(s types.Session) identity.Session {
	out := identity.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		User:         toUser(s.User),
	}
	switch {
	case s.ExpiresAt > 0:
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0).UTC()
	case s.ExpiresIn > 0:
		out.ExpiresAt = c.now().Add(time.Duration(s.ExpiresIn) * time.Second).UTC()
	}
	return out
}

type errorDTO struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func decodeError(status int, body []byte) error {
	var e errorDTO
	_ = json.Unmarshal(body, &e)

	apiErr := &identity.APIError{Status: status, Code: e.ErrorCode}
	for _, m := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	if apiErr.Code == "" && e.Error != "" && e.Error != apiErr.Message {
		apiErr.Code = e.Error
	}
	if apiErr.Code == "" && len(e.Code) > 0 && e.Code[0] == '"' {
		_ = json.Unmarshal(e.Code, &apiErr.Code)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// sdkStatus matches the error text the SDK returns for non-2xx replies.
var sdkStatus = regexp.MustCompile(`(?s)^response status code (\d+)(?:: (.*))?$`)

// sdkError turns an SDK error back into an *identity.APIError when it
// carries an HTTP status; other errors are wrapped with op.
func sdkError(op string, err error) error {
	m := sdkStatus.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	status, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return decodeError(status, []byte(m[2]))
}

// do sends a JSON request and decodes a JSON response into out when out is
// not nil. token, when set, replaces the API key as bearer credential.
func (c *Client) do(ctx context.Context, method, rawURL, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	bearer := c.apiKey
	if token != "" {
		bearer = token
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (identity.Session, error) {
	if err := ctx.Err(); err != nil {
		return identity.Session{}, err
	}
	res, err := c.api.SignInWithEmailPassword(email, password)
	if err != nil {
		return identity.Session{}, sdkError("sign in", err)
	}
	return c.toSession(res.Session), nil
}

// SignUp registers an email account. When the project requires email
// confirmation the response holds only the user and the session has no
// access token.
func (c *Client) SignUp(ctx context.Context, p identity.SignUpParams) (identity.Session, error) {
	if err := ctx.Err(); err != nil {
		return identity.Session{}, err
	}
	res, err := c.api.Signup(types.SignupRequest{
		Email:    p.Email,
		Password: p.Password,
		Data: map[string]any{
			"username": p.Username,
			"birthday": p.Birthday,
		},
	})
	if err != nil {
		return identity.Session{}, sdkError("sign up", err)
	}
	if res.Session.AccessToken == "" {
		return identity.Session{User: toUser(res.User)}, nil
	}
	return c.toSession(res.Session), nil
}

func (c *Client) SendOTP(ctx context.Context, phone, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := types.OTPRequest{Phone: phone, CreateUser: true}
	if username != "" {
		req.Data = map[string]any{"username": username}
	}
	if err := c.api.OTP(req); err != nil {
		return sdkError("send otp", err)
	}
	return nil
}

// VerifyOTP posts the code to /verify. The hosted service answers an SMS
// verification with the session as JSON.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (identity.Session, error) {
	var s types.Session
	err := c.do(ctx, http.MethodPost, c.authURL+"/verify", "",
		map[string]string{"type": types.VerificationTypeSMS, "phone": phone, "token": code}, &s)
	if err != nil {
		return identity.Session{}, err
	}
	return c.toSession(s), nil
}

// OAuthURL builds the authorize URL; the hosted service takes it from
// there and returns to redirectTo with the session in the fragment.
func (c *Client) OAuthURL(_ context.Context, provider, redirectTo string) (string, error) {
	if provider == "" {
		return "", identity.ErrUnsupportedProvider
	}
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.authURL + "/authorize?" + q.Encode(), nil
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	if redirectTo == "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.api.Recover(types.RecoverRequest{Email: email}); err != nil {
			return sdkError("recover", err)
		}
		return nil
	}
	u := c.authURL + "/recover?" + url.Values{"redirect_to": {redirectTo}}.Encode()
	return c.do(ctx, http.MethodPost, u, "", map[string]string{"email": email}, nil)
}

func (c *Client) UpdatePassword(ctx context.Context, token, password string) error {
	if token == "" {
		return identity.ErrInvalidToken
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.WithToken(token).UpdateUser(types.UpdateUserRequest{Password: &password}); err != nil {
		return sdkError("update user", err)
	}
	return nil
}

func (c *Client) GetUser(ctx context.Context, token string) (identity.User, error) {
	if token == "" {
		return identity.User{}, identity.ErrInvalidToken
	}
	if err := ctx.Err(); err != nil {
		return identity.User{}, err
	}
	res, err := c.api.WithToken(token).GetUser()
	if err != nil {
		return identity.User{}, sdkError("get user", err)
	}
	return toUser(res.User), nil
}

// RedeemInviteCode calls the redeem_invite_code database function. Any
// truthy reply counts as granted, so an object or array grants as well as
// true, a non-zero number or a non-empty string.
func (c *Client) RedeemInviteCode(ctx context.Context, token, code string) (bool, error) {
	if c.restURL == "" {
		return false, errors.New("rest url is not configured")
	}
	var reply any
	err := c.do(ctx, http.MethodPost, c.restURL+"/rpc/redeem_invite_code", token,
		map[string]string{"_code": code}, &reply)
	if err != nil {
		return false, err
	}
	return truthy(reply), nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
