package local

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/cryptox"
	"github.com/dmitrijs2005/filedeck/internal/identity"
	"github.com/dmitrijs2005/filedeck/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ identity.Provider = (*Service)(nil)

func TestNewService_RequiresSecret(t *testing.T) {
	_, err := NewService(nil, &fakeManager{}, Config{}, logging.Nop())
	assert.Error(t, err)
}

func TestSignUpAndSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.svc.SignUp(ctx, identity.SignUpParams{Email: "Alice@Example.com", Password: "secret1", Username: "alice42", Birthday: "2000-01-01"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.AccessToken)
	assert.Equal(t, f.now.Add(DefaultTokenTTL), s.ExpiresAt)
	assert.Equal(t, "alice@example.com", s.User.Email)
	assert.Equal(t, "alice42", s.User.Username)

	_, err = f.svc.SignUp(ctx, identity.SignUpParams{Email: "alice@example.com", Password: "other1"})
	assert.ErrorIs(t, err, identity.ErrAlreadyRegistered)

	s, err = f.svc.SignInWithPassword(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	u, err := f.svc.GetUser(ctx, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "2000-01-01", u.Birthday)

	_, err = f.svc.SignInWithPassword(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = f.svc.SignInWithPassword(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestGetUser_RejectsExpiredAndForeignTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.svc.SignUp(ctx, identity.SignUpParams{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	f.now = f.now.Add(2 * DefaultTokenTTL)
	_, err = f.svc.GetUser(ctx, s.AccessToken)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	_, err = f.svc.GetUser(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)

	other := tokenIssuer{secret: []byte("other"), now: func() time.Time { return f.now }}
	forged, _, err := other.generate(Claims{UserID: s.User.ID, Purpose: purposeAccess}, time.Hour)
	require.NoError(t, err)
	_, err = f.svc.GetUser(ctx, forged)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

var codePattern = regexp.MustCompile(`\d{6}$`)

func TestOTPFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOTP(ctx, "+15551234567", "bob"))
	require.Len(t, f.delivery.sms, 1)
	code := codePattern.FindString(f.delivery.sms[0])
	require.NotEmpty(t, code)
	assert.Equal(t, cryptox.VerifierHex(code), f.repos.otps.codes["+15551234567"].CodeHash)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.VerifyOTP(ctx, "+15551234567", "000000x")
	assert.ErrorIs(t, err, identity.ErrInvalidOTP)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	s, err := f.svc.VerifyOTP(ctx, "+15551234567", code)
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", s.User.Phone)
	assert.Equal(t, "bob", s.User.Username)
	assert.Empty(t, f.repos.otps.codes, "code is single use")

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.svc.VerifyOTP(ctx, "+15551234567", code)
	assert.ErrorIs(t, err, identity.ErrInvalidOTP)

	// a second login reuses the account
	require.NoError(t, f.svc.SendOTP(ctx, "+15551234567", ""))
	code = codePattern.FindString(f.delivery.sms[1])
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	s2, err := f.svc.VerifyOTP(ctx, "+15551234567", code)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, s2.User.ID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestVerifyOTP_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOTP(ctx, "+15551234567", ""))
	code := codePattern.FindString(f.delivery.sms[0])

	f.now = f.now.Add(DefaultOTPTTL)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err := f.svc.VerifyOTP(ctx, "+15551234567", code)
	assert.ErrorIs(t, err, identity.ErrInvalidOTP)
}

func TestPasswordRecovery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, identity.SignUpParams{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.ResetPasswordForEmail(ctx, "nobody@b.com", "https://app.example.com/auth"))
	assert.Empty(t, f.delivery.mail)

	require.NoError(t, f.svc.ResetPasswordForEmail(ctx, "a@b.com", "https://app.example.com/auth"))
	require.Len(t, f.delivery.mail, 1)
	assert.True(t, strings.HasPrefix(f.delivery.mail[0], "a@b.com|Reset your password|"))

	i := strings.Index(f.delivery.mail[0], "https://app.example.com/auth#")
	require.GreaterOrEqual(t, i, 0)
	link := strings.TrimSpace(f.delivery.mail[0][i:])
	u, err := url.Parse(link)
	require.NoError(t, err)
	frag, err := url.ParseQuery(u.Fragment)
	require.NoError(t, err)
	assert.Equal(t, "recovery", frag.Get("type"))
	recovery := frag.Get("access_token")

	_, err = f.svc.GetUser(ctx, recovery)
	assert.ErrorIs(t, err, identity.ErrInvalidToken, "recovery tokens are not sessions")

	require.NoError(t, f.svc.UpdatePassword(ctx, recovery, "brandnew"))

	_, err = f.svc.SignInWithPassword(ctx, "a@b.com", "secret1")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	_, err = f.svc.SignInWithPassword(ctx, "a@b.com", "brandnew")
	assert.NoError(t, err)

	assert.ErrorIs(t, f.svc.UpdatePassword(ctx, "garbage", "x"), identity.ErrInvalidToken)
}

func TestRedeemInviteCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repos.invites.open["INV42"] = true

	s, err := f.svc.SignUp(ctx, identity.SignUpParams{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	ok, err := f.svc.RedeemInviteCode(ctx, s.AccessToken, "INV42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, [2]int{200, 500}, f.repos.users.rewards[s.User.ID])

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	ok, err = f.svc.RedeemInviteCode(ctx, s.AccessToken, "INV42")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, [2]int{200, 500}, f.repos.users.rewards[s.User.ID])

	_, err = f.svc.RedeemInviteCode(ctx, "", "INV42")
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestWithFragment(t *testing.T) {
	v := url.Values{"type": {"recovery"}}
	assert.Equal(t, "https://x/auth#type=recovery", withFragment("https://x/auth", v))
	assert.Equal(t, "https://x/auth#type=recovery", withFragment("https://x/auth#old", v))
}
