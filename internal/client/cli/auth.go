package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/authflow"
	"github.com/dmitrijs2005/filedeck/internal/identity"
	"github.com/dmitrijs2005/filedeck/internal/notify"
)

var errNotSignedIn = errors.New("not signed in")

// report prints per-field validation errors.
func (a *App) report(st authflow.State, err error) error {
	if !errors.Is(err, authflow.ErrValidation) {
		return nil
	}
	fields := make([]string, 0, len(st.Errors))
	for f := range st.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(a.out, "  %s: %s\n", f, st.Errors[f])
	}
	return nil
}

// finish stores the session of a successful step. Failures have already
// been announced through notifications and are only reported here.
func (a *App) finish(st authflow.State, res authflow.Result, err error) error {
	if err != nil {
		a.report(st, err)
		return nil
	}
	a.setSession(res.Session)
	return nil
}

func (a *App) prompt(label string) (string, error) {
	return getSimpleText(a.reader, label, a.out)
}

func (a *App) Login(ctx context.Context, args []string) error {
	st := authflow.NewState()

	email, err := argOrPrompt(a.reader, a.out, args, "Email")
	if err != nil {
		return err
	}
	st.Form.Email = email
	if st.Form.Password, err = getPassword(a.out, "Password"); err != nil {
		return err
	}

	res, err := a.auth.SubmitEmail(ctx, a.sid, &st)
	return a.finish(st, res, err)
}

func (a *App) Signup(ctx context.Context, args []string) error {
	st := authflow.NewState()
	st.ToggleSignup()

	email, err := argOrPrompt(a.reader, a.out, args, "Email")
	if err != nil {
		return err
	}
	a.auth.SetEmail(&st, email)

	if st.Form.Username, err = promptDefault(a.reader, a.out, "Username", st.Form.Username); err != nil {
		return err
	}
	if st.Form.Birthday, err = a.prompt("Birthday (YYYY-MM-DD)"); err != nil {
		return err
	}
	if st.Form.Password, err = getPassword(a.out, "Password"); err != nil {
		return err
	}

	res, err := a.auth.SubmitEmail(ctx, a.sid, &st)
	return a.finish(st, res, err)
}

// Phone signs in with a one-time SMS code in two steps.
func (a *App) Phone(ctx context.Context, args []string) error {
	st := authflow.NewState()
	st.SetMethod(authflow.MethodPhone)

	phone, err := argOrPrompt(a.reader, a.out, args, "Phone (+1234567890)")
	if err != nil {
		return err
	}
	st.Form.Phone = phone
	if st.Form.Username, err = a.prompt("Username (optional)"); err != nil {
		return err
	}

	if _, err := a.auth.SubmitPhone(ctx, &st); err != nil {
		return a.report(st, err)
	}

	if st.Form.OTP, err = a.prompt("Verification code"); err != nil {
		return err
	}
	res, err := a.auth.SubmitPhone(ctx, &st)
	return a.finish(st, res, err)
}

func (a *App) Forgot(ctx context.Context, args []string) error {
	st := authflow.NewState()
	st.SetView(authflow.ViewForgotPassword)

	email, err := argOrPrompt(a.reader, a.out, args, "Email")
	if err != nil {
		return err
	}
	st.Form.Email = email

	_, err = a.auth.SubmitForgotPassword(ctx, &st)
	return a.report(st, err)
}

// fragmentOf returns the part after '#' of a pasted link, or the input
// itself when it already is a fragment.
func fragmentOf(link string) string {
	if i := strings.IndexByte(link, '#'); i >= 0 {
		return link[i+1:]
	}
	return link
}

// Reset sets a new password. The argument is the recovery link from the
// email; without it the current session is used.
func (a *App) Reset(ctx context.Context, args []string) error {
	st := authflow.NewState()

	token := ""
	if len(args) > 0 {
		if !st.DetectRecovery(fragmentOf(args[0])) {
			return usage("reset <recovery link>")
		}
	} else {
		if !a.isLoggedIn() {
			return usage("reset <recovery link>")
		}
		st.SetView(authflow.ViewResetPassword)
		token = a.session.AccessToken
	}

	var err error
	if st.Form.Password, st.Form.ConfirmPassword, err = newPassword(a.out); err != nil {
		return err
	}

	_, err = a.auth.SubmitResetPassword(ctx, &st, token)
	return a.report(st, err)
}

// OAuth prints the consent URL and completes sign-in from the link the
// browser lands on.
func (a *App) OAuth(ctx context.Context, _ []string) error {
	st := authflow.NewState()
	res, err := a.auth.SignInWithOAuth(ctx, &st)
	if err != nil {
		return nil
	}

	fmt.Fprintln(a.out, "Open this URL in your browser:")
	fmt.Fprintln(a.out, res.OAuthURL)

	link, err := a.prompt("Paste the address you were redirected to")
	if err != nil {
		return err
	}
	session, err := a.sessionFromFragment(ctx, fragmentOf(link))
	if err != nil {
		a.notifier.Notify(ctx, notify.Error("Error", identity.Message(err, "Failed to login with Google")))
		return nil
	}
	a.setSession(&session)
	fmt.Fprintln(a.out, "Signed in as", session.User.Email)
	return nil
}

func (a *App) sessionFromFragment(ctx context.Context, fragment string) (identity.Session, error) {
	params, err := url.ParseQuery(fragment)
	if err != nil {
		return identity.Session{}, err
	}
	token := params.Get("access_token")
	if token == "" {
		return identity.Session{}, identity.ErrInvalidToken
	}
	user, err := a.provider.GetUser(ctx, token)
	if err != nil {
		return identity.Session{}, err
	}
	s := identity.Session{AccessToken: token, RefreshToken: params.Get("refresh_token"), User: user}
	if exp, err := strconv.ParseInt(params.Get("expires_at"), 10, 64); err == nil {
		s.ExpiresAt = time.Unix(exp, 0)
	}
	return s, nil
}

// Invite redeems code right away when signed in, otherwise it is kept for
// the next signup.
func (a *App) Invite(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("invite <code>")
	}
	if !a.isLoggedIn() {
		if err := a.auth.RememberInviteCode(ctx, a.sid, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Invite code saved; it will be applied when you sign up.")
		return nil
	}

	ok, err := a.provider.RedeemInviteCode(ctx, a.session.AccessToken, args[0])
	if err != nil {
		return err
	}
	if ok {
		a.notifier.Notify(ctx, notify.Success("Invite Bonus!", "You received 200 Credits and 500 XP from your invite!"))
	} else {
		fmt.Fprintln(a.out, "Invite code was not accepted.")
	}
	return nil
}

func (a *App) WhoAmI(ctx context.Context, _ []string) error {
	if !a.isLoggedIn() {
		return errNotSignedIn
	}
	u, err := a.provider.GetUser(ctx, a.session.AccessToken)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "id:       %s\n", u.ID)
	if u.Email != "" {
		fmt.Fprintf(a.out, "email:    %s\n", u.Email)
	}
	if u.Phone != "" {
		fmt.Fprintf(a.out, "phone:    %s\n", u.Phone)
	}
	if u.Username != "" {
		fmt.Fprintf(a.out, "username: %s\n", u.Username)
	}
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	a.session = nil
	if err := a.tokens.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}
