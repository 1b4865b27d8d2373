// Package authflow drives the sign-in surface: which form is shown, how it
// is validated and which identity call a submission makes. It holds no
// presentation; results come back as values and messages go through a
// notifier.
package authflow

import (
	"net/url"
	"strings"
)

type View string

const (
	ViewLogin          View = "login"
	ViewSignup         View = "signup"
	ViewForgotPassword View = "forgot-password"
	ViewResetPassword  View = "reset-password"
)

type Method string

const (
	MethodEmail Method = "email"
	MethodPhone Method = "phone"
)

type Form struct {
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Username        string `json:"username"`
	Birthday        string `json:"birthday"`
	OTP             string `json:"otp"`
}

// State is everything the auth surface needs to render. It is a plain
// value so it can travel through a stateless transport.
type State struct {
	View    View              `json:"view"`
	Method  Method            `json:"method"`
	Form    Form              `json:"form"`
	Errors  map[string]string `json:"errors,omitempty"`
	OTPSent bool              `json:"otp_sent"`
	Loading bool              `json:"loading"`
	// RecoveryToken is the access token of a password recovery link.
	RecoveryToken string `json:"recovery_token,omitempty"`
}

func NewState() State {
	return State{View: ViewLogin, Method: MethodEmail}
}

// Normalize fills in defaults for a state decoded from a request.
func (s *State) Normalize() {
	switch s.View {
	case ViewLogin, ViewSignup, ViewForgotPassword, ViewResetPassword:
	default:
		s.View = ViewLogin
	}
	if s.Method != MethodPhone {
		s.Method = MethodEmail
	}
}

// DetectRecovery switches to the reset-password view when fragment (the
// part of the URL after '#') is a password recovery link.
func (s *State) DetectRecovery(fragment string) bool {
	params, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return false
	}
	token := params.Get("access_token")
	if params.Get("type") != "recovery" || token == "" {
		return false
	}
	s.View = ViewResetPassword
	s.RecoveryToken = token
	return true
}

// ShouldRedirect reports whether a signed-in visitor should leave the auth
// surface. The reset-password view stays reachable with a session.
func (s State) ShouldRedirect(sessionActive bool) bool {
	return sessionActive && s.View != ViewResetPassword
}

func (s *State) SetView(v View) {
	s.View = v
}

// ToggleSignup flips between login and signup and starts over with a
// clean OTP step.
func (s *State) ToggleSignup() {
	if s.View == ViewSignup {
		s.View = ViewLogin
	} else {
		s.View = ViewSignup
	}
	s.OTPSent = false
	s.Form.OTP = ""
	s.Errors = nil
}

func (s *State) SetMethod(m Method) {
	s.Method = m
}

// UseDifferentPhone goes back to the phone number step.
func (s *State) UseDifferentPhone() {
	s.OTPSent = false
	s.Form.OTP = ""
}
