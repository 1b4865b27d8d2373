package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/filedeck/internal/authflow"
	"github.com/dmitrijs2005/filedeck/internal/notify"
	"github.com/gin-gonic/gin"
)

// authRequest carries the auth surface state; the handlers keep nothing
// between requests.
type authRequest struct {
	State    authflow.State `json:"state"`
	Fragment string         `json:"fragment,omitempty"`
	Email    string         `json:"email,omitempty"`
	Action   string         `json:"action,omitempty"`
	Value    string         `json:"value,omitempty"`
}

type authResponse struct {
	State          authflow.State        `json:"state"`
	Result         authflow.Result       `json:"result"`
	ShouldRedirect bool                  `json:"should_redirect"`
	Notifications  []notify.Notification `json:"notifications"`
	Error          string                `json:"error,omitempty"`
}

const (
	actionToggleSignup      = "toggle_signup"
	actionSetView           = "set_view"
	actionSetMethod         = "set_method"
	actionUseDifferentPhone = "use_different_phone"
)

func (s *Server) bindAuth(c *gin.Context) (*authRequest, bool) {
	req := &authRequest{State: authflow.NewState()}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody(fmt.Errorf("decode request: %w", err)))
			return nil, false
		}
	}
	req.State.Normalize()
	return req, true
}

type submitFunc func(ctx context.Context, sid string, st *authflow.State) (authflow.Result, error)

// submit runs one flow step and answers with the new state, the result and
// the notifications raised on the way.
func (s *Server) submit(c *gin.Context, prepare func(*authflow.State), run submitFunc) {
	req, ok := s.bindAuth(c)
	if !ok {
		return
	}
	if prepare != nil {
		prepare(&req.State)
	}

	ctx, rn := s.withRequestNotifier(c)
	res, err := run(ctx, sessionFrom(c), &req.State)

	resp := authResponse{
		State:         req.State,
		Result:        res,
		Notifications: rn.finish(),
	}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		resp.Error = err.Error()
	}
	c.JSON(status, resp)
}

// authState applies a recovery link fragment and tells the surface whether
// a signed-in visitor should be sent to the landing page.
func (s *Server) authState(c *gin.Context) {
	req, ok := s.bindAuth(c)
	if !ok {
		return
	}
	if req.Fragment != "" {
		req.State.DetectRecovery(req.Fragment)
	}

	active := false
	if token := bearerToken(c); token != "" {
		if _, err := s.provider.GetUser(c.Request.Context(), token); err == nil {
			active = true
		}
	}

	c.JSON(http.StatusOK, authResponse{
		State:          req.State,
		ShouldRedirect: req.State.ShouldRedirect(active),
		Notifications:  []notify.Notification{},
	})
}

func (s *Server) authTransition(c *gin.Context) {
	req, ok := s.bindAuth(c)
	if !ok {
		return
	}
	st := &req.State
	switch req.Action {
	case actionToggleSignup:
		st.ToggleSignup()
	case actionSetView:
		st.SetView(authflow.View(req.Value))
		st.Normalize()
	case actionSetMethod:
		st.SetMethod(authflow.Method(req.Value))
		st.Normalize()
	case actionUseDifferentPhone:
		st.UseDifferentPhone()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown action %q", req.Action)})
		return
	}
	c.JSON(http.StatusOK, authResponse{State: *st, Notifications: []notify.Notification{}})
}

// authEmail updates the email field, regenerating the suggested username
// on the signup form.
func (s *Server) authEmail(c *gin.Context) {
	req, ok := s.bindAuth(c)
	if !ok {
		return
	}
	s.auth.SetEmail(&req.State, req.Email)
	c.JSON(http.StatusOK, authResponse{State: req.State, Notifications: []notify.Notification{}})
}

func (s *Server) authLogin(c *gin.Context) {
	s.submit(c, func(st *authflow.State) {
		st.View = authflow.ViewLogin
		st.Method = authflow.MethodEmail
	}, s.auth.SubmitEmail)
}

func (s *Server) authSignup(c *gin.Context) {
	s.submit(c, func(st *authflow.State) {
		st.View = authflow.ViewSignup
		st.Method = authflow.MethodEmail
	}, s.auth.SubmitEmail)
}

func (s *Server) authSendOTP(c *gin.Context) {
	s.submit(c, func(st *authflow.State) {
		st.Method = authflow.MethodPhone
		st.OTPSent = false
	}, func(ctx context.Context, _ string, st *authflow.State) (authflow.Result, error) {
		return s.auth.SubmitPhone(ctx, st)
	})
}

func (s *Server) authVerifyOTP(c *gin.Context) {
	s.submit(c, func(st *authflow.State) {
		st.Method = authflow.MethodPhone
		st.OTPSent = true
	}, func(ctx context.Context, _ string, st *authflow.State) (authflow.Result, error) {
		return s.auth.SubmitPhone(ctx, st)
	})
}

func (s *Server) authForgot(c *gin.Context) {
	s.submit(c, func(st *authflow.State) {
		st.View = authflow.ViewForgotPassword
	}, func(ctx context.Context, _ string, st *authflow.State) (authflow.Result, error) {
		return s.auth.SubmitForgotPassword(ctx, st)
	})
}

func (s *Server) authReset(c *gin.Context) {
	token := bearerToken(c)
	s.submit(c, func(st *authflow.State) {
		st.View = authflow.ViewResetPassword
	}, func(ctx context.Context, _ string, st *authflow.State) (authflow.Result, error) {
		return s.auth.SubmitResetPassword(ctx, st, token)
	})
}

// authOAuth sends the browser to the identity provider.
func (s *Server) authOAuth(c *gin.Context) {
	st := authflow.NewState()
	ctx, rn := s.withRequestNotifier(c)
	res, err := s.auth.SignInWithOAuth(ctx, &st)
	notices := rn.finish()
	if err != nil {
		c.JSON(statusFor(err), authResponse{State: st, Notifications: notices, Error: err.Error()})
		return
	}
	c.Redirect(http.StatusFound, res.OAuthURL)
}

// authCallback completes an OAuth exchange for identity backends that run
// it in-process.
func (s *Server) authCallback(c *gin.Context) {
	h, ok := s.provider.(OAuthCallbackHandler)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "oauth callback is handled by the identity provider"})
		return
	}
	if msg := c.Query("error"); msg != "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}
	redirect, err := h.HandleOAuthCallback(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		s.logger.Warn(c.Request.Context(), "oauth callback failed", "error", err)
		c.JSON(statusFor(err), errorBody(err))
		return
	}
	c.Redirect(http.StatusFound, redirect)
}

// authInvite remembers the code from an invite link and continues to the
// auth surface.
func (s *Server) authInvite(c *gin.Context) {
	if err := s.auth.RememberInviteCode(c.Request.Context(), sessionFrom(c), c.Query("code")); err != nil {
		s.logger.Error(c.Request.Context(), "remember invite failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody(err))
		return
	}
	c.Redirect(http.StatusFound, "/auth")
}
