// Package server exposes the file browser and the authentication flow over
// HTTP, with a websocket channel for live state and notifications.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/authflow"
	"github.com/dmitrijs2005/filedeck/internal/files"
	"github.com/dmitrijs2005/filedeck/internal/identity"
	"github.com/dmitrijs2005/filedeck/internal/logging"
	"github.com/dmitrijs2005/filedeck/internal/notify"
	"github.com/dmitrijs2005/filedeck/internal/view"
	"github.com/gin-gonic/gin"
)

const defaultSignedTTL = 15 * time.Minute

// OAuthCallbackHandler is implemented by identity backends that complete
// the OAuth exchange themselves instead of a hosted auth server.
type OAuthCallbackHandler interface {
	HandleOAuthCallback(ctx context.Context, state, code string) (string, error)
}

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	Files    *files.Orchestrator
	Auth     *authflow.Controller
	Provider identity.Provider
	Hub      *Hub
	Logger   logging.Logger

	SignedURLTTL time.Duration
}

type Server struct {
	files    *files.Orchestrator
	browser  *view.Browser
	auth     *authflow.Controller
	provider identity.Provider
	hub      *Hub
	logger   logging.Logger

	thumbs    thumbnails
	signedTTL time.Duration
	now       func() time.Time
	engine    *gin.Engine
}

// New builds the HTTP server and registers its routes.
func New(d Deps) *Server {
	ttl := d.SignedURLTTL
	if ttl <= 0 {
		ttl = defaultSignedTTL
	}
	s := &Server{
		files:     d.Files,
		browser:   view.NewBrowser(d.Files, nil, notify.Routed{Default: d.Hub}, 0),
		auth:      d.Auth,
		provider:  d.Provider,
		hub:       d.Hub,
		logger:    d.Logger.With("component", "http"),
		signedTTL: ttl,
		now:       time.Now,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), sessionID())

	api := r.Group("/api")
	api.GET("/health", s.health)
	api.GET("/ws", s.websocket)

	f := api.Group("/files")
	f.GET("", s.listFiles)
	f.POST("", s.uploadFiles)
	f.POST("/refresh", s.refreshFiles)
	f.GET("/download/*path", s.downloadFile)
	f.GET("/link/*path", s.fileLink)
	f.GET("/signed/*path", s.signedLink)
	f.GET("/thumbnail/*path", s.thumbnail)
	f.DELETE("/*path", s.deleteFile)

	a := api.Group("/auth")
	a.POST("/state", s.authState)
	a.POST("/transition", s.authTransition)
	a.POST("/email", s.authEmail)
	a.POST("/login", s.authLogin)
	a.POST("/signup", s.authSignup)
	a.POST("/otp/send", s.authSendOTP)
	a.POST("/otp/verify", s.authVerifyOTP)
	a.POST("/forgot", s.authForgot)
	a.POST("/reset", s.authReset)
	a.GET("/oauth", s.authOAuth)
	a.GET("/callback", s.authCallback)
	a.GET("/invite", s.authInvite)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "filedeck",
		"clients": s.hub.Clients(),
	})
}

func (s *Server) websocket(c *gin.Context) {
	s.hub.Serve(c.Request.Context(), c.Writer, c.Request, sessionFrom(c))
}

// withRequestNotifier routes notifications raised by the handler into the
// response; late ones reach the session's websocket connections.
func (s *Server) withRequestNotifier(c *gin.Context) (context.Context, *requestNotifier) {
	rn := newRequestNotifier(s.hub.Session(sessionFrom(c)))
	return notify.NewContext(c.Request.Context(), rn), rn
}

func errorBody(err error) gin.H {
	return gin.H{"error": err.Error()}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, authflow.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, files.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, files.ErrUploadInProgress), errors.Is(err, identity.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, files.ErrSigningUnsupported), errors.Is(err, identity.ErrUnsupportedProvider):
		return http.StatusNotImplemented
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, identity.ErrInvalidOTP):
		return http.StatusUnauthorized
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusBadGateway
	}
}
