package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sidCookie  = "sid"
	sidKey     = "sid"
	sidMaxAge  = 30 * 24 * 60 * 60
	bearerType = "Bearer "
)

// requestLogger writes per-request logs at debug level.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		if rawQuery != "" {
			path = path + "?" + rawQuery
		}

		logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
			"path", path,
		)
	}
}

// sessionID makes sure every request carries a session id. A missing or
// malformed cookie is replaced with a fresh UUID.
func sessionID() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(sidCookie)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sidCookie, sid, sidMaxAge, "/", "", false, true)
		}
		c.Set(sidKey, sid)
		c.Request = c.Request.WithContext(logging.ContextWith(c.Request.Context(), "sid", sid))
		c.Next()
	}
}

func sessionFrom(c *gin.Context) string {
	return c.GetString(sidKey)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, bearerType) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, bearerType))
}
