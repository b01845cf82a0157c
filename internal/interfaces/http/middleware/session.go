package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// SessionHeader lets non-browser clients carry the session without cookies
const SessionHeader = "X-Session-ID"

const defaultSessionCookie = "sf_session"

// Session resolves the storefront session of the request. The id comes from
// the session cookie, then the X-Session-ID header; a new one is issued
// when neither holds a valid UUID. The id is stored under SessionIDKey and
// in the request context for logging.
func Session(cfg config.SessionConfig) gin.HandlerFunc {
	name := cfg.CookieName
	if name == "" {
		name = defaultSessionCookie
	}
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	sameSite := parseSameSite(cfg.SameSite)

	return func(c *gin.Context) {
		sessionID, fromCookie := "", false
		if v, err := c.Cookie(name); err == nil && isSessionID(v) {
			sessionID, fromCookie = v, true
		} else if v := c.GetHeader(SessionHeader); isSessionID(v) {
			sessionID = v
		} else {
			sessionID = uuid.NewString()
		}

		if !fromCookie {
			c.SetSameSite(sameSite)
			c.SetCookie(name, sessionID, int(cfg.MaxAge.Seconds()), path, cfg.Domain, cfg.Secure, true)
		}
		c.Writer.Header().Set(SessionHeader, sessionID)

		c.Set(SessionIDKey, sessionID)
		c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), sessionID))
		c.Next()
	}
}

// GetSessionID returns the session id resolved by Session
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}

func isSessionID(v string) bool {
	if v == "" {
		return false
	}
	_, err := uuid.Parse(v)
	return err == nil
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
