package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenVerifier validates access tokens
type TokenVerifier interface {
	Verify(token string) (identity.Identity, error)
}

// IdentityObserver receives the identity seen on each request of a session
type IdentityObserver interface {
	Observe(ctx context.Context, sessionID string, id identity.Identity) bool
}

// Identity derives the caller's identity from the bearer token and reports
// it to observer. A missing or invalid token is an anonymous caller; the
// storefront never rejects a request for authentication reasons. Must run
// after Session.
func Identity(verifier TokenVerifier, observer IdentityObserver, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		id := identity.Anonymous()
		if token := bearerToken(c); token != "" {
			verified, err := verifier.Verify(token)
			if err != nil {
				log.Debug("Ignoring invalid access token",
					zap.String("request_id", GetRequestID(c)),
					zap.Error(err),
				)
			} else {
				id = verified
			}
		}

		if id.Authenticated {
			c.Set(UserIDKey, id.UserID)
			c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), id.UserID))
		}
		if sessionID := GetSessionID(c); sessionID != "" {
			observer.Observe(c.Request.Context(), sessionID, id)
		}
		c.Next()
	}
}

// GetUserID returns the signed-in user id, or "" for anonymous callers
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
}
