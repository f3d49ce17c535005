package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Prag-18/Reviva/pkg/log"
	"github.com/Prag-18/Reviva/pkg/response"
)

const (
	UserIDKey     = log.FieldUserID
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// ErrUnauthorized marks Authenticator errors caused by the caller's
// credential. Any other error is reported as an internal failure.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator resolves a bearer credential to an existing user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// AuthMiddleware validates bearer tokens for HTTP routes.
type AuthMiddleware struct {
	auth Authenticator
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth returns a Gin middleware that rejects requests without a valid
// bearer token and stores the caller's user id in the Gin context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			response.Unauthorized(c, "invalid authorization format")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		userID, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			l := log.Ctx(c.Request.Context())
			if !errors.Is(err, ErrUnauthorized) {
				l.Error().Err(err).Msg("failed to authenticate request")
				response.AbortInternalError(c, "internal server error")
				return
			}
			l.Debug().Err(err).Msg("bearer token rejected")
			response.Unauthorized(c, "invalid token")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// GetUserID extracts user ID from Gin context.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(UserIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
