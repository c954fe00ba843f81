package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jumlahub/jumla-backend/internal/handlers"
	"github.com/jumlahub/jumla-backend/internal/platform/apierr"
	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		log:         log.With("middleware", "Auth"),
		authService: authService,
	}
}

// RequireAuth verifies the bearer token and stashes the caller's identity on
// the request context for downstream handlers.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			handlers.RespondError(c, apierr.Authentication("missing token"))
			c.Abort()
			return
		}
		ctx, err := m.authService.SetContextFromToken(c.Request.Context(), token)
		if err != nil {
			m.log.Debug("Token rejected", "error", err)
			handlers.RespondError(c, err)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return c.Query("token")
}
