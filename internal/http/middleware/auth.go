package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/http/response"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/apierr"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/ctxutil"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/auth"
)

type AuthMiddleware struct {
	log  *logger.Logger
	auth auth.Authenticator
}

func NewAuthMiddleware(log *logger.Logger, authenticator auth.Authenticator) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, auth: authenticator}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			c.Abort()
			response.RespondDomainError(c, apierr.Unauthorized(errors.New("missing or invalid token")))
			return
		}
		p, err := am.auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("Rejected bearer token", "error", err)
			c.Abort()
			response.RespondDomainError(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
