package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/botsmith-backend/internal/platform/ctxutil"
	"github.com/yungbote/botsmith-backend/internal/platform/logger"
	"github.com/yungbote/botsmith-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLog := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLog, authService: authService}
}

// RequireAuth rejects requests without a valid bearer token and attaches the
// resolved principal to the request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing or invalid token",
				"status":  http.StatusUnauthorized,
			})
			return
		}
		principal, err := am.authService.PrincipalFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing or invalid token",
				"status":  http.StatusUnauthorized,
			})
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			UserID:      principal.ID,
			Email:       principal.Email,
			Username:    principal.Username,
			TokenString: tokenString,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OptionalAuth attaches the principal when a valid token is present and lets
// anonymous requests through untouched. Public chatbot reads use this path.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString != "" {
			if principal, err := am.authService.PrincipalFromToken(tokenString); err == nil {
				ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
					UserID:      principal.ID,
					Email:       principal.Email,
					Username:    principal.Username,
					TokenString: tokenString,
				})
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
