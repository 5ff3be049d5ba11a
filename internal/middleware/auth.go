package middleware

import (
	"strings"

	"skillmarket_backend/internal/auth"
	"skillmarket_backend/internal/logger"
	"skillmarket_backend/pkg/apperrors"
	"skillmarket_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware - проверка JWT из заголовка Authorization.
// Нет токена -> 401, токен не прошел проверку -> 403.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, tokenStr := splitAuthorization(c.GetHeader("Authorization"))
		if tokenStr == "" {
			apperrors.HandleError(c, apperrors.ErrMissingSessionToken)
			return
		}
		if !strings.EqualFold(scheme, "Bearer") {
			logger.CtxDebug(c.Request.Context(), "Unsupported authorization scheme", "scheme", scheme)
			apperrors.HandleError(c, apperrors.ErrInvalidSessionToken)
			return
		}

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			logger.CtxDebug(c.Request.Context(), "Session token rejected", "error", err)
			apperrors.HandleError(c, apperrors.ErrInvalidSessionToken)
			return
		}

		c.Set(contextkeys.UserIDKey, claims.UserID)
		c.Set(contextkeys.EmailKey, claims.Email)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// splitAuthorization делит заголовок на схему и токен; токен пуст, если его нет
func splitAuthorization(header string) (scheme, token string) {
	scheme, token, _ = strings.Cut(strings.TrimSpace(header), " ")
	return scheme, strings.TrimSpace(token)
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	return c.GetString(contextkeys.UserIDKey)
}

// GetEmail извлекает email пользователя из контекста
func GetEmail(c *gin.Context) string {
	return c.GetString(contextkeys.EmailKey)
}
