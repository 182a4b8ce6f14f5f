package middleware

import (
	"becky-backend/config"
	"becky-backend/logger"
	"becky-backend/utils"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthRequired validates the bearer token and stores the caller's id under
// "user_id" for utils.GetCurrentUserID.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(config.AppConfig.JWTSecret, strings.TrimSpace(parts[1]))
		if err != nil {
			log.Debug("token rejected", "path", c.FullPath(), "error", err)
			utils.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			utils.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		ctx := logger.ToContext(c.Request.Context(), log.With("userID", userID.String()))
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", userID)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}
