package middleware

import (
	"becky-backend/logger"
	"becky-backend/utils"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// UserRateLimit allows each authenticated user perMinute requests a minute,
// with bursts of the same size. Must run after AuthRequired.
func UserRateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 10
	}
	var (
		mu       sync.Mutex
		limiters = map[uuid.UUID]*rate.Limiter{}
	)
	limiterFor := func(id uuid.UUID) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[id]
		if !ok {
			l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
			limiters[id] = l
		}
		return l
	}

	return func(c *gin.Context) {
		userID := utils.GetCurrentUserID(c)
		if !limiterFor(userID).Allow() {
			logger.FromContext(c.Request.Context()).Warn("rate limit exceeded", "path", c.FullPath())
			utils.ErrorResponse(c, http.StatusTooManyRequests, "Too many requests, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
