package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MrEthical07/sessionauth"
)

// RequestLogger logs each request after it completes and attaches the client
// IP to the request context for login throttling.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(sessionauth.WithClientIP(c.Request.Context(), c.ClientIP()))

		c.Next()

		logger.Info("access",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetHeader("X-Request-Id")),
			zap.String("account_id", AccountIDFromContext(c)),
		)
	}
}
