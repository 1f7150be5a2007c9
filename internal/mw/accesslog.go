package mw

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parking-iot-backend/internal/logger"
)

// AccessLog logs one line per request through the application logger.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.BgLogger().Error("request", fields...)
		case status >= 400:
			logger.BgLogger().Warn("request", fields...)
		default:
			logger.BgLogger().Debug("request", fields...)
		}
	}
}
