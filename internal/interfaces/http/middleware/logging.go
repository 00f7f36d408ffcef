// Package middleware holds gin middleware shared by all routes.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
)

// RequestLogger logs one line per request with method, path, status and
// latency.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("latency", time.Since(start)),
			logging.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
			log.Error("request failed", fields...)
			return
		}
		log.Info("request handled", fields...)
	}
}

// Recovery converts panics into 500 responses and logs the panic value.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	log := logger.Named("http")
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("panic recovered",
			logging.String("path", c.Request.URL.Path),
			logging.Any("panic", recovered))
		c.AbortWithStatusJSON(500, gin.H{"code": "COMMON_001", "message": "internal server error"})
	})
}
