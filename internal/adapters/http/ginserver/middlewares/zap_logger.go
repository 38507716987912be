package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vshulcz/fitmetrics/internal/services/audit"
)

// ZapLogger writes one line per request: server errors at error, client errors at warn, the rest at info.
func ZapLogger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		lvl := zapcore.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			lvl = zapcore.ErrorLevel
		case status >= http.StatusBadRequest:
			lvl = zapcore.WarnLevel
		}
		if ce := l.Check(lvl, "http_request"); ce != nil {
			fields := []zap.Field{
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.String("uri", c.Request.RequestURI),
				zap.Int("status", status),
				zap.Int("size", max(c.Writer.Size(), 0)),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", audit.RequestIDFromContext(c.Request.Context())),
			}
			if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
				fields = append(fields, zap.String("errors", errs.String()))
			}
			ce.Write(fields...)
		}
	}
}
