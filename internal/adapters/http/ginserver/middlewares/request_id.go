package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vshulcz/fitmetrics/internal/services/audit"
)

// RequestIDHeader matches the header the metrics client sends on every attempt.
const RequestIDHeader = "X-Request-ID"

// RequestID echoes the caller's request id, or assigns a fresh one, and stores it in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(audit.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
