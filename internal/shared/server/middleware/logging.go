package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"answerpath-backend/internal/shared/server/respond"
	"answerpath-backend/internal/shared/telemetry"
)

// Logging emits one access log entry per request. Entries carry the
// document a handler touched so they join with pipeline logs.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes_out":   c.Writer.Size(),
			"user_id":     UserIDFromContext(c),
			"client_ip":   c.ClientIP(),
		}
		if documentID := c.GetString(respond.KeyDocumentID); documentID != "" {
			fields["document_id"] = documentID
		}
		if status := c.GetString(respond.KeyDocumentStatus); status != "" {
			fields["document_status"] = status
		}
		if c.Request.ContentLength > 0 {
			fields["bytes_in"] = c.Request.ContentLength
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			telemetry.Error("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}
