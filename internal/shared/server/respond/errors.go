package respond

import (
	"github.com/gin-gonic/gin"

	"answerpath-backend/internal/shared/telemetry"
)

// Error codes returned in ErrorBody.Code.
const (
	CodeValidation      = "validation_error"
	CodeNotFound        = "not_found"
	CodeUnsupportedType = "unsupported_file_type"
	CodeFileTooLarge    = "file_too_large"
	CodeEnqueueFailed   = "enqueue_failed"
	CodeUnauthorized    = "unauthorized"
	CodeRateLimited     = "rate_limited"
	CodeNotReady        = "not_ready"
	CodeInternal        = "internal_error"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error logs the failure and aborts with a standardized error response.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"route":      c.FullPath(),
		"method":     c.Request.Method,
		"request_id": c.GetString(KeyRequestID),
	}
	if userID := c.GetString(KeyUserID); userID != "" {
		fields["user_id"] = userID
	}
	if documentID := c.GetString(KeyDocumentID); documentID != "" {
		fields["document_id"] = documentID
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{Code: code, Message: message, Details: details},
	})
}
