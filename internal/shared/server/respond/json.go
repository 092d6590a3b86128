package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin context keys shared by middleware and handlers.
const (
	KeyRequestID      = "requestId"
	KeyUserID         = "userId"
	KeyDocumentID     = "documentId"
	KeyDocumentStatus = "documentStatus"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Accepted writes a 202 response for work handed to the pipeline.
func Accepted(c *gin.Context, payload any) {
	JSON(c, http.StatusAccepted, payload)
}

// WithDocument tags the request with the document it touched so the access
// log can be joined with pipeline logs.
func WithDocument(c *gin.Context, documentID, status string) {
	c.Set(KeyDocumentID, documentID)
	if status != "" {
		c.Set(KeyDocumentStatus, status)
	}
}
