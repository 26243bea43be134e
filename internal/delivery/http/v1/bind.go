package v1

import (
	"errors"
	"io"

	"proofhire-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// bindJSON decodes the body into req. Decoding failures are reported as
// invalid input; field validation happens in the usecases.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(apperror.InvalidInput("Invalid request body", map[string]string{"body": err.Error()}))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted.
func bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.Error(apperror.InvalidInput("Invalid request body", map[string]string{"body": err.Error()}))
		return false
	}
	return true
}

// pathID returns the :id path parameter when it is a UUID.
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := uuid.Validate(id); err != nil {
		c.Error(apperror.InvalidInput("Invalid ID format", map[string]string{"id": "must be a valid UUID"}))
		return "", false
	}
	return id, true
}
