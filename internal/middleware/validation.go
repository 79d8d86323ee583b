package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

// BindJSON decodes the request body into obj. On failure it writes a 400
// and returns false. Constraint checks are left to the services.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		HandleAPIError(c, apperrors.NewValidationError(apperrors.FieldError{
			Field:   "body",
			Message: "invalid JSON: " + err.Error(),
		}))
		return false
	}
	return true
}

// BindForm decodes multipart or url-encoded form fields into obj.
func BindForm(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBind(obj); err != nil {
		HandleAPIError(c, apperrors.NewValidationError(apperrors.FieldError{
			Field:   "form",
			Message: err.Error(),
		}))
		return false
	}
	return true
}
