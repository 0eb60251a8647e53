package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"taskboard/internal/domain"
)

type errorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

var statusByCode = map[domain.ErrorCode]int{
	domain.ErrCodeInvalid:      http.StatusBadRequest,
	domain.ErrCodeUnauthorized: http.StatusUnauthorized,
	domain.ErrCodeForbidden:    http.StatusForbidden,
	domain.ErrCodeNotFound:     http.StatusNotFound,
	domain.ErrCodeConflict:     http.StatusBadRequest,
	domain.ErrCodeInternal:     http.StatusInternalServerError,
}

// writeError is the only place errors are turned into responses.
// Unclassified errors are logged and answered with a generic 500.
func writeError(c *gin.Context, err error) {
	var dErr *domain.Error
	if !errors.As(err, &dErr) {
		entryFrom(c).WithError(err).Error("unhandled error")
		c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
		return
	}

	status, ok := statusByCode[dErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		entryFrom(c).WithError(err).Error("request failed")
		c.JSON(status, errorResponse{Message: dErr.Message})
		return
	}
	c.JSON(status, errorResponse{Message: dErr.Message, Errors: dErr.Details})
}

// fieldMessages holds the client-facing message per struct field for
// binding failures.
var fieldMessages = map[string]string{
	"FirstName": "First name is required",
	"LastName":  "Last name is required",
	"Username":  "Username must have at least 3 characters",
	"Email":     "Invalid email",
	"Password":  "Password must have at least 8 characters",
}

// bindingError converts a gin binding failure into a validation error
// listing every invalid field.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ValidationError("Malformed request body")
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.StructField()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		details = append(details, msg)
	}
	return domain.ValidationError(details...)
}
