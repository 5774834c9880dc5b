package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/hospital-shifts/scheduler/internal/apperr"
)

// ErrorBody is the JSON envelope returned for every failed request.
type ErrorBody struct {
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RespondError writes err as an ErrorBody and aborts the chain. Internal
// errors are logged by RequestLogger and reported with a generic message.
func RespondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	msg := apperr.Message(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, ErrorBody{
		Status:    status,
		Error:     http.StatusText(status),
		Message:   msg,
		Timestamp: time.Now(),
	})
}

// BindError converts a gin binding failure into a validation error with a
// readable message.
func BindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fieldMessage(fe))
		}
		return apperr.Invalid("%s", strings.Join(parts, "; "))
	}
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		return apperr.Invalid("malformed JSON at offset %d", syntax.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperr.Invalid("field %s has the wrong type", typeErr.Field)
	}
	return apperr.Invalid("invalid request body: %v", err)
}

func fieldMessage(fe validator.FieldError) string {
	name := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email", name)
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", name, fe.Tag())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
