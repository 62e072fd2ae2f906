package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/cityhall/internal/middleware"
	"github.com/stwalsh4118/cityhall/internal/services"
)

// Error codes carried in the response envelope.
const (
	ErrNotFound          = "NOT_FOUND"
	ErrBadRequest        = "BAD_REQUEST"
	ErrInternalServer    = "INTERNAL_SERVER_ERROR"
	ErrValidation        = "VALIDATION_ERROR"
	ErrUnauthenticated   = "UNAUTHENTICATED"
	ErrUnauthorized      = "UNAUTHORIZED"
	ErrInvalidTransition = "INVALID_TRANSITION"
	ErrIntegrity         = "INTEGRITY_ERROR"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// NotFound returns a 404 response.
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrNotFound, message, nil, nil)
}

// BadRequest returns a 400 response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respond(c, http.StatusBadRequest, ErrBadRequest, message, details, nil)
}

// InternalServerError logs err and returns a 500 carrying only message.
func InternalServerError(c *gin.Context, message string, err error) {
	respond(c, http.StatusInternalServerError, ErrInternalServer, message, nil, err)
}

// ValidationError returns a 400 response listing each failed binding rule
// under its field name.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{}, len(validationErrors))
	for _, err := range validationErrors {
		details[err.Field()] = formatValidationError(err)
	}
	respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details, nil)
}

// FieldErrors returns a 400 validation response for errors found by service
// rules rather than binding tags.
func FieldErrors(c *gin.Context, fields map[string]string) {
	details := make(map[string]interface{}, len(fields))
	for field, msg := range fields {
		details[field] = msg
	}
	respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details, nil)
}

// Forbidden returns a 403 response for an authenticated caller lacking a role.
func Forbidden(c *gin.Context, message string) {
	respond(c, http.StatusForbidden, ErrUnauthorized, message, nil, nil)
}

// Conflict returns a 409 response with the given code.
func Conflict(c *gin.Context, code, message string) {
	respond(c, http.StatusConflict, code, message, nil, nil)
}

// FromService maps an error returned by a service to its HTTP response.
// Unrecognized errors become a generic 500.
func FromService(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		FieldErrors(c, verr.Fields)
	case errors.Is(err, services.ErrValidation):
		BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		Forbidden(c, "You do not have permission to perform this action")
	case errors.Is(err, services.ErrInvalidTransition):
		Conflict(c, ErrInvalidTransition, err.Error())
	case errors.Is(err, services.ErrIntegrity):
		Conflict(c, ErrIntegrity, err.Error())
	default:
		InternalServerError(c, "An unexpected error occurred", err)
	}
}

// respond logs the refusal and writes the envelope. Server errors log at
// error level with cause; everything else is a warning.
func respond(c *gin.Context, status int, code, message string, details map[string]interface{}, cause error) {
	requestID := middleware.GetRequestID(c)

	if log := middleware.GetLogger(c); log != nil {
		fields := map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": requestID,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		}
		if details != nil {
			fields["details"] = details
		}
		if status >= http.StatusInternalServerError {
			log.Error("Internal server error", cause, fields)
		} else {
			log.Warn("Request refused", fields)
		}
	}

	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		return "Value is too long or large (maximum: " + err.Param() + ")"
	case "gt":
		return "Must be greater than " + err.Param()
	case "gte":
		return "Must be greater than or equal to " + err.Param()
	case "lte":
		return "Must be less than or equal to " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "datetime":
		return "Must be a date in the format " + err.Param()
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}
