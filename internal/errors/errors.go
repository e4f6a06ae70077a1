package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/proptax/internal/middleware"
)

// Error code constants for standardized error responses
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrDatabaseConnection = "DATABASE_CONNECTION_ERROR"
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrConflict           = "CONFLICT"
	ErrRateLimited        = "RATE_LIMITED"
	ErrQuotaExhausted     = "QUOTA_EXHAUSTED"
	ErrUpstream           = "UPSTREAM_ERROR"
	ErrInvalidAIResponse  = "INVALID_AI_RESPONSE"
	ErrRelay              = "RELAY_ERROR"
	ErrConfiguration      = "CONFIGURATION_ERROR"
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

// abort writes the error envelope and stops the handler chain.
func abort(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: middleware.GetRequestID(c),
		},
	})
}

func requestFields(c *gin.Context) map[string]interface{} {
	return map[string]interface{}{
		"request_id": middleware.GetRequestID(c),
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
	}
}

// NotFound returns a 404 Not Found error response.
// It logs a warning and sends a JSON response with the error details.
func NotFound(c *gin.Context, message string) {
	if log := middleware.GetLogger(c); log != nil {
		fields := requestFields(c)
		fields["message"] = message
		log.Warn("Resource not found", fields)
	}

	abort(c, http.StatusNotFound, ErrNotFound, message, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	if log := middleware.GetLogger(c); log != nil {
		fields := requestFields(c)
		fields["message"] = message
		if details != nil {
			fields["details"] = details
		}
		log.Warn("Bad request", fields)
	}

	abort(c, http.StatusBadRequest, ErrBadRequest, message, details)
}

// Unauthorized returns a 401 response for missing or rejected credentials.
func Unauthorized(c *gin.Context, message string) {
	if log := middleware.GetLogger(c); log != nil {
		fields := requestFields(c)
		fields["message"] = message
		log.Warn("Unauthorized", fields)
	}

	abort(c, http.StatusUnauthorized, ErrUnauthorized, message, nil)
}

// Conflict returns a 409 response, e.g. for an email that is already registered.
func Conflict(c *gin.Context, message string) {
	if log := middleware.GetLogger(c); log != nil {
		fields := requestFields(c)
		fields["message"] = message
		log.Warn("Conflict", fields)
	}

	abort(c, http.StatusConflict, ErrConflict, message, nil)
}

// TooManyRequests reports that the AI gateway is rate limiting us.
func TooManyRequests(c *gin.Context, message string) {
	if log := middleware.GetLogger(c); log != nil {
		fields := requestFields(c)
		fields["message"] = message
		log.Warn("Upstream rate limited", fields)
	}

	abort(c, http.StatusTooManyRequests, ErrRateLimited, message, nil)
}

// PaymentRequired reports that the AI gateway quota has run out.
func PaymentRequired(c *gin.Context, message string) {
	if log := middleware.GetLogger(c); log != nil {
		fields := requestFields(c)
		fields["message"] = message
		log.Warn("Upstream quota exhausted", fields)
	}

	abort(c, http.StatusPaymentRequired, ErrQuotaExhausted, message, nil)
}

// UpstreamFailure returns a 500 response carrying one of the AI failure codes
// (ErrUpstream, ErrInvalidAIResponse, ErrRelay). The underlying error is
// logged but not exposed.
func UpstreamFailure(c *gin.Context, code, message string, details map[string]interface{}, err error) {
	if log := middleware.GetLogger(c); log != nil {
		fields := requestFields(c)
		fields["message"] = message
		fields["code"] = code
		if details != nil {
			fields["details"] = details
		}
		log.Error("Upstream failure", err, fields)
	}

	abort(c, http.StatusInternalServerError, code, message, details)
}

// ConfigurationError returns a 500 response for a feature the server was not
// configured to serve.
func ConfigurationError(c *gin.Context, message string) {
	if log := middleware.GetLogger(c); log != nil {
		fields := requestFields(c)
		fields["message"] = message
		log.Error("Configuration error", nil, fields)
	}

	abort(c, http.StatusInternalServerError, ErrConfiguration, message, nil)
}

// InternalServerError returns a 500 Internal Server Error response.
// It logs the error with full context and sends a generic error message to the client.
// The actual error details are not exposed to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	if log := middleware.GetLogger(c); log != nil {
		fields := requestFields(c)
		fields["message"] = message
		log.Error("Internal server error", err, fields)
	}

	abort(c, http.StatusInternalServerError, ErrInternalServer, message, nil)
}

// ValidationError returns a 400 Bad Request error response with field-specific validation errors.
// It parses the validation errors from the validator library and formats them for the client.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	// Convert validation errors to a map of field -> error message
	details := make(map[string]interface{})
	for _, err := range validationErrors {
		details[err.Field()] = formatValidationError(err)
	}

	if log := middleware.GetLogger(c); log != nil {
		fields := requestFields(c)
		fields["fields"] = details
		log.Warn("Validation error", fields)
	}

	abort(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details)
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
	case "len":
		return "Must have length of " + err.Param()
	case "gt":
		return "Must be greater than " + err.Param()
	case "gte":
		return "Must be greater than or equal to " + err.Param()
	case "lt":
		return "Must be less than " + err.Param()
	case "lte":
		return "Must be less than or equal to " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "uuid":
		return "Must be a valid UUID"
	case "latitude":
		return "Must be a valid latitude"
	case "longitude":
		return "Must be a valid longitude"
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}
