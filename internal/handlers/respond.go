package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apierrors "github.com/stwalsh4118/proptax/internal/errors"
	"github.com/stwalsh4118/proptax/internal/llm"
	"github.com/stwalsh4118/proptax/internal/middleware"
	"github.com/stwalsh4118/proptax/internal/services"
)

// DataResponse wraps a single resource or a computed result.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// ListResponse wraps a collection.
type ListResponse struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

// respondError maps service and upstream errors onto the API error envelope.
// Anything unrecognised is a 500 with fallback as the message.
func respondError(c *gin.Context, err error, fallback string) {
	var upstream *llm.UpstreamError

	switch {
	case errors.Is(err, services.ErrNotAuthorized):
		apierrors.NotFound(c, "Record not found")
	case errors.Is(err, services.ErrInvalidProperty),
		errors.Is(err, services.ErrInvalidFiscalYear),
		errors.Is(err, services.ErrInvalidPaymentStatus),
		errors.Is(err, services.ErrWeakPassword):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, "Email is already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, "Invalid email or password")
	case errors.Is(err, services.ErrInvalidToken):
		apierrors.Unauthorized(c, "Invalid or expired token")
	case errors.Is(err, services.ErrAIUnavailable):
		apierrors.ConfigurationError(c, "AI service is not configured")
	case errors.Is(err, llm.ErrRateLimited):
		apierrors.TooManyRequests(c, "Rate limit exceeded, please try again later")
	case errors.Is(err, llm.ErrQuotaExhausted):
		apierrors.PaymentRequired(c, "AI credits exhausted, please add credits to continue")
	case errors.As(err, &upstream):
		apierrors.UpstreamFailure(c, apierrors.ErrUpstream, "AI gateway error",
			map[string]interface{}{"status": upstream.Status}, err)
	case errors.Is(err, llm.ErrEmptyResponse):
		apierrors.UpstreamFailure(c, apierrors.ErrInvalidAIResponse, "No response from AI", nil, err)
	case errors.Is(err, services.ErrUnparseableResponse):
		apierrors.UpstreamFailure(c, apierrors.ErrInvalidAIResponse, "Could not parse AI response", nil, err)
	case errors.Is(err, services.ErrRelayFailed):
		apierrors.UpstreamFailure(c, apierrors.ErrRelay, "Failed to reach AI assistant", nil, err)
	default:
		apierrors.InternalServerError(c, fallback, err)
	}
}

// bindJSON decodes and validates the body into dst, writing a 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return false
	}
	return true
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid id", map[string]interface{}{"id": c.Param("id")})
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated caller. Routes using it sit behind
// middleware.Auth, so a miss means the route was wired without it.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Authentication required")
	}
	return userID, ok
}
