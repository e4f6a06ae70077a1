package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/proptax/internal/models"
	"github.com/stwalsh4118/proptax/internal/services"
)

// EstimateHandler serves one-off AI tax estimates that are not stored.
type EstimateHandler struct {
	estimator services.TaxEstimator
}

// NewEstimateHandler creates a new EstimateHandler instance.
func NewEstimateHandler(estimator services.TaxEstimator) *EstimateHandler {
	return &EstimateHandler{estimator: estimator}
}

// EstimateRequest is the body of POST /tax-estimate.
type EstimateRequest struct {
	Property *models.PropertyAttributes `json:"property" binding:"required"`
}

// Estimate handles POST /api/v1/tax-estimate.
// Responds with {"data": breakdown} plus "warnings" when the model's numbers
// fall outside plausible ranges.
func (h *EstimateHandler) Estimate(c *gin.Context) {
	var req EstimateRequest
	if !bindJSON(c, &req) {
		return
	}

	estimate, err := h.estimator.Estimate(c.Request.Context(), *req.Property)
	if err != nil {
		respondError(c, err, "Failed to estimate tax")
		return
	}

	c.JSON(http.StatusOK, estimate)
}
