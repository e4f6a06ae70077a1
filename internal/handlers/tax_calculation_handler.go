package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/proptax/internal/models"
	"github.com/stwalsh4118/proptax/internal/services"
)

// TaxCalculationHandler serves stored tax assessments.
type TaxCalculationHandler struct {
	service services.TaxCalculationService
}

// NewTaxCalculationHandler creates a new TaxCalculationHandler instance.
func NewTaxCalculationHandler(service services.TaxCalculationService) *TaxCalculationHandler {
	return &TaxCalculationHandler{service: service}
}

// CalculateRequest is the optional body of POST /properties/:id/tax-calculations.
type CalculateRequest struct {
	FiscalYear string `json:"fiscal_year"`
}

// PaymentRequest is the body of PATCH /tax-calculations/:id/payment.
type PaymentRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required,oneof=pending paid"`
}

// Calculate handles POST /api/v1/properties/:id/tax-calculations.
// It asks the estimator for a breakdown and stores it as a pending assessment.
func (h *TaxCalculationHandler) Calculate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	propertyID, ok := pathID(c)
	if !ok {
		return
	}

	var req CalculateRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.service.CalculateForProperty(c.Request.Context(), userID, propertyID, req.FiscalYear)
	if err != nil {
		respondError(c, err, "Failed to calculate tax")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// List handles GET /api/v1/tax-calculations.
func (h *TaxCalculationHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	calculations, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list tax calculations")
		return
	}
	if calculations == nil {
		calculations = []models.TaxCalculation{}
	}

	c.JSON(http.StatusOK, ListResponse{Data: calculations, Count: len(calculations)})
}

// Get handles GET /api/v1/tax-calculations/:id.
func (h *TaxCalculationHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	calculation, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err, "Failed to load tax calculation")
		return
	}

	c.JSON(http.StatusOK, DataResponse{Data: calculation})
}

// UpdatePayment handles PATCH /api/v1/tax-calculations/:id/payment.
func (h *TaxCalculationHandler) UpdatePayment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req PaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	calculation, err := h.service.UpdatePaymentStatus(c.Request.Context(), userID, id, req.PaymentStatus)
	if err != nil {
		respondError(c, err, "Failed to update payment status")
		return
	}

	c.JSON(http.StatusOK, DataResponse{Data: calculation})
}

// Delete handles DELETE /api/v1/tax-calculations/:id.
func (h *TaxCalculationHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err, "Failed to delete tax calculation")
		return
	}

	c.Status(http.StatusNoContent)
}
