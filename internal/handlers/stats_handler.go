package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/proptax/internal/services"
)

// StatsHandler serves dashboard totals.
type StatsHandler struct {
	service services.StatsService
}

// NewStatsHandler creates a new StatsHandler instance.
func NewStatsHandler(service services.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Dashboard handles GET /api/v1/stats.
func (h *StatsHandler) Dashboard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.service.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to load statistics")
		return
	}

	c.JSON(http.StatusOK, DataResponse{Data: stats})
}
