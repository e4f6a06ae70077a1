package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/proptax/internal/middleware"
	"github.com/stwalsh4118/proptax/internal/models"
	"github.com/stwalsh4118/proptax/internal/services"
)

// PropertyHandler serves the caller's property records.
type PropertyHandler struct {
	service services.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler(service services.PropertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// PropertyRequest is the body of property create and update calls.
// Omitted type, city, state and status fall back to their defaults.
type PropertyRequest struct {
	BuiltUpAreaSqft  *float64              `json:"built_up_area_sqft" binding:"omitempty,gt=0"`
	FloorCount       *int                  `json:"floor_count" binding:"omitempty,gte=1"`
	ConstructionYear *int                  `json:"construction_year"`
	Latitude         *float64              `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude        *float64              `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	Name             string                `json:"property_name" binding:"required,max=200"`
	Type             models.PropertyType   `json:"property_type"`
	Address          string                `json:"address" binding:"max=500"`
	City             string                `json:"city" binding:"max=100"`
	State            string                `json:"state" binding:"max=100"`
	Pincode          string                `json:"pincode" binding:"omitempty,numeric,len=6"`
	Status           models.PropertyStatus `json:"status"`
	AreaSqft         float64               `json:"area_sqft" binding:"required,gt=0"`
	Value            float64               `json:"property_value" binding:"required,gt=0"`
}

func (r *PropertyRequest) toModel() *models.Property {
	return &models.Property{
		Name:             r.Name,
		Type:             r.Type,
		Address:          r.Address,
		City:             r.City,
		State:            r.State,
		Pincode:          r.Pincode,
		Status:           r.Status,
		AreaSqft:         r.AreaSqft,
		BuiltUpAreaSqft:  r.BuiltUpAreaSqft,
		Value:            r.Value,
		ConstructionYear: r.ConstructionYear,
		FloorCount:       r.FloorCount,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
	}
}

// List handles GET /api/v1/properties.
func (h *PropertyHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	properties, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list properties")
		return
	}
	if properties == nil {
		properties = []models.Property{}
	}

	c.JSON(http.StatusOK, ListResponse{Data: properties, Count: len(properties)})
}

// Get handles GET /api/v1/properties/:id.
func (h *PropertyHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	property, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err, "Failed to load property")
		return
	}

	c.JSON(http.StatusOK, DataResponse{Data: property})
}

// Create handles POST /api/v1/properties.
func (h *PropertyHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req PropertyRequest
	if !bindJSON(c, &req) {
		return
	}

	property, err := h.service.Create(c.Request.Context(), userID, req.toModel())
	if err != nil {
		respondError(c, err, "Failed to create property")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Property created", map[string]interface{}{
			"property_id": property.ID,
		})
	}

	c.JSON(http.StatusCreated, DataResponse{Data: property})
}

// Update handles PUT /api/v1/properties/:id.
func (h *PropertyHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req PropertyRequest
	if !bindJSON(c, &req) {
		return
	}

	property, err := h.service.Update(c.Request.Context(), userID, id, req.toModel())
	if err != nil {
		respondError(c, err, "Failed to update property")
		return
	}

	c.JSON(http.StatusOK, DataResponse{Data: property})
}

// Delete handles DELETE /api/v1/properties/:id. Stored tax calculations for
// the property are removed with it.
func (h *PropertyHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err, "Failed to delete property")
		return
	}

	c.Status(http.StatusNoContent)
}
