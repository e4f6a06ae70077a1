package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyType classifies a property for tax purposes.
type PropertyType string

const (
	PropertyTypeResidential  PropertyType = "residential"
	PropertyTypeCommercial   PropertyType = "commercial"
	PropertyTypeIndustrial   PropertyType = "industrial"
	PropertyTypeAgricultural PropertyType = "agricultural"
	PropertyTypeMixedUse     PropertyType = "mixed_use"
)

// PropertyTypes lists every accepted property type in display order.
var PropertyTypes = []PropertyType{
	PropertyTypeResidential,
	PropertyTypeCommercial,
	PropertyTypeIndustrial,
	PropertyTypeAgricultural,
	PropertyTypeMixedUse,
}

// Valid reports whether t is one of the known property types.
func (t PropertyType) Valid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Label returns the human-readable name used in prompts and summaries.
func (t PropertyType) Label() string {
	switch t {
	case PropertyTypeResidential:
		return "Residential"
	case PropertyTypeCommercial:
		return "Commercial"
	case PropertyTypeIndustrial:
		return "Industrial"
	case PropertyTypeAgricultural:
		return "Agricultural"
	case PropertyTypeMixedUse:
		return "Mixed Use"
	default:
		return string(t)
	}
}

// PropertyStatus is the administrative state of a property record.
type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "active"
	PropertyStatusPending  PropertyStatus = "pending"
	PropertyStatusDisputed PropertyStatus = "disputed"
	PropertyStatusExempt   PropertyStatus = "exempt"
)

// Valid reports whether s is one of the known statuses.
func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyStatusActive, PropertyStatusPending, PropertyStatusDisputed, PropertyStatusExempt:
		return true
	}
	return false
}

// Defaults applied when a property is created without these fields.
const (
	DefaultCity  = "Jaipur"
	DefaultState = "Rajasthan"
)

// Property is a citizen-registered property.
// Optional attributes use pointers to distinguish "unknown" from zero.
type Property struct {
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	BuiltUpAreaSqft  *float64       `json:"built_up_area_sqft"`
	FloorCount       *int           `json:"floor_count"`
	ConstructionYear *int           `json:"construction_year"`
	Latitude         *float64       `json:"latitude"`
	Longitude        *float64       `json:"longitude"`
	Name             string         `json:"property_name"`
	Type             PropertyType   `json:"property_type"`
	Address          string         `json:"address"`
	City             string         `json:"city"`
	State            string         `json:"state"`
	Pincode          string         `json:"pincode"`
	Status           PropertyStatus `json:"status"`
	AreaSqft         float64        `json:"area_sqft"`
	Value            float64        `json:"property_value"`
	ID               uuid.UUID      `json:"id"`
	OwnerID          uuid.UUID      `json:"user_id"`
}

// Attributes returns the subset of fields the tax estimator works from.
func (p *Property) Attributes() PropertyAttributes {
	return PropertyAttributes{
		Type:             p.Type,
		AreaSqft:         p.AreaSqft,
		BuiltUpAreaSqft:  p.BuiltUpAreaSqft,
		Value:            p.Value,
		City:             p.City,
		ConstructionYear: p.ConstructionYear,
		FloorCount:       p.FloorCount,
	}
}

// Location returns the property's point, or nil when it has none.
func (p *Property) Location() *Point {
	if p.Latitude == nil || p.Longitude == nil {
		return nil
	}
	return &Point{Lat: *p.Latitude, Lng: *p.Longitude}
}

// Summary returns the short digest used as assistant context.
func (p *Property) Summary() PropertySummary {
	return PropertySummary{
		Name:     p.Name,
		Type:     p.Type,
		AreaSqft: p.AreaSqft,
		Value:    p.Value,
		City:     p.City,
	}
}

// PropertyAttributes is the property payload accepted by the tax estimator.
type PropertyAttributes struct {
	BuiltUpAreaSqft  *float64     `json:"built_up_area_sqft,omitempty"`
	ConstructionYear *int         `json:"construction_year,omitempty"`
	FloorCount       *int         `json:"floor_count,omitempty"`
	Type             PropertyType `json:"property_type" binding:"required,oneof=residential commercial industrial agricultural mixed_use"`
	City             string       `json:"city" binding:"required"`
	AreaSqft         float64      `json:"area_sqft" binding:"required,gt=0"`
	Value            float64      `json:"property_value" binding:"required,gt=0"`
}

// PropertySummary is the compact property description sent to the assistant.
type PropertySummary struct {
	Name     string       `json:"property_name"`
	Type     PropertyType `json:"property_type"`
	City     string       `json:"city"`
	AreaSqft float64      `json:"area_sqft"`
	Value    float64      `json:"property_value"`
}
