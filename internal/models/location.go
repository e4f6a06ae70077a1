package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Coordinate bounds for WGS84 lat/lng pairs.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// ErrInvalidCoordinates is returned when a lat/lng pair is out of range or incomplete.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Point is a WGS84 location. It marshals to a GeoJSON Point so map clients
// can consume it directly.
type Point struct {
	Lat float64
	Lng float64
}

// NewPoint builds a Point from optional coordinates. Both must be set or both
// must be nil; a nil, nil result means the property has no location.
func NewPoint(lat, lng *float64) (*Point, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, fmt.Errorf("%w: latitude and longitude must be provided together", ErrInvalidCoordinates)
	}

	p := &Point{Lat: *lat, Lng: *lng}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that the point lies within WGS84 bounds.
func (p Point) Validate() error {
	if p.Lat < MinLatitude || p.Lat > MaxLatitude {
		return fmt.Errorf("%w: latitude must be between %.0f and %.0f, got %f",
			ErrInvalidCoordinates, MinLatitude, MaxLatitude, p.Lat)
	}
	if p.Lng < MinLongitude || p.Lng > MaxLongitude {
		return fmt.Errorf("%w: longitude must be between %.0f and %.0f, got %f",
			ErrInvalidCoordinates, MinLongitude, MaxLongitude, p.Lng)
	}
	return nil
}

// MarshalJSON renders the point as GeoJSON ([lng, lat] order).
func (p Point) MarshalJSON() ([]byte, error) {
	geom := struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}{
		Type:        "Point",
		Coordinates: [2]float64{p.Lng, p.Lat},
	}
	return json.Marshal(geom)
}

// UnmarshalJSON parses a GeoJSON Point.
func (p *Point) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal point: %w", err)
	}

	if geom.Type != "" && geom.Type != "Point" {
		return fmt.Errorf("expected Point type, got %s", geom.Type)
	}

	p.Lng = geom.Coordinates[0]
	p.Lat = geom.Coordinates[1]
	return nil
}
