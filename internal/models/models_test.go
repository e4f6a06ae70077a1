package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyType_Valid(t *testing.T) {
	for _, pt := range PropertyTypes {
		assert.True(t, pt.Valid(), "expected %s to be valid", pt)
	}
	assert.False(t, PropertyType("castle").Valid())
	assert.False(t, PropertyType("").Valid())
}

func TestPropertyAttributes_TypeBindingMatchesKnownTypes(t *testing.T) {
	field, ok := reflect.TypeOf(PropertyAttributes{}).FieldByName("Type")
	require.True(t, ok)

	_, oneof, found := strings.Cut(field.Tag.Get("binding"), "oneof=")
	require.True(t, found, "property_type binding must restrict values")

	var want []string
	for _, pt := range PropertyTypes {
		want = append(want, string(pt))
	}
	assert.Equal(t, want, strings.Fields(oneof))
}

func TestPropertyType_Label(t *testing.T) {
	tests := map[PropertyType]string{
		PropertyTypeResidential:   "Residential",
		PropertyTypeCommercial:    "Commercial",
		PropertyTypeIndustrial:    "Industrial",
		PropertyTypeAgricultural:  "Agricultural",
		PropertyTypeMixedUse:      "Mixed Use",
		PropertyType("houseboat"): "houseboat",
	}
	for pt, want := range tests {
		assert.Equal(t, want, pt.Label())
	}
}

func TestStatusValidity(t *testing.T) {
	assert.True(t, PropertyStatusActive.Valid())
	assert.True(t, PropertyStatusExempt.Valid())
	assert.False(t, PropertyStatus("archived").Valid())

	assert.True(t, PaymentStatusPending.Valid())
	assert.True(t, PaymentStatusPaid.Valid())
	assert.False(t, PaymentStatus("refunded").Valid())
}

func TestFiscalYearFor(t *testing.T) {
	assert.Equal(t, "2025-2026", FiscalYearFor(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-2027", FiscalYearFor(time.Date(2026, time.December, 31, 23, 0, 0, 0, time.UTC)))
}

func TestProperty_AttributesAndSummary(t *testing.T) {
	builtUp := 1200.0
	year := 2015
	p := &Property{
		Name:             "Family Home",
		Type:             PropertyTypeResidential,
		City:             "Jaipur",
		AreaSqft:         1500,
		BuiltUpAreaSqft:  &builtUp,
		ConstructionYear: &year,
		Value:            5000000,
	}

	attrs := p.Attributes()
	assert.Equal(t, PropertyTypeResidential, attrs.Type)
	assert.Equal(t, 1500.0, attrs.AreaSqft)
	assert.Equal(t, &builtUp, attrs.BuiltUpAreaSqft)
	assert.Nil(t, attrs.FloorCount)

	summary := p.Summary()
	assert.Equal(t, "Family Home", summary.Name)
	assert.Equal(t, 5000000.0, summary.Value)
	assert.Nil(t, p.Location())
}

func TestNewPoint(t *testing.T) {
	lat, lng := 26.9124, 75.7873
	badLat := 91.0

	p, err := NewPoint(&lat, &lng)
	require.NoError(t, err)
	assert.Equal(t, lat, p.Lat)

	p, err = NewPoint(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = NewPoint(&lat, nil)
	assert.True(t, errors.Is(err, ErrInvalidCoordinates))

	_, err = NewPoint(&badLat, &lng)
	assert.True(t, errors.Is(err, ErrInvalidCoordinates))
}

func TestPoint_GeoJSON(t *testing.T) {
	data, err := json.Marshal(Point{Lat: 26.9, Lng: 75.8})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Point","coordinates":[75.8,26.9]}`, string(data))

	var p Point
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, 26.9, p.Lat)
	assert.Equal(t, 75.8, p.Lng)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"Polygon","coordinates":[1,2]}`), &p))
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	data, err := json.Marshal(User{Email: "a@example.com", PasswordHash: []byte("secret")})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}
