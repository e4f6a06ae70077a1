package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks whether a tax assessment has been settled.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid
}

// TaxCalculation is a persisted tax assessment for one property and fiscal year.
// The numeric fields are stored exactly as returned by the estimator; total tax
// is never recomputed locally.
type TaxCalculation struct {
	CalculatedAt       time.Time     `json:"calculated_at"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	AIReasoning        *string       `json:"ai_reasoning"`
	PaidAt             *time.Time    `json:"paid_at"`
	FiscalYear         string        `json:"fiscal_year"`
	PaymentStatus      PaymentStatus `json:"payment_status"`
	BaseTax            float64       `json:"base_tax"`
	LocationFactor     float64       `json:"location_factor"`
	PropertyTypeFactor float64       `json:"property_type_factor"`
	AgeDepreciation    float64       `json:"age_depreciation"`
	TotalTax           float64       `json:"total_tax"`
	ID                 uuid.UUID     `json:"id"`
	PropertyID         uuid.UUID     `json:"property_id"`
	OwnerID            uuid.UUID     `json:"user_id"`
}

// Summary returns the short digest used as assistant context.
func (t *TaxCalculation) Summary() TaxCalculationSummary {
	return TaxCalculationSummary{
		FiscalYear:    t.FiscalYear,
		TotalTax:      t.TotalTax,
		PaymentStatus: t.PaymentStatus,
	}
}

// TaxCalculationSummary is the compact calculation description sent to the assistant.
type TaxCalculationSummary struct {
	FiscalYear    string        `json:"fiscal_year"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TotalTax      float64       `json:"total_tax"`
}

// TaxBreakdown is the structured answer expected from the estimation model.
// The validate tags describe plausible ranges; violations are reported as
// warnings, not enforced.
type TaxBreakdown struct {
	Reasoning          string  `json:"reasoning"`
	BaseTax            float64 `json:"base_tax" validate:"gte=0"`
	LocationFactor     float64 `json:"location_factor" validate:"gte=0,lte=10"`
	PropertyTypeFactor float64 `json:"property_type_factor" validate:"gte=0,lte=10"`
	AgeDepreciation    float64 `json:"age_depreciation" validate:"gte=0,lte=100"`
	TotalTax           float64 `json:"total_tax" validate:"gte=0"`
}

// FiscalYearFor returns the fiscal year label that starts in t's calendar year,
// e.g. "2025-2026".
func FiscalYearFor(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), t.Year()+1)
}
