package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/proptax/internal/logger"
	"github.com/stwalsh4118/proptax/internal/models"
	"github.com/stwalsh4118/proptax/internal/repository"
)

// CalculationResult is a stored calculation plus the estimator's warnings.
type CalculationResult struct {
	Calculation *models.TaxCalculation `json:"data"`
	Warnings    []string               `json:"warnings,omitempty"`
}

// TaxCalculationService manages an owner's tax calculations.
type TaxCalculationService interface {
	// List returns the owner's calculations, newest first.
	List(ctx context.Context, ownerID uuid.UUID) ([]models.TaxCalculation, error)

	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.TaxCalculation, error)

	// CalculateForProperty estimates tax for an owned property and stores the
	// result. An empty fiscalYear defaults to the current one.
	CalculateForProperty(ctx context.Context, ownerID, propertyID uuid.UUID, fiscalYear string) (*CalculationResult, error)

	// UpdatePaymentStatus stamps paid_at when marking paid and clears it otherwise.
	UpdatePaymentStatus(ctx context.Context, ownerID, id uuid.UUID, status models.PaymentStatus) (*models.TaxCalculation, error)

	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type taxCalculationService struct {
	repo       repository.TaxCalculationRepository
	properties repository.PropertyRepository
	estimator  TaxEstimator
	log        *logger.Logger
	now        func() time.Time
}

// NewTaxCalculationService creates a new instance of TaxCalculationService.
func NewTaxCalculationService(
	repo repository.TaxCalculationRepository,
	properties repository.PropertyRepository,
	estimator TaxEstimator,
	log *logger.Logger,
	now func() time.Time,
) TaxCalculationService {
	if now == nil {
		now = time.Now
	}
	return &taxCalculationService{
		repo:       repo,
		properties: properties,
		estimator:  estimator,
		log:        log,
		now:        now,
	}
}

func (s *taxCalculationService) List(ctx context.Context, ownerID uuid.UUID) ([]models.TaxCalculation, error) {
	calcs, err := s.repo.ListByOwner(ctx, ownerID, 0)
	if err != nil {
		s.log.Error("Failed to list tax calculations", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, fmt.Errorf("failed to list tax calculations: %w", err)
	}
	return calcs, nil
}

func (s *taxCalculationService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.TaxCalculation, error) {
	tc, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax calculation: %w", err)
	}
	if tc == nil {
		return nil, ErrNotAuthorized
	}
	return tc, nil
}

func (s *taxCalculationService) CalculateForProperty(ctx context.Context, ownerID, propertyID uuid.UUID, fiscalYear string) (*CalculationResult, error) {
	now := s.now()
	if fiscalYear == "" {
		fiscalYear = models.FiscalYearFor(now)
	} else if err := validateFiscalYear(fiscalYear); err != nil {
		return nil, err
	}

	property, err := s.properties.FindByID(ctx, propertyID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query property: %w", err)
	}
	if property == nil {
		return nil, ErrNotAuthorized
	}

	estimate, err := s.estimator.Estimate(ctx, property.Attributes())
	if err != nil {
		return nil, err
	}

	b := estimate.Breakdown
	tc := &models.TaxCalculation{
		PropertyID:         property.ID,
		OwnerID:            ownerID,
		FiscalYear:         fiscalYear,
		BaseTax:            b.BaseTax,
		LocationFactor:     b.LocationFactor,
		PropertyTypeFactor: b.PropertyTypeFactor,
		AgeDepreciation:    b.AgeDepreciation,
		TotalTax:           b.TotalTax,
		CalculatedAt:       now.UTC(),
		PaymentStatus:      models.PaymentStatusPending,
	}
	if b.Reasoning != "" {
		reasoning := b.Reasoning
		tc.AIReasoning = &reasoning
	}

	if err := s.repo.Create(ctx, tc); err != nil {
		s.log.Error("Failed to store tax calculation", err, map[string]interface{}{
			"property_id": propertyID,
		})
		return nil, fmt.Errorf("failed to store tax calculation: %w", err)
	}

	s.log.Info("Tax calculation stored", map[string]interface{}{
		"calculation_id": tc.ID,
		"property_id":    propertyID,
		"fiscal_year":    fiscalYear,
		"total_tax":      tc.TotalTax,
		"warnings":       len(estimate.Warnings),
	})

	return &CalculationResult{Calculation: tc, Warnings: estimate.Warnings}, nil
}

func (s *taxCalculationService) UpdatePaymentStatus(ctx context.Context, ownerID, id uuid.UUID, status models.PaymentStatus) (*models.TaxCalculation, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, status)
	}

	var paidAt *time.Time
	if status == models.PaymentStatusPaid {
		t := s.now().UTC()
		paidAt = &t
	}

	tc, err := s.repo.UpdatePaymentStatus(ctx, id, ownerID, status, paidAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	if tc == nil {
		return nil, ErrNotAuthorized
	}

	s.log.Info("Payment status updated", map[string]interface{}{
		"calculation_id": id,
		"status":         status,
	})
	return tc, nil
}

func (s *taxCalculationService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete tax calculation: %w", err)
	}
	if !deleted {
		return ErrNotAuthorized
	}
	return nil
}

// validateFiscalYear accepts labels of the form "2025-2026".
func validateFiscalYear(fy string) error {
	first, second, ok := strings.Cut(fy, "-")
	if !ok || len(first) != 4 || len(second) != 4 {
		return fmt.Errorf("%w: expected YYYY-YYYY, got %q", ErrInvalidFiscalYear, fy)
	}

	start, err1 := strconv.Atoi(first)
	end, err2 := strconv.Atoi(second)
	if err1 != nil || err2 != nil || end != start+1 {
		return fmt.Errorf("%w: expected consecutive years, got %q", ErrInvalidFiscalYear, fy)
	}
	return nil
}
