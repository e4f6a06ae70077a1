package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/proptax/internal/database"
	"github.com/stwalsh4118/proptax/internal/models"
)

// TaxCalculationRepository defines data access for tax calculations.
// Like PropertyRepository, every method is scoped to an owner.
type TaxCalculationRepository interface {
	// ListByOwner returns the owner's calculations, newest first.
	// limit <= 0 means no limit.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.TaxCalculation, error)

	// FindByID returns nil, nil if the calculation is missing or not owned.
	FindByID(ctx context.Context, id, ownerID uuid.UUID) (*models.TaxCalculation, error)

	// Create inserts tc and fills in its ID and timestamps.
	Create(ctx context.Context, tc *models.TaxCalculation) error

	// UpdatePaymentStatus sets the payment status and paid_at stamp.
	// Returns nil, nil if no owned row matched.
	UpdatePaymentStatus(ctx context.Context, id, ownerID uuid.UUID, status models.PaymentStatus, paidAt *time.Time) (*models.TaxCalculation, error)

	// Delete returns false if no owned row matched.
	Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
}

type taxCalculationRepository struct {
	db *database.Database
}

// NewTaxCalculationRepository creates a new instance of TaxCalculationRepository.
func NewTaxCalculationRepository(db *database.Database) TaxCalculationRepository {
	return &taxCalculationRepository{db: db}
}

const taxCalculationColumns = `
	id,
	property_id,
	user_id,
	fiscal_year,
	base_tax,
	location_factor,
	property_type_factor,
	age_depreciation,
	total_tax,
	ai_reasoning,
	calculated_at,
	payment_status,
	paid_at,
	created_at,
	updated_at`

func scanTaxCalculation(row pgx.Row) (*models.TaxCalculation, error) {
	var tc models.TaxCalculation
	err := row.Scan(
		&tc.ID,
		&tc.PropertyID,
		&tc.OwnerID,
		&tc.FiscalYear,
		&tc.BaseTax,
		&tc.LocationFactor,
		&tc.PropertyTypeFactor,
		&tc.AgeDepreciation,
		&tc.TotalTax,
		&tc.AIReasoning,
		&tc.CalculatedAt,
		&tc.PaymentStatus,
		&tc.PaidAt,
		&tc.CreatedAt,
		&tc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tc, nil
}

func (r *taxCalculationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.TaxCalculation, error) {
	query := `SELECT ` + taxCalculationColumns + `
		FROM tax_calculations
		WHERE user_id = $1
		ORDER BY created_at DESC`

	args := []any{ownerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax calculations for owner %s: %w", ownerID, err)
	}

	// CollectRows closes rows and returns an empty, non-nil slice when there are none.
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TaxCalculation, error) {
		tc, err := scanTaxCalculation(row)
		if err != nil {
			return models.TaxCalculation{}, err
		}
		return *tc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan tax calculation rows: %w", err)
	}

	return results, nil
}

func (r *taxCalculationRepository) FindByID(ctx context.Context, id, ownerID uuid.UUID) (*models.TaxCalculation, error) {
	query := `SELECT ` + taxCalculationColumns + `
		FROM tax_calculations
		WHERE id = $1 AND user_id = $2`

	tc, err := scanTaxCalculation(r.db.Pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query tax calculation %s: %w", id, err)
	}
	return tc, nil
}

func (r *taxCalculationRepository) Create(ctx context.Context, tc *models.TaxCalculation) error {
	query := `
		INSERT INTO tax_calculations (
			property_id, user_id, fiscal_year, base_tax, location_factor,
			property_type_factor, age_depreciation, total_tax, ai_reasoning,
			calculated_at, payment_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.db.Pool.QueryRow(ctx, query,
		tc.PropertyID, tc.OwnerID, tc.FiscalYear, tc.BaseTax, tc.LocationFactor,
		tc.PropertyTypeFactor, tc.AgeDepreciation, tc.TotalTax, tc.AIReasoning,
		tc.CalculatedAt, tc.PaymentStatus,
	).Scan(&tc.ID, &tc.CreatedAt, &tc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tax calculation: %w", err)
	}
	return nil
}

func (r *taxCalculationRepository) UpdatePaymentStatus(ctx context.Context, id, ownerID uuid.UUID, status models.PaymentStatus, paidAt *time.Time) (*models.TaxCalculation, error) {
	query := `
		UPDATE tax_calculations SET
			payment_status = $3,
			paid_at = $4,
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taxCalculationColumns

	tc, err := scanTaxCalculation(r.db.Pool.QueryRow(ctx, query, id, ownerID, status, paidAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update payment status for %s: %w", id, err)
	}
	return tc, nil
}

func (r *taxCalculationRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM tax_calculations WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete tax calculation %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
