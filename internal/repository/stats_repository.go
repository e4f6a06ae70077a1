package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/proptax/internal/database"
	"github.com/stwalsh4118/proptax/internal/models"
)

// PropertyTotals aggregates an owner's property portfolio.
type PropertyTotals struct {
	ByType     map[models.PropertyType]int
	Count      int
	TotalValue float64
	TotalArea  float64
}

// TaxTotals aggregates an owner's tax calculations.
type TaxTotals struct {
	ByFiscalYear map[string]float64
	Count        int
	TotalTax     float64
	PendingTax   float64
}

// StatsRepository runs aggregate queries for the dashboard.
type StatsRepository interface {
	PropertyTotals(ctx context.Context, ownerID uuid.UUID) (*PropertyTotals, error)
	TaxTotals(ctx context.Context, ownerID uuid.UUID) (*TaxTotals, error)
}

type statsRepository struct {
	db *database.Database
}

// NewStatsRepository creates a new instance of StatsRepository.
func NewStatsRepository(db *database.Database) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) PropertyTotals(ctx context.Context, ownerID uuid.UUID) (*PropertyTotals, error) {
	query := `
		SELECT property_type, count(*), COALESCE(sum(property_value), 0), COALESCE(sum(area_sqft), 0)
		FROM properties
		WHERE user_id = $1
		GROUP BY property_type`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate properties for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	totals := &PropertyTotals{ByType: map[models.PropertyType]int{}}
	for rows.Next() {
		var (
			pt    models.PropertyType
			count int
			value float64
			area  float64
		)
		if err := rows.Scan(&pt, &count, &value, &area); err != nil {
			return nil, fmt.Errorf("failed to scan property totals: %w", err)
		}
		totals.ByType[pt] = count
		totals.Count += count
		totals.TotalValue += value
		totals.TotalArea += area
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property totals: %w", err)
	}
	return totals, nil
}

func (r *statsRepository) TaxTotals(ctx context.Context, ownerID uuid.UUID) (*TaxTotals, error) {
	query := `
		SELECT
			fiscal_year,
			count(*),
			COALESCE(sum(total_tax), 0),
			COALESCE(sum(total_tax) FILTER (WHERE payment_status = 'pending'), 0)
		FROM tax_calculations
		WHERE user_id = $1
		GROUP BY fiscal_year`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tax calculations for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	totals := &TaxTotals{ByFiscalYear: map[string]float64{}}
	for rows.Next() {
		var (
			fy      string
			count   int
			total   float64
			pending float64
		)
		if err := rows.Scan(&fy, &count, &total, &pending); err != nil {
			return nil, fmt.Errorf("failed to scan tax totals: %w", err)
		}
		totals.ByFiscalYear[fy] = total
		totals.Count += count
		totals.TotalTax += total
		totals.PendingTax += pending
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tax totals: %w", err)
	}
	return totals, nil
}
