package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/stwalsh4118/proptax/internal/logger"
	"github.com/stwalsh4118/proptax/internal/models"
	"github.com/stwalsh4118/proptax/internal/repository"
)

// FiscalYearTax is the total tax assessed for one fiscal year.
type FiscalYearTax struct {
	FiscalYear string  `json:"fiscal_year"`
	TotalTax   float64 `json:"total_tax"`
}

// DashboardStats summarises an owner's portfolio and tax position.
type DashboardStats struct {
	PropertiesByType map[models.PropertyType]int `json:"properties_by_type"`
	TaxByFiscalYear  []FiscalYearTax             `json:"tax_by_fiscal_year"`
	TotalProperties  int                         `json:"total_properties"`
	CalculationCount int                         `json:"calculation_count"`
	TotalValue       float64                     `json:"total_value"`
	TotalArea        float64                     `json:"total_area_sqft"`
	TotalTax         float64                     `json:"total_tax"`
	PendingTax       float64                     `json:"pending_tax"`
	PaidTax          float64                     `json:"paid_tax"`
}

// StatsService computes dashboard statistics.
type StatsService interface {
	Dashboard(ctx context.Context, ownerID uuid.UUID) (*DashboardStats, error)
}

type statsService struct {
	repo repository.StatsRepository
	log  *logger.Logger
}

// NewStatsService creates a new instance of StatsService.
func NewStatsService(repo repository.StatsRepository, log *logger.Logger) StatsService {
	return &statsService{repo: repo, log: log}
}

func (s *statsService) Dashboard(ctx context.Context, ownerID uuid.UUID) (*DashboardStats, error) {
	props, err := s.repo.PropertyTotals(ctx, ownerID)
	if err != nil {
		s.log.Error("Failed to aggregate properties", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, fmt.Errorf("failed to compute property stats: %w", err)
	}

	taxes, err := s.repo.TaxTotals(ctx, ownerID)
	if err != nil {
		s.log.Error("Failed to aggregate tax calculations", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, fmt.Errorf("failed to compute tax stats: %w", err)
	}

	byYear := make([]FiscalYearTax, 0, len(taxes.ByFiscalYear))
	for fy, total := range taxes.ByFiscalYear {
		byYear = append(byYear, FiscalYearTax{FiscalYear: fy, TotalTax: total})
	}
	sort.Slice(byYear, func(i, j int) bool {
		return byYear[i].FiscalYear < byYear[j].FiscalYear
	})

	return &DashboardStats{
		PropertiesByType: props.ByType,
		TaxByFiscalYear:  byYear,
		TotalProperties:  props.Count,
		CalculationCount: taxes.Count,
		TotalValue:       props.TotalValue,
		TotalArea:        props.TotalArea,
		TotalTax:         taxes.TotalTax,
		PendingTax:       taxes.PendingTax,
		PaidTax:          taxes.TotalTax - taxes.PendingTax,
	}, nil
}
