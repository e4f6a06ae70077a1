package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/proptax/internal/llm"
	"github.com/stwalsh4118/proptax/internal/models"
	"github.com/stwalsh4118/proptax/internal/repository"
)

// MockPropertyRepository is a mock implementation of PropertyRepository for testing
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) Create(ctx context.Context, p *models.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPropertyRepository) Update(ctx context.Context, p *models.Property) (*models.Property, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

// MockTaxCalculationRepository is a mock implementation of TaxCalculationRepository for testing
type MockTaxCalculationRepository struct {
	mock.Mock
}

func (m *MockTaxCalculationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.TaxCalculation, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TaxCalculation), args.Error(1)
}

func (m *MockTaxCalculationRepository) FindByID(ctx context.Context, id, ownerID uuid.UUID) (*models.TaxCalculation, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaxCalculation), args.Error(1)
}

func (m *MockTaxCalculationRepository) Create(ctx context.Context, tc *models.TaxCalculation) error {
	args := m.Called(ctx, tc)
	return args.Error(0)
}

func (m *MockTaxCalculationRepository) UpdatePaymentStatus(ctx context.Context, id, ownerID uuid.UUID, status models.PaymentStatus, paidAt *time.Time) (*models.TaxCalculation, error) {
	args := m.Called(ctx, id, ownerID, status, paidAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaxCalculation), args.Error(1)
}

func (m *MockTaxCalculationRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *models.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockStatsRepository is a mock implementation of StatsRepository for testing
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) PropertyTotals(ctx context.Context, ownerID uuid.UUID) (*repository.PropertyTotals, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PropertyTotals), args.Error(1)
}

func (m *MockStatsRepository) TaxTotals(ctx context.Context, ownerID uuid.UUID) (*repository.TaxTotals, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TaxTotals), args.Error(1)
}

// MockLLMClient is a mock implementation of llm.Client for testing
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockLLMClient) Stream(ctx context.Context, req llm.ChatRequest) (io.ReadCloser, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// MockTaxEstimator is a mock implementation of TaxEstimator for testing
type MockTaxEstimator struct {
	mock.Mock
}

func (m *MockTaxEstimator) Estimate(ctx context.Context, attrs models.PropertyAttributes) (*TaxEstimate, error) {
	args := m.Called(ctx, attrs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TaxEstimate), args.Error(1)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
