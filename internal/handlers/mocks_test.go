package handlers

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/proptax/internal/logger"
	"github.com/stwalsh4118/proptax/internal/middleware"
	"github.com/stwalsh4118/proptax/internal/models"
	"github.com/stwalsh4118/proptax/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter builds a router with the production middleware chain and,
// when userID is not uuid.Nil, a stand-in for middleware.Auth.
func newTestRouter(userID uuid.UUID) *gin.Engine {
	log := logger.New("test")
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	if userID != uuid.Nil {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.UserIDKey, userID)
			c.Next()
		})
	}
	return router
}

// MockPropertyService is a mock implementation of services.PropertyService.
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertyService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) Create(ctx context.Context, ownerID uuid.UUID, p *models.Property) (*models.Property, error) {
	args := m.Called(ctx, ownerID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) Update(ctx context.Context, ownerID, id uuid.UUID, p *models.Property) (*models.Property, error) {
	args := m.Called(ctx, ownerID, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockTaxCalculationService is a mock implementation of services.TaxCalculationService.
type MockTaxCalculationService struct {
	mock.Mock
}

func (m *MockTaxCalculationService) List(ctx context.Context, ownerID uuid.UUID) ([]models.TaxCalculation, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TaxCalculation), args.Error(1)
}

func (m *MockTaxCalculationService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.TaxCalculation, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaxCalculation), args.Error(1)
}

func (m *MockTaxCalculationService) CalculateForProperty(ctx context.Context, ownerID, propertyID uuid.UUID, fiscalYear string) (*services.CalculationResult, error) {
	args := m.Called(ctx, ownerID, propertyID, fiscalYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CalculationResult), args.Error(1)
}

func (m *MockTaxCalculationService) UpdatePaymentStatus(ctx context.Context, ownerID, id uuid.UUID, status models.PaymentStatus) (*models.TaxCalculation, error) {
	args := m.Called(ctx, ownerID, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaxCalculation), args.Error(1)
}

func (m *MockTaxCalculationService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockTaxEstimator is a mock implementation of services.TaxEstimator.
type MockTaxEstimator struct {
	mock.Mock
}

func (m *MockTaxEstimator) Estimate(ctx context.Context, attrs models.PropertyAttributes) (*services.TaxEstimate, error) {
	args := m.Called(ctx, attrs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TaxEstimate), args.Error(1)
}

// MockTaxAssistant is a mock implementation of services.TaxAssistant.
type MockTaxAssistant struct {
	mock.Mock
}

func (m *MockTaxAssistant) Ask(ctx context.Context, ownerID uuid.UUID, q services.AssistantQuery) (io.ReadCloser, error) {
	args := m.Called(ctx, ownerID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// MockAuthService is a mock implementation of services.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password, fullName string) (*services.AuthResult, error) {
	args := m.Called(ctx, email, password, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuthService) ParseToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockStatsService is a mock implementation of services.StatsService.
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Dashboard(ctx context.Context, ownerID uuid.UUID) (*services.DashboardStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardStats), args.Error(1)
}
