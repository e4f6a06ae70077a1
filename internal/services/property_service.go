package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/proptax/internal/logger"
	"github.com/stwalsh4118/proptax/internal/models"
	"github.com/stwalsh4118/proptax/internal/repository"
)

// MinConstructionYear is the earliest accepted construction year.
const MinConstructionYear = 1800

// PropertyService manages an owner's properties.
type PropertyService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error)

	// Get returns ErrNotAuthorized if the property is missing or not owned.
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Property, error)

	// Create applies defaults, validates, and stores p for ownerID.
	Create(ctx context.Context, ownerID uuid.UUID, p *models.Property) (*models.Property, error)

	// Update replaces the mutable fields of the owned property id with p.
	// The owner is never changed.
	Update(ctx context.Context, ownerID, id uuid.UUID, p *models.Property) (*models.Property, error)

	// Delete removes the property and its tax calculations.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type propertyService struct {
	repo repository.PropertyRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(repo repository.PropertyRepository, log *logger.Logger) PropertyService {
	return &propertyService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

func (s *propertyService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error) {
	props, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.log.Error("Failed to list properties", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return props, nil
}

func (s *propertyService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Property, error) {
	p, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		s.log.Error("Failed to query property", err, map[string]interface{}{
			"property_id": id,
		})
		return nil, fmt.Errorf("failed to query property: %w", err)
	}
	if p == nil {
		return nil, ErrNotAuthorized
	}
	return p, nil
}

func (s *propertyService) Create(ctx context.Context, ownerID uuid.UUID, p *models.Property) (*models.Property, error) {
	applyPropertyDefaults(p)
	if err := validateProperty(p, s.now().Year()); err != nil {
		return nil, err
	}

	p.OwnerID = ownerID
	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("Failed to create property", err, map[string]interface{}{
			"owner_id": ownerID,
		})
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	s.log.Info("Property created", map[string]interface{}{
		"property_id": p.ID,
		"owner_id":    ownerID,
		"type":        p.Type,
	})
	return p, nil
}

func (s *propertyService) Update(ctx context.Context, ownerID, id uuid.UUID, p *models.Property) (*models.Property, error) {
	applyPropertyDefaults(p)
	if err := validateProperty(p, s.now().Year()); err != nil {
		return nil, err
	}

	p.ID = id
	p.OwnerID = ownerID
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		s.log.Error("Failed to update property", err, map[string]interface{}{
			"property_id": id,
		})
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	if updated == nil {
		return nil, ErrNotAuthorized
	}
	return updated, nil
}

func (s *propertyService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		s.log.Error("Failed to delete property", err, map[string]interface{}{
			"property_id": id,
		})
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if !deleted {
		return ErrNotAuthorized
	}

	s.log.Info("Property deleted", map[string]interface{}{
		"property_id": id,
	})
	return nil
}

func applyPropertyDefaults(p *models.Property) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Type == "" {
		p.Type = models.PropertyTypeResidential
	}
	if p.City == "" {
		p.City = models.DefaultCity
	}
	if p.State == "" {
		p.State = models.DefaultState
	}
	if p.Status == "" {
		p.Status = models.PropertyStatusActive
	}
}

func validateProperty(p *models.Property, currentYear int) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: property_name is required", ErrInvalidProperty)
	case !p.Type.Valid():
		return fmt.Errorf("%w: unknown property_type %q", ErrInvalidProperty, p.Type)
	case !p.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProperty, p.Status)
	case p.AreaSqft <= 0:
		return fmt.Errorf("%w: area_sqft must be positive", ErrInvalidProperty)
	case p.Value <= 0:
		return fmt.Errorf("%w: property_value must be positive", ErrInvalidProperty)
	case p.BuiltUpAreaSqft != nil && *p.BuiltUpAreaSqft <= 0:
		return fmt.Errorf("%w: built_up_area_sqft must be positive", ErrInvalidProperty)
	case p.FloorCount != nil && *p.FloorCount < 1:
		return fmt.Errorf("%w: floor_count must be at least 1", ErrInvalidProperty)
	case p.ConstructionYear != nil && (*p.ConstructionYear < MinConstructionYear || *p.ConstructionYear > currentYear):
		return fmt.Errorf("%w: construction_year must be between %d and %d",
			ErrInvalidProperty, MinConstructionYear, currentYear)
	}

	if _, err := models.NewPoint(p.Latitude, p.Longitude); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProperty, err)
	}
	return nil
}
