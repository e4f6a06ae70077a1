package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/proptax/internal/database"
	"github.com/stwalsh4118/proptax/internal/models"
)

// PropertyRepository defines data access for properties.
// Every method is scoped to an owner; rows belonging to other owners are
// indistinguishable from missing rows.
type PropertyRepository interface {
	// ListByOwner returns the owner's properties, newest first.
	// Returns an empty slice if there are none.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error)

	// FindByID returns the property if it exists and belongs to ownerID.
	// Returns nil, nil otherwise.
	FindByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Property, error)

	// Create inserts p and fills in its ID and timestamps.
	Create(ctx context.Context, p *models.Property) error

	// Update overwrites the mutable fields of p. The owner is never changed.
	// Returns nil, nil if no owned row matched.
	Update(ctx context.Context, p *models.Property) (*models.Property, error)

	// Delete removes the property and, by cascade, its tax calculations.
	// Returns false if no owned row matched.
	Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
}

type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{db: db}
}

const propertyColumns = `
	id,
	user_id,
	property_name,
	property_type,
	address,
	city,
	state,
	pincode,
	area_sqft,
	built_up_area_sqft,
	floor_count,
	construction_year,
	property_value,
	status,
	latitude,
	longitude,
	created_at,
	updated_at`

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Type,
		&p.Address,
		&p.City,
		&p.State,
		&p.Pincode,
		&p.AreaSqft,
		&p.BuiltUpAreaSqft,
		&p.FloorCount,
		&p.ConstructionYear,
		&p.Value,
		&p.Status,
		&p.Latitude,
		&p.Longitude,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error) {
	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties for owner %s: %w", ownerID, err)
	}

	// CollectRows closes rows and returns an empty, non-nil slice when there are none.
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Property, error) {
		p, err := scanProperty(row)
		if err != nil {
			return models.Property{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan property rows: %w", err)
	}

	return results, nil
}

func (r *propertyRepository) FindByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE id = $1 AND user_id = $2`

	p, err := scanProperty(r.db.Pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %s: %w", id, err)
	}
	return p, nil
}

func (r *propertyRepository) Create(ctx context.Context, p *models.Property) error {
	query := `
		INSERT INTO properties (
			user_id, property_name, property_type, address, city, state, pincode,
			area_sqft, built_up_area_sqft, floor_count, construction_year,
			property_value, status, latitude, longitude
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`

	err := r.db.Pool.QueryRow(ctx, query,
		p.OwnerID, p.Name, p.Type, p.Address, p.City, p.State, p.Pincode,
		p.AreaSqft, p.BuiltUpAreaSqft, p.FloorCount, p.ConstructionYear,
		p.Value, p.Status, p.Latitude, p.Longitude,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

func (r *propertyRepository) Update(ctx context.Context, p *models.Property) (*models.Property, error) {
	query := `
		UPDATE properties SET
			property_name = $3,
			property_type = $4,
			address = $5,
			city = $6,
			state = $7,
			pincode = $8,
			area_sqft = $9,
			built_up_area_sqft = $10,
			floor_count = $11,
			construction_year = $12,
			property_value = $13,
			status = $14,
			latitude = $15,
			longitude = $16,
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + propertyColumns

	updated, err := scanProperty(r.db.Pool.QueryRow(ctx, query,
		p.ID, p.OwnerID,
		p.Name, p.Type, p.Address, p.City, p.State, p.Pincode,
		p.AreaSqft, p.BuiltUpAreaSqft, p.FloorCount, p.ConstructionYear,
		p.Value, p.Status, p.Latitude, p.Longitude,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update property %s: %w", p.ID, err)
	}
	return updated, nil
}

func (r *propertyRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM properties WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete property %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
