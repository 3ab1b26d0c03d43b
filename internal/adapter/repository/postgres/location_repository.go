package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/ports"
)

const locationColumns = `id, owner_id, type, external_place_id, name, address, latitude, longitude,
	hourly_rate, created_at, updated_at`

type LocationRepository struct {
	db *sql.DB
}

func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Location, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	return scanLocation(row)
}

// FindOrCreateExternal relies on the unique index on external_place_id, so
// two concurrent first bookings of the same place end up with one row.
func (r *LocationRepository) FindOrCreateExternal(ctx context.Context, loc *domain.Location) (*domain.Location, error) {
	if loc.ExternalPlaceID == nil || *loc.ExternalPlaceID == "" {
		return nil, domain.ErrExternalPlaceInvalid
	}

	q := conn(ctx, r.db)
	insert := `
	INSERT INTO locations (` + locationColumns + `)
	VALUES ($1, NULL, $2, $3, $4, $5, $6, $7, 0, $8, $9)
	ON CONFLICT (external_place_id) DO NOTHING
	`
	_, err := q.ExecContext(ctx, insert,
		loc.ID, domain.LocationExternal, *loc.ExternalPlaceID, loc.Name, loc.Address,
		loc.Latitude, loc.Longitude, loc.CreatedAt, loc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert external location: %w", err)
	}

	row := q.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE external_place_id = $1`, *loc.ExternalPlaceID)
	return scanLocation(row)
}

func scanLocation(s scanner) (*domain.Location, error) {
	var (
		l       domain.Location
		ownerID uuid.NullUUID
		placeID sql.NullString
	)
	err := s.Scan(&l.ID, &ownerID, &l.Type, &placeID, &l.Name, &l.Address, &l.Latitude, &l.Longitude,
		&l.HourlyRate, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	if ownerID.Valid {
		l.OwnerID = &ownerID.UUID
	}
	if placeID.Valid {
		l.ExternalPlaceID = &placeID.String
	}
	return &l, nil
}

type LocationEventRepository struct {
	db *sql.DB
}

func NewLocationEventRepository(db *sql.DB) *LocationEventRepository {
	return &LocationEventRepository{db: db}
}

func (r *LocationEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LocationEvent, error) {
	query := `
	SELECT id, location_id, name, price, starts_at, ends_at
	FROM location_events
	WHERE id = $1
	`

	var ev domain.LocationEvent
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&ev.ID, &ev.LocationID, &ev.Name, &ev.Price, &ev.StartsAt, &ev.EndsAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}
