package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/ports"
)

// Windows are stored as minutes from midnight.
const availabilityColumns = `id, photographer_id, day_of_week, start_minute, end_minute, status, created_at, updated_at`

type AvailabilityRepository struct {
	db *sql.DB
}

func NewAvailabilityRepository(db *sql.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) Create(ctx context.Context, a *domain.Availability) error {
	query := `
	INSERT INTO availabilities (` + availabilityColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		a.ID, a.PhotographerID, int(a.DayOfWeek), toMinutes(a.StartTime), toMinutes(a.EndTime),
		a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert availability: %w", err)
	}
	return nil
}

func (r *AvailabilityRepository) Update(ctx context.Context, a *domain.Availability) error {
	query := `
	UPDATE availabilities
	SET day_of_week = $1, start_minute = $2, end_minute = $3, status = $4, updated_at = $5
	WHERE id = $6
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		int(a.DayOfWeek), toMinutes(a.StartTime), toMinutes(a.EndTime), a.Status, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *AvailabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM availabilities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *AvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Availability, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+availabilityColumns+` FROM availabilities WHERE id = $1`, id)
	a, err := scanAvailability(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	return a, err
}

func (r *AvailabilityRepository) ListByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]domain.Availability, error) {
	return r.list(ctx, `
	SELECT `+availabilityColumns+`
	FROM availabilities
	WHERE photographer_id = $1
	ORDER BY day_of_week, start_minute
	`, photographerID)
}

func (r *AvailabilityRepository) ListByPhotographerDay(ctx context.Context, photographerID uuid.UUID, day time.Weekday) ([]domain.Availability, error) {
	return r.list(ctx, `
	SELECT `+availabilityColumns+`
	FROM availabilities
	WHERE photographer_id = $1 AND day_of_week = $2
	ORDER BY start_minute
	`, photographerID, int(day))
}

func (r *AvailabilityRepository) list(ctx context.Context, query string, args ...any) ([]domain.Availability, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAvailability(s scanner) (*domain.Availability, error) {
	var (
		a                domain.Availability
		day, start, stop int
	)
	if err := s.Scan(&a.ID, &a.PhotographerID, &day, &start, &stop, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.DayOfWeek = time.Weekday(day)
	a.StartTime = time.Duration(start) * time.Minute
	a.EndTime = time.Duration(stop) * time.Minute
	return &a, nil
}

func toMinutes(d time.Duration) int {
	return int(d / time.Minute)
}
