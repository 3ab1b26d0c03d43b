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

const bookingColumns = `id, user_id, photographer_id, location_id, event_id, start_at, end_at, status,
	total_price, location_fee_override, special_requests, created_at, updated_at`

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
	INSERT INTO bookings (` + bookingColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		b.ID, b.UserID, b.PhotographerID, b.LocationID, nullUUID(b.EventID),
		b.StartAt, b.EndAt, b.Status, b.TotalPrice, nullInt64(b.LocationFeeOverride),
		b.SpecialRequests, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	return scanBooking(row)
}

// Update writes the mutable fields. total_price is never rewritten.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `
	UPDATE bookings
	SET status = $1, start_at = $2, end_at = $3, special_requests = $4, updated_at = $5
	WHERE id = $6
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, b.Status, b.StartAt, b.EndAt, b.SpecialRequests, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) ListActiveByPhotographer(ctx context.Context, photographerID uuid.UUID, from, to time.Time) ([]domain.Booking, error) {
	query := `
	SELECT ` + bookingColumns + `
	FROM bookings
	WHERE photographer_id = $1
		AND status IN ('PENDING', 'CONFIRMED')
		AND start_at < $3 AND end_at > $2
	ORDER BY start_at
	`
	return r.list(ctx, query, photographerID, from, to)
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY start_at DESC`, userID)
}

func (r *BookingRepository) ListByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE photographer_id = $1 ORDER BY start_at DESC`, photographerID)
}

func (r *BookingRepository) ListExpiredPending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error) {
	query := `
	SELECT id FROM bookings
	WHERE status = 'PENDING' AND created_at < $1
	ORDER BY created_at
	LIMIT $2
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (*domain.Booking, error) {
	var (
		b        domain.Booking
		eventID  uuid.NullUUID
		override sql.NullInt64
	)
	err := s.Scan(
		&b.ID,
		&b.UserID,
		&b.PhotographerID,
		&b.LocationID,
		&eventID,
		&b.StartAt,
		&b.EndAt,
		&b.Status,
		&b.TotalPrice,
		&override,
		&b.SpecialRequests,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	if eventID.Valid {
		b.EventID = &eventID.UUID
	}
	if override.Valid {
		b.LocationFeeOverride = &override.Int64
	}
	return &b, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
