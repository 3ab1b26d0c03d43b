package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/ports"
)

type PhotographerRepository struct {
	db *sql.DB
}

func NewPhotographerRepository(db *sql.DB) *PhotographerRepository {
	return &PhotographerRepository{db: db}
}

func (r *PhotographerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Photographer, error) {
	var p domain.Photographer
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, user_id, hourly_rate FROM photographers WHERE id = $1`, id,
	).Scan(&p.ID, &p.UserID, &p.HourlyRate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// LockForBooking takes a row lock on the photographer that is held until
// the surrounding transaction ends. Outside a transaction it is a no-op read.
func (r *PhotographerRepository) LockForBooking(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id FROM photographers WHERE id = $1 FOR UPDATE`, id,
	).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	return err
}
