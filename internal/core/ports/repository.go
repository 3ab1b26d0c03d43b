package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrRollbackFailed is wrapped into the returned error when a transaction
// could not be rolled back after fn failed.
var ErrRollbackFailed = errors.New("transaction rollback failed")

// Transactor runs fn inside one atomic commit. Repositories called with the
// ctx passed to fn join that transaction; nested calls reuse it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	// ListActiveByPhotographer returns PENDING/CONFIRMED bookings overlapping [from, to).
	ListActiveByPhotographer(ctx context.Context, photographerID uuid.UUID, from, to time.Time) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	ListByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]domain.Booking, error)
	ListExpiredPending(ctx context.Context, createdBefore time.Time, limit int) ([]uuid.UUID, error)
}

type AvailabilityRepository interface {
	Create(ctx context.Context, a *domain.Availability) error
	Update(ctx context.Context, a *domain.Availability) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Availability, error)
	ListByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]domain.Availability, error)
	ListByPhotographerDay(ctx context.Context, photographerID uuid.UUID, day time.Weekday) ([]domain.Availability, error)
}

type LocationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Location, error)
	// FindOrCreateExternal returns the row keyed by loc.ExternalPlaceID,
	// inserting loc only when no such row exists.
	FindOrCreateExternal(ctx context.Context, loc *domain.Location) (*domain.Location, error)
}

type LocationEventRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LocationEvent, error)
}

type PhotographerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Photographer, error)
	// LockForBooking serialises booking writes for one photographer until
	// the surrounding transaction ends.
	LockForBooking(ctx context.Context, id uuid.UUID) error
}

type WalletRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	// Credit creates the wallet on first use.
	Credit(ctx context.Context, userID uuid.UUID, amount int64) error
	// Debit reports false, without error, when the wallet is missing or short.
	Debit(ctx context.Context, userID uuid.UUID, amount int64) (bool, error)
}

type LedgerRepository interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) error
	EscrowTotals(ctx context.Context, bookingID uuid.UUID) (domain.EscrowTotals, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.LedgerEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.LedgerEntry, error)
}
