package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
)

type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Notifier delivers status pushes. Callers treat failures as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string, payload map[string]any) error
}

// SlotCache holds computed free slots per photographer and day. Get reports
// the cache generation it looked in, or -1 when it could not tell; Set writes
// into that generation only. Invalidate starts a new generation, so a Set
// racing an Invalidate lands in a generation nobody reads.
type SlotCache interface {
	Get(ctx context.Context, photographerID uuid.UUID, day time.Time) (slots []domain.TimeSlot, generation int64, ok bool)
	Set(ctx context.Context, photographerID uuid.UUID, day time.Time, generation int64, slots []domain.TimeSlot)
	Invalidate(ctx context.Context, photographerID uuid.UUID)
}
