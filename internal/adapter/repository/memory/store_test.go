package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/snapbook/internal/adapter/repository/memory"
	"github.com/srgjo27/snapbook/internal/core/domain"
)

func TestListExpiredPending_OldestCreatedFirst(t *testing.T) {
	store := memory.NewStore()
	repo := store.Bookings()
	ctx := context.Background()
	base := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)

	// Sessions start in the reverse order of creation.
	var created []uuid.UUID
	for i := 0; i < 3; i++ {
		b := &domain.Booking{
			ID:        uuid.New(),
			Status:    domain.BookingPending,
			StartAt:   base.AddDate(0, 0, 10-i),
			EndAt:     base.AddDate(0, 0, 10-i).Add(time.Hour),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, b))
		created = append(created, b.ID)
	}
	require.NoError(t, repo.Create(ctx, &domain.Booking{
		ID:        uuid.New(),
		Status:    domain.BookingConfirmed,
		StartAt:   base,
		EndAt:     base.Add(time.Hour),
		CreatedAt: base.Add(-time.Hour),
	}))

	ids, err := repo.ListExpiredPending(ctx, base.Add(time.Hour), 2)

	require.NoError(t, err)
	assert.Equal(t, created[:2], ids)
}

func TestWithinTransaction_RestoresSnapshotOnError(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	userID := uuid.New()
	require.NoError(t, store.Wallets().Credit(ctx, userID, 100))

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := store.Wallets().Debit(ctx, userID, 60)
		require.NoError(t, err)
		require.True(t, ok)
		return errors.New("hold failed")
	})
	require.Error(t, err)

	w, err := store.Wallets().GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.Balance)
}
