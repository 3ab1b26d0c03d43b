package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/ports/mocks"
	"github.com/srgjo27/snapbook/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking_Success(t *testing.T) {
	notifier := mocks.NewNotifier(t)
	f := newFixture(t, notifier)
	ctx := context.Background()

	notifier.On("Notify", mock.Anything, f.customer.ID, services.EventBookingCreated, mock.Anything).Return(nil).Once()
	notifier.On("Notify", mock.Anything, f.photographer.UserID, services.EventBookingCreated, mock.Anything).Return(nil).Once()

	booking, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 11, 0)))

	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, booking.Status)
	assert.Equal(t, int64(500000), booking.TotalPrice)
	assert.Equal(t, f.venue.ID, booking.LocationID)
	assert.Zero(t, f.escrowBalance(t, booking.ID))
}

func TestCreateBooking_ProRataPrice(t *testing.T) {
	f := newFixture(t, nil)

	booking, err := f.bookings.CreateBooking(context.Background(), f.request(at(monday, 10, 0), at(monday, 11, 30)))

	require.NoError(t, err)
	// (400000 + 100000) * 90 / 60
	assert.Equal(t, int64(750000), booking.TotalPrice)
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		mod  func(r *services.CreateBookingRequest)
		want error
	}{
		{"end before start", func(r *services.CreateBookingRequest) { r.EndAt = r.StartAt.Add(-time.Hour) }, domain.ErrInvalidTimeRange},
		{"in the past", func(r *services.CreateBookingRequest) {
			r.StartAt = testNow.Add(-2 * time.Hour)
			r.EndAt = testNow.Add(-time.Hour)
		}, domain.ErrStartInPast},
		{"too short", func(r *services.CreateBookingRequest) { r.EndAt = r.StartAt.Add(15 * time.Minute) }, domain.ErrDurationOutOfBounds},
		{"no location", func(r *services.CreateBookingRequest) { r.LocationID = "" }, domain.ErrLocationRequired},
		{"unknown user", func(r *services.CreateBookingRequest) { r.UserID = uuid.NewString() }, domain.ErrUserNotFound},
		{"unknown photographer", func(r *services.CreateBookingRequest) { r.PhotographerID = uuid.NewString() }, domain.ErrPhotographerNotFound},
		{"unknown location", func(r *services.CreateBookingRequest) { r.LocationID = uuid.NewString() }, domain.ErrLocationNotFound},
		{"bad id", func(r *services.CreateBookingRequest) { r.PhotographerID = "nope" }, domain.ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.request(at(monday, 10, 0), at(monday, 11, 0))
			tc.mod(&req)
			_, err := f.bookings.CreateBooking(ctx, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateBooking_OutsideAvailability(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.bookings.CreateBooking(context.Background(), f.request(at(monday, 16, 30), at(monday, 17, 30)))

	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
}

func TestCreateBooking_DoubleBookingSamePhotographer(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 12, 0)))
	require.NoError(t, err)

	_, err = f.bookings.CreateBooking(ctx, f.request(at(monday, 11, 0), at(monday, 13, 0)))
	assert.ErrorIs(t, err, domain.ErrDoubleBooking)

	// Same photographer elsewhere at the same time is still unavailable.
	req := f.request(at(monday, 11, 0), at(monday, 13, 0))
	req.LocationID = ""
	req.ExternalPlace = &services.ExternalPlace{PlaceID: "place-1", Name: "Park"}
	_, err = f.bookings.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)

	// Back to back is fine.
	_, err = f.bookings.CreateBooking(ctx, f.request(at(monday, 12, 0), at(monday, 13, 0)))
	assert.NoError(t, err)
}

func TestCreateBooking_SharedLocationDifferentPhotographer(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	other := f.addPhotographer(t, 300000)

	_, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 12, 0)))
	require.NoError(t, err)

	req := f.request(at(monday, 10, 0), at(monday, 12, 0))
	req.PhotographerID = other.ID.String()
	booking, err := f.bookings.CreateBooking(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, other.ID, booking.PhotographerID)
}

func TestCreateBooking_ConcurrentRequestsForSameSlot(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 11, 0))); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestCreateBooking_ExternalPlaceIsReused(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	place := &services.ExternalPlace{PlaceID: "gmaps:abc", Name: "Botanic Garden", Latitude: -6.6, Longitude: 106.8}
	req := f.request(at(monday, 9, 0), at(monday, 10, 0))
	req.LocationID = ""
	req.ExternalPlace = place

	first, err := f.bookings.CreateBooking(ctx, req)
	require.NoError(t, err)
	// External venues carry no fee.
	assert.Equal(t, int64(400000), first.TotalPrice)

	req.StartAt, req.EndAt = at(monday, 14, 0), at(monday, 15, 0)
	second, err := f.bookings.CreateBooking(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.LocationID, second.LocationID)
}

func TestCreateBooking_EventOverridesVenueFee(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	event := domain.LocationEvent{ID: uuid.New(), LocationID: f.venue.ID, Name: "Wedding Fair", Price: 200000}
	f.store.AddEvent(event)

	req := f.request(at(monday, 10, 0), at(monday, 12, 0))
	req.EventID = event.ID.String()
	booking, err := f.bookings.CreateBooking(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, booking.LocationFeeOverride)
	assert.Equal(t, int64(200000), *booking.LocationFeeOverride)
	assert.Equal(t, int64(800000+200000), booking.TotalPrice)

	other := domain.Location{ID: uuid.New(), Type: domain.LocationRegistered, Name: "Elsewhere"}
	f.store.AddLocation(other)
	req = f.request(at(monday, 13, 0), at(monday, 14, 0))
	req.LocationID = other.ID.String()
	req.EventID = event.ID.String()
	_, err = f.bookings.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, domain.ErrEventLocationMismatch)
}

func TestConfirmBooking_InsufficientFunds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.wallets.TopUp(ctx, f.customer.ID, 100000)
	require.NoError(t, err)
	booking, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 11, 0)))
	require.NoError(t, err)

	_, err = f.bookings.ConfirmBooking(ctx, booking.ID, f.customer.ID)

	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	stored, err := f.bookings.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, stored.Status)
	assert.Equal(t, int64(100000), f.balance(t, f.customer.ID))
	assert.Zero(t, f.escrowBalance(t, booking.ID))
}

func TestConfirmBooking_OnlyCustomer(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	booking, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 11, 0)))
	require.NoError(t, err)

	_, err = f.bookings.ConfirmBooking(ctx, booking.ID, f.photographer.UserID)
	assert.ErrorIs(t, err, domain.ErrNotBookingOwner)

	_, err = f.bookings.ConfirmBooking(ctx, uuid.New(), f.customer.ID)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestBookingLifecycle_ConfirmAndComplete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.wallets.TopUp(ctx, f.customer.ID, 500000)
	require.NoError(t, err)
	booking, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 11, 0)))
	require.NoError(t, err)

	confirmed, err := f.bookings.ConfirmBooking(ctx, booking.ID, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, confirmed.Status)
	assert.Zero(t, f.balance(t, f.customer.ID))
	assert.Equal(t, int64(500000), f.escrowBalance(t, booking.ID))

	completed, split, err := f.bookings.CompleteBooking(ctx, booking.ID, f.photographer.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, completed.Status)
	assert.Equal(t, int64(50000), split.PlatformFee)
	assert.Equal(t, int64(90000), split.EffectiveLocationFee)
	assert.Equal(t, int64(360000), split.PayeePayout)

	assert.Equal(t, int64(360000), f.balance(t, f.photographer.UserID))
	assert.Equal(t, int64(90000), f.balance(t, f.venueOwner.ID))
	assert.Zero(t, f.escrowBalance(t, booking.ID))

	state, _, err := f.escrow.State(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EscrowReleased, state)

	entries, err := f.escrow.Entries(ctx, booking.ID)
	require.NoError(t, err)
	var platform int64
	for _, e := range entries {
		if e.Type == domain.EntryPlatformFee {
			platform += e.Amount
		}
	}
	assert.Equal(t, int64(50000), platform)

	_, _, err = f.bookings.CompleteBooking(ctx, booking.ID, f.customer.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancelBooking_ConfirmedIsRefundedOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.wallets.TopUp(ctx, f.customer.ID, 500000)
	require.NoError(t, err)
	booking, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 11, 0)))
	require.NoError(t, err)
	_, err = f.bookings.ConfirmBooking(ctx, booking.ID, f.customer.ID)
	require.NoError(t, err)

	cancelled, err := f.bookings.CancelBooking(ctx, booking.ID, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.Equal(t, int64(500000), f.balance(t, f.customer.ID))
	assert.Zero(t, f.escrowBalance(t, booking.ID))

	_, err = f.bookings.CancelBooking(ctx, booking.ID, f.customer.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(500000), f.balance(t, f.customer.ID))
}

func TestCancelBooking_PendingMovesNoMoney(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	booking, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 11, 0)))
	require.NoError(t, err)

	_, err = f.bookings.CancelBooking(ctx, uuid.New(), f.customer.ID)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	_, err = f.bookings.CancelBooking(ctx, booking.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotBookingOwner)

	cancelled, err := f.bookings.CancelBooking(ctx, booking.ID, f.photographer.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.Zero(t, f.balance(t, f.customer.ID))

	// The slot is free again.
	_, err = f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 11, 0)))
	assert.NoError(t, err)
}

func TestCompleteBooking_PendingIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	booking, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 11, 0)))
	require.NoError(t, err)

	_, _, err = f.bookings.CompleteBooking(ctx, booking.ID, f.customer.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Zero(t, f.balance(t, f.photographer.UserID))
}

func TestUpdateBooking(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	booking, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 11, 0)))
	require.NoError(t, err)

	note := "golden hour please"
	start, end := at(monday, 13, 0), at(monday, 14, 0)
	updated, err := f.bookings.UpdateBooking(ctx, booking.ID, f.customer.ID, services.UpdateBookingRequest{
		StartAt:         &start,
		EndAt:           &end,
		SpecialRequests: &note,
	})
	require.NoError(t, err)
	assert.Equal(t, note, updated.SpecialRequests)
	assert.True(t, updated.StartAt.Equal(start))
	assert.Equal(t, booking.TotalPrice, updated.TotalPrice)

	bad := at(monday, 12, 0)
	_, err = f.bookings.UpdateBooking(ctx, booking.ID, f.customer.ID, services.UpdateBookingRequest{EndAt: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	_, err = f.bookings.UpdateBooking(ctx, booking.ID, f.photographer.UserID, services.UpdateBookingRequest{SpecialRequests: &note})
	assert.ErrorIs(t, err, domain.ErrNotBookingOwner)

	_, err = f.bookings.CancelBooking(ctx, booking.ID, f.customer.ID)
	require.NoError(t, err)
	_, err = f.bookings.UpdateBooking(ctx, booking.ID, f.customer.ID, services.UpdateBookingRequest{SpecialRequests: &note})
	assert.ErrorIs(t, err, domain.ErrNotPending)
}

func TestCancelExpiredPending(t *testing.T) {
	notifier := mocks.NewNotifier(t)
	f := newFixture(t, notifier)
	ctx := context.Background()

	notifier.On("Notify", mock.Anything, mock.Anything, services.EventBookingCreated, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, mock.Anything, services.EventBookingConfirmed, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, f.customer.ID, services.EventBookingExpired, mock.Anything).Return(nil).Once()
	notifier.On("Notify", mock.Anything, f.photographer.UserID, services.EventBookingExpired, mock.Anything).Return(nil).Once()

	_, err := f.wallets.TopUp(ctx, f.customer.ID, 500000)
	require.NoError(t, err)
	stale, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 11, 0)))
	require.NoError(t, err)
	confirmed, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 12, 0), at(monday, 13, 0)))
	require.NoError(t, err)

	// Not expired yet.
	n, err := f.bookings.CancelExpiredPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.bookings.ConfirmBooking(ctx, confirmed.ID, f.customer.ID)
	require.NoError(t, err)

	*f.clock = testNow.Add(services.DefaultPendingTimeout + time.Second)
	n, err = f.bookings.CancelExpiredPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.bookings.GetBooking(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)

	got, err = f.bookings.GetBooking(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
}

func TestNotifierFailureDoesNotFailTheOperation(t *testing.T) {
	notifier := mocks.NewNotifier(t)
	f := newFixture(t, notifier)

	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	booking, err := f.bookings.CreateBooking(context.Background(), f.request(at(monday, 10, 0), at(monday, 11, 0)))

	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, booking.Status)
	notifier.AssertNumberOfCalls(t, "Notify", 2)
}

func TestListBookings(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.bookings.CreateBooking(ctx, f.request(at(monday, 10, 0), at(monday, 11, 0)))
	require.NoError(t, err)
	_, err = f.bookings.CreateBooking(ctx, f.request(at(monday, 14, 0), at(monday, 15, 0)))
	require.NoError(t, err)

	mine, err := f.bookings.ListByUser(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.True(t, mine[0].StartAt.After(mine[1].StartAt))

	theirs, err := f.bookings.ListByPhotographer(ctx, f.photographer.ID)
	require.NoError(t, err)
	assert.Len(t, theirs, 2)

	_, err = f.bookings.GetBooking(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}
