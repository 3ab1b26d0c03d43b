package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/ports"
	"github.com/srgjo27/snapbook/internal/core/ports/mocks"
	"github.com/srgjo27/snapbook/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// faultyEscrow delegates to the real escrow unless a step is set to fail.
type faultyEscrow struct {
	*services.EscrowService
	holdErr, releaseErr, refundErr error
}

func (e *faultyEscrow) Hold(ctx context.Context, bookingID, userID uuid.UUID, amount int64) error {
	if e.holdErr != nil {
		return e.holdErr
	}
	return e.EscrowService.Hold(ctx, bookingID, userID, amount)
}

func (e *faultyEscrow) Release(ctx context.Context, bookingID uuid.UUID) (*services.FeeBreakdown, error) {
	if e.releaseErr != nil {
		return nil, e.releaseErr
	}
	return e.EscrowService.Release(ctx, bookingID)
}

func (e *faultyEscrow) Refund(ctx context.Context, bookingID, userID uuid.UUID) error {
	if e.refundErr != nil {
		return e.refundErr
	}
	return e.EscrowService.Refund(ctx, bookingID, userID)
}

// lostRollback reports every failed transaction as one that could not be
// rolled back.
type lostRollback struct {
	ports.Transactor
}

func (l lostRollback) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := l.Transactor.WithinTransaction(ctx, fn); err != nil {
		return fmt.Errorf("%w: connection lost (cause: %w)", ports.ErrRollbackFailed, err)
	}
	return nil
}

func (f *fixture) pendingBooking(t *testing.T) *domain.Booking {
	t.Helper()
	b, err := f.bookings.CreateBooking(context.Background(), f.request(at(monday, 10, 0), at(monday, 11, 0)))
	require.NoError(t, err)
	return b
}

func (f *fixture) confirmedBooking(t *testing.T) *domain.Booking {
	t.Helper()
	ctx := context.Background()
	b := f.pendingBooking(t)
	_, err := f.wallets.TopUp(ctx, f.customer.ID, b.TotalPrice)
	require.NoError(t, err)
	b, err = f.bookings.ConfirmBooking(ctx, b.ID, f.customer.ID)
	require.NoError(t, err)
	return b
}

func (f *fixture) status(t *testing.T, bookingID uuid.UUID) domain.BookingStatus {
	t.Helper()
	b, err := f.bookings.GetBooking(context.Background(), bookingID)
	require.NoError(t, err)
	return b.Status
}

func TestConfirmBooking_HoldFailureRestoresWallet(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	booking := f.pendingBooking(t)
	_, err := f.wallets.TopUp(ctx, f.customer.ID, 500000)
	require.NoError(t, err)

	svc := f.withDeps(func(d *services.BookingDeps) {
		d.Escrow = &faultyEscrow{EscrowService: f.escrow, holdErr: errors.New("ledger unavailable")}
	})

	_, err = svc.ConfirmBooking(ctx, booking.ID, f.customer.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "escrow hold failed after debit")
	assert.Equal(t, domain.CodeInternal, domain.CodeOf(err))
	assert.Equal(t, domain.BookingPending, f.status(t, booking.ID))
	assert.Equal(t, int64(500000), f.balance(t, f.customer.ID))
	assert.Zero(t, f.escrowBalance(t, booking.ID))
}

func TestCompleteBooking_ReleaseFailureKeepsConfirmed(t *testing.T) {
	f := newFixture(t, nil)
	booking := f.confirmedBooking(t)

	svc := f.withDeps(func(d *services.BookingDeps) {
		d.Escrow = &faultyEscrow{EscrowService: f.escrow, releaseErr: errors.New("ledger unavailable")}
	})

	_, split, err := svc.CompleteBooking(context.Background(), booking.ID, f.photographer.UserID)

	require.Error(t, err)
	assert.Nil(t, split)
	assert.Equal(t, domain.BookingConfirmed, f.status(t, booking.ID))
	assert.Equal(t, int64(500000), f.escrowBalance(t, booking.ID))
	assert.Zero(t, f.balance(t, f.photographer.UserID))
	assert.Zero(t, f.balance(t, f.venueOwner.ID))
}

func TestCancelBooking_RefundFailureLeavesBookingAsItWas(t *testing.T) {
	f := newFixture(t, nil)
	booking := f.confirmedBooking(t)

	svc := f.withDeps(func(d *services.BookingDeps) {
		d.Escrow = &faultyEscrow{EscrowService: f.escrow, refundErr: errors.New("ledger unavailable")}
	})

	_, err := svc.CancelBooking(context.Background(), booking.ID, f.customer.ID)

	require.Error(t, err)
	assert.Equal(t, domain.CodeInternal, domain.CodeOf(err))
	assert.Equal(t, domain.BookingConfirmed, f.status(t, booking.ID))
	assert.Zero(t, f.balance(t, f.customer.ID))
	assert.Equal(t, int64(500000), f.escrowBalance(t, booking.ID))
}

func TestConfirmBooking_FailedRollbackIsEscalated(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	booking := f.pendingBooking(t)
	_, err := f.wallets.TopUp(ctx, f.customer.ID, 500000)
	require.NoError(t, err)

	var logs bytes.Buffer
	svc := f.withDeps(func(d *services.BookingDeps) {
		d.Escrow = &faultyEscrow{EscrowService: f.escrow, holdErr: errors.New("ledger unavailable")}
		d.Tx = lostRollback{Transactor: f.store}
		d.Logger = log.New(&logs, "", 0)
	})

	_, err = svc.ConfirmBooking(ctx, booking.ID, f.customer.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCompensationFailed)
	assert.Equal(t, domain.CodeCompensationFailed, domain.CodeOf(err))
	assert.Contains(t, logs.String(), "FATAL-INCONSISTENCY op=confirm booking="+booking.ID.String())
}

func TestConfirmBooking_OrdinaryFailureIsNotEscalated(t *testing.T) {
	f := newFixture(t, nil)
	booking := f.pendingBooking(t)

	var logs bytes.Buffer
	svc := f.withDeps(func(d *services.BookingDeps) { d.Logger = log.New(&logs, "", 0) })

	_, err := svc.ConfirmBooking(context.Background(), booking.ID, f.customer.ID)

	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.NotContains(t, logs.String(), "FATAL-INCONSISTENCY")
}

func TestCreateBooking_StoreWriteFailureIsInternal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bookings := mocks.NewBookingRepository(t)
	notifier := mocks.NewNotifier(t)
	req := f.request(at(monday, 10, 0), at(monday, 11, 0))

	bookings.On("ListActiveByPhotographer", mock.Anything, f.photographer.ID, req.StartAt, req.EndAt).
		Return([]domain.Booking(nil), nil).Once()
	bookings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).
		Return(errors.New("duplicate key value violates unique constraint")).Once()

	svc := f.withDeps(func(d *services.BookingDeps) {
		d.Bookings = bookings
		d.Notifier = notifier
	})

	booking, err := svc.CreateBooking(ctx, req)

	require.Error(t, err)
	assert.Nil(t, booking)
	assert.Contains(t, err.Error(), "failed to create booking")
	assert.Equal(t, domain.CodeInternal, domain.CodeOf(err))
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateBooking_UserDirectoryFault(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	users := mocks.NewUserDirectory(t)
	svc := f.withDeps(func(d *services.BookingDeps) { d.Users = users })
	req := f.request(at(monday, 10, 0), at(monday, 11, 0))

	users.On("GetByID", mock.Anything, f.customer.ID).Return(nil, errors.New("connection reset")).Once()
	_, err := svc.CreateBooking(ctx, req)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, domain.CodeInternal, domain.CodeOf(err))

	users.On("GetByID", mock.Anything, f.customer.ID).Return(nil, ports.ErrNotFound).Once()
	_, err = svc.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	list, err := f.bookings.ListByUser(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
