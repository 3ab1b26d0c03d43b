package services_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/adapter/repository/memory"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/ports"
	"github.com/srgjo27/snapbook/internal/core/services"
	"github.com/stretchr/testify/require"
)

var (
	// testNow is a Tuesday; monday is the following Monday.
	testNow = time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	monday  = time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
)

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

type fixture struct {
	store        *memory.Store
	wallets      *services.WalletService
	escrow       *services.EscrowService
	availability *services.AvailabilityService
	bookings     *services.BookingService
	deps         services.BookingDeps
	clock        *time.Time

	customer     domain.User
	photographer domain.Photographer
	venueOwner   domain.User
	venue        domain.Location
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// newFixture wires every service on a memory store. The photographer charges
// 400000/h, the venue 100000/h, and the photographer works Mondays 09-17.
func newFixture(t *testing.T, notifier ports.Notifier) *fixture {
	t.Helper()

	store := memory.NewStore()
	logger := discardLogger()
	now := testNow

	f := &fixture{store: store, clock: &now}

	f.customer = domain.User{ID: uuid.New(), FullName: "Customer", Email: "customer@example.com"}
	store.AddUser(f.customer)

	photographerUser := domain.User{ID: uuid.New(), FullName: "Photographer", Email: "photo@example.com"}
	store.AddUser(photographerUser)
	f.photographer = domain.Photographer{ID: uuid.New(), UserID: photographerUser.ID, HourlyRate: 400000}
	store.AddPhotographer(f.photographer)

	f.venueOwner = domain.User{ID: uuid.New(), FullName: "Venue Owner", Email: "venue@example.com"}
	store.AddUser(f.venueOwner)
	f.venue = domain.Location{
		ID:         uuid.New(),
		OwnerID:    &f.venueOwner.ID,
		Type:       domain.LocationRegistered,
		Name:       "Studio One",
		HourlyRate: 100000,
	}
	store.AddLocation(f.venue)

	calc := services.NewPaymentCalculator(10)
	f.wallets = services.NewWalletService(store.Wallets(), store.Ledger(), store, logger)
	f.escrow = services.NewEscrowService(store.Ledger(), f.wallets, store.Bookings(), store.Locations(),
		store.Photographers(), calc, store, logger)
	f.availability = services.NewAvailabilityService(store.Availabilities(), store.Bookings(),
		store.Photographers(), nil, logger)
	f.deps = services.BookingDeps{
		Bookings:      store.Bookings(),
		Photographers: store.Photographers(),
		Locations:     store.Locations(),
		Events:        store.Events(),
		Users:         store.Users(),
		Availability:  f.availability,
		Calculator:    calc,
		Wallets:       f.wallets,
		Escrow:        f.escrow,
		Tx:            store,
		Notifier:      notifier,
		Logger:        logger,
	}
	f.bookings = f.withDeps(nil)

	f.openMonday(t, f.photographer.ID)
	return f
}

// withDeps builds another booking service over the same store, with mod
// swapping out collaborators.
func (f *fixture) withDeps(mod func(d *services.BookingDeps)) *services.BookingService {
	deps := f.deps
	if mod != nil {
		mod(&deps)
	}
	return services.NewBookingService(deps).WithClock(func() time.Time { return *f.clock })
}

func (f *fixture) openMonday(t *testing.T, photographerID uuid.UUID) {
	t.Helper()
	_, err := f.availability.Register(context.Background(), services.AvailabilityRequest{
		PhotographerID: photographerID.String(),
		DayOfWeek:      int(time.Monday),
		StartTime:      "09:00",
		EndTime:        "17:00",
	})
	require.NoError(t, err)
}

func (f *fixture) addPhotographer(t *testing.T, rate int64) domain.Photographer {
	t.Helper()
	u := domain.User{ID: uuid.New(), FullName: "Second Photographer"}
	f.store.AddUser(u)
	p := domain.Photographer{ID: uuid.New(), UserID: u.ID, HourlyRate: rate}
	f.store.AddPhotographer(p)
	f.openMonday(t, p.ID)
	return p
}

func (f *fixture) request(start, end time.Time) services.CreateBookingRequest {
	return services.CreateBookingRequest{
		UserID:         f.customer.ID.String(),
		PhotographerID: f.photographer.ID.String(),
		LocationID:     f.venue.ID.String(),
		StartAt:        start,
		EndAt:          end,
	}
}

func (f *fixture) balance(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	b, err := f.wallets.Balance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func (f *fixture) escrowBalance(t *testing.T, bookingID uuid.UUID) int64 {
	t.Helper()
	b, err := f.escrow.Balance(context.Background(), bookingID)
	require.NoError(t, err)
	return b
}
