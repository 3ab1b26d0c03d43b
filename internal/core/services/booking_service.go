package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/ports"
)

const (
	DefaultPendingTimeout = 3 * time.Minute
	expiredBatchSize      = 100
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
	EventBookingExpired   = "booking.expired"
	EventBookingUpdated   = "booking.updated"
)

type ExternalPlace struct {
	PlaceID   string  `json:"place_id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CreateBookingRequest struct {
	UserID          string         `json:"user_id"`
	PhotographerID  string         `json:"photographer_id"`
	LocationID      string         `json:"location_id,omitempty"`
	ExternalPlace   *ExternalPlace `json:"external_place,omitempty"`
	EventID         string         `json:"event_id,omitempty"`
	StartAt         time.Time      `json:"start_at"`
	EndAt           time.Time      `json:"end_at"`
	SpecialRequests string         `json:"special_requests"`
}

type UpdateBookingRequest struct {
	StartAt         *time.Time `json:"start_at,omitempty"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	SpecialRequests *string    `json:"special_requests,omitempty"`
}

type availabilityChecker interface {
	IsAvailable(ctx context.Context, photographerID uuid.UUID, start, end time.Time) (bool, error)
	InvalidateSlots(ctx context.Context, photographerID uuid.UUID)
}

type walletLedger interface {
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	Debit(ctx context.Context, userID uuid.UUID, amount int64) (bool, error)
	Credit(ctx context.Context, userID uuid.UUID, amount int64) error
}

type escrowLedger interface {
	Hold(ctx context.Context, bookingID, userID uuid.UUID, amount int64) error
	Release(ctx context.Context, bookingID uuid.UUID) (*FeeBreakdown, error)
	Refund(ctx context.Context, bookingID, userID uuid.UUID) error
}

type BookingDeps struct {
	Bookings      ports.BookingRepository
	Photographers ports.PhotographerRepository
	Locations     ports.LocationRepository
	Events        ports.LocationEventRepository
	Users         ports.UserDirectory
	Availability  availabilityChecker
	Calculator    *PaymentCalculator
	Wallets       walletLedger
	Escrow        escrowLedger
	Tx            ports.Transactor
	Notifier      ports.Notifier
	Logger        *log.Logger
	// PendingTimeout defaults to DefaultPendingTimeout.
	PendingTimeout time.Duration
}

// BookingService drives a booking through PENDING -> CONFIRMED -> COMPLETED
// or into CANCELLED, moving money at the transitions that need it.
type BookingService struct {
	bookings       ports.BookingRepository
	photographers  ports.PhotographerRepository
	locations      ports.LocationRepository
	events         ports.LocationEventRepository
	users          ports.UserDirectory
	availability   availabilityChecker
	calc           *PaymentCalculator
	wallets        walletLedger
	escrow         escrowLedger
	tx             ports.Transactor
	notifier       ports.Notifier
	logger         *log.Logger
	tracer         trace.Tracer
	pendingTimeout time.Duration
	now            func() time.Time
}

func NewBookingService(deps BookingDeps) *BookingService {
	timeout := deps.PendingTimeout
	if timeout <= 0 {
		timeout = DefaultPendingTimeout
	}
	return &BookingService{
		bookings:       deps.Bookings,
		photographers:  deps.Photographers,
		locations:      deps.Locations,
		events:         deps.Events,
		users:          deps.Users,
		availability:   deps.Availability,
		calc:           deps.Calculator,
		wallets:        deps.Wallets,
		escrow:         deps.Escrow,
		tx:             deps.Tx,
		notifier:       deps.Notifier,
		logger:         deps.Logger,
		tracer:         otel.Tracer("snapbook/booking"),
		pendingTimeout: timeout,
		now:            time.Now,
	}
}

// WithClock replaces the time source; used by tests and the sweeper.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CreateBooking")
	defer span.End()

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, s.fail(span, domain.NewError(domain.CodeValidation, "invalid user id"))
	}
	photographerID, err := uuid.Parse(req.PhotographerID)
	if err != nil {
		return nil, s.fail(span, domain.NewError(domain.CodeValidation, "invalid photographer id"))
	}
	if err := domain.ValidateWindow(req.StartAt, req.EndAt, s.now()); err != nil {
		return nil, s.fail(span, err)
	}

	var locationID uuid.UUID
	switch {
	case req.LocationID != "":
		if locationID, err = uuid.Parse(req.LocationID); err != nil {
			return nil, s.fail(span, domain.NewError(domain.CodeValidation, "invalid location id"))
		}
	case req.ExternalPlace != nil:
		if req.ExternalPlace.PlaceID == "" || req.ExternalPlace.Name == "" {
			return nil, s.fail(span, domain.ErrExternalPlaceInvalid)
		}
	default:
		return nil, s.fail(span, domain.ErrLocationRequired)
	}

	var eventID *uuid.UUID
	if req.EventID != "" {
		id, err := uuid.Parse(req.EventID)
		if err != nil {
			return nil, s.fail(span, domain.NewError(domain.CodeValidation, "invalid event id"))
		}
		eventID = &id
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, s.fail(span, domain.ErrUserNotFound)
		}
		return nil, s.fail(span, fmt.Errorf("failed to look up user: %w", err))
	}

	span.SetAttributes(attribute.String("photographer.id", photographerID.String()))

	var booking *domain.Booking
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		photographer, err := s.photographers.GetByID(ctx, photographerID)
		if errors.Is(err, ports.ErrNotFound) {
			return domain.ErrPhotographerNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load photographer: %w", err)
		}
		if err := s.photographers.LockForBooking(ctx, photographerID); err != nil {
			return fmt.Errorf("failed to lock photographer calendar: %w", err)
		}

		loc, err := s.resolveLocation(ctx, locationID, req.ExternalPlace)
		if err != nil {
			return err
		}

		if loc.Type == domain.LocationRegistered {
			clash, err := s.hasLocationConflict(ctx, photographerID, loc.ID, req.StartAt, req.EndAt)
			if err != nil {
				return err
			}
			if clash {
				return domain.ErrDoubleBooking
			}
		}

		ok, err := s.availability.IsAvailable(ctx, photographerID, req.StartAt, req.EndAt)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrSlotUnavailable
		}

		var override *int64
		if eventID != nil {
			ev, err := s.events.GetByID(ctx, *eventID)
			if errors.Is(err, ports.ErrNotFound) {
				return domain.ErrEventNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to load event: %w", err)
			}
			if ev.LocationID != loc.ID {
				return domain.ErrEventLocationMismatch
			}
			price := ev.Price
			override = &price
		}

		now := s.now()
		booking = &domain.Booking{
			ID:                  uuid.New(),
			UserID:              userID,
			PhotographerID:      photographerID,
			LocationID:          loc.ID,
			EventID:             eventID,
			StartAt:             req.StartAt,
			EndAt:               req.EndAt,
			Status:              domain.BookingPending,
			TotalPrice:          quotePrice(photographer.HourlyRate, loc, override, req.EndAt.Sub(req.StartAt)),
			LocationFeeOverride: override,
			SpecialRequests:     req.SpecialRequests,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := s.bookings.Create(ctx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.availability.InvalidateSlots(ctx, photographerID)
	s.logger.Printf("[booking] created %s for photographer %s price %d", booking.ID, photographerID, booking.TotalPrice)
	s.notifyParties(ctx, booking, EventBookingCreated)
	return booking, nil
}

// quotePrice charges both hourly rates pro rata by the minute. An event
// override replaces the venue part with its flat price.
func quotePrice(photographerRate int64, loc *domain.Location, override *int64, d time.Duration) int64 {
	minutes := int64(d / time.Minute)
	price := photographerRate * minutes / 60
	switch {
	case override != nil:
		price += *override
	case loc.Type == domain.LocationRegistered:
		price += loc.HourlyRate * minutes / 60
	}
	return price
}

func (s *BookingService) resolveLocation(ctx context.Context, locationID uuid.UUID, place *ExternalPlace) (*domain.Location, error) {
	if locationID != uuid.Nil {
		loc, err := s.locations.GetByID(ctx, locationID)
		if errors.Is(err, ports.ErrNotFound) {
			return nil, domain.ErrLocationNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load location: %w", err)
		}
		return loc, nil
	}

	now := s.now()
	placeID := place.PlaceID
	loc, err := s.locations.FindOrCreateExternal(ctx, &domain.Location{
		ID:              uuid.New(),
		Type:            domain.LocationExternal,
		ExternalPlaceID: &placeID,
		Name:            place.Name,
		Address:         place.Address,
		Latitude:        place.Latitude,
		Longitude:       place.Longitude,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve external location: %w", err)
	}
	return loc, nil
}

// hasLocationConflict only looks at the same photographer: other
// photographers may share the venue at the same time.
func (s *BookingService) hasLocationConflict(ctx context.Context, photographerID, locationID uuid.UUID, start, end time.Time) (bool, error) {
	active, err := s.bookings.ListActiveByPhotographer(ctx, photographerID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to load bookings: %w", err)
	}
	for i := range active {
		if active[i].LocationID == locationID && active[i].Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

// ConfirmBooking debits the customer and holds the amount in escrow in one
// transaction. If any step fails the transaction rollback is the
// compensation; a failed rollback is escalated as an inconsistency.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, callerID uuid.UUID) (*domain.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.ConfirmBooking",
		trace.WithAttributes(attribute.String("booking.id", bookingID.String())))
	defer span.End()

	var booking *domain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.loadForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != callerID {
			return domain.ErrNotBookingOwner
		}
		if err := b.Status.ValidateTransition(domain.BookingConfirmed); err != nil {
			return err
		}
		if b.TotalPrice <= 0 {
			return domain.ErrZeroPrice
		}

		balance, err := s.wallets.Balance(ctx, b.UserID)
		if err != nil {
			return err
		}
		if balance < b.TotalPrice {
			return domain.ErrInsufficientFunds
		}
		debited, err := s.wallets.Debit(ctx, b.UserID, b.TotalPrice)
		if err != nil {
			return err
		}
		if !debited {
			return domain.ErrInsufficientFunds
		}

		if err := s.escrow.Hold(ctx, b.ID, b.UserID, b.TotalPrice); err != nil {
			return fmt.Errorf("escrow hold failed after debit: %w", err)
		}

		if err := b.TransitionTo(domain.BookingConfirmed, s.now()); err != nil {
			return err
		}
		if err := s.bookings.Update(ctx, b); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, s.fail(span, s.escalate(bookingID, "confirm", err))
	}

	s.availability.InvalidateSlots(ctx, booking.PhotographerID)
	s.logger.Printf("[booking] confirmed %s, %d held in escrow", booking.ID, booking.TotalPrice)
	s.notifyParties(ctx, booking, EventBookingConfirmed)
	return booking, nil
}

// CancelBooking refunds escrow first when the booking was confirmed; a
// failed refund leaves the booking as it was.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, callerID uuid.UUID) (*domain.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CancelBooking",
		trace.WithAttributes(attribute.String("booking.id", bookingID.String())))
	defer span.End()

	var booking *domain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.loadForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := s.authorizeParty(ctx, b, callerID); err != nil {
			return err
		}

		prior := b.Status
		if err := prior.ValidateTransition(domain.BookingCancelled); err != nil {
			return err
		}
		if prior == domain.BookingConfirmed {
			if err := s.escrow.Refund(ctx, b.ID, b.UserID); err != nil {
				return err
			}
		}
		if err := b.TransitionTo(domain.BookingCancelled, s.now()); err != nil {
			return err
		}
		if err := s.bookings.Update(ctx, b); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, s.fail(span, s.escalate(bookingID, "cancel", err))
	}

	s.availability.InvalidateSlots(ctx, booking.PhotographerID)
	s.logger.Printf("[booking] cancelled %s", booking.ID)
	s.notifyParties(ctx, booking, EventBookingCancelled)
	return booking, nil
}

// CompleteBooking never records completion unless escrow was released.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID, callerID uuid.UUID) (*domain.Booking, *FeeBreakdown, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CompleteBooking",
		trace.WithAttributes(attribute.String("booking.id", bookingID.String())))
	defer span.End()

	var (
		booking *domain.Booking
		split   *FeeBreakdown
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.loadForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := s.authorizeParty(ctx, b, callerID); err != nil {
			return err
		}
		if err := b.Status.ValidateTransition(domain.BookingCompleted); err != nil {
			return err
		}

		split, err = s.escrow.Release(ctx, b.ID)
		if err != nil {
			return err
		}
		if err := b.TransitionTo(domain.BookingCompleted, s.now()); err != nil {
			return err
		}
		if err := s.bookings.Update(ctx, b); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, nil, s.fail(span, s.escalate(bookingID, "complete", err))
	}

	s.logger.Printf("[booking] completed %s", booking.ID)
	s.notifyParties(ctx, booking, EventBookingCompleted)
	return booking, split, nil
}

// UpdateBooking edits a pending booking. Availability is not re-checked
// and the price stays as quoted.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID, callerID uuid.UUID, req UpdateBookingRequest) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.loadForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != callerID {
			return domain.ErrNotBookingOwner
		}
		if b.Status != domain.BookingPending {
			return domain.ErrNotPending
		}

		start, end := b.StartAt, b.EndAt
		if req.StartAt != nil {
			start = *req.StartAt
		}
		if req.EndAt != nil {
			end = *req.EndAt
		}
		if err := domain.ValidateWindow(start, end, s.now()); err != nil {
			return err
		}

		b.StartAt, b.EndAt = start, end
		if req.SpecialRequests != nil {
			b.SpecialRequests = *req.SpecialRequests
		}
		b.UpdatedAt = s.now()
		if err := s.bookings.Update(ctx, b); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.availability.InvalidateSlots(ctx, booking.PhotographerID)
	s.notifyParties(ctx, booking, EventBookingUpdated)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

func (s *BookingService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *BookingService) ListByPhotographer(ctx context.Context, photographerID uuid.UUID) ([]domain.Booking, error) {
	return s.bookings.ListByPhotographer(ctx, photographerID)
}

func (s *BookingService) RunBackgroundCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Printf("[sweeper] started: cancelling pending bookings older than %s every %s", s.pendingTimeout, interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("[sweeper] stopped")
			return
		case <-ticker.C:
			if _, err := s.CancelExpiredPending(ctx); err != nil {
				s.logger.Printf("[sweeper] error: %v", err)
			}
		}
	}
}

// CancelExpiredPending cancels PENDING bookings older than the timeout.
// Pending bookings never hold funds, so nothing is refunded. Safe to run
// concurrently with itself: rows already moved on are skipped.
func (s *BookingService) CancelExpiredPending(ctx context.Context) (int, error) {
	ids, err := s.bookings.ListExpiredPending(ctx, s.now().Add(-s.pendingTimeout), expiredBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired bookings: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	s.logger.Printf("[sweeper] found %d expired pending bookings", len(ids))

	cancelled := 0
	for _, id := range ids {
		var booking *domain.Booking
		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			b, err := s.loadForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if b.Status != domain.BookingPending {
				return nil
			}
			if err := b.TransitionTo(domain.BookingCancelled, s.now()); err != nil {
				return err
			}
			if err := s.bookings.Update(ctx, b); err != nil {
				return err
			}
			booking = b
			return nil
		})
		if err != nil {
			s.logger.Printf("[sweeper] failed to cancel booking %s: %v", id, err)
			continue
		}
		if booking == nil {
			continue
		}
		cancelled++
		s.availability.InvalidateSlots(ctx, booking.PhotographerID)
		s.notifyParties(ctx, booking, EventBookingExpired)
	}
	return cancelled, nil
}

func (s *BookingService) loadForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookings.GetForUpdate(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return b, nil
}

// authorizeParty lets either the customer or the booked photographer act.
func (s *BookingService) authorizeParty(ctx context.Context, b *domain.Booking, callerID uuid.UUID) error {
	if b.UserID == callerID {
		return nil
	}
	p, err := s.photographers.GetByID(ctx, b.PhotographerID)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("failed to load photographer: %w", err)
	}
	if p != nil && p.UserID == callerID {
		return nil
	}
	return domain.ErrNotBookingOwner
}

func (s *BookingService) escalate(bookingID uuid.UUID, op string, err error) error {
	if !errors.Is(err, ports.ErrRollbackFailed) {
		return err
	}
	s.logger.Printf("[booking] FATAL-INCONSISTENCY op=%s booking=%s: %v", op, bookingID, err)
	return fmt.Errorf("%w: %v", domain.ErrCompensationFailed, err)
}

func (s *BookingService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *BookingService) notifyParties(ctx context.Context, b *domain.Booking, event string) {
	if s.notifier == nil {
		return
	}
	payload := map[string]any{
		"booking_id":      b.ID.String(),
		"status":          string(b.Status),
		"photographer_id": b.PhotographerID.String(),
		"start_at":        b.StartAt.Format(time.RFC3339),
		"end_at":          b.EndAt.Format(time.RFC3339),
		"total_price":     b.TotalPrice,
	}

	recipients := []uuid.UUID{b.UserID}
	if p, err := s.photographers.GetByID(ctx, b.PhotographerID); err == nil && p.UserID != b.UserID {
		recipients = append(recipients, p.UserID)
	}
	for _, to := range recipients {
		if err := s.notifier.Notify(ctx, to, event, payload); err != nil {
			s.logger.Printf("[booking] notify %s to %s failed: %v", event, to, err)
		}
	}
}
