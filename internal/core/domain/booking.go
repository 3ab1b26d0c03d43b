package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

const (
	MinBookingDuration = 30 * time.Minute
	MaxBookingDuration = 24 * time.Hour
)

// bookingTransitions is the only place allowed moves are declared.
// Completed and Cancelled have no outgoing edges.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Active bookings occupy the photographer's calendar.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	PhotographerID uuid.UUID
	LocationID     uuid.UUID
	EventID        *uuid.UUID
	StartAt        time.Time
	EndAt          time.Time
	Status         BookingStatus
	TotalPrice     int64
	// LocationFeeOverride is the negotiated event price, fixed at creation.
	LocationFeeOverride *int64
	SpecialRequests     string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (b *Booking) Duration() time.Duration {
	return b.EndAt.Sub(b.StartAt)
}

// Overlaps uses half-open intervals, so back-to-back bookings do not collide.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartAt.Before(end) && start.Before(b.EndAt)
}

func (s BookingStatus) ValidateTransition(next BookingStatus) error {
	if !s.CanTransitionTo(next) {
		return NewError(CodeInvalidTransition, "booking cannot move from "+string(s)+" to "+string(next))
	}
	return nil
}

// TransitionTo moves the booking to next or returns an invalid_transition
// error leaving the booking untouched.
func (b *Booking) TransitionTo(next BookingStatus, now time.Time) error {
	if err := b.Status.ValidateTransition(next); err != nil {
		return err
	}
	b.Status = next
	b.UpdatedAt = now
	return nil
}

// ValidateWindow checks the time bounds shared by create and update.
func ValidateWindow(start, end, now time.Time) error {
	if !start.Before(end) {
		return ErrInvalidTimeRange
	}
	if !start.After(now) {
		return ErrStartInPast
	}
	d := end.Sub(start)
	if d < MinBookingDuration || d > MaxBookingDuration {
		return ErrDurationOutOfBounds
	}
	return nil
}
