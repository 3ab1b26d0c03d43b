package domain

import (
	"time"

	"github.com/google/uuid"
)

type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "AVAILABLE"
	AvailabilityUnavailable AvailabilityStatus = "UNAVAILABLE"
)

// Availability is a recurring weekly window. StartTime and EndTime are
// offsets from local midnight; EndTime may be 24h for "until end of day".
type Availability struct {
	ID             uuid.UUID
	PhotographerID uuid.UUID
	DayOfWeek      time.Weekday
	StartTime      time.Duration
	EndTime        time.Duration
	Status         AvailabilityStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (a *Availability) IsOpen() bool {
	return a.Status == AvailabilityAvailable
}

func (a *Availability) Validate() error {
	if a.DayOfWeek < time.Sunday || a.DayOfWeek > time.Saturday {
		return ErrInvalidAvailability
	}
	if a.StartTime < 0 || a.EndTime > 24*time.Hour || a.StartTime >= a.EndTime {
		return ErrInvalidAvailability
	}
	return nil
}

// Covers reports whether [start, end] lies inside the window.
func (a *Availability) Covers(start, end time.Duration) bool {
	return a.StartTime <= start && end <= a.EndTime
}

func (a *Availability) Overlaps(start, end time.Duration) bool {
	return a.StartTime < end && start < a.EndTime
}

type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotBooked    SlotStatus = "BOOKED"
)

type TimeSlot struct {
	Start  time.Time  `json:"start"`
	End    time.Time  `json:"end"`
	Status SlotStatus `json:"status"`
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
