package domain

import (
	"time"

	"github.com/google/uuid"
)

type LocationType string

const (
	LocationRegistered LocationType = "REGISTERED"
	LocationExternal   LocationType = "EXTERNAL"
)

type Location struct {
	ID              uuid.UUID
	OwnerID         *uuid.UUID
	Type            LocationType
	ExternalPlaceID *string
	Name            string
	Address         string
	Latitude        float64
	Longitude       float64
	HourlyRate      int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasPayee is true for venues whose owner receives the location fee.
func (l *Location) HasPayee() bool {
	return l != nil && l.Type == LocationRegistered && l.OwnerID != nil
}

// LocationEvent is a venue-run event with its own negotiated flat price.
type LocationEvent struct {
	ID         uuid.UUID
	LocationID uuid.UUID
	Name       string
	Price      int64
	StartsAt   time.Time
	EndsAt     time.Time
}
