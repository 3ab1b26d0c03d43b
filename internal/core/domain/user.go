package domain

import (
	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID
	FullName string
	Email    string
}

// Photographer is the bookable profile; payouts go to the wallet of UserID.
type Photographer struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	HourlyRate int64
}
