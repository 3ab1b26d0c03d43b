package domain

import (
	"time"

	"github.com/google/uuid"
)

type EntryType string

const (
	EntryEscrowHold    EntryType = "ESCROW_HOLD"
	EntryEscrowRelease EntryType = "ESCROW_RELEASE"
	EntryEscrowRefund  EntryType = "ESCROW_REFUND"
	EntryPayeeFee      EntryType = "PAYEE_FEE"
	EntryVenueFee      EntryType = "VENUE_FEE"
	EntryPlatformFee   EntryType = "PLATFORM_FEE"
	EntryTopUp         EntryType = "TOP_UP"
	EntryTransfer      EntryType = "TRANSFER"
)

type EntryStatus string

const EntryCompleted EntryStatus = "COMPLETED"

// LedgerEntry is immutable once appended. A nil FromUserID or ToUserID
// stands for the platform itself.
type LedgerEntry struct {
	ID         uuid.UUID
	BookingID  *uuid.UUID
	FromUserID *uuid.UUID
	ToUserID   *uuid.UUID
	Amount     int64
	Type       EntryType
	Status     EntryStatus
	Note       string
	CreatedAt  time.Time
}

// EscrowTotals aggregates escrow entries correlated to one booking.
type EscrowTotals struct {
	Held     int64
	Released int64
	Refunded int64
}

func (t EscrowTotals) Balance() int64 {
	return t.Held - t.Released - t.Refunded
}

type EscrowState string

const (
	EscrowNoFunds  EscrowState = "NO_FUNDS"
	EscrowHeld     EscrowState = "HELD"
	EscrowReleased EscrowState = "RELEASED"
	EscrowRefunded EscrowState = "REFUNDED"
)

func (t EscrowTotals) State() EscrowState {
	switch {
	case t.Released > 0:
		return EscrowReleased
	case t.Refunded > 0:
		return EscrowRefunded
	case t.Held > 0:
		return EscrowHeld
	}
	return EscrowNoFunds
}
