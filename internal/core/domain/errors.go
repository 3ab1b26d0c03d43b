package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeInsufficientFunds  ErrorCode = "insufficient_funds"
	CodeInvalidTransition  ErrorCode = "invalid_transition"
	CodeForbidden          ErrorCode = "forbidden"
	CodeCompensationFailed ErrorCode = "compensation_failed"
	CodeInternal           ErrorCode = "internal"
)

// Error is an expected business outcome. Anything that is not an *Error is
// treated as an infrastructure fault by callers.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on code so errors.Is(err, ErrNotFound) works for any not-found error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

func NewError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// CodeOf returns CodeInternal for anything that is not a business error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

var (
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrConflict          = &Error{Code: CodeConflict}
	ErrValidation        = &Error{Code: CodeValidation}
	ErrInvalidTransition = &Error{Code: CodeInvalidTransition}

	ErrBookingNotFound      = NewError(CodeNotFound, "booking not found")
	ErrUserNotFound         = NewError(CodeNotFound, "user not found")
	ErrPhotographerNotFound = NewError(CodeNotFound, "photographer not found")
	ErrLocationNotFound     = NewError(CodeNotFound, "location not found")
	ErrEventNotFound        = NewError(CodeNotFound, "location event not found")
	ErrAvailabilityNotFound = NewError(CodeNotFound, "availability not found")

	ErrInvalidTimeRange     = NewError(CodeValidation, "start time must be before end time")
	ErrStartInPast          = NewError(CodeValidation, "start time must be in the future")
	ErrDurationOutOfBounds  = NewError(CodeValidation, "booking duration must be between 30 minutes and 24 hours")
	ErrLocationRequired     = NewError(CodeValidation, "either a registered location or an external place is required")
	ErrExternalPlaceInvalid = NewError(CodeValidation, "external place id and name are required")
	ErrInvalidAmount        = NewError(CodeValidation, "amount must be positive")
	ErrZeroPrice            = NewError(CodeValidation, "booking has no price to pay")
	ErrInvalidAvailability  = NewError(CodeValidation, "availability needs a weekday 0-6 and start before end within one day")

	ErrSlotUnavailable       = NewError(CodeConflict, "photographer is not available for the requested time")
	ErrDoubleBooking         = NewError(CodeConflict, "photographer already has a booking at this location in that window")
	ErrAvailabilityOverlap   = NewError(CodeConflict, "availability overlaps an existing entry")
	ErrEventLocationMismatch = NewError(CodeConflict, "event does not belong to the selected location")
	ErrNothingHeld           = NewError(CodeConflict, "no funds held in escrow for this booking")
	ErrEscrowMismatch        = NewError(CodeConflict, "escrow balance does not match booking price")

	ErrInsufficientFunds = NewError(CodeInsufficientFunds, "insufficient wallet balance")
	ErrNotBookingOwner   = NewError(CodeForbidden, "caller is not allowed to act on this booking")
	ErrNotPending        = NewError(CodeInvalidTransition, "only pending bookings can be edited")

	ErrCompensationFailed = NewError(CodeCompensationFailed, "funds could not be restored after a failed settlement step")
)
