package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/ports"
)

type walletCreditor interface {
	Credit(ctx context.Context, userID uuid.UUID, amount int64) error
}

// EscrowService records money held against a booking. The escrow balance is
// never stored; it is summed from ledger entries carrying the booking id.
type EscrowService struct {
	ledger        ports.LedgerRepository
	wallets       walletCreditor
	bookings      ports.BookingRepository
	locations     ports.LocationRepository
	photographers ports.PhotographerRepository
	calc          *PaymentCalculator
	tx            ports.Transactor
	logger        *log.Logger
	now           func() time.Time
}

func NewEscrowService(
	ledger ports.LedgerRepository,
	wallets walletCreditor,
	bookings ports.BookingRepository,
	locations ports.LocationRepository,
	photographers ports.PhotographerRepository,
	calc *PaymentCalculator,
	tx ports.Transactor,
	logger *log.Logger,
) *EscrowService {
	return &EscrowService{
		ledger:        ledger,
		wallets:       wallets,
		bookings:      bookings,
		locations:     locations,
		photographers: photographers,
		calc:          calc,
		tx:            tx,
		logger:        logger,
		now:           time.Now,
	}
}

// Hold records that amount, already debited from userID, now sits in escrow.
// It does not touch the wallet itself.
func (s *EscrowService) Hold(ctx context.Context, bookingID, userID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	from := userID
	err := s.ledger.Append(ctx, &domain.LedgerEntry{
		ID:         uuid.New(),
		BookingID:  &bookingID,
		FromUserID: &from,
		Amount:     amount,
		Type:       domain.EntryEscrowHold,
		Status:     domain.EntryCompleted,
		Note:       fmt.Sprintf("escrow hold %d for booking %s", amount, bookingID),
		CreatedAt:  s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to record escrow hold: %w", err)
	}
	return nil
}

// Release pays out a held booking: photographer, venue owner (if any) and
// the platform fee entry. All writes commit together.
func (s *EscrowService) Release(ctx context.Context, bookingID uuid.UUID) (*FeeBreakdown, error) {
	var split FeeBreakdown
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		booking, err := s.bookings.GetByID(ctx, bookingID)
		if errors.Is(err, ports.ErrNotFound) {
			return domain.ErrBookingNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load booking: %w", err)
		}

		held, err := s.Balance(ctx, bookingID)
		if err != nil {
			return err
		}
		if held <= 0 {
			return domain.ErrNothingHeld
		}
		if held != booking.TotalPrice {
			return domain.ErrEscrowMismatch
		}

		loc, err := s.locations.GetByID(ctx, booking.LocationID)
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("failed to load location: %w", err)
		}
		photographer, err := s.photographers.GetByID(ctx, booking.PhotographerID)
		if errors.Is(err, ports.ErrNotFound) {
			return domain.ErrPhotographerNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load photographer: %w", err)
		}

		split = s.calc.Calculate(booking.TotalPrice, loc, booking.LocationFeeOverride)

		if err := s.append(ctx, bookingID, &booking.UserID, nil, booking.TotalPrice, domain.EntryEscrowRelease, split.Note); err != nil {
			return err
		}

		if split.PayeePayout > 0 {
			if err := s.wallets.Credit(ctx, photographer.UserID, split.PayeePayout); err != nil {
				return err
			}
			if err := s.append(ctx, bookingID, nil, &photographer.UserID, split.PayeePayout, domain.EntryPayeeFee,
				fmt.Sprintf("photographer payout for booking %s", bookingID)); err != nil {
				return err
			}
		}

		// A venue without an owner leaves its fee with the platform.
		if split.EffectiveLocationFee > 0 {
			var owner *uuid.UUID
			if loc.HasPayee() {
				owner = loc.OwnerID
				if err := s.wallets.Credit(ctx, *owner, split.EffectiveLocationFee); err != nil {
					return err
				}
			}
			if err := s.append(ctx, bookingID, nil, owner, split.EffectiveLocationFee, domain.EntryVenueFee,
				fmt.Sprintf("venue fee for booking %s", bookingID)); err != nil {
				return err
			}
		}

		if split.PlatformFee == 0 {
			return nil
		}
		return s.append(ctx, bookingID, nil, nil, split.PlatformFee, domain.EntryPlatformFee,
			fmt.Sprintf("platform fee %d%% for booking %s", s.calc.PlatformFeePercent(), bookingID))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Printf("[escrow] released booking %s: %s", bookingID, split.Note)
	return &split, nil
}

// Refund returns everything still held for the booking to userID.
func (s *EscrowService) Refund(ctx context.Context, bookingID, userID uuid.UUID) error {
	var held int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		held, err = s.Balance(ctx, bookingID)
		if err != nil {
			return err
		}
		if held <= 0 {
			return domain.ErrNothingHeld
		}
		to := userID
		if err := s.append(ctx, bookingID, nil, &to, held, domain.EntryEscrowRefund,
			fmt.Sprintf("escrow refund %d for booking %s", held, bookingID)); err != nil {
			return err
		}
		return s.wallets.Credit(ctx, userID, held)
	})
	if err != nil {
		return err
	}

	s.logger.Printf("[escrow] refunded %d to %s for booking %s", held, userID, bookingID)
	return nil
}

func (s *EscrowService) Balance(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	totals, err := s.ledger.EscrowTotals(ctx, bookingID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum escrow entries: %w", err)
	}
	return totals.Balance(), nil
}

func (s *EscrowService) State(ctx context.Context, bookingID uuid.UUID) (domain.EscrowState, int64, error) {
	totals, err := s.ledger.EscrowTotals(ctx, bookingID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sum escrow entries: %w", err)
	}
	return totals.State(), totals.Balance(), nil
}

func (s *EscrowService) Entries(ctx context.Context, bookingID uuid.UUID) ([]domain.LedgerEntry, error) {
	return s.ledger.ListByBooking(ctx, bookingID)
}

func (s *EscrowService) append(ctx context.Context, bookingID uuid.UUID, from, to *uuid.UUID, amount int64, typ domain.EntryType, note string) error {
	err := s.ledger.Append(ctx, &domain.LedgerEntry{
		ID:         uuid.New(),
		BookingID:  &bookingID,
		FromUserID: from,
		ToUserID:   to,
		Amount:     amount,
		Type:       typ,
		Status:     domain.EntryCompleted,
		Note:       note,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", typ, err)
	}
	return nil
}
