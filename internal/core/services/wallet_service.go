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

// WalletService owns wallet balances. Debit is the only path that lowers a
// balance.
type WalletService struct {
	wallets ports.WalletRepository
	ledger  ports.LedgerRepository
	tx      ports.Transactor
	logger  *log.Logger
	now     func() time.Time
}

func NewWalletService(wallets ports.WalletRepository, ledger ports.LedgerRepository, tx ports.Transactor, logger *log.Logger) *WalletService {
	return &WalletService{
		wallets: wallets,
		ledger:  ledger,
		tx:      tx,
		logger:  logger,
		now:     time.Now,
	}
}

// Balance is zero for users without a wallet.
func (s *WalletService) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	w, err := s.wallets.GetByUserID(ctx, userID)
	if errors.Is(err, ports.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load wallet: %w", err)
	}
	return w.Balance, nil
}

func (s *WalletService) Credit(ctx context.Context, userID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if err := s.wallets.Credit(ctx, userID, amount); err != nil {
		return fmt.Errorf("failed to credit wallet %s: %w", userID, err)
	}
	return nil
}

// Debit returns false when the wallet is missing or holds less than amount.
func (s *WalletService) Debit(ctx context.Context, userID uuid.UUID, amount int64) (bool, error) {
	if amount <= 0 {
		return false, domain.ErrInvalidAmount
	}
	ok, err := s.wallets.Debit(ctx, userID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to debit wallet %s: %w", userID, err)
	}
	return ok, nil
}

// Transfer debits from and credits to in one transaction; to is never
// credited when the debit is refused.
func (s *WalletService) Transfer(ctx context.Context, from, to uuid.UUID, amount int64) (bool, error) {
	if amount <= 0 {
		return false, domain.ErrInvalidAmount
	}

	var moved bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.Debit(ctx, from, amount)
		if err != nil || !ok {
			return err
		}
		if err := s.Credit(ctx, to, amount); err != nil {
			return err
		}
		fromID, toID := from, to
		moved = true
		return s.ledger.Append(ctx, &domain.LedgerEntry{
			ID:         uuid.New(),
			FromUserID: &fromID,
			ToUserID:   &toID,
			Amount:     amount,
			Type:       domain.EntryTransfer,
			Status:     domain.EntryCompleted,
			Note:       fmt.Sprintf("transfer %d from %s to %s", amount, from, to),
			CreatedAt:  s.now(),
		})
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

// TopUp credits a wallet from outside the platform and records it.
func (s *WalletService) TopUp(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	var balance int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.Credit(ctx, userID, amount); err != nil {
			return err
		}
		toID := userID
		if err := s.ledger.Append(ctx, &domain.LedgerEntry{
			ID:        uuid.New(),
			ToUserID:  &toID,
			Amount:    amount,
			Type:      domain.EntryTopUp,
			Status:    domain.EntryCompleted,
			Note:      fmt.Sprintf("top-up %d", amount),
			CreatedAt: s.now(),
		}); err != nil {
			return fmt.Errorf("failed to record top-up: %w", err)
		}
		b, err := s.Balance(ctx, userID)
		balance = b
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logger.Printf("[wallet] user %s topped up %d, balance %d", userID, amount, balance)
	return balance, nil
}

func (s *WalletService) History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.ledger.ListByUser(ctx, userID, limit)
}
