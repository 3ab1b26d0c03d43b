package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/ports"
)

type WalletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	var w domain.Wallet
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, user_id, balance, updated_at FROM wallets WHERE user_id = $1`, userID,
	).Scan(&w.ID, &w.UserID, &w.Balance, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) Credit(ctx context.Context, userID uuid.UUID, amount int64) error {
	query := `
	INSERT INTO wallets (id, user_id, balance, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()
	`

	if _, err := conn(ctx, r.db).ExecContext(ctx, query, uuid.New(), userID, amount); err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	return nil
}

// Debit is a conditional update: the row only changes while the balance
// still covers amount, so concurrent debits can never overdraw.
func (r *WalletRepository) Debit(ctx context.Context, userID uuid.UUID, amount int64) (bool, error) {
	query := `
	UPDATE wallets
	SET balance = balance - $2, updated_at = NOW()
	WHERE user_id = $1 AND balance >= $2
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, userID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to debit wallet: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
