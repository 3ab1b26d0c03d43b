package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
)

const ledgerColumns = `id, booking_id, from_user_id, to_user_id, amount, type, status, note, created_at`

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Append(ctx context.Context, e *domain.LedgerEntry) error {
	query := `
	INSERT INTO ledger_entries (` + ledgerColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		e.ID, nullUUID(e.BookingID), nullUUID(e.FromUserID), nullUUID(e.ToUserID),
		e.Amount, e.Type, e.Status, e.Note, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

func (r *LedgerRepository) EscrowTotals(ctx context.Context, bookingID uuid.UUID) (domain.EscrowTotals, error) {
	query := `
	SELECT
		COALESCE(SUM(amount) FILTER (WHERE type = 'ESCROW_HOLD'), 0),
		COALESCE(SUM(amount) FILTER (WHERE type = 'ESCROW_RELEASE'), 0),
		COALESCE(SUM(amount) FILTER (WHERE type = 'ESCROW_REFUND'), 0)
	FROM ledger_entries
	WHERE booking_id = $1
	`

	var t domain.EscrowTotals
	err := conn(ctx, r.db).QueryRowContext(ctx, query, bookingID).Scan(&t.Held, &t.Released, &t.Refunded)
	return t, err
}

func (r *LedgerRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.LedgerEntry, error) {
	return r.list(ctx, `SELECT `+ledgerColumns+` FROM ledger_entries WHERE booking_id = $1 ORDER BY created_at`, bookingID)
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	return r.list(ctx, `
	SELECT `+ledgerColumns+`
	FROM ledger_entries
	WHERE from_user_id = $1 OR to_user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`, userID, limit)
}

func (r *LedgerRepository) list(ctx context.Context, query string, args ...any) ([]domain.LedgerEntry, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var bookingID, from, to uuid.NullUUID
		if err := rows.Scan(&e.ID, &bookingID, &from, &to, &e.Amount, &e.Type, &e.Status, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.BookingID = fromNullUUID(bookingID)
		e.FromUserID = fromNullUUID(from)
		e.ToUserID = fromNullUUID(to)
		out = append(out, e)
	}
	return out, rows.Err()
}

func fromNullUUID(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}
