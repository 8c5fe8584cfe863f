package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a PENDING payment. A partial unique index on
// (order_id) WHERE status = 'PENDING' guarantees at most one open intent
// per order; a conflict surfaces as ErrAlreadyOpen.
func (r *Repository) Create(ctx context.Context, p *Payment) error {
	if p.Currency == "" {
		p.Currency = "XOF"
	}
	p.Status = StatusPending

	err := r.db.QueryRow(ctx, `
INSERT INTO payments (transaction_id, order_id, user_id, amount, currency, method, provider, phone_number, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, created_at
`, p.TransactionID, p.OrderID, p.UserID, p.Amount, p.Currency, p.Method, p.Provider, p.PhoneNumber, p.Status).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyOpen
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *Repository) GetByTransactionID(ctx context.Context, txID string) (*Payment, error) {
	var p Payment
	err := r.db.QueryRow(ctx, `
SELECT id, transaction_id, order_id, user_id, amount, currency, method, provider, phone_number, status, external_ref, created_at, completed_at
FROM payments
WHERE transaction_id = $1
`, txID).Scan(
		&p.ID, &p.TransactionID, &p.OrderID, &p.UserID, &p.Amount, &p.Currency,
		&p.Method, &p.Provider, &p.PhoneNumber, &p.Status, &p.ExternalRef, &p.CreatedAt, &p.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, transaction_id, order_id, user_id, amount, currency, method, provider, phone_number, status, external_ref, created_at, completed_at
FROM payments
WHERE user_id = $1
ORDER BY id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(
			&p.ID, &p.TransactionID, &p.OrderID, &p.UserID, &p.Amount, &p.Currency,
			&p.Method, &p.Provider, &p.PhoneNumber, &p.Status, &p.ExternalRef, &p.CreatedAt, &p.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetStatus resolves a payment. Terminal rows are left untouched so a late
// or duplicate callback cannot rewrite history; callers get
// ErrTerminalState and can treat it as an idempotent no-op.
func (r *Repository) SetStatus(ctx context.Context, txID string, status Status, externalRef *string) (*Payment, error) {
	var p Payment
	err := r.db.QueryRow(ctx, `
UPDATE payments
SET status = $2,
    external_ref = COALESCE($3, external_ref),
    completed_at = CASE WHEN $2 IN ('SUCCESS','FAILED','CANCELLED','REFUNDED') THEN now() ELSE completed_at END,
    updated_at = now()
WHERE transaction_id = $1
  AND status = 'PENDING'
RETURNING id, transaction_id, order_id, user_id, amount, currency, method, provider, phone_number, status, external_ref, created_at, completed_at
`, txID, status, externalRef).Scan(
		&p.ID, &p.TransactionID, &p.OrderID, &p.UserID, &p.Amount, &p.Currency,
		&p.Method, &p.Provider, &p.PhoneNumber, &p.Status, &p.ExternalRef, &p.CreatedAt, &p.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either unknown or already terminal; disambiguate for the caller.
			if _, gerr := r.GetByTransactionID(ctx, txID); gerr == nil {
				return nil, ErrTerminalState
			}
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("set payment status: %w", err)
	}
	return &p, nil
}
