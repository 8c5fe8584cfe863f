package carts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, userID int64) ([]CartItem, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, user_id, product_id, product_name, quantity, unit_price, book_format, image_url, created_at, updated_at
FROM cart_items
WHERE user_id = $1
ORDER BY id ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items := []CartItem{}
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.ProductID, &it.ProductName, &it.Quantity,
			&it.UnitPrice, &it.BookFormat, &it.ImageURL, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Add inserts a line, or accumulates quantity when the same product+format
// is already in the user's cart.
func (r *Repository) Add(ctx context.Context, item *CartItem) error {
	if item.Quantity < 1 {
		return ErrBadQuantity
	}

	err := r.db.QueryRow(ctx, `
INSERT INTO cart_items (user_id, product_id, product_name, quantity, unit_price, book_format, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, product_id, book_format)
DO UPDATE SET
  quantity   = cart_items.quantity + EXCLUDED.quantity,
  unit_price = EXCLUDED.unit_price,
  updated_at = now()
RETURNING id, quantity, created_at, updated_at
`, item.UserID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.BookFormat, item.ImageURL).
		Scan(&item.ID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *Repository) UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) (*CartItem, error) {
	if quantity < 1 {
		return nil, ErrBadQuantity
	}

	var it CartItem
	err := r.db.QueryRow(ctx, `
UPDATE cart_items
SET quantity = $3, updated_at = now()
WHERE id = $2 AND user_id = $1
RETURNING id, user_id, product_id, product_name, quantity, unit_price, book_format, image_url, created_at, updated_at
`, userID, itemID, quantity).Scan(
		&it.ID, &it.UserID, &it.ProductID, &it.ProductName, &it.Quantity,
		&it.UnitPrice, &it.BookFormat, &it.ImageURL, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("update quantity: %w", err)
	}
	return &it, nil
}

func (r *Repository) Remove(ctx context.Context, userID, itemID int64) error {
	tag, err := r.db.Exec(ctx, `
DELETE FROM cart_items WHERE id = $2 AND user_id = $1
`, userID, itemID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Clear empties the user's cart. Clearing an already empty cart is not an error.
func (r *Repository) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
