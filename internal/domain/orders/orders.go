package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db  *pgxpool.Pool
	gen *ReferenceGenerator
}

func NewRepository(db *pgxpool.Pool, gen *ReferenceGenerator) *Repository {
	if gen == nil {
		panic("orders: ReferenceGenerator is nil")
	}
	return &Repository{db: db, gen: gen}
}

// CreateFromCart snapshots the user's cart lines into an order and clears
// nothing: the cart survives until payment succeeds. Runs in a transaction
// so the snapshot and the totals agree.
func (r *Repository) CreateFromCart(ctx context.Context, userID int64, ship ShippingAddress, shippingCost int64) (*Order, error) {
	if ship.Empty() {
		return nil, fmt.Errorf("shipping address is incomplete")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
SELECT product_id, product_name, quantity, unit_price, book_format
FROM cart_items
WHERE user_id = $1
ORDER BY id ASC
FOR UPDATE
`, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var items []OrderItem
	var total int64
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.BookFormat); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		it.TotalPrice = int64(it.Quantity) * it.UnitPrice
		total += it.TotalPrice
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	o := &Order{
		UserID:       userID,
		Reference:    r.gen.Generate(userID),
		Status:       StatusPendingPayment,
		TotalAmount:  total + shippingCost,
		ShippingCost: shippingCost,
	}

	err = tx.QueryRow(ctx, `
INSERT INTO orders (user_id, reference, status, total_amount, shipping_cost,
                    ship_full_name, ship_phone, ship_address_line, ship_city, ship_postal_code, ship_country)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, created_at
`, userID, o.Reference, o.Status, o.TotalAmount, o.ShippingCost,
		ship.FullName, ship.Phone, ship.AddressLine, ship.City, ship.PostalCode, ship.Country).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range items {
		it := &items[i]
		it.OrderID = o.ID
		if err := tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, book_format, total_price)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`, o.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.BookFormat, it.TotalPrice).Scan(&it.ID); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}
	o.Items = items

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	return r.getWhere(ctx, `WHERE id = $1`, id)
}

func (r *Repository) GetForUser(ctx context.Context, userID, orderID int64) (*Order, error) {
	return r.getWhere(ctx, `WHERE id = $1 AND user_id = $2`, orderID, userID)
}

func (r *Repository) getWhere(ctx context.Context, where string, args ...any) (*Order, error) {
	var o Order
	err := r.db.QueryRow(ctx, `
SELECT id, user_id, reference, status, total_amount, shipping_cost, payment_method, paid_at, created_at
FROM orders `+where, args...).
		Scan(&o.ID, &o.UserID, &o.Reference, &o.Status, &o.TotalAmount, &o.ShippingCost, &o.PaymentMethod, &o.PaidAt, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.db.Query(ctx, `
SELECT id, order_id, product_id, product_name, quantity, unit_price, book_format, total_price
FROM order_items
WHERE order_id = $1
ORDER BY id ASC
`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.BookFormat, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, user_id, reference, status, total_amount, shipping_cost, payment_method, paid_at, created_at
FROM orders
WHERE user_id = $1
ORDER BY id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Reference, &o.Status, &o.TotalAmount, &o.ShippingCost, &o.PaymentMethod, &o.PaidAt, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus moves an order along the status graph, refusing transitions
// CanTransition disallows. The check and the write happen in one
// transaction so concurrent updates cannot skip states.
func (r *Repository) UpdateStatus(ctx context.Context, orderID int64, to Status) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var from Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&from)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock order: %w", err)
	}

	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, from, to)
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, to); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return tx.Commit(ctx)
}

// MarkPaid records a successful payment: status PAID, method and paid_at set.
func (r *Repository) MarkPaid(ctx context.Context, orderID int64, method string) error {
	tag, err := r.db.Exec(ctx, `
UPDATE orders
SET status = $2, payment_method = $3, paid_at = now(), updated_at = now()
WHERE id = $1 AND status = $4
`, orderID, StatusPaid, method, StatusPendingPayment)
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d not awaiting payment", ErrBadTransition, orderID)
	}
	return nil
}

func (r *Repository) Cancel(ctx context.Context, userID, orderID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var st Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`, orderID, userID).Scan(&st)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock order: %w", err)
	}
	if !st.Cancellable() {
		return ErrNotCancellable
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, StatusCancelled); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	return tx.Commit(ctx)
}
