package books

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/speps/go-hashids/v2"
)

type Repository struct {
	db  *pgxpool.Pool
	ids *hashids.HashID
}

func NewRepository(db *pgxpool.Pool, salt string) (*Repository, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 8
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("init hashids: %w", err)
	}
	return &Repository{db: db, ids: h}, nil
}

// Create persists the metadata row and derives the short public id from the
// row id, so the id in download URLs never exposes the sequence.
func (r *Repository) Create(ctx context.Context, b *Book) error {
	err := r.db.QueryRow(ctx, `
INSERT INTO books (user_id, title, format, style, pages, object_key)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at
`, b.UserID, b.Title, b.Format, b.Style, b.Pages, b.ObjectKey).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}

	public, err := r.ids.EncodeInt64([]int64{b.ID})
	if err != nil {
		return fmt.Errorf("encode book id: %w", err)
	}
	b.BookID = public

	if _, err := r.db.Exec(ctx, `UPDATE books SET book_id = $2 WHERE id = $1`, b.ID, public); err != nil {
		return fmt.Errorf("store book id: %w", err)
	}
	return nil
}

func (r *Repository) GetByBookID(ctx context.Context, bookID string) (*Book, error) {
	var b Book
	err := r.db.QueryRow(ctx, `
SELECT id, book_id, user_id, title, format, style, pages, object_key, created_at
FROM books
WHERE book_id = $1
`, bookID).Scan(&b.ID, &b.BookID, &b.UserID, &b.Title, &b.Format, &b.Style, &b.Pages, &b.ObjectKey, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &b, nil
}
