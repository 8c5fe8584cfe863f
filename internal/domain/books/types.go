package books

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("book not found")

type Book struct {
	ID        int64     `json:"-"`
	BookID    string    `json:"bookId"` // short public id
	UserID    int64     `json:"-"`
	Title     string    `json:"title"`
	Format    string    `json:"format"` // pdf, epub, docx
	Style     string    `json:"style"`  // modern, classic, elegant, minimalist
	Pages     int       `json:"pages"`
	ObjectKey string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

type Store interface {
	Create(ctx context.Context, b *Book) error
	GetByBookID(ctx context.Context, bookID string) (*Book, error)
}
