package carts

import (
	"context"
	"errors"
	"time"
)

var (
	ErrItemNotFound = errors.New("cart item not found")
	ErrBadQuantity  = errors.New("quantity must be >= 1")
)

type CartItem struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int64     `json:"unitPrice"`
	BookFormat  string    `json:"bookFormat"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary carries the computed totals the checkout screen shows.
// Amounts are integer FCFA.
type Summary struct {
	Total        int64 `json:"total"`
	ItemCount    int   `json:"itemCount"`
	ShippingCost int64 `json:"shippingCost"`
	GrandTotal   int64 `json:"grandTotal"`
}

// ComputeSummary derives totals from the lines. grandTotal = total + shipping;
// an empty cart still reports the shipping cost as zero.
func ComputeSummary(items []CartItem, shippingCost int64) Summary {
	var s Summary
	for _, it := range items {
		s.Total += int64(it.Quantity) * it.UnitPrice
		s.ItemCount += it.Quantity
	}
	if len(items) > 0 {
		s.ShippingCost = shippingCost
	}
	s.GrandTotal = s.Total + s.ShippingCost
	return s
}

type Store interface {
	List(ctx context.Context, userID int64) ([]CartItem, error)
	Add(ctx context.Context, item *CartItem) error
	UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) (*CartItem, error)
	Remove(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
}
