package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"souvenir/internal/domain/carts"
)

// CartStore mirrors the server cart locally so totals render without a
// round trip.
type CartStore struct {
	client       *Client
	shippingCost int64

	mu    sync.RWMutex
	items []carts.CartItem
}

func NewCartStore(c *Client, shippingCost int64) *CartStore {
	return &CartStore{client: c, shippingCost: shippingCost}
}

type cartEnvelope struct {
	Items   []carts.CartItem `json:"items"`
	Summary carts.Summary    `json:"summary"`
}

// Refresh replaces the local mirror with the server's cart.
func (s *CartStore) Refresh(ctx context.Context) error {
	var resp cartEnvelope
	if err := s.client.do(ctx, http.MethodGet, "/v1/cart", nil, &resp); err != nil {
		return err
	}
	s.mu.Lock()
	s.items = resp.Items
	s.mu.Unlock()
	return nil
}

func (s *CartStore) Items() []carts.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]carts.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Summary recomputes totals from the local mirror.
func (s *CartStore) Summary() carts.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return carts.ComputeSummary(s.items, s.shippingCost)
}

// FetchSummary asks the server for its view of the totals.
func (s *CartStore) FetchSummary(ctx context.Context) (carts.Summary, error) {
	var summary carts.Summary
	if err := s.client.do(ctx, http.MethodGet, "/v1/cart/summary", nil, &summary); err != nil {
		return carts.Summary{}, err
	}
	return summary, nil
}

type AddItemParams struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   int64   `json:"unitPrice"`
	BookFormat  string  `json:"bookFormat"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}

func (s *CartStore) Add(ctx context.Context, p AddItemParams) (*carts.CartItem, error) {
	var item carts.CartItem
	if err := s.client.do(ctx, http.MethodPost, "/v1/cart/add", p, &item); err != nil {
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CartStore) UpdateQuantity(ctx context.Context, itemID int64, quantity int) (*carts.CartItem, error) {
	payload := map[string]int{"quantity": quantity}
	var item carts.CartItem
	if err := s.client.do(ctx, http.MethodPut, fmt.Sprintf("/v1/cart/%d", itemID), payload, &item); err != nil {
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CartStore) Remove(ctx context.Context, itemID int64) error {
	if err := s.client.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/cart/%d", itemID), nil, nil); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Clear empties the cart on the server and locally.
func (s *CartStore) Clear(ctx context.Context) error {
	if err := s.client.do(ctx, http.MethodDelete, "/v1/cart/clear", nil, nil); err != nil {
		return err
	}
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	return nil
}
