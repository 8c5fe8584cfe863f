package client

import (
	"context"
	"fmt"
	"net/http"

	"souvenir/internal/domain/orders"
)

// CreateOrder snapshots the server-side cart into a new order awaiting
// payment.
func (c *Client) CreateOrder(ctx context.Context, ship orders.ShippingAddress) (*orders.Order, error) {
	var o orders.Order
	if err := c.do(ctx, http.MethodPost, "/v1/orders", ship, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]orders.Order, error) {
	var list []orders.Order
	if err := c.do(ctx, http.MethodGet, "/v1/orders", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID int64) (*orders.Order, error) {
	var o orders.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/orders/%d", orderID), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID int64) (*orders.Order, error) {
	var o orders.Order
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/orders/%d/cancel", orderID), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
