package orders

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("order not found")
	ErrEmptyCart      = errors.New("cannot create an order from an empty cart")
	ErrBadTransition  = errors.New("invalid order status transition")
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPaid           Status = "PAID"
	StatusProcessing     Status = "PROCESSING"
	StatusShipped        Status = "SHIPPED"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
	StatusRefunded       Status = "REFUNDED"
)

func (s Status) String() string { return string(s) }

// IsTerminal reports whether no further transition is expected.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

// rank orders the forward path PENDING_PAYMENT → ... → DELIVERED.
var rank = map[Status]int{
	StatusPendingPayment: 0,
	StatusPaid:           1,
	StatusProcessing:     2,
	StatusShipped:        3,
	StatusDelivered:      4,
}

// CanTransition enforces monotonic movement along the forward path.
// CANCELLED and REFUNDED are reachable from any non-terminal state and
// are never left once entered.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	if from.IsTerminal() {
		return false
	}
	if to == StatusCancelled || to == StatusRefunded {
		return true
	}
	fr, ok1 := rank[from]
	tr, ok2 := rank[to]
	return ok1 && ok2 && tr > fr
}

// Cancellable mirrors the storefront rule: a user can cancel until the
// order ships.
func (s Status) Cancellable() bool {
	switch s {
	case StatusPendingPayment, StatusPaid, StatusProcessing:
		return true
	}
	return false
}

type ShippingAddress struct {
	FullName    string  `json:"fullName"`
	Phone       string  `json:"phone"`
	AddressLine string  `json:"addressLine"`
	City        string  `json:"city"`
	PostalCode  *string `json:"postalCode,omitempty"`
	Country     *string `json:"country,omitempty"`
}

// Empty reports whether the address is missing any required field.
func (a ShippingAddress) Empty() bool {
	return a.FullName == "" || a.Phone == "" || a.AddressLine == ""
}

type Order struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"-"`
	Reference     string      `json:"reference"`
	Status        Status      `json:"status"`
	TotalAmount   int64       `json:"totalAmount"`
	ShippingCost  int64       `json:"shippingCost"`
	PaymentMethod *string     `json:"paymentMethod,omitempty"`
	PaidAt        *time.Time  `json:"paidAt,omitempty"`
	Items         []OrderItem `json:"items,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

type OrderItem struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"-"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	BookFormat  string `json:"bookFormat"`
	TotalPrice  int64  `json:"totalPrice"`
}

type Store interface {
	CreateFromCart(ctx context.Context, userID int64, ship ShippingAddress, shippingCost int64) (*Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetForUser(ctx context.Context, userID, orderID int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID int64, to Status) error
	MarkPaid(ctx context.Context, orderID int64, method string) error
	Cancel(ctx context.Context, userID, orderID int64) error
}
