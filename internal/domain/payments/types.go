package payments

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("payment not found")
	ErrAlreadyOpen   = errors.New("a payment is already pending for this order")
	ErrTerminalState = errors.New("payment already reached a terminal status")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

func (s Status) String() string { return string(s) }

// IsTerminal reports whether the payment lifecycle has ended.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// ParseStatus maps a provider callback status onto the known set. Anything
// unrecognized counts as FAILED, the safe interpretation for money.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusPending, StatusSuccess, StatusFailed, StatusCancelled, StatusRefunded:
		return Status(raw)
	}
	return StatusFailed
}

type Method string

const (
	MethodMobileMoney Method = "mobile_money"
	MethodCard        Method = "card"
	MethodPayPal      Method = "paypal"
)

func ValidMethod(m Method) bool {
	return m == MethodMobileMoney || m == MethodCard || m == MethodPayPal
}

// Payment is one tracked attempt to collect money for an order.
type Payment struct {
	ID            int64      `json:"id"`
	TransactionID string     `json:"transactionId"`
	OrderID       int64      `json:"orderId"`
	UserID        int64      `json:"-"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	Method        Method     `json:"paymentMethod"`
	Provider      *string    `json:"provider,omitempty"`
	PhoneNumber   *string    `json:"phoneNumber,omitempty"`
	Status        Status     `json:"status"`
	ExternalRef   *string    `json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

type Store interface {
	Create(ctx context.Context, p *Payment) error
	GetByTransactionID(ctx context.Context, txID string) (*Payment, error)
	ListByUser(ctx context.Context, userID int64) ([]Payment, error)
	SetStatus(ctx context.Context, txID string, status Status, externalRef *string) (*Payment, error)
}
