// Package checkout drives the storefront's shipping → payment flow as an
// explicit state machine, from address capture to a settled payment.
package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"souvenir/client"
	"souvenir/internal/domain/carts"
	"souvenir/internal/domain/orders"
	"souvenir/internal/domain/payments"
	"souvenir/internal/gateway"

	"go.uber.org/zap"
)

type State string

const (
	StateShipping State = "shipping"
	StatePayment  State = "payment"
	StateSuccess  State = "success"
	StateError    State = "error"
)

var (
	ErrNotAuthenticated = errors.New("sign in to continue to payment")
	ErrPaymentInFlight  = errors.New("a payment attempt is already in progress")
	ErrWrongState       = errors.New("operation not allowed in this state")
	ErrClosed           = errors.New("checkout is closed")
)

const timeoutMessage = "payment verification timed out"

// Session gates payment initiation on a signed-in account.
type Session interface {
	Authenticated() bool
}

// Cart is cleared once, when a payment settles successfully.
type Cart interface {
	Summary() carts.Summary
	Clear(ctx context.Context) error
}

// OrderPlacer turns the cart into an order awaiting payment.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, ship orders.ShippingAddress) (*orders.Order, error)
}

// Gateway starts payments and answers status polls.
type Gateway interface {
	Initiate(ctx context.Context, p client.InitiateParams) (*client.InitiateResult, error)
	CheckStatus(ctx context.Context, txID string) (*payments.Payment, error)
}

// Opener hands a redirect URL to the surrounding UI. It must not block.
type Opener func(url string)

// Notifier surfaces user-facing messages. Levels are "success", "error"
// and "info".
type Notifier func(level, message string)

type Config struct {
	Session  Session
	Cart     Cart
	Orders   OrderPlacer
	Gateway  Gateway
	Opener   Opener
	Notifier Notifier
	Logger   *zap.SugaredLogger

	// PollInterval defaults to 3s, PollTimeout to 2min.
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// PaymentDetails carries the method-specific fields the user filled in.
type PaymentDetails struct {
	Provider    string
	PhoneNumber string
	Card        *gateway.CardDetails
}

type Controller struct {
	session Session
	cart    Cart
	orders  OrderPlacer
	gateway Gateway
	opener  Opener
	notify  Notifier
	logger  *zap.SugaredLogger

	pollInterval time.Duration
	pollTimeout  time.Duration

	mu         sync.Mutex
	state      State
	lastError  string
	order      *orders.Order
	method     string
	txID       string
	inFlight   bool
	pollCancel context.CancelFunc
	closed     bool
}

func NewController(cfg Config) *Controller {
	c := &Controller{
		session:      cfg.Session,
		cart:         cfg.Cart,
		orders:       cfg.Orders,
		gateway:      cfg.Gateway,
		opener:       cfg.Opener,
		notify:       cfg.Notifier,
		logger:       cfg.Logger,
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
		state:        StateShipping,
	}
	if c.logger == nil {
		c.logger = zap.NewNop().Sugar()
	}
	if c.notify == nil {
		c.notify = func(string, string) {}
	}
	if c.opener == nil {
		c.opener = func(string) {}
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 3 * time.Second
	}
	if c.pollTimeout <= 0 {
		c.pollTimeout = 2 * time.Minute
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError is the message shown on the error screen.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

func (c *Controller) Order() *orders.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order
}

func (c *Controller) TransactionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txID
}

// SubmitShipping validates the address and snapshots the cart into an
// order. An incomplete address keeps the flow on the shipping screen.
func (c *Controller) SubmitShipping(ctx context.Context, ship orders.ShippingAddress) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateShipping {
		c.mu.Unlock()
		return ErrWrongState
	}
	c.mu.Unlock()

	if ship.Empty() {
		err := errors.New("shipping address is incomplete")
		c.notify("error", err.Error())
		return err
	}

	order, err := c.orders.CreateOrder(ctx, ship)
	if err != nil {
		c.notify("error", userMessage(err))
		return err
	}

	c.mu.Lock()
	c.order = order
	c.state = StatePayment
	c.mu.Unlock()

	c.logger.Infow("order created", "reference", order.Reference, "amount", order.TotalAmount)
	return nil
}

// ChoosePaymentMethod records the method. Pure state, no network.
func (c *Controller) ChoosePaymentMethod(method string) error {
	if !payments.ValidMethod(payments.Method(method)) {
		return gateway.ErrMethodNotHandled
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != StatePayment {
		return ErrWrongState
	}
	c.method = method
	return nil
}

// InitiatePayment starts a payment attempt for the current order. Field
// requirements are enforced locally before any network call, and only one
// attempt may be open at a time.
func (c *Controller) InitiatePayment(ctx context.Context, details PaymentDetails) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StatePayment {
		c.mu.Unlock()
		return ErrWrongState
	}
	if c.inFlight {
		c.mu.Unlock()
		c.notify("error", ErrPaymentInFlight.Error())
		return ErrPaymentInFlight
	}
	// claim the single attempt slot before releasing the lock, a
	// concurrent call must see it taken
	c.inFlight = true
	order := c.order
	method := c.method
	c.mu.Unlock()

	if !c.session.Authenticated() {
		c.releaseAttempt()
		c.notify("error", ErrNotAuthenticated.Error())
		return ErrNotAuthenticated
	}

	precheck := gateway.Request{
		OrderID:     order.ID,
		Amount:      order.TotalAmount,
		Method:      method,
		Provider:    details.Provider,
		PhoneNumber: details.PhoneNumber,
		Card:        details.Card,
	}
	if err := precheck.Validate(); err != nil {
		c.releaseAttempt()
		c.notify("error", err.Error())
		return err
	}

	params := client.InitiateParams{
		OrderID:       order.ID,
		PaymentMethod: method,
		Provider:      details.Provider,
		PhoneNumber:   details.PhoneNumber,
	}
	if details.Card != nil {
		params.CardNumber = details.Card.CardNumber
		params.ExpiryDate = details.Card.ExpiryDate
		params.CVV = details.Card.CVV
		params.CardName = details.Card.CardName
	}

	res, err := c.gateway.Initiate(ctx, params)
	if err != nil {
		c.releaseAttempt()
		c.notify("error", userMessage(err))
		return err
	}

	pollCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.txID = res.TransactionID
	c.pollCancel = cancel
	c.mu.Unlock()

	c.logger.Infow("payment initiated", "transaction_id", res.TransactionID, "method", method)

	if res.PaymentURL != "" {
		c.opener(res.PaymentURL)
	}

	go c.poll(pollCtx, res.TransactionID)
	return nil
}

// releaseAttempt frees the attempt slot when initiation never reached the
// gateway or the gateway refused it.
func (c *Controller) releaseAttempt() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// poll asks the gateway every pollInterval until a terminal status or the
// pollTimeout ceiling. Transport errors are logged and polling continues.
func (c *Controller) poll(ctx context.Context, txID string) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(c.pollTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			c.resolve(txID, StateError, timeoutMessage, false)
			return
		case <-ticker.C:
			p, err := c.gateway.CheckStatus(ctx, txID)
			if err != nil {
				c.logger.Warnw("status poll failed, retrying", "transaction_id", txID, "error", err)
				continue
			}
			switch p.Status {
			case payments.StatusSuccess:
				c.resolve(txID, StateSuccess, "payment confirmed", true)
				return
			case payments.StatusFailed, payments.StatusCancelled, payments.StatusRefunded:
				c.resolve(txID, StateError, "payment "+strings.ToLower(string(p.Status)), false)
				return
			}
			// PENDING: keep polling
		}
	}
}

// resolve applies a terminal outcome. Late ticks after Close or Back find a
// stale txID and do nothing.
func (c *Controller) resolve(txID string, state State, message string, clearCart bool) {
	c.mu.Lock()
	if c.closed || txID != c.txID {
		c.mu.Unlock()
		return
	}
	c.inFlight = false
	c.state = state
	if state == StateError {
		c.lastError = message
	}
	c.mu.Unlock()

	c.logger.Infow("payment resolved", "transaction_id", txID, "state", state, "message", message)

	if clearCart {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.cart.Clear(ctx); err != nil {
			c.logger.Errorw("error clearing cart after payment", "error", err)
		}
		c.notify("success", message)
		return
	}
	c.notify("error", message)
}

// Back returns from the payment screen to shipping, abandoning any open
// attempt and stopping its poll.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != StatePayment {
		return ErrWrongState
	}
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
	c.inFlight = false
	c.txID = ""
	c.order = nil
	c.state = StateShipping
	return nil
}

// Retry moves from the error screen back to payment so the user can try
// again. Nothing is re-sent automatically.
func (c *Controller) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != StateError {
		return ErrWrongState
	}
	c.lastError = ""
	c.txID = ""
	c.state = StatePayment
	return nil
}

// Close tears the controller down. Any in-flight poll is cancelled and
// outcomes arriving afterwards are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
	c.closed = true
}

// userMessage strips transport noise down to something displayable.
func userMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "network error, please try again"
}
