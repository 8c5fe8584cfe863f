package client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"souvenir/internal/domain/payments"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GatewayAdapter wraps the payment endpoints. With demo mode explicitly
// enabled it can fabricate SIM- prefixed responses when the backend is
// unreachable, so the checkout flow can be exercised offline. Demo mode is
// off by default and every fabricated response is logged as a warning.
type GatewayAdapter struct {
	client   *Client
	logger   *zap.SugaredLogger
	demoMode bool

	mu        sync.Mutex
	demoPolls map[string]int
}

func NewGatewayAdapter(c *Client, logger *zap.SugaredLogger, demoMode bool) *GatewayAdapter {
	return &GatewayAdapter{
		client:    c,
		logger:    logger,
		demoMode:  demoMode,
		demoPolls: make(map[string]int),
	}
}

type InitiateParams struct {
	OrderID       int64  `json:"orderId"`
	PaymentMethod string `json:"paymentMethod"`
	Provider      string `json:"provider,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	CardNumber    string `json:"cardNumber,omitempty"`
	ExpiryDate    string `json:"expiryDate,omitempty"`
	CVV           string `json:"cvv,omitempty"`
	CardName      string `json:"cardName,omitempty"`
}

type InitiateResult struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	PaymentURL    string `json:"payment_url,omitempty"`
	Message       string `json:"message,omitempty"`
}

func (g *GatewayAdapter) Initiate(ctx context.Context, p InitiateParams) (*InitiateResult, error) {
	var res InitiateResult
	err := g.client.do(ctx, http.MethodPost, "/v1/payments/initiate", p, &res)
	if err == nil {
		return &res, nil
	}

	// server rejections are real answers, only transport failures may fall
	// back to demo mode
	if IsAPIError(err) || !g.demoMode {
		return nil, err
	}

	sim := &InitiateResult{
		TransactionID: "SIM-" + uuid.New().String(),
		Status:        string(payments.StatusPending),
		Message:       "simulated payment, backend unreachable",
	}
	g.mu.Lock()
	g.demoPolls[sim.TransactionID] = 0
	g.mu.Unlock()

	g.logger.Warnw("DEMO MODE: fabricated payment initiation, no money will move",
		"transaction_id", sim.TransactionID, "cause", err)
	return sim, nil
}

// CheckStatus is idempotent: polling a settled payment returns the same
// terminal answer every time.
func (g *GatewayAdapter) CheckStatus(ctx context.Context, txID string) (*payments.Payment, error) {
	if g.demoMode {
		if p, ok := g.demoStatus(txID); ok {
			return p, nil
		}
	}

	var p payments.Payment
	if err := g.client.do(ctx, http.MethodGet, "/v1/payments/status/"+txID, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// demoStatus settles a fabricated payment on its second poll.
func (g *GatewayAdapter) demoStatus(txID string) (*payments.Payment, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	polls, ok := g.demoPolls[txID]
	if !ok {
		return nil, false
	}
	g.demoPolls[txID] = polls + 1

	status := payments.StatusPending
	var completed *time.Time
	if polls >= 1 {
		status = payments.StatusSuccess
		now := time.Now()
		completed = &now
	}
	g.logger.Warnw("DEMO MODE: fabricated payment status", "transaction_id", txID, "status", status)

	return &payments.Payment{
		TransactionID: txID,
		Status:        status,
		Currency:      "XOF",
		CompletedAt:   completed,
	}, true
}

func (g *GatewayAdapter) History(ctx context.Context) ([]payments.Payment, error) {
	var list []payments.Payment
	if err := g.client.do(ctx, http.MethodGet, "/v1/payments/history", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SimulateCallback posts a provider verdict, standing in for the real
// provider during tests and sandbox runs.
func (g *GatewayAdapter) SimulateCallback(ctx context.Context, txID string, status payments.Status, externalRef *string) error {
	payload := map[string]any{
		"transactionId": txID,
		"status":        string(status),
	}
	if externalRef != nil {
		payload["externalReference"] = *externalRef
	}
	return g.client.do(ctx, http.MethodPost, "/v1/payments/callback", payload, nil)
}
