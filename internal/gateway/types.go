package gateway

import "errors"

var (
	ErrBadAmount        = errors.New("amount must be > 0")
	ErrPhoneRequired    = errors.New("phone number and provider are required for mobile money")
	ErrUnknownProvider  = errors.New("unknown mobile money provider")
	ErrCardIncomplete   = errors.New("all card fields are required")
	ErrMethodNotHandled = errors.New("gateway not registered for method")
)

type CardDetails struct {
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
	CardName   string `json:"cardName"`
}

// Complete reports whether every card field is populated.
func (c CardDetails) Complete() bool {
	return c.CardNumber != "" && c.ExpiryDate != "" && c.CVV != "" && c.CardName != ""
}

type Request struct {
	TransactionID string
	OrderID       int64
	Amount        int64 // integer FCFA
	Method        string
	Provider      string
	PhoneNumber   string
	Card          *CardDetails
	CustomerName  string
	CustomerEmail string
}

// Validate enforces the method-specific field requirements before any
// provider is contacted.
func (r Request) Validate() error {
	if r.Amount <= 0 {
		return ErrBadAmount
	}
	switch r.Method {
	case "mobile_money":
		if r.PhoneNumber == "" || r.Provider == "" {
			return ErrPhoneRequired
		}
	case "card":
		if r.Card == nil || !r.Card.Complete() {
			return ErrCardIncomplete
		}
	case "paypal":
		// redirect only, nothing to collect up front
	default:
		return ErrMethodNotHandled
	}
	return nil
}

type Response struct {
	ProviderRef string // provider-side reference for reconciliation
	Status      string // always a non-terminal status at initiation
	PaymentURL  string // set for redirect-based confirmation (card, paypal)
	Message     string
}
