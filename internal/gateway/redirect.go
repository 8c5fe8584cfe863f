package gateway

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// RedirectAdapter covers the processors that confirm through an external
// checkout page (card processor, PayPal). Initiate returns the page URL;
// the processor reports the outcome through the payment callback, so the
// status stays PENDING until then.
type RedirectAdapter struct {
	name        string // "card" | "paypal"
	checkoutURL string // sandbox or production checkout page base
	returnURL   string
}

func NewRedirectAdapter(name, checkoutURL, returnURL string) *RedirectAdapter {
	return &RedirectAdapter{name: name, checkoutURL: checkoutURL, returnURL: returnURL}
}

func (a *RedirectAdapter) Initiate(ctx context.Context, req Request) (Response, error) {
	ref := fmt.Sprintf("%s-%s", map[string]string{"card": "CB", "paypal": "PP"}[a.name], uuid.NewString()[:8])

	u, err := url.Parse(a.checkoutURL)
	if err != nil {
		return Response{}, fmt.Errorf("%s checkout url: %w", a.name, err)
	}
	q := u.Query()
	q.Set("tx", req.TransactionID)
	q.Set("ref", ref)
	q.Set("amount", fmt.Sprintf("%d", req.Amount))
	q.Set("return_url", a.returnURL)
	u.RawQuery = q.Encode()

	return Response{
		ProviderRef: ref,
		Status:      "PENDING",
		PaymentURL:  u.String(),
		Message:     "Redirection vers la page de paiement sécurisée",
	}, nil
}
