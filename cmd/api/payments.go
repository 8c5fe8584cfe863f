package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"souvenir/internal/domain/orders"
	"souvenir/internal/domain/payments"
	"souvenir/internal/gateway"
	"souvenir/internal/mailer"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type InitiatePaymentPayload struct {
	OrderID       int64  `json:"orderId" validate:"required,min=1"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=mobile_money card paypal"`
	Provider      string `json:"provider" validate:"omitempty,oneof=orange_money wave mtn_momo free_money"`
	PhoneNumber   string `json:"phoneNumber" validate:"omitempty,snphone"`
	CardNumber    string `json:"cardNumber" validate:"omitempty,credit_card"`
	ExpiryDate    string `json:"expiryDate" validate:"omitempty,len=5"`
	CVV           string `json:"cvv" validate:"omitempty,min=3,max=4"`
	CardName      string `json:"cardName" validate:"omitempty,max=100"`
}

// InitiatePaymentResponse is the wire shape the checkout flow consumes.
// payment_url stays snake_case, the hosted payment pages read it that way.
type InitiatePaymentResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	PaymentURL    string `json:"payment_url,omitempty"`
	Message       string `json:"message,omitempty"`
}

// initiatePaymentHandler godoc
//
//	@Summary		Start a payment for an order
//	@Description	Creates a PENDING payment and hands the request to the provider adapter. Only one open payment per order is allowed.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		InitiatePaymentPayload	true	"Payment details"
//	@Success		201		{object}	InitiatePaymentResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		409		{object}	error	"A payment is already pending for this order"
//	@Security		ApiKeyAuth
//	@Router			/payments/initiate [post]
func (app *application) initiatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var payload InitiatePaymentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	ctx := r.Context()

	order, err := app.store.Orders.GetForUser(ctx, user.ID, payload.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if order.Status != orders.StatusPendingPayment {
		app.conflictResponse(w, r, fmt.Errorf("order %s is %s, not awaiting payment", order.Reference, order.Status))
		return
	}

	req := gateway.Request{
		TransactionID: "TXN-" + uuid.New().String(),
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		Method:        payload.PaymentMethod,
		Provider:      payload.Provider,
		PhoneNumber:   payload.PhoneNumber,
		CustomerName:  user.FirstName + " " + user.LastName,
		CustomerEmail: user.Email,
	}
	if payload.PaymentMethod == "card" {
		req.Card = &gateway.CardDetails{
			CardNumber: payload.CardNumber,
			ExpiryDate: payload.ExpiryDate,
			CVV:        payload.CVV,
			CardName:   payload.CardName,
		}
	}

	// reject bad field combinations before any row or provider call
	if err := req.Validate(); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	payment := &payments.Payment{
		TransactionID: req.TransactionID,
		OrderID:       order.ID,
		UserID:        user.ID,
		Amount:        order.TotalAmount,
		Method:        payments.Method(payload.PaymentMethod),
	}
	if payload.Provider != "" {
		payment.Provider = &payload.Provider
	}
	if payload.PhoneNumber != "" {
		payment.PhoneNumber = &payload.PhoneNumber
	}

	if err := app.store.Payments.Create(ctx, payment); err != nil {
		switch {
		case errors.Is(err, payments.ErrAlreadyOpen):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	resp, err := app.gateways.Initiate(ctx, req)
	if err != nil {
		// the provider refused; close the intent so the order can retry
		if _, ferr := app.store.Payments.SetStatus(ctx, payment.TransactionID, payments.StatusFailed, nil); ferr != nil {
			app.logger.Errorw("error failing payment after gateway refusal", "transaction_id", payment.TransactionID, "error", ferr)
		}
		app.badRequestResponse(w, r, err)
		return
	}

	app.logger.Infow("payment initiated",
		"transaction_id", payment.TransactionID,
		"order_reference", order.Reference,
		"method", payload.PaymentMethod,
		"amount", payment.Amount)

	if app.config.payment.sandboxSettle && payload.PaymentMethod == "mobile_money" {
		app.settleSandboxPayment(payment.TransactionID, resp.ProviderRef)
	}

	out := InitiatePaymentResponse{
		TransactionID: payment.TransactionID,
		Status:        resp.Status,
		PaymentURL:    resp.PaymentURL,
		Message:       resp.Message,
	}

	if err := app.jsonResponse(w, http.StatusCreated, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

// settleSandboxPayment confirms a mobile money payment after a short delay,
// through the same path a real provider callback takes. Sandbox only.
func (app *application) settleSandboxPayment(txID, providerRef string) {
	go func() {
		time.Sleep(app.config.payment.sandboxSettleDelay)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ref := providerRef
		if err := app.resolvePayment(ctx, txID, payments.StatusSuccess, &ref); err != nil {
			app.logger.Errorw("sandbox settlement failed", "transaction_id", txID, "error", err)
		}
	}()
}

func (app *application) paymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "transactionID")

	payment, err := app.store.Payments.GetByTransactionID(r.Context(), txID)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, payment); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) paymentHistoryHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	list, err := app.store.Payments.ListByUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

type PaymentCallbackPayload struct {
	TransactionID string  `json:"transactionId" validate:"required"`
	Status        string  `json:"status" validate:"required"`
	ExternalRef   *string `json:"externalReference"`
}

// paymentCallbackHandler godoc
//
//	@Summary		Provider callback
//	@Description	Providers confirm or reject a payment here. Unknown statuses count as FAILED. Replays against a settled payment are acknowledged without change.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		PaymentCallbackPayload	true	"Provider notification"
//	@Success		200		{object}	payments.Payment
//	@Failure		404		{object}	error
//	@Router			/payments/callback [post]
func (app *application) paymentCallbackHandler(w http.ResponseWriter, r *http.Request) {
	var payload PaymentCallbackPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()
	status := payments.ParseStatus(payload.Status)

	err := app.resolvePayment(ctx, payload.TransactionID, status, payload.ExternalRef)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, payments.ErrTerminalState):
			// replayed callback, nothing left to do
		default:
			app.internalServerError(w, r, err)
			return
		}
	}

	payment, err := app.store.Payments.GetByTransactionID(ctx, payload.TransactionID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, payment); err != nil {
		app.internalServerError(w, r, err)
	}
}

// resolvePayment applies a terminal provider verdict: flips the payment row,
// marks the order paid on SUCCESS and sends the fulfillment notice. The mail
// is best effort, money state never depends on it.
func (app *application) resolvePayment(ctx context.Context, txID string, status payments.Status, externalRef *string) error {
	payment, err := app.store.Payments.SetStatus(ctx, txID, status, externalRef)
	if err != nil {
		return err
	}

	app.logger.Infow("payment resolved", "transaction_id", txID, "status", status)

	if status != payments.StatusSuccess {
		return nil
	}

	if err := app.store.Orders.MarkPaid(ctx, payment.OrderID, string(payment.Method)); err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}

	order, err := app.store.Orders.GetByID(ctx, payment.OrderID)
	if err != nil {
		app.logger.Errorw("error loading order for fulfillment mail", "order_id", payment.OrderID, "error", err)
		return nil
	}

	user, err := app.store.Users.GetByID(ctx, order.UserID)
	if err != nil {
		app.logger.Errorw("error loading user for fulfillment mail", "user_id", order.UserID, "error", err)
		return nil
	}

	vars := struct {
		Username  string
		Reference string
		Amount    int64
		Items     []orders.OrderItem
	}{
		Username:  user.FirstName,
		Reference: order.Reference,
		Amount:    order.TotalAmount,
		Items:     order.Items,
	}

	if _, err := app.mailer.Send(mailer.FulfillmentTemplate, user.FirstName, user.Email, vars); err != nil {
		app.logger.Errorw("error sending fulfillment mail", "order_reference", order.Reference, "error", err)
	}

	return nil
}
