package main

import (
	"errors"
	"net/http"
	"strconv"

	"souvenir/internal/domain/orders"

	"github.com/go-chi/chi/v5"
)

type CreateOrderPayload struct {
	FullName    string  `json:"fullName" validate:"required,max=100"`
	Phone       string  `json:"phone" validate:"required,snphone"`
	AddressLine string  `json:"addressLine" validate:"required,max=255"`
	City        string  `json:"city" validate:"required,max=100"`
	PostalCode  *string `json:"postalCode" validate:"omitempty,max=20"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
}

// createOrderHandler godoc
//
//	@Summary		Create an order from the current cart
//	@Description	Snapshots the cart lines into an order in PENDING_PAYMENT
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateOrderPayload	true	"Shipping address"
//	@Success		201		{object}	orders.Order
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/orders [post]
func (app *application) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateOrderPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	ship := orders.ShippingAddress{
		FullName:    payload.FullName,
		Phone:       payload.Phone,
		AddressLine: payload.AddressLine,
		City:        payload.City,
		PostalCode:  payload.PostalCode,
		Country:     payload.Country,
	}

	order, err := app.store.Orders.CreateFromCart(r.Context(), user.ID, ship, app.config.shippingCost)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrEmptyCart):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, order); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	list, err := app.store.Orders.ListByUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid order ID"))
		return
	}

	user := getUserFromContext(r)

	order, err := app.store.Orders.GetForUser(r.Context(), user.ID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, order); err != nil {
		app.internalServerError(w, r, err)
	}
}

// cancelOrderHandler godoc
//
//	@Summary		Cancel an order
//	@Description	Allowed while the order has not shipped
//	@Tags			orders
//	@Produce		json
//	@Param			orderID	path		int	true	"Order ID"
//	@Success		200		{object}	orders.Order
//	@Failure		409		{object}	error	"Order can no longer be cancelled"
//	@Security		ApiKeyAuth
//	@Router			/orders/{orderID}/cancel [post]
func (app *application) cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid order ID"))
		return
	}

	user := getUserFromContext(r)
	ctx := r.Context()

	if err := app.store.Orders.Cancel(ctx, user.ID, orderID); err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, orders.ErrNotCancellable):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	order, err := app.store.Orders.GetForUser(ctx, user.ID, orderID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, order); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateOrderStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=PENDING_PAYMENT PAID PROCESSING SHIPPED DELIVERED CANCELLED REFUNDED"`
}

// updateOrderStatusHandler moves an order along the fulfillment path. Staff
// only; transitions are validated, not trusted.
func (app *application) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid order ID"))
		return
	}

	var payload UpdateOrderStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	if err := app.store.Orders.UpdateStatus(ctx, orderID, orders.Status(payload.Status)); err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, orders.ErrBadTransition):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	order, err := app.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, order); err != nil {
		app.internalServerError(w, r, err)
	}
}
