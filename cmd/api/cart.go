package main

import (
	"errors"
	"net/http"
	"strconv"

	"souvenir/internal/domain/carts"

	"github.com/go-chi/chi/v5"
)

// CartResponse bundles the lines with their computed totals so the
// storefront renders from one payload.
type CartResponse struct {
	Items   []carts.CartItem `json:"items"`
	Summary carts.Summary    `json:"summary"`
}

// getCartHandler godoc
//
//	@Summary	Get the current user's cart
//	@Tags		cart
//	@Produce	json
//	@Success	200	{object}	CartResponse
//	@Failure	500	{object}	ErrorInternalServerResponse
//	@Security	ApiKeyAuth
//	@Router		/cart [get]
func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	items, err := app.store.Carts.List(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := CartResponse{
		Items:   items,
		Summary: carts.ComputeSummary(items, app.config.shippingCost),
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type AddCartItemPayload struct {
	ProductID   string  `json:"productId" validate:"required,max=100"`
	ProductName string  `json:"productName" validate:"required,max=255"`
	Quantity    int     `json:"quantity" validate:"required,min=1,max=50"`
	UnitPrice   int64   `json:"unitPrice" validate:"required,min=1"`
	BookFormat  string  `json:"bookFormat" validate:"required,oneof=pdf epub docx hardcover softcover"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
}

// addCartItemHandler godoc
//
//	@Summary		Add a product to the cart
//	@Description	Adding the same product and format again accumulates the quantity
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		AddCartItemPayload	true	"Cart line"
//	@Success		201		{object}	carts.CartItem
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/cart/add [post]
func (app *application) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	var payload AddCartItemPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	item := &carts.CartItem{
		UserID:      user.ID,
		ProductID:   payload.ProductID,
		ProductName: payload.ProductName,
		Quantity:    payload.Quantity,
		UnitPrice:   payload.UnitPrice,
		BookFormat:  payload.BookFormat,
		ImageURL:    payload.ImageURL,
	}

	if err := app.store.Carts.Add(r.Context(), item); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, item); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateCartItemPayload struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=50"`
}

func (app *application) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid cart item ID"))
		return
	}

	var payload UpdateCartItemPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	item, err := app.store.Carts.UpdateQuantity(r.Context(), user.ID, itemID, payload.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, carts.ErrItemNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, carts.ErrBadQuantity):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, item); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid cart item ID"))
		return
	}

	user := getUserFromContext(r)

	if err := app.store.Carts.Remove(r.Context(), user.ID, itemID); err != nil {
		switch {
		case errors.Is(err, carts.ErrItemNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.store.Carts.Clear(r.Context(), user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) cartSummaryHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	items, err := app.store.Carts.List(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	summary := carts.ComputeSummary(items, app.config.shippingCost)

	if err := app.jsonResponse(w, http.StatusOK, summary); err != nil {
		app.internalServerError(w, r, err)
	}
}
