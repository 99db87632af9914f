package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kynkyro/shaderstore-backend/api/middleware"
	"github.com/kynkyro/shaderstore-backend/api/responses"
	"github.com/kynkyro/shaderstore-backend/api/validators"
	cartstore "github.com/kynkyro/shaderstore-backend/internal/cart"
	"github.com/kynkyro/shaderstore-backend/pkg/enums"
	pkgerrors "github.com/kynkyro/shaderstore-backend/pkg/errors"
	"github.com/kynkyro/shaderstore-backend/pkg/logger"
)

type addItemRequest struct {
	ProductID      string  `json:"product_id" validate:"required"`
	VariantID      *string `json:"variant_id,omitempty"`
	Name           string  `json:"name" validate:"required"`
	Image          string  `json:"image"`
	UnitPriceCents int64   `json:"unit_price_cents" validate:"gte=0"`
	Currency       string  `json:"currency" validate:"required"`
	MaxStock       *int    `json:"max_stock,omitempty"`
	Qty            int     `json:"qty" validate:"required,min=1"`
}

type updateQuantityRequest struct {
	// Zero or negative removes the line.
	Qty int `json:"qty"`
}

type setOpenRequest struct {
	Open bool `json:"open"`
}

// CartFetch returns the shopper's cart snapshot with derived totals.
func CartFetch(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopperID, err := shopperIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := store.Get(r.Context(), shopperID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartAddItem merges a candidate line into the cart.
func CartAddItem(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopperID, err := shopperIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid currency").
					WithDetails(map[string]any{"currency": payload.Currency}))
			return
		}

		candidate := cartstore.Candidate{
			ProductID:      payload.ProductID,
			VariantID:      payload.VariantID,
			Name:           payload.Name,
			Image:          payload.Image,
			UnitPriceCents: payload.UnitPriceCents,
			Currency:       currency,
			MaxStock:       payload.MaxStock,
		}

		snap, err := store.AddItem(r.Context(), shopperID, candidate, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, snap)
	}
}

// CartUpdateQuantity sets a line's quantity; zero or less removes the line.
func CartUpdateQuantity(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopperID, err := shopperIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID := chi.URLParam(r, "id")
		if lineID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line id is required"))
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := store.UpdateQuantity(r.Context(), shopperID, lineID, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartRemoveItem drops a line; removing an absent line still succeeds.
func CartRemoveItem(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopperID, err := shopperIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineID := chi.URLParam(r, "id")
		if lineID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line id is required"))
			return
		}

		snap, err := store.RemoveItem(r.Context(), shopperID, lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartClear empties the cart and its persisted copy.
func CartClear(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopperID, err := shopperIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := store.Clear(r.Context(), shopperID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartSetOpen toggles the drawer without persisting anything.
func CartSetOpen(store *cartstore.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopperID, err := shopperIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setOpenRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := store.SetOpen(r.Context(), shopperID, payload.Open)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

func shopperIDFromContext(r *http.Request) (string, error) {
	if r == nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session missing")
	}
	shopperID := middleware.ShopperIDFromContext(r.Context())
	if shopperID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session missing")
	}
	return shopperID, nil
}
