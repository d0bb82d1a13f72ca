package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kreasivisual/kreasivisual-backend/api/middleware"
	"github.com/kreasivisual/kreasivisual-backend/api/responses"
	"github.com/kreasivisual/kreasivisual-backend/api/validators"
	"github.com/kreasivisual/kreasivisual-backend/internal/cart"
	"github.com/kreasivisual/kreasivisual-backend/pkg/enums"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
	"github.com/kreasivisual/kreasivisual-backend/pkg/types"
)

type addCartItemRequest struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=umkm standar profesional"`
	Price       int64  `json:"price" validate:"gte=0"`
	Description string `json:"description"`
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// CartFetch returns the current cart quote for the signed-in buyer.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := middleware.BuyerID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing"))
			return
		}

		quote, err := svc.Get(r.Context(), buyerID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CartAddItem appends a service to the cart and returns the updated quote.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := middleware.BuyerID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing"))
			return
		}

		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.AddItem(r.Context(), buyerID.String(), types.OrderItem{
			ID:          body.ID,
			Name:        validators.SanitizeString(body.Name, 200),
			Category:    enums.ServiceCategory(body.Category),
			Price:       body.Price,
			Description: validators.SanitizeString(body.Description, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CartRemoveItem drops the first item matching the path id.
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := middleware.BuyerID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing"))
			return
		}

		quote, err := svc.RemoveItem(r.Context(), buyerID.String(), chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CartClear empties the cart.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := middleware.BuyerID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing"))
			return
		}

		if err := svc.Clear(r.Context(), buyerID.String()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

// CartApplyCoupon resolves the submitted code against the coupon table.
func CartApplyCoupon(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := middleware.BuyerID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing"))
			return
		}

		var body applyCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.ApplyCoupon(r.Context(), buyerID.String(), body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
