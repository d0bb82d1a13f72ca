package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kreasivisual/kreasivisual-backend/api/responses"
	"github.com/kreasivisual/kreasivisual-backend/api/validators"
	"github.com/kreasivisual/kreasivisual-backend/internal/orders"
	"github.com/kreasivisual/kreasivisual-backend/pkg/enums"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
)

type adminOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderStatus applies a status transition through the state machine.
// Cancels ride on the same endpoint with status "Dibatalkan".
func AdminOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body adminOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status"))
			return
		}

		order, err := svc.TransitionByCode(r.Context(), chi.URLParam(r, "orderCode"), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
