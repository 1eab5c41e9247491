package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/grocerdash/grocerdash-backend/api/responses"
	"github.com/grocerdash/grocerdash-backend/api/validators"
	ordersvc "github.com/grocerdash/grocerdash-backend/internal/orders"
	"github.com/grocerdash/grocerdash-backend/pkg/enums"
	pkgerrors "github.com/grocerdash/grocerdash-backend/pkg/errors"
	"github.com/grocerdash/grocerdash-backend/pkg/logger"
)

type assignDriverRequest struct {
	// DriverID is optional; when omitted the longest-idle online driver is
	// picked automatically.
	DriverID *uuid.UUID `json:"driver_id"`
}

// ManagerAssignDriver binds a driver to an order, or auto-picks one.
func ManagerAssignDriver(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignDriverRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		driverID := uuid.Nil
		if payload.DriverID != nil {
			driverID = *payload.DriverID
		}

		order, err := svc.ManagerAssign(r.Context(), orderID, driverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type managerStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ManagerUpdateStatus overrides an order's status without the driver
// identity check.
func ManagerUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload managerStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.ManagerUpdateStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
