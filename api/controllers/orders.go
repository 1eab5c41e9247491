package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/grocerdash/grocerdash-backend/api/middleware"
	"github.com/grocerdash/grocerdash-backend/api/responses"
	"github.com/grocerdash/grocerdash-backend/api/validators"
	ordersvc "github.com/grocerdash/grocerdash-backend/internal/orders"
	"github.com/grocerdash/grocerdash-backend/pkg/enums"
	pkgerrors "github.com/grocerdash/grocerdash-backend/pkg/errors"
	"github.com/grocerdash/grocerdash-backend/pkg/logger"
	"github.com/grocerdash/grocerdash-backend/pkg/pagination"
	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

func actorFromRequest(r *http.Request) (ordersvc.Actor, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return ordersvc.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	role, err := enums.ParseRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return ordersvc.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}
	return ordersvc.Actor{UserID: userID, Role: role}, nil
}

type cartItemPayload struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1"`
	Variation *string   `json:"variation"`
}

type createOrderRequest struct {
	BranchID        uuid.UUID         `json:"branch_id" validate:"required"`
	Items           []cartItemPayload `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress types.GeoPoint    `json:"delivery_address" validate:"required"`
	CouponCode      *string           `json:"coupon_code"`
	PaymentMethod   string            `json:"payment_method" validate:"required,oneof=cod wallet online"`
}

func (p createOrderRequest) toInput(customerID uuid.UUID) (ordersvc.CreateInput, error) {
	method, err := enums.ParsePaymentMethod(p.PaymentMethod)
	if err != nil {
		return ordersvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	items := make([]ordersvc.CartItem, len(p.Items))
	for i, item := range p.Items {
		items[i] = ordersvc.CartItem{
			ProductID: item.ProductID,
			Qty:       item.Qty,
			Variation: item.Variation,
		}
	}
	return ordersvc.CreateInput{
		CustomerID:      customerID,
		BranchID:        p.BranchID,
		Items:           items,
		DeliveryAddress: p.DeliveryAddress,
		CouponCode:      p.CouponCode,
		PaymentMethod:   method,
	}, nil
}

// CreateOrder handles the customer cart submission.
func CreateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type estimateOrderRequest struct {
	Items      []cartItemPayload `json:"items" validate:"required,min=1,dive"`
	CouponCode *string           `json:"coupon_code"`
}

// EstimateOrder quotes a cart without creating anything.
func EstimateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload estimateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]ordersvc.CartItem, len(payload.Items))
		for i, item := range payload.Items {
			items[i] = ordersvc.CartItem{
				ProductID: item.ProductID,
				Qty:       item.Qty,
				Variation: item.Variation,
			}
		}

		quote, err := svc.Estimate(r.Context(), ordersvc.EstimateInput{
			Items:      items,
			CouponCode: payload.CouponCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

// GetOrder fetches a single order subject to ownership rules.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// ListOrders lists orders scoped by the caller's role. Staff callers trigger
// an opportunistic stale-assignment sweep first so the dashboard never shows
// orders stuck on drivers who accepted and walked away.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}

		var filter ordersvc.Filter
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}

		if actor.Role.IsStaff() {
			if _, err := svc.ExpireStaleAssignedOrders(r.Context()); err != nil {
				logg.Error(r.Context(), "stale assignment sweep failed", err)
			}
		}

		list, err := svc.ListFor(r.Context(), actor, filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}
