package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerdash/grocerdash-backend/internal/pricing"
	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	"github.com/grocerdash/grocerdash-backend/pkg/enums"
	pkgerrors "github.com/grocerdash/grocerdash-backend/pkg/errors"
	"github.com/grocerdash/grocerdash-backend/pkg/metrics"
	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

type transitionOptions struct {
	bindDriverID   *uuid.UUID
	driverLocation *types.GeoPoint
	// allowSameFrom permits re-applying the current status, used by manager
	// re-assignment of an already assigned order.
	allowSameFrom bool
}

type transitionOutcome struct {
	order          *models.Order
	previous       enums.OrderStatus
	next           enums.OrderStatus
	boundDriverID  *uuid.UUID
	driverLocation *types.GeoPoint
}

func bindTarget(binding bool, driverID uuid.UUID) *uuid.UUID {
	if !binding {
		return nil
	}
	return &driverID
}

// applyTransition performs the authoritative state mutation inside the
// caller's transaction. Critical settlement fields (COD collection, driver
// earning, stock return) ride in the same conditional update so they commit
// or roll back with the status itself.
func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, next enums.OrderStatus, opts transitionOptions, outcome *transitionOutcome) error {
	from := order.Status
	if from == next && !opts.allowSameFrom {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order already %s", from)).
			WithDetails(map[string]any{"status": from})
	}
	if from != next && !CanTransition(from, next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", from, next)).
			WithDetails(map[string]any{"from": from, "to": next})
	}

	now := s.now()
	updates := map[string]any{}
	if opts.bindDriverID != nil {
		updates["delivery_partner_id"] = *opts.bindDriverID
		updates["assigned_at"] = now
	}
	if opts.driverLocation != nil {
		snapshot := types.NormalizedGeoPoint(opts.driverLocation)
		updates["delivery_person_location"] = &snapshot
	}

	switch next {
	case enums.OrderStatusDelivered:
		if order.PaymentMethod == enums.PaymentMethodCOD {
			updates["cod_collected"] = order.TotalPrice
		}
		feeCfg, err := repo.ActiveFeeConfig(ctx)
		if err != nil {
			return err
		}
		updates["driver_earning"] = pricing.DeliveryFee(itemsSubtotal(order.Items), *feeCfg)
	case enums.OrderStatusCancelled:
		for _, item := range order.Items {
			if err := s.ledger.Release(ctx, tx, item.ProductID, item.Qty); err != nil {
				return err
			}
		}
	}

	ok, err := repo.Transition(ctx, order.ID, from, next, updates)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
	}

	if opts.bindDriverID != nil {
		if err := s.drivers.StampAssigned(ctx, tx, *opts.bindDriverID, now); err != nil {
			return err
		}
		order.DeliveryPartnerID = opts.bindDriverID
	}

	order.Status = next
	*outcome = transitionOutcome{
		order:          order,
		previous:       from,
		next:           next,
		boundDriverID:  opts.bindDriverID,
		driverLocation: opts.driverLocation,
	}
	return nil
}

// effect is one post-transition handler. Each runs after the transaction
// commits and owns its failure domain: an error is logged, never propagated,
// and never blocks the handlers behind it.
type effect struct {
	name string
	run  func(ctx context.Context) error
}

// finishTransition runs the ordered post-commit effects and returns the
// re-populated order.
func (s *service) finishTransition(ctx context.Context, outcome transitionOutcome) (*models.Order, error) {
	metrics.OrderTransitions.WithLabelValues(outcome.next.String()).Inc()

	detail := s.detailOrFallback(ctx, outcome.order)
	ctx = s.logg.WithOrderID(ctx, detail.ID.String())

	effects := []effect{
		{name: "driver location snapshot", run: func(ctx context.Context) error {
			if outcome.driverLocation == nil || detail.DeliveryPartnerID == nil {
				return nil
			}
			return s.drivers.UpdateLiveLocation(ctx, *detail.DeliveryPartnerID,
				types.NormalizedGeoPoint(outcome.driverLocation))
		}},
		{name: "customer notification", run: func(ctx context.Context) error {
			if s.pusher == nil {
				return nil
			}
			// The confirm transition already reaches the customer through the
			// room's orderConfirmed event; pushing here too would double-ping.
			if outcome.next == enums.OrderStatusConfirmed {
				return nil
			}
			title, body := statusNotification(detail)
			s.pusher.Push(ctx, detail.CustomerID, title, body)
			if outcome.next == enums.OrderStatusAtLocation && outcome.previous != enums.OrderStatusAtLocation {
				s.pusher.Push(ctx, detail.CustomerID, "Driver nearby",
					fmt.Sprintf("Your delivery partner has arrived for order %s.", detail.OrderNumber))
			}
			return nil
		}},
		{name: "loyalty accrual", run: func(ctx context.Context) error {
			if outcome.next != enums.OrderStatusDelivered {
				return nil
			}
			_, err := s.loyalty.CreditPurchasePoints(ctx, s.db, detail.CustomerID, detail.TotalPrice)
			return err
		}},
		{name: "referral bonus", run: func(ctx context.Context) error {
			if outcome.next != enums.OrderStatusDelivered {
				return nil
			}
			hasPrior, err := s.repo.HasDeliveredOrder(ctx, detail.CustomerID, detail.ID)
			if err != nil {
				return err
			}
			if hasPrior {
				return nil
			}
			return s.loyalty.ReleaseReferralBonus(ctx, s.db, detail.CustomerID, s.now())
		}},
		{name: "realtime fan-out", run: func(ctx context.Context) error {
			if outcome.boundDriverID != nil {
				s.dispatcher.NotifyAssigned(ctx, detail, *outcome.boundDriverID)
				return nil
			}
			s.dispatcher.NotifyStatusUpdate(ctx, detail)
			return nil
		}},
	}
	for _, e := range effects {
		if err := e.run(ctx); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "effect", e.name), "post-transition effect failed", err)
		}
	}

	return detail, nil
}

// detailOrFallback reloads the order with associations resolved, falling
// back to the in-memory copy when the reload fails.
func (s *service) detailOrFallback(ctx context.Context, order *models.Order) *models.Order {
	detail, err := s.repo.FindDetail(ctx, order.ID)
	if err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "reload order detail", err)
		return order
	}
	return detail
}

func itemsSubtotal(items []models.OrderItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	return subtotal.Round(2)
}

func statusNotification(order *models.Order) (string, string) {
	switch order.Status {
	case enums.OrderStatusAssigned:
		return "Order update", fmt.Sprintf("Order %s has been assigned to a delivery partner.", order.OrderNumber)
	case enums.OrderStatusConfirmed:
		return "Order confirmed", fmt.Sprintf("A delivery partner accepted order %s.", order.OrderNumber)
	case enums.OrderStatusArriving:
		return "Order update", fmt.Sprintf("Order %s is on its way.", order.OrderNumber)
	case enums.OrderStatusAtLocation:
		return "Order update", fmt.Sprintf("Order %s has reached your location.", order.OrderNumber)
	case enums.OrderStatusDelivered:
		return "Order delivered", fmt.Sprintf("Order %s was delivered. Thank you!", order.OrderNumber)
	case enums.OrderStatusCancelled:
		return "Order cancelled", fmt.Sprintf("Order %s was cancelled.", order.OrderNumber)
	default:
		return "Order update", fmt.Sprintf("Order %s is now %s.", order.OrderNumber, order.Status)
	}
}
