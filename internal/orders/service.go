package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerdash/grocerdash-backend/internal/inventory"
	"github.com/grocerdash/grocerdash-backend/internal/pricing"
	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	"github.com/grocerdash/grocerdash-backend/pkg/enums"
	pkgerrors "github.com/grocerdash/grocerdash-backend/pkg/errors"
	"github.com/grocerdash/grocerdash-backend/pkg/logger"
	"github.com/grocerdash/grocerdash-backend/pkg/metrics"
	"github.com/grocerdash/grocerdash-backend/pkg/pagination"
	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Estimate(ctx context.Context, input EstimateInput) (*pricing.Quote, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	ListFor(ctx context.Context, actor Actor, filter Filter, params pagination.Params) (*List, error)
	ConfirmAssignment(ctx context.Context, orderID, driverID uuid.UUID, location *types.GeoPoint) (*models.Order, error)
	UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.Order, error)
	ManagerAssign(ctx context.Context, orderID, driverID uuid.UUID) (*models.Order, error)
	ManagerUpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus enums.OrderStatus) (*models.Order, error)
	ReleaseAssignment(ctx context.Context, orderID, driverID uuid.UUID) (*models.Order, error)
	RejectOrder(ctx context.Context, orderID, driverID uuid.UUID) (*models.Order, error)
	ExpireStaleAssignedOrders(ctx context.Context) (int64, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	ledger     StockLedger
	coupons    CouponGate
	dispatcher Dispatcher
	loyalty    LoyaltyCredits
	drivers    DriverBook
	pusher     Pusher
	logg       *logger.Logger
	db         *gorm.DB
	staleAfter time.Duration
	now        func() time.Time
}

// Deps bundles the collaborators the order service needs.
type Deps struct {
	Repo       Repository
	Tx         txRunner
	Ledger     StockLedger
	Coupons    CouponGate
	Dispatcher Dispatcher
	Loyalty    LoyaltyCredits
	Drivers    DriverBook
	Pusher     Pusher
	Logger     *logger.Logger
	DB         *gorm.DB
	StaleAfter time.Duration
}

// NewService builds the order state machine with the required dependencies.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if deps.Coupons == nil {
		return nil, fmt.Errorf("coupon gate required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if deps.Loyalty == nil {
		return nil, fmt.Errorf("loyalty credits required")
	}
	if deps.Drivers == nil {
		return nil, fmt.Errorf("driver book required")
	}
	if deps.Pusher == nil {
		return nil, fmt.Errorf("pusher required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle required")
	}
	if deps.StaleAfter <= 0 {
		deps.StaleAfter = 5 * time.Minute
	}
	return &service{
		repo:       deps.Repo,
		tx:         deps.Tx,
		ledger:     deps.Ledger,
		coupons:    deps.Coupons,
		dispatcher: deps.Dispatcher,
		loyalty:    deps.Loyalty,
		drivers:    deps.Drivers,
		pusher:     deps.Pusher,
		logg:       deps.Logger,
		db:         deps.DB,
		staleAfter: deps.StaleAfter,
		now:        time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.BranchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	if !input.PaymentMethod.IsValid() {
		input.PaymentMethod = enums.PaymentMethodCOD
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		branch, err := repo.FindBranch(ctx, input.BranchID)
		if err != nil {
			return err
		}

		requests := make([]inventory.ReservationRequest, 0, len(input.Items))
		for _, item := range input.Items {
			requests = append(requests, inventory.ReservationRequest{ProductID: item.ProductID, Qty: item.Qty})
		}
		products, err := s.ledger.Reserve(ctx, tx, requests)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		for _, item := range input.Items {
			product := products[item.ProductID]
			subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Qty))))
		}
		subtotal = subtotal.Round(2)

		now := s.now()
		var terms *pricing.CouponTerms
		if input.CouponCode != nil && *input.CouponCode != "" {
			validated, coupon, err := s.coupons.Validate(ctx, tx, *input.CouponCode, subtotal, now)
			if err != nil {
				return err
			}
			if err := s.coupons.Consume(ctx, tx, coupon); err != nil {
				return err
			}
			terms = validated
		}

		feeCfg, err := repo.ActiveFeeConfig(ctx)
		if err != nil {
			return err
		}
		quote := pricing.Resolve(subtotal, *feeCfg, terms, now)

		orderNumber, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		order := &models.Order{
			ID:               uuid.New(),
			OrderNumber:      orderNumber,
			CustomerID:       input.CustomerID,
			BranchID:         input.BranchID,
			DeliveryLocation: types.NormalizedGeoPoint(&input.DeliveryAddress),
			PickupLocation:   branch.Location,
			TotalPrice:       quote.GrandTotal,
			CouponCode:       input.CouponCode,
			DiscountAmount:   quote.Discount,
			PaymentMethod:    input.PaymentMethod,
			PaymentStatus:    enums.PaymentStatusPending,
			DriverEarning:    pricing.DeliveryFee(subtotal, *feeCfg),
			Status:           enums.OrderStatusAvailable,
		}
		for _, item := range input.Items {
			product := products[item.ProductID]
			order.Items = append(order.Items, models.OrderItem{
				ID:        uuid.New(),
				ProductID: item.ProductID,
				Name:      product.Name,
				Variation: item.Variation,
				UnitPrice: product.Price,
				Qty:       item.Qty,
			})
		}
		if err := repo.Create(ctx, order); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	detail := s.detailOrFallback(ctx, created)
	s.dispatcher.NotifyCreated(ctx, detail)
	return detail, nil
}

func (s *service) Estimate(ctx context.Context, input EstimateInput) (*pricing.Quote, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		ids = append(ids, item.ProductID)
	}
	products, err := s.repo.LoadProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, item := range input.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	subtotal = subtotal.Round(2)

	now := s.now()
	var terms *pricing.CouponTerms
	if input.CouponCode != nil && *input.CouponCode != "" {
		terms, _, err = s.coupons.Validate(ctx, s.db, *input.CouponCode, subtotal, now)
		if err != nil {
			return nil, err
		}
	}

	feeCfg, err := s.repo.ActiveFeeConfig(ctx)
	if err != nil {
		return nil, err
	}
	quote := pricing.Resolve(subtotal, *feeCfg, terms, now)
	return &quote, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role.IsStaff() {
		return order, nil
	}
	if order.CustomerID == actor.UserID {
		return order, nil
	}
	if order.DeliveryPartnerID != nil && *order.DeliveryPartnerID == actor.UserID {
		return order, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to requester")
}

func (s *service) ListFor(ctx context.Context, actor Actor, filter Filter, params pagination.Params) (*List, error) {
	switch {
	case actor.Role.IsStaff():
		return s.repo.ListAll(ctx, filter, params)
	case actor.Role == enums.RoleDeliveryPartner:
		return s.repo.ListForDriver(ctx, actor.UserID, params)
	default:
		return s.repo.ListForCustomer(ctx, actor.UserID, params)
	}
}

// ConfirmAssignment is the driver self-accept path: available or assigned
// orders move to confirmed with the requester bound.
func (s *service) ConfirmAssignment(ctx context.Context, orderID, driverID uuid.UUID, location *types.GeoPoint) (*models.Order, error) {
	return s.UpdateStatus(ctx, StatusUpdateInput{
		OrderID:        orderID,
		DriverID:       driverID,
		NewStatus:      enums.OrderStatusConfirmed,
		DriverLocation: location,
	})
}

func (s *service) UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "driver identity missing")
	}
	if !input.NewStatus.IsValid() || !DriverSettable(input.NewStatus) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "requested status is not driver-settable").
			WithDetails(map[string]any{"status": input.NewStatus})
	}

	var outcome transitionOutcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order already %s", order.Status)).
				WithDetails(map[string]any{"status": order.Status})
		}

		binding := false
		if order.DeliveryPartnerID == nil {
			if input.NewStatus != enums.OrderStatusConfirmed {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order not yet confirmed").
					WithDetails(map[string]any{"status": order.Status})
			}
			if _, err := s.dispatcher.ValidateAssignable(ctx, input.DriverID); err != nil {
				return err
			}
			binding = true
		} else if *order.DeliveryPartnerID != input.DriverID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is bound to another driver")
		}

		return s.applyTransition(ctx, tx, repo, order, input.NewStatus, transitionOptions{
			bindDriverID:   bindTarget(binding, input.DriverID),
			driverLocation: input.DriverLocation,
		}, &outcome)
	})
	if err != nil {
		return nil, err
	}
	return s.finishTransition(ctx, outcome)
}

// ManagerAssign binds a driver regardless of current assignment. A nil
// driver id picks the longest-idle eligible driver.
func (s *service) ManagerAssign(ctx context.Context, orderID, driverID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var driver *models.DeliveryPartner
	var err error
	if driverID == uuid.Nil {
		driver, err = s.dispatcher.PickFirstAvailable(ctx)
	} else {
		driver, err = s.dispatcher.ValidateAssignable(ctx, driverID)
	}
	if err != nil {
		return nil, err
	}

	var outcome transitionOutcome
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusAvailable && order.Status != enums.OrderStatusAssigned {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not assignable").
				WithDetails(map[string]any{"status": order.Status})
		}

		return s.applyTransition(ctx, tx, repo, order, enums.OrderStatusAssigned, transitionOptions{
			bindDriverID:  &driver.ID,
			allowSameFrom: true,
		}, &outcome)
	})
	if err != nil {
		return nil, err
	}
	return s.finishTransition(ctx, outcome)
}

// ManagerUpdateStatus is the privileged override: same graph, no driver
// identity check.
func (s *service) ManagerUpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !newStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status").
			WithDetails(map[string]any{"status": newStatus})
	}

	var outcome transitionOutcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order already %s", order.Status)).
				WithDetails(map[string]any{"status": order.Status})
		}
		// Every status past available implies someone is carrying the order;
		// overriding an unbound order forward would strand it where no driver
		// can pick it up. Cancellation needs no carrier.
		if order.DeliveryPartnerID == nil && newStatus != enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no delivery partner bound").
				WithDetails(map[string]any{"status": order.Status})
		}
		return s.applyTransition(ctx, tx, repo, order, newStatus, transitionOptions{}, &outcome)
	})
	if err != nil {
		return nil, err
	}
	return s.finishTransition(ctx, outcome)
}

func (s *service) ReleaseAssignment(ctx context.Context, orderID, driverID uuid.UUID) (*models.Order, error) {
	return s.returnToPool(ctx, orderID, driverID,
		[]enums.OrderStatus{enums.OrderStatusAssigned, enums.OrderStatusConfirmed})
}

// RejectOrder declines an assignment that was never confirmed.
func (s *service) RejectOrder(ctx context.Context, orderID, driverID uuid.UUID) (*models.Order, error) {
	return s.returnToPool(ctx, orderID, driverID,
		[]enums.OrderStatus{enums.OrderStatusAssigned})
}

func (s *service) returnToPool(ctx context.Context, orderID, driverID uuid.UUID, allowedFrom []enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "driver identity missing")
	}

	var released *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.DeliveryPartnerID == nil || *order.DeliveryPartnerID != driverID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not bound to requester")
		}
		allowed := false
		for _, status := range allowedFrom {
			if order.Status == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order cannot be released while %s", order.Status)).
				WithDetails(map[string]any{"status": order.Status})
		}

		ok, err := repo.Transition(ctx, order.ID, order.Status, enums.OrderStatusAvailable, map[string]any{
			"delivery_partner_id":      nil,
			"assigned_at":              nil,
			"delivery_person_location": nil,
		})
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
		}
		released = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(enums.OrderStatusAvailable.String()).Inc()
	detail := s.detailOrFallback(ctx, released)
	s.dispatcher.NotifyReleased(ctx, detail, driverID)
	return detail, nil
}

// ExpireStaleAssignedOrders reverts orders stuck in assigned past the
// configured timeout back to the pool.
func (s *service) ExpireStaleAssignedOrders(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.staleAfter)
	swept, err := s.repo.ExpireStaleAssigned(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		metrics.StaleAssignmentsSwept.Add(float64(swept))
		s.logg.Info(s.logg.WithField(ctx, "count", swept), "stale assignments reverted to available")
	}
	return swept, nil
}
