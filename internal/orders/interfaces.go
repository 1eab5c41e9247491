package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerdash/grocerdash-backend/internal/inventory"
	"github.com/grocerdash/grocerdash-backend/internal/pricing"
	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	"github.com/grocerdash/grocerdash-backend/pkg/enums"
	"github.com/grocerdash/grocerdash-backend/pkg/pagination"
	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

// Repository defines persistence operations for the order aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LoadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	FindBranch(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	Transition(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*List, error)
	ListForDriver(ctx context.Context, driverID uuid.UUID, params pagination.Params) (*List, error)
	ListAll(ctx context.Context, filter Filter, params pagination.Params) (*List, error)
	HasDeliveredOrder(ctx context.Context, customerID uuid.UUID, excludeOrderID uuid.UUID) (bool, error)
	ActiveFeeConfig(ctx context.Context) (*models.FeeConfig, error)
	ExpireStaleAssigned(ctx context.Context, cutoff time.Time) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockLedger reserves and releases product stock inside the order
// transaction.
type StockLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) (map[uuid.UUID]*models.Product, error)
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// CouponGate validates and consumes coupon codes.
type CouponGate interface {
	Validate(ctx context.Context, tx *gorm.DB, code string, subtotal decimal.Decimal, now time.Time) (*pricing.CouponTerms, *models.Coupon, error)
	Consume(ctx context.Context, tx *gorm.DB, coupon *models.Coupon) error
}

// Dispatcher validates assignment candidates and fans out order events.
type Dispatcher interface {
	ValidateAssignable(ctx context.Context, driverID uuid.UUID) (*models.DeliveryPartner, error)
	PickFirstAvailable(ctx context.Context) (*models.DeliveryPartner, error)
	NotifyCreated(ctx context.Context, order *models.Order)
	NotifyAssigned(ctx context.Context, order *models.Order, driverID uuid.UUID)
	NotifyStatusUpdate(ctx context.Context, order *models.Order)
	NotifyReleased(ctx context.Context, order *models.Order, previousDriverID uuid.UUID)
}

// LoyaltyCredits runs the delivered-order accrual side effects.
type LoyaltyCredits interface {
	CreditPurchasePoints(ctx context.Context, db *gorm.DB, customerID uuid.UUID, total decimal.Decimal) (int, error)
	ReleaseReferralBonus(ctx context.Context, db *gorm.DB, refereeID uuid.UUID, now time.Time) error
}

// DriverBook is the slice of the driver repository the state machine needs
// while binding assignments.
type DriverBook interface {
	StampAssigned(ctx context.Context, tx *gorm.DB, driverID uuid.UUID, at time.Time) error
	UpdateLiveLocation(ctx context.Context, driverID uuid.UUID, location types.GeoPoint) error
}

// Pusher delivers best-effort customer notifications.
type Pusher interface {
	Push(ctx context.Context, userID uuid.UUID, title, body string)
}
