package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grocerdash/grocerdash-backend/pkg/enums"
	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

// Order is the aggregate root of the delivery lifecycle. OrderNumber is the
// human-readable identity; the UUID primary key is storage-level only.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string    `gorm:"column:order_number;not null;uniqueIndex"`

	CustomerID        uuid.UUID  `gorm:"column:customer_id;type:uuid;not null"`
	BranchID          uuid.UUID  `gorm:"column:branch_id;type:uuid;not null"`
	DeliveryPartnerID *uuid.UUID `gorm:"column:delivery_partner_id;type:uuid"`

	DeliveryLocation       types.GeoPoint  `gorm:"column:delivery_location;type:jsonb;serializer:json"`
	PickupLocation         types.GeoPoint  `gorm:"column:pickup_location;type:jsonb;serializer:json"`
	DeliveryPersonLocation *types.GeoPoint `gorm:"column:delivery_person_location;type:jsonb;serializer:json"`

	TotalPrice     decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CouponCode     *string         `gorm:"column:coupon_code"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'cod'"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	DriverEarning  decimal.Decimal `gorm:"column:driver_earning;type:numeric(12,2);not null;default:0"`
	CODCollected   decimal.Decimal `gorm:"column:cod_collected;type:numeric(12,2);not null;default:0"`

	Status enums.OrderStatus `gorm:"column:status;type:text;not null;default:'available'"`

	Items           []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Customer        *Customer        `gorm:"foreignKey:CustomerID"`
	Branch          *Branch          `gorm:"foreignKey:BranchID"`
	DeliveryPartner *DeliveryPartner `gorm:"foreignKey:DeliveryPartnerID"`

	AssignedAt *time.Time `gorm:"column:assigned_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
