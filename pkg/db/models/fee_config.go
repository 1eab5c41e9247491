package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

// FeeConfig is the single active fee policy row consumed by the pricing
// resolver. Each component toggles independently.
type FeeConfig struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`

	DeliveryFee           decimal.Decimal `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	FreeDeliveryEnabled   bool            `gorm:"column:free_delivery_enabled;not null;default:false"`
	FreeDeliveryThreshold decimal.Decimal `gorm:"column:free_delivery_threshold;type:numeric(12,2);not null;default:0"`

	PromiseProtectEnabled bool            `gorm:"column:promise_protect_enabled;not null;default:false"`
	PromiseProtectFee     decimal.Decimal `gorm:"column:promise_protect_fee;type:numeric(12,2);not null;default:0"`

	SmallCartEnabled   bool            `gorm:"column:small_cart_enabled;not null;default:false"`
	SmallCartThreshold decimal.Decimal `gorm:"column:small_cart_threshold;type:numeric(12,2);not null;default:0"`
	SmallCartSurcharge decimal.Decimal `gorm:"column:small_cart_surcharge;type:numeric(12,2);not null;default:0"`

	WeatherEnabled   bool            `gorm:"column:weather_enabled;not null;default:false"`
	WeatherSurcharge decimal.Decimal `gorm:"column:weather_surcharge;type:numeric(12,2);not null;default:0"`

	// LateNightStart/End are HH:MM; the window may wrap past midnight.
	LateNightEnabled bool            `gorm:"column:late_night_enabled;not null;default:false"`
	LateNightFee     decimal.Decimal `gorm:"column:late_night_fee;type:numeric(12,2);not null;default:0"`
	LateNightStart   string          `gorm:"column:late_night_start;not null;default:'23:00'"`
	LateNightEnd     string          `gorm:"column:late_night_end;not null;default:'06:00'"`

	CustomFees types.CustomFees `gorm:"column:custom_fees;type:jsonb;serializer:json"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
