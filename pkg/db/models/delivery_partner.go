package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

// DeliveryPartner is the driver actor. IsActivated gates assignment
// eligibility; LastAssignedAt feeds the longest-idle pick.
type DeliveryPartner struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Phone          string          `gorm:"column:phone;not null;uniqueIndex"`
	LiveLocation   *types.GeoPoint `gorm:"column:live_location;type:jsonb;serializer:json"`
	IsOnline       bool            `gorm:"column:is_online;not null;default:false"`
	IsActivated    bool            `gorm:"column:is_activated;not null;default:false"`
	WalletBalance  decimal.Decimal `gorm:"column:wallet_balance;type:numeric(12,2);not null;default:0"`
	CODHolding     decimal.Decimal `gorm:"column:cod_holding;type:numeric(12,2);not null;default:0"`
	LastAssignedAt *time.Time      `gorm:"column:last_assigned_at"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
