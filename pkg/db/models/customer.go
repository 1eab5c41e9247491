package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer holds the storefront identity and the cached green-point balance.
type Customer struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Phone       string    `gorm:"column:phone;not null;uniqueIndex"`
	GreenPoints int       `gorm:"column:green_points;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
