package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/grocerdash/grocerdash-backend/pkg/types"
)

// Branch is a fulfillment location; its location becomes the pickup point of
// every order it serves.
type Branch struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Location  types.GeoPoint `gorm:"column:location;type:jsonb;serializer:json"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}
