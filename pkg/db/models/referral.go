package models

import (
	"time"

	"github.com/google/uuid"
)

// Referral links a referrer and referee; Awarded flips exactly once, on the
// referee's first delivered order.
type Referral struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ReferrerID uuid.UUID  `gorm:"column:referrer_id;type:uuid;not null"`
	RefereeID  uuid.UUID  `gorm:"column:referee_id;type:uuid;not null;uniqueIndex"`
	Awarded    bool       `gorm:"column:awarded;not null;default:false"`
	AwardedAt  *time.Time `gorm:"column:awarded_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
