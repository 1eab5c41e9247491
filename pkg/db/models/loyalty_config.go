package models

import (
	"time"

	"github.com/google/uuid"
)

// LoyaltyConfig is the single active green-points policy row.
type LoyaltyConfig struct {
	ID                     uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseRewardsEnabled bool      `gorm:"column:purchase_rewards_enabled;not null;default:false"`
	PointsPerHundred       int       `gorm:"column:points_per_hundred;not null;default:0"`
	ReferrerBonusPoints    int       `gorm:"column:referrer_bonus_points;not null;default:0"`
	RefereeBonusPoints     int       `gorm:"column:referee_bonus_points;not null;default:0"`
	AwardReferrer          bool      `gorm:"column:award_referrer;not null;default:true"`
	AwardReferee           bool      `gorm:"column:award_referee;not null;default:true"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
