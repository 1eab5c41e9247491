package loyalty

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	pkgerrors "github.com/grocerdash/grocerdash-backend/pkg/errors"
	"github.com/grocerdash/grocerdash-backend/pkg/logger"
)

// Service credits green points for delivered orders and releases referral
// bonuses. Callers run it as a post-transition effect; every method is safe
// to retry because the mutations are guarded in SQL.
type Service struct {
	logg *logger.Logger
}

// NewService builds the loyalty service.
func NewService(logg *logger.Logger) *Service {
	return &Service{logg: logg}
}

// ActiveConfig loads the single loyalty policy row. A missing row means
// loyalty is simply not configured.
func (s *Service) ActiveConfig(ctx context.Context, db *gorm.DB) (*models.LoyaltyConfig, error) {
	var cfg models.LoyaltyConfig
	err := db.WithContext(ctx).Order("updated_at DESC").First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loyalty config")
	}
	return &cfg, nil
}

// PurchasePoints computes floor(total/100 * rate).
func PurchasePoints(total decimal.Decimal, pointsPerHundred int) int {
	if pointsPerHundred <= 0 || !total.IsPositive() {
		return 0
	}
	points := total.Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(int64(pointsPerHundred))).
		Floor()
	return int(points.IntPart())
}

// CreditPurchasePoints accrues points for a delivered order and updates the
// customer's cached balance. Returns the points credited.
func (s *Service) CreditPurchasePoints(ctx context.Context, db *gorm.DB, customerID uuid.UUID, total decimal.Decimal) (int, error) {
	cfg, err := s.ActiveConfig(ctx, db)
	if err != nil {
		return 0, err
	}
	if cfg == nil || !cfg.PurchaseRewardsEnabled {
		return 0, nil
	}
	points := PurchasePoints(total, cfg.PointsPerHundred)
	if points == 0 {
		return 0, nil
	}
	if err := s.credit(ctx, db, customerID, points); err != nil {
		return 0, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"customer_id": customerID.String(),
		"points":      points,
	}), "green points credited")
	return points, nil
}

// ReleaseReferralBonus awards referrer/referee bonuses the first time the
// referee gets an order delivered. The awarded flag flips through a guarded
// update, so a retried delivered transition cannot double-credit.
func (s *Service) ReleaseReferralBonus(ctx context.Context, db *gorm.DB, refereeID uuid.UUID, now time.Time) error {
	cfg, err := s.ActiveConfig(ctx, db)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}

	var referral models.Referral
	err = db.WithContext(ctx).Where("referee_id = ? AND awarded = ?", refereeID, false).First(&referral).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load referral")
	}

	// Claim the award first; losing the race to another delivery of the
	// same customer's order means someone else already credited.
	res := db.WithContext(ctx).Exec(
		`UPDATE referrals SET awarded = ?, awarded_at = ? WHERE id = ? AND awarded = ?`,
		true, now, referral.ID, false,
	)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark referral awarded")
	}
	if res.RowsAffected == 0 {
		return nil
	}

	if cfg.AwardReferrer && cfg.ReferrerBonusPoints > 0 {
		if err := s.credit(ctx, db, referral.ReferrerID, cfg.ReferrerBonusPoints); err != nil {
			return err
		}
	}
	if cfg.AwardReferee && cfg.RefereeBonusPoints > 0 {
		if err := s.credit(ctx, db, referral.RefereeID, cfg.RefereeBonusPoints); err != nil {
			return err
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"referee_id":  refereeID.String(),
		"referral_id": referral.ID.String(),
	}), "referral bonus released")
	return nil
}

func (s *Service) credit(ctx context.Context, db *gorm.DB, customerID uuid.UUID, points int) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE customers SET green_points = green_points + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		points, customerID,
	)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "credit green points")
	}
	return nil
}
