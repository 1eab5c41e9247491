package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grocerdash/grocerdash-backend/internal/pricing"
	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	pkgerrors "github.com/grocerdash/grocerdash-backend/pkg/errors"
)

// Validator resolves coupon codes against the rules that gate their use and
// consumes usage slots. The usage counter is only ever moved by Consume, with
// the guard in SQL, so concurrent orders cannot overdraw a coupon.
type Validator struct{}

// NewValidator builds the coupon validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate loads a coupon by code and checks it against the subtotal. It
// returns discount terms for the pricing resolver plus the loaded row for a
// later Consume. All rejections are client-correctable.
func (v *Validator) Validate(ctx context.Context, tx *gorm.DB, code string, subtotal decimal.Decimal, now time.Time) (*pricing.CouponTerms, *models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}

	var coupon models.Coupon
	err := tx.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found").
				WithDetails(map[string]any{"code": code})
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	if !coupon.IsActive {
		return nil, nil, rejection(code, "inactive")
	}
	if coupon.ExpiresAt != nil && !coupon.ExpiresAt.After(now) {
		return nil, nil, rejection(code, "expired")
	}
	if subtotal.LessThan(coupon.MinOrderValue) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "order below coupon minimum").
			WithDetails(map[string]any{"code": code, "min_order_value": coupon.MinOrderValue})
	}
	if coupon.UsedCount >= coupon.UsageLimit {
		return nil, nil, rejection(code, "usage limit reached")
	}

	terms := &pricing.CouponTerms{
		Code:        coupon.Code,
		Type:        coupon.DiscountType,
		Value:       coupon.Value,
		MaxDiscount: coupon.MaxDiscount,
	}
	return terms, &coupon, nil
}

// Consume takes one usage slot. The counter guard in the WHERE clause makes
// the increment atomic; losing the race surfaces as a usage-limit rejection
// so the whole order creation rolls back.
func (v *Validator) Consume(ctx context.Context, tx *gorm.DB, coupon *models.Coupon) error {
	if coupon == nil {
		return nil
	}
	res := tx.WithContext(ctx).Exec(
		`UPDATE coupons SET used_count = used_count + 1 WHERE id = ? AND used_count < usage_limit`,
		coupon.ID,
	)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "consume coupon")
	}
	if res.RowsAffected == 0 {
		return rejection(coupon.Code, "usage limit reached")
	}
	return nil
}

func rejection(code, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "coupon not applicable").
		WithDetails(map[string]any{"code": code, "reason": reason})
}
