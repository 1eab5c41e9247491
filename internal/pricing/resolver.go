package pricing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grocerdash/grocerdash-backend/pkg/db/models"
	"github.com/grocerdash/grocerdash-backend/pkg/enums"
)

// FeeLine is one component of the quote breakdown. Discounts appear as
// negative amounts.
type FeeLine struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Quote is the resolved fee breakdown for a cart subtotal.
type Quote struct {
	ItemsTotal decimal.Decimal `json:"items_total"`
	FeesTotal  decimal.Decimal `json:"fees_total"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	Breakdown  []FeeLine       `json:"breakdown"`
}

// CouponTerms carries the discount shape of an applicable coupon. Usage
// accounting stays with the caller; the resolver is side-effect free.
type CouponTerms struct {
	Code        string
	Type        enums.DiscountType
	Value       decimal.Decimal
	MaxDiscount *decimal.Decimal
}

// DeliveryFee returns the delivery fee alone: waived above the free-delivery
// threshold when that rule is on, otherwise the flat base fee. Also feeds the
// driver-earning computation.
func DeliveryFee(subtotal decimal.Decimal, cfg models.FeeConfig) decimal.Decimal {
	if cfg.FreeDeliveryEnabled && subtotal.GreaterThanOrEqual(cfg.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return cfg.DeliveryFee.Round(2)
}

// Resolve computes the full fee breakdown for a subtotal against the active
// fee configuration. Components evaluate in a fixed order; the coupon
// discount applies last and is clamped so it never exceeds the subtotal.
// Deterministic for a given now.
func Resolve(subtotal decimal.Decimal, cfg models.FeeConfig, coupon *CouponTerms, now time.Time) Quote {
	subtotal = subtotal.Round(2)
	quote := Quote{
		ItemsTotal: subtotal,
		FeesTotal:  decimal.Zero,
		Discount:   decimal.Zero,
	}

	addFee := func(name string, amount decimal.Decimal) {
		amount = amount.Round(2)
		if amount.IsZero() {
			return
		}
		quote.Breakdown = append(quote.Breakdown, FeeLine{Name: name, Amount: amount})
		quote.FeesTotal = quote.FeesTotal.Add(amount)
	}

	addFee("delivery fee", DeliveryFee(subtotal, cfg))
	if cfg.PromiseProtectEnabled {
		addFee("promise protect", cfg.PromiseProtectFee)
	}
	if cfg.SmallCartEnabled && subtotal.LessThan(cfg.SmallCartThreshold) {
		addFee("small cart fee", cfg.SmallCartSurcharge)
	}
	if cfg.WeatherEnabled {
		addFee("weather surcharge", cfg.WeatherSurcharge)
	}
	if cfg.LateNightEnabled && inLateNightWindow(cfg.LateNightStart, cfg.LateNightEnd, now) {
		addFee("late night fee", cfg.LateNightFee)
	}
	for _, custom := range cfg.CustomFees {
		addFee(custom.Name, custom.Amount)
	}

	if coupon != nil {
		discount := couponDiscount(subtotal, *coupon)
		if discount.IsPositive() {
			quote.Discount = discount
			quote.Breakdown = append(quote.Breakdown, FeeLine{
				Name:   fmt.Sprintf("coupon %s", coupon.Code),
				Amount: discount.Neg(),
			})
		}
	}

	quote.GrandTotal = subtotal.Add(quote.FeesTotal).Sub(quote.Discount).Round(2)
	if quote.GrandTotal.IsNegative() {
		quote.GrandTotal = decimal.Zero
	}
	return quote
}

func couponDiscount(subtotal decimal.Decimal, terms CouponTerms) decimal.Decimal {
	var discount decimal.Decimal
	switch terms.Type {
	case enums.DiscountTypePercent:
		discount = subtotal.Mul(terms.Value).Div(decimal.NewFromInt(100))
		if terms.MaxDiscount != nil && discount.GreaterThan(*terms.MaxDiscount) {
			discount = *terms.MaxDiscount
		}
	case enums.DiscountTypeFlat:
		discount = terms.Value
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount.Round(2)
}

// inLateNightWindow reports whether now's HH:MM falls inside [start, end).
// The window may wrap past midnight (e.g. 23:00-06:00).
func inLateNightWindow(start, end string, now time.Time) bool {
	startMin, okStart := parseClock(start)
	endMin, okEnd := parseClock(end)
	if !okStart || !okEnd || startMin == endMin {
		return false
	}
	nowMin := now.Hour()*60 + now.Minute()
	if startMin < endMin {
		return nowMin >= startMin && nowMin < endMin
	}
	// Wrapped window.
	return nowMin >= startMin || nowMin < endMin
}

func parseClock(value string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
