package types

import "github.com/shopspring/decimal"

// CustomFee is an operator-defined named surcharge applied to every cart.
type CustomFee struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// CustomFees is the jsonb-persisted list of custom fees on the fee config.
type CustomFees []CustomFee
