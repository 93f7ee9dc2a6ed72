package models

import (
	"github.com/shopspring/decimal"
)

// Balance is derived from the transaction log, never stored.
type Balance struct {
	Available      decimal.Decimal
	TotalPurchased decimal.Decimal
	TotalSpent     decimal.Decimal
}
