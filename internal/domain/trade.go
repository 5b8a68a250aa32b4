package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents a single execution against an order. Many trades may
// reference one order through partial fills. Trades are append-only and
// never mutated once recorded.
type Trade struct {
	ID       string
	OrderID  string
	Price    decimal.Decimal // execution price
	Side     Side
	Quantity decimal.Decimal // base currency quantity traded
	Fee      decimal.Decimal // fee charged on this execution
	CreatedAt time.Time

	// Account snapshots taken right after the execution settled,
	// for audit and reconciliation.
	BalanceAfterTrade  decimal.Decimal
	HoldingsAfterTrade decimal.Decimal
}

// Clone returns a copy of the trade.
func (t *Trade) Clone() *Trade {
	c := *t
	return &c
}
