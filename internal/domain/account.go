package domain

import "github.com/shopspring/decimal"

// Account is a snapshot of the holder's state on the exchange. It is
// read-only for callers: balances change only as a side effect of order
// placement, fills, and cancellations inside the implementing system.
type Account struct {
	ID       string
	Currency string // quote currency of the balance, e.g. "USD"

	// Balance is the total quote currency in the account; Available is
	// the part not held by open orders. Available never exceeds Balance.
	Balance   decimal.Decimal
	Available decimal.Decimal

	// ProductQuantity is the base currency held, e.g. BTC.
	ProductQuantity decimal.Decimal

	// Fee is the percentage rate applied per trade.
	Fee decimal.Decimal
}
