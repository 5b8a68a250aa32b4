package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradingData is a point-in-time market observation for the traded
// product. It is external input to the exchange, immutable once created.
type TradingData struct {
	Timestamp time.Time
	Price     decimal.Decimal
	Volume    decimal.Decimal
}
