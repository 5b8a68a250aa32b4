// Package service holds the query and notification layers that sit
// between the HTTP handlers and the simulated exchange.
package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/store"
)

// PriceResponse represents the response for GET /market/price.
type PriceResponse struct {
	Product       string
	CurrentPrice  *decimal.Decimal // nil when no observations ever
	Window        string           // e.g. "5m"
	TicksInWindow int
	LastTickAt    *time.Time // nil when no observations ever
}

// MarketService answers price and history queries from the ticker store.
type MarketService struct {
	tickers    *store.TickerStore
	product    string
	vwapWindow time.Duration
}

// NewMarketService creates a MarketService for the given product.
func NewMarketService(tickers *store.TickerStore, product string, vwapWindow time.Duration) *MarketService {
	return &MarketService{
		tickers:    tickers,
		product:    product,
		vwapWindow: vwapWindow,
	}
}

// Product returns the trading pair identifier the service reports on.
func (s *MarketService) Product() string {
	return s.product
}

// GetPrice returns the current reference price, computed as the
// volume-weighted average over the configured window. Falls back to the
// latest observation's price when the window holds no volume. The price
// is nil when no observations have ever arrived.
func (s *MarketService) GetPrice() *PriceResponse {
	resp := &PriceResponse{
		Product: s.product,
		Window:  formatDuration(s.vwapWindow),
	}

	last, ok := s.tickers.Last()
	if !ok {
		return resp
	}
	lastAt := last.Timestamp
	resp.LastTickAt = &lastAt

	windowStart := time.Now().Add(-s.vwapWindow)
	ticks := s.tickers.Since(windowStart)
	resp.TicksInWindow = len(ticks)

	sumPriceVol := decimal.Zero
	sumVol := decimal.Zero
	for _, td := range ticks {
		sumPriceVol = sumPriceVol.Add(td.Price.Mul(td.Volume))
		sumVol = sumVol.Add(td.Volume)
	}

	if sumVol.IsPositive() {
		vwap := sumPriceVol.Div(sumVol)
		resp.CurrentPrice = &vwap
	} else {
		price := last.Price
		resp.CurrentPrice = &price
	}
	return resp
}

// History returns the observations recorded within the given window,
// oldest first. A zero window means the full history.
func (s *MarketService) History(window time.Duration) []domain.TradingData {
	if window == 0 {
		return s.tickers.Since(time.Time{})
	}
	return s.tickers.Since(time.Now().Add(-window))
}

// formatDuration converts a time.Duration to a human-readable string
// like "5m" for the window field.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	minutes := int(d.Minutes())
	if d == time.Duration(minutes)*time.Minute && minutes > 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return d.String()
}
