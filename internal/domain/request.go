package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequest is implemented by the per-kind order request variants.
// Each variant carries only the fields legal for its kind, so illegal
// field combinations (a market order with a price, a stop order without
// a stop price) cannot be constructed.
type OrderRequest interface {
	// Validate checks the request's fields. A nil return means an Order
	// can be built from it.
	Validate() error
	// Order builds the initial order record in the received state.
	Order(id string, now time.Time) *Order
}

// MarketBuyRequest buys the base currency at the market price, spending
// the given amount of quote currency.
type MarketBuyRequest struct {
	Funds       decimal.Decimal
	TimeInForce TimeInForce
	CancelAfter *time.Time
}

func (r MarketBuyRequest) Validate() error {
	if !r.Funds.IsPositive() {
		return &ValidationError{Message: "funds must be greater than 0"}
	}
	return validateTimeInForce(r.TimeInForce, r.CancelAfter, TimeInForceGTC, TimeInForceIOC, TimeInForceFOK)
}

func (r MarketBuyRequest) Order(id string, now time.Time) *Order {
	o := newOrder(id, now, OrderTypeMarket, SideBuy, r.TimeInForce, r.CancelAfter)
	o.Funds = r.Funds
	return o
}

// MarketSellRequest sells the given base currency quantity at the market
// price.
type MarketSellRequest struct {
	Size        decimal.Decimal
	TimeInForce TimeInForce
	CancelAfter *time.Time
}

func (r MarketSellRequest) Validate() error {
	if !r.Size.IsPositive() {
		return &ValidationError{Message: "size must be greater than 0"}
	}
	return validateTimeInForce(r.TimeInForce, r.CancelAfter, TimeInForceGTC, TimeInForceIOC, TimeInForceFOK)
}

func (r MarketSellRequest) Order(id string, now time.Time) *Order {
	o := newOrder(id, now, OrderTypeMarket, SideSell, r.TimeInForce, r.CancelAfter)
	o.Quantity = r.Size
	return o
}

// LimitBuyRequest buys when the market price reaches the limit price or
// better, allocating the given quote currency funds.
type LimitBuyRequest struct {
	Price       decimal.Decimal
	Funds       decimal.Decimal
	TimeInForce TimeInForce
	CancelAfter *time.Time
}

func (r LimitBuyRequest) Validate() error {
	if !r.Price.IsPositive() {
		return &ValidationError{Message: "price must be greater than 0"}
	}
	if !r.Funds.IsPositive() {
		return &ValidationError{Message: "funds must be greater than 0"}
	}
	return validateTimeInForce(r.TimeInForce, r.CancelAfter,
		TimeInForceGTC, TimeInForceGTT, TimeInForceIOC, TimeInForceFOK)
}

func (r LimitBuyRequest) Order(id string, now time.Time) *Order {
	o := newOrder(id, now, OrderTypeLimit, SideBuy, r.TimeInForce, r.CancelAfter)
	o.Price = r.Price
	o.Funds = r.Funds
	return o
}

// LimitSellRequest sells the given quantity when the market price reaches
// the limit price or better.
type LimitSellRequest struct {
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	TimeInForce TimeInForce
	CancelAfter *time.Time
}

func (r LimitSellRequest) Validate() error {
	if !r.Price.IsPositive() {
		return &ValidationError{Message: "price must be greater than 0"}
	}
	if !r.Quantity.IsPositive() {
		return &ValidationError{Message: "quantity must be greater than 0"}
	}
	return validateTimeInForce(r.TimeInForce, r.CancelAfter,
		TimeInForceGTC, TimeInForceGTT, TimeInForceIOC, TimeInForceFOK)
}

func (r LimitSellRequest) Order(id string, now time.Time) *Order {
	o := newOrder(id, now, OrderTypeLimit, SideSell, r.TimeInForce, r.CancelAfter)
	o.Price = r.Price
	o.Quantity = r.Quantity
	return o
}

// StopLossRequest sells the given size when the market price falls to or
// below the trigger price.
type StopLossRequest struct {
	Price       decimal.Decimal // trigger price
	Size        decimal.Decimal
	TimeInForce TimeInForce
	CancelAfter *time.Time
}

func (r StopLossRequest) Validate() error {
	if !r.Price.IsPositive() {
		return &ValidationError{Message: "price must be greater than 0"}
	}
	if !r.Size.IsPositive() {
		return &ValidationError{Message: "size must be greater than 0"}
	}
	return validateTimeInForce(r.TimeInForce, r.CancelAfter, TimeInForceGTC, TimeInForceGTT)
}

func (r StopLossRequest) Order(id string, now time.Time) *Order {
	o := newOrder(id, now, OrderTypeMarket, SideSell, r.TimeInForce, r.CancelAfter)
	o.Stop = StopLoss
	o.StopPrice = r.Price
	o.Quantity = r.Size
	return o
}

// StopEntryRequest buys the given size when the market price rises to or
// above the trigger price.
type StopEntryRequest struct {
	Price       decimal.Decimal // trigger price
	Size        decimal.Decimal
	TimeInForce TimeInForce
	CancelAfter *time.Time
}

func (r StopEntryRequest) Validate() error {
	if !r.Price.IsPositive() {
		return &ValidationError{Message: "price must be greater than 0"}
	}
	if !r.Size.IsPositive() {
		return &ValidationError{Message: "size must be greater than 0"}
	}
	return validateTimeInForce(r.TimeInForce, r.CancelAfter, TimeInForceGTC, TimeInForceGTT)
}

func (r StopEntryRequest) Order(id string, now time.Time) *Order {
	o := newOrder(id, now, OrderTypeMarket, SideBuy, r.TimeInForce, r.CancelAfter)
	o.Stop = StopEntry
	o.StopPrice = r.Price
	o.Quantity = r.Size
	return o
}

// newOrder builds the base order record shared by all request kinds.
func newOrder(id string, now time.Time, typ OrderType, side Side, tif TimeInForce, cancelAfter *time.Time) *Order {
	o := &Order{
		ID:          id,
		Type:        typ,
		Side:        side,
		Status:      OrderStatusReceived,
		TimeInForce: tif,
		CreatedAt:   now,
	}
	if tif == TimeInForceGTT && cancelAfter != nil {
		t := *cancelAfter
		o.ExpireTime = &t
	}
	return o
}

// validateTimeInForce checks that the time-in-force value is one of the
// allowed policies for the request kind and that a cancel-after time is
// supplied exactly when the policy is GTT.
func validateTimeInForce(tif TimeInForce, cancelAfter *time.Time, allowed ...TimeInForce) error {
	ok := false
	for _, a := range allowed {
		if tif == a {
			ok = true
			break
		}
	}
	if !ok {
		return &ValidationError{
			Message: fmt.Sprintf("time in force %q is not valid for this order kind", tif),
		}
	}
	if tif == TimeInForceGTT {
		if cancelAfter == nil {
			return &ValidationError{Message: "GTT orders require a cancel-after time"}
		}
	} else if cancelAfter != nil {
		return &ValidationError{Message: "cancel-after requires time in force GTT"}
	}
	return nil
}
