package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType distinguishes limit orders from market orders.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// Side indicates whether an order buys or sells the base currency.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Stop classifies stop orders by their trigger direction. A loss stop
// triggers when the market price falls to or below the stop price; an
// entry stop triggers when it rises to or above it.
type Stop string

const (
	StopLoss  Stop = "loss"
	StopEntry Stop = "entry"
)

// TimeInForce controls how long an order remains eligible for execution.
type TimeInForce string

const (
	// TimeInForceGTC keeps the order on the book until canceled. Default.
	TimeInForceGTC TimeInForce = "GTC"
	// TimeInForceGTT keeps the order on the book until its expire time.
	TimeInForceGTT TimeInForce = "GTT"
	// TimeInForceIOC cancels whatever cannot be executed immediately
	// instead of resting it on the book.
	TimeInForceIOC TimeInForce = "IOC"
	// TimeInForceFOK rejects the order unless it can be executed in full
	// immediately.
	TimeInForceFOK TimeInForce = "FOK"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	// OrderStatusReceived means the order was accepted by the client call
	// but not yet acknowledged by the execution venue.
	OrderStatusReceived OrderStatus = "received"
	// OrderStatusOpen means a limit order is resting on the book.
	OrderStatusOpen OrderStatus = "open"
	// OrderStatusActive means a stop order is registered but its trigger
	// price condition has not been met.
	OrderStatusActive OrderStatus = "active"
	// OrderStatusPending means execution completed but the order awaits
	// external confirmation before becoming done.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusDone is terminal: filled, canceled, or expired.
	// DoneReason says which.
	OrderStatusDone OrderStatus = "done"
	// OrderStatusRejected is terminal: the order never became active.
	// RejectReason says why.
	OrderStatusRejected OrderStatus = "rejected"
	// OrderStatusAll is a query-only filter sentinel meaning "no filter".
	// It is never a real order state.
	OrderStatusAll OrderStatus = "all"
)

// Terminal reports whether the status permits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDone || s == OrderStatusRejected
}

// transitions defines the order lifecycle state machine. A received order
// becomes open (limit resting), active (stop registered), or resolves in
// the same step; active stops re-enter the machine as open orders when
// triggered; pending sits between execution and done. Any non-terminal
// state may be rejected.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusReceived: {OrderStatusOpen, OrderStatusActive, OrderStatusPending, OrderStatusDone, OrderStatusRejected},
	OrderStatusOpen:     {OrderStatusPending, OrderStatusDone, OrderStatusRejected},
	OrderStatusActive:   {OrderStatusOpen, OrderStatusDone, OrderStatusRejected},
	OrderStatusPending:  {OrderStatusDone, OrderStatusRejected},
}

// CanTransition reports whether the order lifecycle permits moving from
// one status to another. Terminal states permit nothing; the all sentinel
// is not part of the machine.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Reasons recorded in DoneReason when an order reaches done.
const (
	DoneReasonFilled   = "filled"
	DoneReasonCanceled = "canceled"
	DoneReasonExpired  = "expired"
)

// Order represents a single trading instruction. Decimal fields that do
// not apply to the order's kind are zero: Price is zero for market
// orders, Funds is zero for quantity-denominated orders, StopPrice is
// zero unless Stop is set.
type Order struct {
	ID          string
	Type        OrderType
	Side        Side
	Status      OrderStatus
	TimeInForce TimeInForce
	Stop        Stop // empty unless stop order

	Quantity       decimal.Decimal // base currency amount; computed at fill for funds-denominated buys
	FilledQuantity decimal.Decimal // never exceeds Quantity
	Price          decimal.Decimal // limit price
	StopPrice      decimal.Decimal // trigger price
	Funds          decimal.Decimal // quote currency amount, funds-denominated buys only
	FillFees       decimal.Decimal // fees charged on the filled amount

	CreatedAt  time.Time
	ExpireTime *time.Time // set only when TimeInForce is GTT
	DoneAt     *time.Time // set iff Status is terminal

	DoneReason   string
	RejectReason string
}

// Terminal reports whether the order has reached a terminal status.
func (o *Order) Terminal() bool {
	return o.Status.Terminal()
}

// Clone returns a deep copy of the order. Callers of the client contract
// receive snapshots, never live records.
func (o *Order) Clone() *Order {
	c := *o
	if o.ExpireTime != nil {
		t := *o.ExpireTime
		c.ExpireTime = &t
	}
	if o.DoneAt != nil {
		t := *o.DoneAt
		c.DoneAt = &t
	}
	return &c
}
