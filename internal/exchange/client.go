// Package exchange defines the client contract for interacting with a
// cryptocurrency exchange: order placement, cancellation, and account and
// trade inspection. Implementations may talk to a live venue or simulate
// one; this package contains no execution logic of its own.
package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
)

// Client is the uniform operation set any exchange adapter must provide.
//
// Error policy: structural validation failures and insufficient
// funds/holdings fail fast as returned errors, before any order record
// exists. Venue-level rejections (an FOK order that cannot be filled, a
// stop entry whose funds hold is exceeded at trigger) surface through the
// returned order's rejected status and RejectReason, because the
// submission itself succeeded in registering the attempt.
//
// Implementations may complete operations synchronously or defer work
// internally; callers must treat returned records as snapshots, never as
// live references, and must not rely on state being final until the call
// returns.
type Client interface {
	// MarketBuyOrder buys the base currency at the current market price,
	// spending the given amount of quote currency funds.
	MarketBuyOrder(ctx context.Context, funds decimal.Decimal, opts ...OrderOption) (*domain.Order, error)

	// MarketSellOrder sells the given base currency size at the current
	// market price.
	MarketSellOrder(ctx context.Context, size decimal.Decimal, opts ...OrderOption) (*domain.Order, error)

	// LimitBuyOrder buys when the market reaches the given price or
	// better, allocating the given quote currency funds.
	LimitBuyOrder(ctx context.Context, price, funds decimal.Decimal, opts ...OrderOption) (*domain.Order, error)

	// LimitSellOrder sells the given quantity when the market reaches the
	// given price or better.
	LimitSellOrder(ctx context.Context, price, quantity decimal.Decimal, opts ...OrderOption) (*domain.Order, error)

	// StopLossOrder places a sell order that triggers when the market
	// price falls to or below the given price.
	StopLossOrder(ctx context.Context, price, size decimal.Decimal, opts ...OrderOption) (*domain.Order, error)

	// StopEntryOrder places a buy order that triggers when the market
	// price rises to or above the given price.
	StopEntryOrder(ctx context.Context, price, size decimal.Decimal, opts ...OrderOption) (*domain.Order, error)

	// CancelOrder requests cancellation of a non-terminal order. It
	// returns domain.ErrOrderNotFound for an unknown id and
	// domain.ErrAlreadyTerminal for an order already done or rejected.
	CancelOrder(ctx context.Context, id string) error

	// CancelAllOrders cancels every non-terminal order. The effect is
	// all-or-nothing from the caller's perspective: a subsequent
	// GetAllOrders never observes a partial cancellation as final state.
	CancelAllOrders(ctx context.Context) error

	// GetAllOrders returns every order visible to the account across all
	// statuses. Ordering is stable within a single call; callers filter
	// by status themselves.
	GetAllOrders(ctx context.Context) ([]*domain.Order, error)

	// GetAllTrades returns the complete append-only trade history.
	GetAllTrades(ctx context.Context) ([]*domain.Trade, error)

	// GetAccount returns a snapshot reflecting all completed trades and
	// the holds of open orders at the time of the call.
	GetAccount(ctx context.Context) (*domain.Account, error)
}
