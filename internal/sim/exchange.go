// Package sim implements the exchange client contract against a
// price-driven simulated venue: a single account trading a single
// product, with fills executed at the observed market price.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/exchange"
	"tradesim/internal/store"
)

// Notifier receives order and trade events from the exchange. Dispatch
// happens after the exchange releases its lock; implementations must not
// block for long.
type Notifier interface {
	NotifyOrderDone(o *domain.Order)
	NotifyOrderRejected(o *domain.Order)
	NotifyTradeExecuted(t *domain.Trade, o *domain.Order)
}

// Config holds the initial state of the simulated exchange.
type Config struct {
	ProductName        string          // trading pair identifier, e.g. BTC-USD
	Currency           string          // quote currency of the account
	AccountBalance     decimal.Decimal // initial quote currency balance
	Fee                decimal.Decimal // percentage fee per trade
	ProductQuantity    decimal.Decimal // initial base currency holdings
	ExpirationInterval time.Duration   // how often GTT orders are checked
}

// Exchange is a simulated exchange implementing the client contract.
// Market observations arrive through Apply; orders fill against the
// latest observed price with unlimited liquidity. All state mutation
// happens under one mutex, which is what makes CancelAllOrders
// all-or-nothing from the caller's perspective.
type Exchange struct {
	mu sync.Mutex

	product   string
	accountID string
	currency  string
	feePct    decimal.Decimal // percentage, as configured
	feeRate   decimal.Decimal // feePct / 100

	balance   decimal.Decimal // total quote currency
	heldFunds decimal.Decimal // quote currency locked by resting buys
	holdings  decimal.Decimal // total base currency
	heldQty   decimal.Decimal // base currency locked by resting sells

	lastPrice decimal.Decimal
	hasPrice  bool

	orders  *store.OrderStore
	trades  *store.TradeStore
	tickers *store.TickerStore
	book    *Book
	expiry  *ExpiryManager

	notifier Notifier
	events   []event // queued under mu, dispatched after release
}

var _ exchange.Client = (*Exchange)(nil)

// NewExchange creates a simulated exchange with the given initial state.
// The notifier may be nil.
func NewExchange(cfg Config, orders *store.OrderStore, trades *store.TradeStore, tickers *store.TickerStore, notifier Notifier) *Exchange {
	e := &Exchange{
		product:   cfg.ProductName,
		accountID: uuid.New().String(),
		currency:  cfg.Currency,
		feePct:    cfg.Fee,
		feeRate:   cfg.Fee.Div(decimal.NewFromInt(100)),
		balance:   cfg.AccountBalance,
		holdings:  cfg.ProductQuantity,
		orders:    orders,
		trades:    trades,
		tickers:   tickers,
		book:      NewBook(),
		notifier:  notifier,
	}
	e.expiry = NewExpiryManager(cfg.ExpirationInterval, e)
	return e
}

// Start launches the background goroutine that expires GTT orders. It
// stops when ctx is cancelled.
func (e *Exchange) Start(ctx context.Context) {
	e.expiry.Start(ctx)
}

// Product returns the trading pair identifier the exchange simulates.
func (e *Exchange) Product() string {
	return e.product
}

// Apply feeds a market observation into the exchange: it becomes the
// current price, is appended to the ticker history, and fires every
// resting order whose trigger condition it satisfies. Fall-side orders
// (limit buys, stop losses) fire before rise-side orders (limit sells,
// stop entries); within a side, firing order is deterministic by trigger
// price then placement time.
func (e *Exchange) Apply(td domain.TradingData) error {
	if !td.Price.IsPositive() {
		return &domain.ValidationError{Message: "price must be greater than 0"}
	}
	if td.Volume.IsNegative() {
		return &domain.ValidationError{Message: "volume must not be negative"}
	}
	if td.Timestamp.IsZero() {
		return &domain.ValidationError{Message: "timestamp is required"}
	}

	defer e.flush()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastPrice = td.Price
	e.hasPrice = true
	e.tickers.Append(td)

	for _, entry := range e.book.TakeFallTriggers(td.Price) {
		e.fire(entry.Order, td.Price)
	}
	for _, entry := range e.book.TakeRiseTriggers(td.Price) {
		e.fire(entry.Order, td.Price)
	}
	return nil
}

// MarketBuyOrder implements exchange.Client. The order fills immediately
// at the current market price; received orders never rest.
func (e *Exchange) MarketBuyOrder(ctx context.Context, funds decimal.Decimal, opts ...exchange.OrderOption) (*domain.Order, error) {
	resolved := exchange.ApplyOrderOptions(opts...)
	req := domain.MarketBuyRequest{Funds: funds, TimeInForce: resolved.TimeInForce, CancelAfter: resolved.CancelAfter}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	defer e.flush()
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasPrice {
		return nil, domain.ErrNoMarketData
	}
	if funds.GreaterThan(e.availableFunds()) {
		return nil, domain.ErrInsufficientFunds
	}

	o := req.Order(uuid.New().String(), time.Now())
	e.orders.Create(o)
	e.fillBuyFunds(o, e.lastPrice)
	return o.Clone(), nil
}

// MarketSellOrder implements exchange.Client.
func (e *Exchange) MarketSellOrder(ctx context.Context, size decimal.Decimal, opts ...exchange.OrderOption) (*domain.Order, error) {
	resolved := exchange.ApplyOrderOptions(opts...)
	req := domain.MarketSellRequest{Size: size, TimeInForce: resolved.TimeInForce, CancelAfter: resolved.CancelAfter}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	defer e.flush()
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasPrice {
		return nil, domain.ErrNoMarketData
	}
	if size.GreaterThan(e.availableHoldings()) {
		return nil, domain.ErrInsufficientHoldings
	}

	o := req.Order(uuid.New().String(), time.Now())
	e.orders.Create(o)
	e.fillSell(o, e.lastPrice)
	return o.Clone(), nil
}

// LimitBuyOrder implements exchange.Client. A marketable order (current
// price at or below the limit) fills immediately; otherwise the order
// rests open with its funds held, unless its time-in-force forbids
// resting: IOC cancels the order, FOK rejects it.
func (e *Exchange) LimitBuyOrder(ctx context.Context, price, funds decimal.Decimal, opts ...exchange.OrderOption) (*domain.Order, error) {
	resolved := exchange.ApplyOrderOptions(opts...)
	req := domain.LimitBuyRequest{Price: price, Funds: funds, TimeInForce: resolved.TimeInForce, CancelAfter: resolved.CancelAfter}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	defer e.flush()
	e.mu.Lock()
	defer e.mu.Unlock()

	if funds.GreaterThan(e.availableFunds()) {
		return nil, domain.ErrInsufficientFunds
	}

	o := req.Order(uuid.New().String(), time.Now())
	e.orders.Create(o)

	switch {
	case e.hasPrice && e.lastPrice.LessThanOrEqual(price):
		e.fillBuyFunds(o, e.lastPrice)
	case o.TimeInForce == domain.TimeInForceIOC:
		e.finish(o, domain.DoneReasonCanceled, nil)
	case o.TimeInForce == domain.TimeInForceFOK:
		e.reject(o, "order cannot be filled immediately")
	default:
		o.Status = domain.OrderStatusOpen
		e.heldFunds = e.heldFunds.Add(funds)
		e.rest(o, price, false)
	}
	return o.Clone(), nil
}

// LimitSellOrder implements exchange.Client.
func (e *Exchange) LimitSellOrder(ctx context.Context, price, quantity decimal.Decimal, opts ...exchange.OrderOption) (*domain.Order, error) {
	resolved := exchange.ApplyOrderOptions(opts...)
	req := domain.LimitSellRequest{Price: price, Quantity: quantity, TimeInForce: resolved.TimeInForce, CancelAfter: resolved.CancelAfter}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	defer e.flush()
	e.mu.Lock()
	defer e.mu.Unlock()

	if quantity.GreaterThan(e.availableHoldings()) {
		return nil, domain.ErrInsufficientHoldings
	}

	o := req.Order(uuid.New().String(), time.Now())
	e.orders.Create(o)

	switch {
	case e.hasPrice && e.lastPrice.GreaterThanOrEqual(price):
		e.fillSell(o, e.lastPrice)
	case o.TimeInForce == domain.TimeInForceIOC:
		e.finish(o, domain.DoneReasonCanceled, nil)
	case o.TimeInForce == domain.TimeInForceFOK:
		e.reject(o, "order cannot be filled immediately")
	default:
		o.Status = domain.OrderStatusOpen
		e.heldQty = e.heldQty.Add(quantity)
		e.rest(o, price, true)
	}
	return o.Clone(), nil
}

// StopLossOrder implements exchange.Client. The order stays active until
// the market price falls to or below the trigger price, then fills as a
// market sell. A trigger condition already met at placement fires
// immediately.
func (e *Exchange) StopLossOrder(ctx context.Context, price, size decimal.Decimal, opts ...exchange.OrderOption) (*domain.Order, error) {
	resolved := exchange.ApplyOrderOptions(opts...)
	req := domain.StopLossRequest{Price: price, Size: size, TimeInForce: resolved.TimeInForce, CancelAfter: resolved.CancelAfter}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	defer e.flush()
	e.mu.Lock()
	defer e.mu.Unlock()

	if size.GreaterThan(e.availableHoldings()) {
		return nil, domain.ErrInsufficientHoldings
	}

	o := req.Order(uuid.New().String(), time.Now())
	e.orders.Create(o)

	if e.hasPrice && e.lastPrice.LessThanOrEqual(price) {
		o.Status = domain.OrderStatusOpen
		e.fillSell(o, e.lastPrice)
	} else {
		o.Status = domain.OrderStatusActive
		e.heldQty = e.heldQty.Add(size)
		e.rest(o, price, false)
	}
	return o.Clone(), nil
}

// StopEntryOrder implements exchange.Client. The order stays active until
// the market price rises to or above the trigger price, then fills as a
// market buy. Funds of size × trigger price are held while the order
// rests; if the trigger price gaps and the fill cost exceeds what the
// account can cover, the order is rejected at trigger time.
func (e *Exchange) StopEntryOrder(ctx context.Context, price, size decimal.Decimal, opts ...exchange.OrderOption) (*domain.Order, error) {
	resolved := exchange.ApplyOrderOptions(opts...)
	req := domain.StopEntryRequest{Price: price, Size: size, TimeInForce: resolved.TimeInForce, CancelAfter: resolved.CancelAfter}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	defer e.flush()
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.hasPrice && e.lastPrice.GreaterThanOrEqual(price) {
		// Trigger condition already met: fill right away at the current
		// price, checking the actual cost instead of the trigger hold.
		if e.buyCost(size, e.lastPrice).GreaterThan(e.availableFunds()) {
			return nil, domain.ErrInsufficientFunds
		}
		o := req.Order(uuid.New().String(), time.Now())
		e.orders.Create(o)
		o.Status = domain.OrderStatusOpen
		e.fillBuySize(o, e.lastPrice)
		return o.Clone(), nil
	}

	hold := size.Mul(price)
	if hold.GreaterThan(e.availableFunds()) {
		return nil, domain.ErrInsufficientFunds
	}

	o := req.Order(uuid.New().String(), time.Now())
	e.orders.Create(o)
	o.Status = domain.OrderStatusActive
	e.heldFunds = e.heldFunds.Add(hold)
	e.rest(o, price, true)
	return o.Clone(), nil
}

// CancelOrder implements exchange.Client.
func (e *Exchange) CancelOrder(ctx context.Context, id string) error {
	defer e.flush()
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.orders.Get(id)
	if err != nil {
		return err
	}
	if o.Terminal() {
		return domain.ErrAlreadyTerminal
	}
	e.cancel(o, domain.DoneReasonCanceled, nil)
	return nil
}

// CancelAllOrders implements exchange.Client. The whole pass runs under
// the exchange lock, so no caller observes a partial cancellation.
func (e *Exchange) CancelAllOrders(ctx context.Context) error {
	defer e.flush()
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, o := range e.orders.List() {
		if !o.Terminal() {
			e.cancel(o, domain.DoneReasonCanceled, nil)
		}
	}
	return nil
}

// GetAllOrders implements exchange.Client. Orders are returned in
// placement order as deep copies.
func (e *Exchange) GetAllOrders(ctx context.Context) ([]*domain.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.orders.List()
	result := make([]*domain.Order, len(list))
	for i, o := range list {
		result[i] = o.Clone()
	}
	return result, nil
}

// GetAllTrades implements exchange.Client.
func (e *Exchange) GetAllTrades(ctx context.Context) ([]*domain.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.trades.List()
	result := make([]*domain.Trade, len(list))
	for i, t := range list {
		result[i] = t.Clone()
	}
	return result, nil
}

// GetAccount implements exchange.Client.
func (e *Exchange) GetAccount(ctx context.Context) (*domain.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return &domain.Account{
		ID:              e.accountID,
		Currency:        e.currency,
		Balance:         e.balance,
		Available:       e.balance.Sub(e.heldFunds),
		ProductQuantity: e.holdings,
		Fee:             e.feePct,
	}, nil
}

// availableFunds returns the quote currency not held by resting buys.
func (e *Exchange) availableFunds() decimal.Decimal {
	return e.balance.Sub(e.heldFunds)
}

// availableHoldings returns the base currency not held by resting sells.
func (e *Exchange) availableHoldings() decimal.Decimal {
	return e.holdings.Sub(e.heldQty)
}

// buyCost returns the total quote currency debit for a size-denominated
// buy at the given price, fee included.
func (e *Exchange) buyCost(size, price decimal.Decimal) decimal.Decimal {
	cost := size.Mul(price)
	return cost.Add(cost.Mul(e.feeRate))
}

// rest places the order on the trigger book and registers it for expiry
// when it carries an expire time.
func (e *Exchange) rest(o *domain.Order, trigger decimal.Decimal, rise bool) {
	entry := BookEntry{
		TriggerPrice: trigger,
		CreatedAt:    o.CreatedAt,
		OrderID:      o.ID,
		Order:        o,
	}
	if rise {
		e.book.InsertRise(entry)
	} else {
		e.book.InsertFall(entry)
	}
	if o.ExpireTime != nil {
		e.expiry.Add(o.ID, *o.ExpireTime)
	}
}

// expire resolves a GTT order whose expire time has passed. Called by
// the expiry manager outside its own lock; the order may have filled or
// been cancelled since the manager last saw it.
func (e *Exchange) expire(orderID string, expireAt time.Time) {
	defer e.flush()
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.orders.Get(orderID)
	if err != nil || o.Terminal() {
		return
	}
	e.cancel(o, domain.DoneReasonExpired, &expireAt)
}

// fire executes a resting order that has been taken off the book because
// the given market price satisfied its trigger condition.
func (e *Exchange) fire(o *domain.Order, price decimal.Decimal) {
	if o.Terminal() {
		return
	}
	e.expiry.Remove(o.ID)

	switch {
	case o.Stop == domain.StopLoss:
		o.Status = domain.OrderStatusOpen
		e.heldQty = e.heldQty.Sub(o.Quantity)
		e.fillSell(o, price)
	case o.Stop == domain.StopEntry:
		o.Status = domain.OrderStatusOpen
		e.heldFunds = e.heldFunds.Sub(o.Quantity.Mul(o.StopPrice))
		if e.buyCost(o.Quantity, price).GreaterThan(e.availableFunds()) {
			e.reject(o, "insufficient funds at trigger price")
			return
		}
		e.fillBuySize(o, price)
	case o.Side == domain.SideBuy:
		e.heldFunds = e.heldFunds.Sub(o.Funds)
		e.fillBuyFunds(o, price)
	default:
		e.heldQty = e.heldQty.Sub(o.Quantity)
		e.fillSell(o, price)
	}
}

// fillBuyFunds settles a funds-denominated buy at the given price. The
// fee comes out of the allocated funds; the remainder converts to base
// currency. The caller must have released any hold on the funds.
func (e *Exchange) fillBuyFunds(o *domain.Order, price decimal.Decimal) {
	fee := o.Funds.Mul(e.feeRate)
	qty := o.Funds.Sub(fee).Div(price)

	e.balance = e.balance.Sub(o.Funds)
	e.holdings = e.holdings.Add(qty)

	o.Quantity = qty
	o.FilledQuantity = qty
	o.FillFees = o.FillFees.Add(fee)

	e.recordTrade(o, price, qty, fee)
	e.finish(o, domain.DoneReasonFilled, nil)
}

// fillBuySize settles a size-denominated buy at the given price. The fee
// is charged on top of the cost. The caller must have released any hold
// and verified the account covers buyCost.
func (e *Exchange) fillBuySize(o *domain.Order, price decimal.Decimal) {
	cost := o.Quantity.Mul(price)
	fee := cost.Mul(e.feeRate)

	e.balance = e.balance.Sub(cost.Add(fee))
	e.holdings = e.holdings.Add(o.Quantity)

	o.FilledQuantity = o.Quantity
	o.FillFees = o.FillFees.Add(fee)

	e.recordTrade(o, price, o.Quantity, fee)
	e.finish(o, domain.DoneReasonFilled, nil)
}

// fillSell settles a quantity-denominated sell at the given price. The
// fee comes out of the proceeds. The caller must have released any hold
// on the quantity.
func (e *Exchange) fillSell(o *domain.Order, price decimal.Decimal) {
	proceeds := o.Quantity.Mul(price)
	fee := proceeds.Mul(e.feeRate)

	e.balance = e.balance.Add(proceeds.Sub(fee))
	e.holdings = e.holdings.Sub(o.Quantity)

	o.FilledQuantity = o.Quantity
	o.FillFees = o.FillFees.Add(fee)

	e.recordTrade(o, price, o.Quantity, fee)
	e.finish(o, domain.DoneReasonFilled, nil)
}

// recordTrade appends an execution record snapshotting the account state
// right after settlement.
func (e *Exchange) recordTrade(o *domain.Order, price, qty, fee decimal.Decimal) {
	t := &domain.Trade{
		ID:                 uuid.New().String(),
		OrderID:            o.ID,
		Price:              price,
		Side:               o.Side,
		Quantity:           qty,
		Fee:                fee,
		CreatedAt:          time.Now(),
		BalanceAfterTrade:  e.balance,
		HoldingsAfterTrade: e.holdings,
	}
	e.trades.Append(t)
	e.events = append(e.events, event{kind: eventTradeExecuted, trade: t.Clone(), order: o})
}

// cancel resolves a non-terminal order as done for the given reason,
// releasing its holds and removing it from the book and expiry tracking.
// A nil doneAt means now; expiry passes the order's expire time.
func (e *Exchange) cancel(o *domain.Order, reason string, doneAt *time.Time) {
	e.releaseHolds(o)
	e.book.Remove(o.ID)
	e.expiry.Remove(o.ID)
	e.finish(o, reason, doneAt)
}

// releaseHolds returns the funds or quantity locked by a resting order.
// Orders that never rested hold nothing.
func (e *Exchange) releaseHolds(o *domain.Order) {
	if o.Status != domain.OrderStatusOpen && o.Status != domain.OrderStatusActive {
		return
	}
	switch {
	case o.Stop == domain.StopEntry:
		e.heldFunds = e.heldFunds.Sub(o.Quantity.Mul(o.StopPrice))
	case o.Side == domain.SideBuy:
		e.heldFunds = e.heldFunds.Sub(o.Funds)
	default:
		e.heldQty = e.heldQty.Sub(o.Quantity)
	}
}

// finish moves the order to done with the given reason.
func (e *Exchange) finish(o *domain.Order, reason string, doneAt *time.Time) {
	now := time.Now()
	if doneAt == nil {
		doneAt = &now
	}
	o.Status = domain.OrderStatusDone
	o.DoneReason = reason
	t := *doneAt
	o.DoneAt = &t
	e.events = append(e.events, event{kind: eventOrderDone, order: o})
}

// reject moves the order to rejected with the given reason. Rejection is
// terminal, so DoneAt is set here as well.
func (e *Exchange) reject(o *domain.Order, reason string) {
	now := time.Now()
	o.Status = domain.OrderStatusRejected
	o.RejectReason = reason
	o.DoneAt = &now
	e.events = append(e.events, event{kind: eventOrderRejected, order: o})
}

type eventKind int

const (
	eventOrderDone eventKind = iota
	eventOrderRejected
	eventTradeExecuted
)

// event is a notification queued while the exchange lock is held.
type event struct {
	kind  eventKind
	order *domain.Order
	trade *domain.Trade
}

// flush dispatches queued events to the notifier outside the exchange
// lock, so slow consumers cannot block order processing.
func (e *Exchange) flush() {
	e.mu.Lock()
	events := e.events
	e.events = nil
	// Snapshot order state under the lock; the live records keep mutating.
	for i := range events {
		events[i].order = events[i].order.Clone()
	}
	e.mu.Unlock()

	if e.notifier == nil {
		return
	}
	for _, ev := range events {
		switch ev.kind {
		case eventOrderDone:
			e.notifier.NotifyOrderDone(ev.order)
		case eventOrderRejected:
			e.notifier.NotifyOrderRejected(ev.order)
		case eventTradeExecuted:
			e.notifier.NotifyTradeExecuted(ev.trade, ev.order)
		}
	}
}
