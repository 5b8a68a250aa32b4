package sim

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"tradesim/internal/domain"
)

// randomDecimal draws a decimal with two fractional digits in [lo, hi].
func randomDecimal(t *rapid.T, label string, lo, hi int64) decimal.Decimal {
	cents := rapid.Int64Range(lo*100, hi*100).Draw(t, label)
	return decimal.New(cents, -2)
}

// runRandomSession drives a random sequence of ticks and placements
// against a fresh exchange. Placement errors are expected (insufficient
// funds, holdings, and so on) and ignored.
func runRandomSession(t *rapid.T) *Exchange {
	e := newTestExchange("10000", "100", "0.5")
	ctx := context.Background()

	steps := rapid.IntRange(1, 40).Draw(t, "steps")
	for i := 0; i < steps; i++ {
		label := fmt.Sprintf("op%d", i)
		switch rapid.IntRange(0, 6).Draw(t, label) {
		case 0:
			_ = e.Apply(domain.TradingData{
				Timestamp: time.Now(),
				Price:     randomDecimal(t, label+"price", 1, 200),
				Volume:    randomDecimal(t, label+"vol", 0, 10),
			})
		case 1:
			_, _ = e.MarketBuyOrder(ctx, randomDecimal(t, label+"funds", 1, 500))
		case 2:
			_, _ = e.MarketSellOrder(ctx, randomDecimal(t, label+"size", 1, 20))
		case 3:
			_, _ = e.LimitBuyOrder(ctx,
				randomDecimal(t, label+"price", 1, 200),
				randomDecimal(t, label+"funds", 1, 500))
		case 4:
			_, _ = e.LimitSellOrder(ctx,
				randomDecimal(t, label+"price", 1, 200),
				randomDecimal(t, label+"qty", 1, 20))
		case 5:
			_, _ = e.StopLossOrder(ctx,
				randomDecimal(t, label+"price", 1, 200),
				randomDecimal(t, label+"size", 1, 20))
		case 6:
			_, _ = e.StopEntryOrder(ctx,
				randomDecimal(t, label+"price", 1, 200),
				randomDecimal(t, label+"size", 1, 20))
		}
	}
	return e
}

func TestProperty_OrderRecordsStayConsistent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := runRandomSession(t)
		ctx := context.Background()

		orders, err := e.GetAllOrders(ctx)
		if err != nil {
			t.Fatalf("get orders: %v", err)
		}
		for _, o := range orders {
			if o.FilledQuantity.GreaterThan(o.Quantity) {
				t.Fatalf("order %s filled %s beyond quantity %s", o.ID, o.FilledQuantity, o.Quantity)
			}
			if o.Terminal() != (o.DoneAt != nil) {
				t.Fatalf("order %s status %s with done_at %v", o.ID, o.Status, o.DoneAt)
			}
			if o.Status == domain.OrderStatusDone && o.DoneReason == "" {
				t.Fatalf("order %s done without a reason", o.ID)
			}
			if o.Status == domain.OrderStatusRejected && o.RejectReason == "" {
				t.Fatalf("order %s rejected without a reason", o.ID)
			}
			if o.ExpireTime != nil && o.TimeInForce != domain.TimeInForceGTT {
				t.Fatalf("order %s has expire time with time in force %s", o.ID, o.TimeInForce)
			}
		}
	})
}

func TestProperty_AccountNeverOverdrawn(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := runRandomSession(t)

		acct, err := e.GetAccount(context.Background())
		if err != nil {
			t.Fatalf("get account: %v", err)
		}
		if acct.Available.IsNegative() {
			t.Fatalf("available %s is negative", acct.Available)
		}
		if acct.Available.GreaterThan(acct.Balance) {
			t.Fatalf("available %s exceeds balance %s", acct.Available, acct.Balance)
		}
		if acct.Balance.IsNegative() {
			t.Fatalf("balance %s is negative", acct.Balance)
		}
		if acct.ProductQuantity.IsNegative() {
			t.Fatalf("product quantity %s is negative", acct.ProductQuantity)
		}
	})
}

func TestProperty_EveryTradeBelongsToAnOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := runRandomSession(t)
		ctx := context.Background()

		orders, _ := e.GetAllOrders(ctx)
		known := make(map[string]bool, len(orders))
		for _, o := range orders {
			known[o.ID] = true
		}

		trades, _ := e.GetAllTrades(ctx)
		for _, tr := range trades {
			if !known[tr.OrderID] {
				t.Fatalf("trade %s references unknown order %s", tr.ID, tr.OrderID)
			}
			if !tr.Quantity.IsPositive() || !tr.Price.IsPositive() {
				t.Fatalf("trade %s has non-positive price/quantity %s/%s", tr.ID, tr.Price, tr.Quantity)
			}
			if tr.Fee.IsNegative() {
				t.Fatalf("trade %s has negative fee %s", tr.ID, tr.Fee)
			}
		}
	})
}

func TestProperty_CancelAllLeavesNothingResting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := runRandomSession(t)
		ctx := context.Background()

		if err := e.CancelAllOrders(ctx); err != nil {
			t.Fatalf("cancel all: %v", err)
		}

		orders, _ := e.GetAllOrders(ctx)
		for _, o := range orders {
			if !o.Terminal() {
				t.Fatalf("order %s still %s after cancel all", o.ID, o.Status)
			}
		}

		acct, _ := e.GetAccount(ctx)
		if !acct.Available.Equal(acct.Balance) {
			t.Fatalf("available %s != balance %s after cancel all", acct.Available, acct.Balance)
		}
		if e.book.FallCount() != 0 || e.book.RiseCount() != 0 {
			t.Fatalf("book not empty after cancel all: %d/%d", e.book.FallCount(), e.book.RiseCount())
		}
		if e.expiry.PendingCount() != 0 {
			t.Fatalf("expiry still tracks %d orders after cancel all", e.expiry.PendingCount())
		}
	})
}

func TestProperty_FundsBuyConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := newTestExchange("100000", "0", "1")
		ctx := context.Background()

		price := randomDecimal(t, "price", 1, 500)
		funds := randomDecimal(t, "funds", 1, 1000)
		if err := e.Apply(domain.TradingData{Timestamp: time.Now(), Price: price, Volume: decimal.NewFromInt(1)}); err != nil {
			t.Fatalf("apply: %v", err)
		}

		before, _ := e.GetAccount(ctx)
		o, err := e.MarketBuyOrder(ctx, funds)
		if err != nil {
			t.Fatalf("market buy: %v", err)
		}
		after, _ := e.GetAccount(ctx)

		// The balance drops by exactly the allocated funds; the fee comes
		// out of those funds before conversion.
		if !before.Balance.Sub(after.Balance).Equal(funds) {
			t.Fatalf("balance dropped by %s, want %s", before.Balance.Sub(after.Balance), funds)
		}
		wantFee := funds.Mul(decimal.RequireFromString("0.01"))
		if !o.FillFees.Equal(wantFee) {
			t.Fatalf("fill fees %s, want %s", o.FillFees, wantFee)
		}
		wantQty := funds.Sub(wantFee).Div(price)
		if !o.FilledQuantity.Equal(wantQty) {
			t.Fatalf("filled quantity %s, want %s", o.FilledQuantity, wantQty)
		}
	})
}
