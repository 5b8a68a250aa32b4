package sim

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(id, trigger string, at time.Time) BookEntry {
	return BookEntry{
		TriggerPrice: dec(trigger),
		CreatedAt:    at,
		OrderID:      id,
		Order:        &domain.Order{ID: id},
	}
}

func TestBookTakeFallTriggers_FiresHighestFirst(t *testing.T) {
	b := NewBook()
	now := time.Now()
	b.InsertFall(entry("low", "80", now))
	b.InsertFall(entry("high", "95", now))
	b.InsertFall(entry("mid", "90", now))

	fired := b.TakeFallTriggers(dec("85"))
	if len(fired) != 2 {
		t.Fatalf("expected 2 fired entries, got %d", len(fired))
	}
	if fired[0].OrderID != "high" || fired[1].OrderID != "mid" {
		t.Errorf("firing order = %s, %s; want high, mid", fired[0].OrderID, fired[1].OrderID)
	}
	if !b.Contains("low") {
		t.Error("entry below the price should remain on the book")
	}
	if b.Contains("high") || b.Contains("mid") {
		t.Error("fired entries should be removed from the book")
	}
}

func TestBookTakeRiseTriggers_FiresLowestFirst(t *testing.T) {
	b := NewBook()
	now := time.Now()
	b.InsertRise(entry("low", "105", now))
	b.InsertRise(entry("high", "120", now))
	b.InsertRise(entry("mid", "110", now))

	fired := b.TakeRiseTriggers(dec("110"))
	if len(fired) != 2 {
		t.Fatalf("expected 2 fired entries, got %d", len(fired))
	}
	if fired[0].OrderID != "low" || fired[1].OrderID != "mid" {
		t.Errorf("firing order = %s, %s; want low, mid", fired[0].OrderID, fired[1].OrderID)
	}
	if b.RiseCount() != 1 {
		t.Errorf("rise count = %d, want 1", b.RiseCount())
	}
}

func TestBookSameTrigger_EarliestFiresFirst(t *testing.T) {
	b := NewBook()
	now := time.Now()
	b.InsertFall(entry("second", "90", now.Add(time.Second)))
	b.InsertFall(entry("first", "90", now))

	fired := b.TakeFallTriggers(dec("90"))
	if len(fired) != 2 {
		t.Fatalf("expected 2 fired entries, got %d", len(fired))
	}
	if fired[0].OrderID != "first" {
		t.Errorf("expected first-placed order to fire first, got %s", fired[0].OrderID)
	}
}

func TestBookRemove(t *testing.T) {
	b := NewBook()
	now := time.Now()
	b.InsertFall(entry("f", "90", now))
	b.InsertRise(entry("r", "110", now))

	b.Remove("f")
	b.Remove("missing") // no-op

	if b.Contains("f") {
		t.Error("removed entry still on the book")
	}
	if b.FallCount() != 0 || b.RiseCount() != 1 {
		t.Errorf("counts = %d/%d, want 0/1", b.FallCount(), b.RiseCount())
	}

	fired := b.TakeFallTriggers(dec("1"))
	if len(fired) != 0 {
		t.Errorf("expected no fired entries after removal, got %d", len(fired))
	}
}
