package sim

import (
	"time"

	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
)

// BookEntry represents a single order resting on the trigger book. The
// trigger price is the limit price for limit orders and the stop price
// for stop orders.
type BookEntry struct {
	TriggerPrice decimal.Decimal
	CreatedAt    time.Time
	OrderID      string
	Order        *domain.Order
}

// fallLess orders the fire-on-fall side: trigger price descending, then
// created_at ascending, then order id ascending. Min() returns the entry
// that fires first as the price falls (highest trigger, earliest time).
func fallLess(a, b BookEntry) bool {
	if cmp := a.TriggerPrice.Cmp(b.TriggerPrice); cmp != 0 {
		return cmp > 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// riseLess orders the fire-on-rise side: trigger price ascending, then
// created_at ascending, then order id ascending.
func riseLess(a, b BookEntry) bool {
	if cmp := a.TriggerPrice.Cmp(b.TriggerPrice); cmp != 0 {
		return cmp < 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// Book indexes resting orders by trigger price using B-trees with a
// secondary index for O(log n) removal by order id. The fall side holds
// limit buys and stop losses (they fire when the price falls to their
// trigger or below); the rise side holds limit sells and stop entries
// (they fire when the price rises to their trigger or above).
type Book struct {
	fall  *btree.BTreeG[BookEntry]
	rise  *btree.BTreeG[BookEntry]
	index map[string]BookEntry // order id → entry
}

// NewBook creates an empty trigger book.
func NewBook() *Book {
	const degree = 32
	return &Book{
		fall:  btree.NewG[BookEntry](degree, fallLess),
		rise:  btree.NewG[BookEntry](degree, riseLess),
		index: make(map[string]BookEntry),
	}
}

// InsertFall adds an entry to the fire-on-fall side.
func (b *Book) InsertFall(entry BookEntry) {
	b.fall.ReplaceOrInsert(entry)
	b.index[entry.OrderID] = entry
}

// InsertRise adds an entry to the fire-on-rise side.
func (b *Book) InsertRise(entry BookEntry) {
	b.rise.ReplaceOrInsert(entry)
	b.index[entry.OrderID] = entry
}

// Remove deletes an order from the book by order id using the secondary
// index. It tries both sides since the caller may not know which side
// the order is on.
func (b *Book) Remove(orderID string) {
	entry, ok := b.index[orderID]
	if !ok {
		return
	}
	delete(b.index, orderID)
	// Delete is a no-op if the entry isn't found on that side.
	b.fall.Delete(entry)
	b.rise.Delete(entry)
}

// TakeFallTriggers removes and returns every fall-side entry whose
// trigger price is at or above the given market price, in firing order
// (highest trigger first, then earliest).
func (b *Book) TakeFallTriggers(price decimal.Decimal) []BookEntry {
	var fired []BookEntry
	b.fall.Ascend(func(entry BookEntry) bool {
		if entry.TriggerPrice.LessThan(price) {
			return false
		}
		fired = append(fired, entry)
		return true
	})
	for _, entry := range fired {
		b.fall.Delete(entry)
		delete(b.index, entry.OrderID)
	}
	return fired
}

// TakeRiseTriggers removes and returns every rise-side entry whose
// trigger price is at or below the given market price, in firing order
// (lowest trigger first, then earliest).
func (b *Book) TakeRiseTriggers(price decimal.Decimal) []BookEntry {
	var fired []BookEntry
	b.rise.Ascend(func(entry BookEntry) bool {
		if entry.TriggerPrice.GreaterThan(price) {
			return false
		}
		fired = append(fired, entry)
		return true
	})
	for _, entry := range fired {
		b.rise.Delete(entry)
		delete(b.index, entry.OrderID)
	}
	return fired
}

// Contains reports whether the order is resting on the book.
func (b *Book) Contains(orderID string) bool {
	_, ok := b.index[orderID]
	return ok
}

// FallCount returns the number of entries on the fire-on-fall side.
func (b *Book) FallCount() int {
	return b.fall.Len()
}

// RiseCount returns the number of entries on the fire-on-rise side.
func (b *Book) RiseCount() int {
	return b.rise.Len()
}
