package sim

import (
	"context"
	"sort"
	"sync"
	"time"
)

// expiryTarget is the callback side of the expiry manager. The exchange
// satisfies it; the indirection keeps the manager testable without a
// full exchange.
type expiryTarget interface {
	expire(orderID string, expireAt time.Time)
}

// expiryEntry tracks one resting GTT order awaiting expiration.
type expiryEntry struct {
	orderID  string
	expireAt time.Time
}

// ExpiryManager tracks resting GTT orders sorted by expire time and
// periodically resolves orders whose expiration has passed.
type ExpiryManager struct {
	interval time.Duration
	target   expiryTarget
	mu       sync.Mutex    // protects pending
	pending  []expiryEntry // sorted by expireAt ASC
}

// NewExpiryManager creates an ExpiryManager ticking at the given interval.
func NewExpiryManager(interval time.Duration, target expiryTarget) *ExpiryManager {
	return &ExpiryManager{
		interval: interval,
		target:   target,
		pending:  make([]expiryEntry, 0),
	}
}

// Add inserts an order into the sorted pending slice, maintaining
// expireAt ASC order.
func (m *ExpiryManager) Add(orderID string, expireAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := sort.Search(len(m.pending), func(i int) bool {
		return m.pending[i].expireAt.After(expireAt)
	})
	m.pending = append(m.pending, expiryEntry{})
	copy(m.pending[idx+1:], m.pending[idx:])
	m.pending[idx] = expiryEntry{orderID: orderID, expireAt: expireAt}
}

// Remove deletes an order from the pending slice by order id.
func (m *ExpiryManager) Remove(orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, entry := range m.pending {
		if entry.orderID == orderID {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// Start launches a background goroutine that ticks at the configured
// interval and expires due orders. It stops when ctx is cancelled.
func (m *ExpiryManager) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				m.Tick(t)
			}
		}
	}()
}

// Tick expires every pending order whose expire time is at or before
// now. The due entries are collected under the manager's own lock and
// handed to the target afterwards, so the target is free to take the
// exchange lock.
func (m *ExpiryManager) Tick(now time.Time) {
	m.mu.Lock()
	cutoff := 0
	for cutoff < len(m.pending) && !m.pending[cutoff].expireAt.After(now) {
		cutoff++
	}
	due := make([]expiryEntry, cutoff)
	copy(due, m.pending[:cutoff])
	if cutoff > 0 {
		m.pending = m.pending[cutoff:]
	}
	m.mu.Unlock()

	for _, entry := range due {
		m.target.expire(entry.orderID, entry.expireAt)
	}
}

// PendingCount returns the number of orders currently tracked for
// expiration. Useful for testing.
func (m *ExpiryManager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
