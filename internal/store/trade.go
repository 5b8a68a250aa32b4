package store

import (
	"sync"

	"tradesim/internal/domain"
)

// TradeStore is a thread-safe in-memory store for the account's trade
// history. Trades are append-only and chronological.
type TradeStore struct {
	mu     sync.RWMutex
	trades []*domain.Trade
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{}
}

// Append adds a trade to the chronological history.
func (s *TradeStore) Append(t *domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = append(s.trades, t)
}

// List returns all trades in chronological order. Returns an empty slice
// when no trades exist. The slice is a copy; trades themselves are
// immutable once recorded.
func (s *TradeStore) List() []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Trade, len(s.trades))
	copy(result, s.trades)
	return result
}

// Len returns the number of recorded trades.
func (s *TradeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades)
}
