package store

import (
	"sync"
	"time"

	"tradesim/internal/domain"
)

// TickerStore is a thread-safe in-memory store for market observations,
// appended in feed order.
type TickerStore struct {
	mu    sync.RWMutex
	ticks []domain.TradingData
}

// NewTickerStore creates an empty TickerStore.
func NewTickerStore() *TickerStore {
	return &TickerStore{}
}

// Append adds an observation to the history.
func (s *TickerStore) Append(td domain.TradingData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticks = append(s.ticks, td)
}

// Last returns the most recent observation, or false if none exists.
func (s *TickerStore) Last() (domain.TradingData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.ticks) == 0 {
		return domain.TradingData{}, false
	}
	return s.ticks[len(s.ticks)-1], true
}

// Since returns all observations with a timestamp at or after the given
// time, in feed order. Iterates backwards from the tail, so the cost is
// proportional to the window size rather than the full history.
func (s *TickerStore) Since(t time.Time) []domain.TradingData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.ticks)
	for start > 0 && !s.ticks[start-1].Timestamp.Before(t) {
		start--
	}

	result := make([]domain.TradingData, len(s.ticks)-start)
	copy(result, s.ticks[start:])
	return result
}

// Len returns the number of stored observations.
func (s *TickerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ticks)
}
