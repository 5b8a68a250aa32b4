package store

import (
	"sync"

	"tradesim/internal/domain"
)

// OrderStore is a thread-safe in-memory store for orders, with a primary
// index by order id and a chronological listing in placement order.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	chrono []*domain.Order // placement order (append-only)
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]*domain.Order),
	}
}

// Create adds an order to the store and appends it to the chronological
// listing.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.ID] = o
	s.chrono = append(s.chrono, o)
}

// Get retrieves an order by id. It returns domain.ErrOrderNotFound if the
// order does not exist.
func (s *OrderStore) Get(id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// List returns all orders in placement order. The slice is a copy; the
// pointed-to orders are the live records, so callers that hand them out
// must clone first.
func (s *OrderStore) List() []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Order, len(s.chrono))
	copy(result, s.chrono)
	return result
}

// Len returns the number of stored orders.
func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chrono)
}
