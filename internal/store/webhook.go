package store

import (
	"sort"
	"sync"

	"tradesim/internal/domain"
)

// WebhookStore is a thread-safe in-memory store for webhook
// subscriptions, keyed by webhook id with a secondary index by event.
// At most one subscription exists per event; upserting an event that is
// already subscribed replaces its URL.
type WebhookStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Webhook
	byEvent map[string]*domain.Webhook
}

// NewWebhookStore creates an empty WebhookStore.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{
		byID:    make(map[string]*domain.Webhook),
		byEvent: make(map[string]*domain.Webhook),
	}
}

// Upsert creates or updates the subscription for the webhook's event.
// Returns true when a new subscription was created, false when an
// existing one was updated in place (keeping its id and creation time).
func (s *WebhookStore) Upsert(w *domain.Webhook) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byEvent[w.Event]
	if ok {
		existing.URL = w.URL
		existing.UpdatedAt = w.UpdatedAt
		return false
	}

	s.byID[w.WebhookID] = w
	s.byEvent[w.Event] = w
	return true
}

// GetByEvent returns the subscription for an event, or nil if none exists.
func (s *WebhookStore) GetByEvent(event string) *domain.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byEvent[event]
}

// List returns all subscriptions ordered by creation time, then event.
func (s *WebhookStore) List() []*domain.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Webhook, 0, len(s.byID))
	for _, w := range s.byID {
		result = append(result, w)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Event < result[j].Event
	})
	return result
}

// Delete removes a subscription by id. It returns
// domain.ErrWebhookNotFound if the id is unknown.
func (s *WebhookStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.byID[id]
	if !ok {
		return domain.ErrWebhookNotFound
	}
	delete(s.byID, id)
	delete(s.byEvent, w.Event)
	return nil
}
