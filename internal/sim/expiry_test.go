package sim

import (
	"sync"
	"testing"
	"time"
)

// stubExpiryTarget records expiration callbacks.
type stubExpiryTarget struct {
	mu      sync.Mutex
	expired []string
}

func (s *stubExpiryTarget) expire(orderID string, expireAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = append(s.expired, orderID)
}

func (s *stubExpiryTarget) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.expired...)
}

func TestExpiryManagerTick_ExpiresDueOrdersInOrder(t *testing.T) {
	target := &stubExpiryTarget{}
	m := NewExpiryManager(time.Hour, target)

	now := time.Now()
	m.Add("late", now.Add(3*time.Minute))
	m.Add("early", now.Add(time.Minute))
	m.Add("future", now.Add(time.Hour))

	m.Tick(now.Add(5 * time.Minute))

	got := target.ids()
	if len(got) != 2 || got[0] != "early" || got[1] != "late" {
		t.Fatalf("expired = %v, want [early late]", got)
	}
	if m.PendingCount() != 1 {
		t.Errorf("pending = %d, want 1", m.PendingCount())
	}
}

func TestExpiryManagerTick_NothingDue(t *testing.T) {
	target := &stubExpiryTarget{}
	m := NewExpiryManager(time.Hour, target)

	now := time.Now()
	m.Add("a", now.Add(time.Hour))

	m.Tick(now)
	if len(target.ids()) != 0 {
		t.Errorf("expected no expirations, got %v", target.ids())
	}
	if m.PendingCount() != 1 {
		t.Errorf("pending = %d, want 1", m.PendingCount())
	}
}

func TestExpiryManagerRemove(t *testing.T) {
	target := &stubExpiryTarget{}
	m := NewExpiryManager(time.Hour, target)

	now := time.Now()
	m.Add("a", now.Add(time.Minute))
	m.Add("b", now.Add(2*time.Minute))
	m.Remove("a")

	m.Tick(now.Add(time.Hour))
	got := target.ids()
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("expired = %v, want [b]", got)
	}
}
