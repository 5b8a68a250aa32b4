package store

import (
	"errors"
	"testing"
	"time"

	"tradesim/internal/domain"
)

func TestOrderStore_CreateAndGet(t *testing.T) {
	s := NewOrderStore()
	o := &domain.Order{ID: "o1", Status: domain.OrderStatusReceived, CreatedAt: time.Now()}
	s.Create(o)

	got, err := s.Get("o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != o {
		t.Error("Get should return the live record")
	}

	if _, err := s.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderStore_ListPreservesInsertionOrder(t *testing.T) {
	s := NewOrderStore()
	s.Create(&domain.Order{ID: "a"})
	s.Create(&domain.Order{ID: "b"})
	s.Create(&domain.Order{ID: "c"})

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for i, want := range []string{"a", "b", "c"} {
		if list[i].ID != want {
			t.Errorf("list[%d] = %s, want %s", i, list[i].ID, want)
		}
	}

	// The slice is a copy; appending must not disturb the store.
	_ = append(list, &domain.Order{ID: "d"})
	if s.Len() != 3 {
		t.Errorf("store len = %d, want 3", s.Len())
	}
}
