package service

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradesim/internal/domain"
	"tradesim/internal/store"
)

func TestWebhookUpsert_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  UpsertWebhookRequest
	}{
		{"empty url", UpsertWebhookRequest{URL: "", Events: []string{"order.done"}}},
		{"relative url", UpsertWebhookRequest{URL: "/hooks", Events: []string{"order.done"}}},
		{"http scheme", UpsertWebhookRequest{URL: "http://example.com", Events: []string{"order.done"}}},
		{"no events", UpsertWebhookRequest{URL: "https://example.com", Events: nil}},
		{"unknown event", UpsertWebhookRequest{URL: "https://example.com", Events: []string{"order.filled"}}},
	}

	svc := NewWebhookService(store.NewWebhookStore(), time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Upsert(tt.req)
			var validationErr *domain.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
		})
	}
}

func TestWebhookUpsert_CreatesAndUpdates(t *testing.T) {
	svc := NewWebhookService(store.NewWebhookStore(), time.Second)

	webhooks, created, err := svc.Upsert(UpsertWebhookRequest{
		URL:    "https://example.com/a",
		Events: []string{"order.done", "trade.executed", "order.done"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected first upsert to create")
	}
	if len(webhooks) != 2 {
		t.Fatalf("duplicate events should collapse, got %d webhooks", len(webhooks))
	}

	webhooks, created, err = svc.Upsert(UpsertWebhookRequest{
		URL:    "https://example.com/b",
		Events: []string{"order.done"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("re-subscribing an event should update, not create")
	}
	if webhooks[0].URL != "https://example.com/b" {
		t.Errorf("url = %s, want the updated one", webhooks[0].URL)
	}
	if len(svc.List()) != 2 {
		t.Errorf("list len = %d, want 2", len(svc.List()))
	}
}

func TestWebhookDelete(t *testing.T) {
	svc := NewWebhookService(store.NewWebhookStore(), time.Second)
	webhooks, _, err := svc.Upsert(UpsertWebhookRequest{
		URL:    "https://example.com",
		Events: []string{"order.done"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(webhooks[0].WebhookID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(webhooks[0].WebhookID); err != domain.ErrWebhookNotFound {
		t.Fatalf("expected ErrWebhookNotFound, got %v", err)
	}
}

// delivery is what the test server captures from one webhook POST.
type delivery struct {
	headers http.Header
	body    map[string]any
}

func TestNotifyTradeExecuted_DeliversPayload(t *testing.T) {
	received := make(chan delivery, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		received <- delivery{headers: r.Header.Clone(), body: body}
	}))
	defer srv.Close()

	ws := store.NewWebhookStore()
	// Registered directly so the test server's http URL bypasses the
	// https-only rule enforced on the API path.
	ws.Upsert(&domain.Webhook{
		WebhookID: "w1",
		Event:     "trade.executed",
		URL:       srv.URL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	svc := NewWebhookService(ws, 2*time.Second)

	trade := &domain.Trade{
		ID:        "t1",
		OrderID:   "o1",
		Side:      domain.SideBuy,
		CreatedAt: time.Now(),
	}
	order := &domain.Order{ID: "o1", Status: domain.OrderStatusDone}
	svc.NotifyTradeExecuted(trade, order)

	select {
	case d := <-received:
		if d.headers.Get("X-Event-Type") != "trade.executed" {
			t.Errorf("X-Event-Type = %s", d.headers.Get("X-Event-Type"))
		}
		if d.headers.Get("X-Webhook-Id") != "w1" {
			t.Errorf("X-Webhook-Id = %s", d.headers.Get("X-Webhook-Id"))
		}
		if d.headers.Get("X-Delivery-Id") == "" {
			t.Error("missing X-Delivery-Id")
		}
		if d.body["event"] != "trade.executed" {
			t.Errorf("event = %v", d.body["event"])
		}
		data, _ := d.body["data"].(map[string]any)
		if data["trade_id"] != "t1" || data["order_id"] != "o1" {
			t.Errorf("data = %v", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestNotifyOrderDone_NoSubscription(t *testing.T) {
	svc := NewWebhookService(store.NewWebhookStore(), time.Second)
	// Must not panic or block without a subscription.
	svc.NotifyOrderDone(&domain.Order{ID: "o1", Status: domain.OrderStatusDone})
	svc.NotifyOrderRejected(&domain.Order{ID: "o2", Status: domain.OrderStatusRejected})
}
