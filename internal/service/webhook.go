package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/sim"
	"tradesim/internal/store"
)

// Valid webhook event types.
var validWebhookEvents = map[string]bool{
	"order.done":     true,
	"order.rejected": true,
	"trade.executed": true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	URL    string
	Events []string
}

// WebhookService handles webhook CRUD and event delivery. It satisfies
// sim.Notifier, so the exchange pushes order and trade events straight
// into it.
type WebhookService struct {
	store  *store.WebhookStore
	client *http.Client
}

var _ sim.Notifier = (*WebhookService)(nil)

// NewWebhookService creates a WebhookService with the given delivery timeout.
func NewWebhookService(webhookStore *store.WebhookStore, webhookTimeout time.Duration) *WebhookService {
	return &WebhookService{
		store: webhookStore,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
	}
}

// Upsert validates the request and creates or updates one subscription
// per event. Returns the resulting webhooks and whether any new
// subscription was created.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]*domain.Webhook, bool, error) {
	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	dedupedEvents := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: order.done, order.rejected, trade.executed",
			}
		}
		if !seen[event] {
			seen[event] = true
			dedupedEvents = append(dedupedEvents, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*domain.Webhook, 0, len(dedupedEvents))

	for _, event := range dedupedEvents {
		w := &domain.Webhook{
			WebhookID: uuid.New().String(),
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}

		created := s.store.Upsert(w)
		if created {
			anyCreated = true
			webhooks = append(webhooks, w)
		} else {
			existing := s.store.GetByEvent(event)
			if existing != nil {
				webhooks = append(webhooks, existing)
			}
		}
	}

	return webhooks, anyCreated, nil
}

// List returns all webhook subscriptions.
func (s *WebhookService) List() []*domain.Webhook {
	return s.store.List()
}

// Delete removes a webhook subscription by id.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// orderEventPayload is the JSON payload for order.done and
// order.rejected webhooks.
type orderEventPayload struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Data      orderEventData `json:"data"`
}

type orderEventData struct {
	OrderID        string          `json:"order_id"`
	Type           string          `json:"type"`
	Side           string          `json:"side"`
	Status         string          `json:"status"`
	Price          decimal.Decimal `json:"price"`
	StopPrice      decimal.Decimal `json:"stop_price"`
	Quantity       decimal.Decimal `json:"quantity"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`
	Funds          decimal.Decimal `json:"funds"`
	FillFees       decimal.Decimal `json:"fill_fees"`
	DoneReason     string          `json:"done_reason,omitempty"`
	RejectReason   string          `json:"reject_reason,omitempty"`
}

// tradeExecutedPayload is the JSON payload for trade.executed webhooks.
type tradeExecutedPayload struct {
	Event     string            `json:"event"`
	Timestamp string            `json:"timestamp"`
	Data      tradeExecutedData `json:"data"`
}

type tradeExecutedData struct {
	TradeID            string          `json:"trade_id"`
	OrderID            string          `json:"order_id"`
	Side               string          `json:"side"`
	Price              decimal.Decimal `json:"price"`
	Quantity           decimal.Decimal `json:"quantity"`
	Fee                decimal.Decimal `json:"fee"`
	BalanceAfterTrade  decimal.Decimal `json:"balance_after_trade"`
	HoldingsAfterTrade decimal.Decimal `json:"holdings_after_trade"`
	OrderStatus        string          `json:"order_status"`
}

// NotifyOrderDone implements sim.Notifier. Fire-and-forget.
func (s *WebhookService) NotifyOrderDone(order *domain.Order) {
	wh := s.store.GetByEvent("order.done")
	if wh == nil {
		return
	}
	go s.deliver(wh, "order.done", buildOrderEventPayload("order.done", order))
}

// NotifyOrderRejected implements sim.Notifier. Fire-and-forget.
func (s *WebhookService) NotifyOrderRejected(order *domain.Order) {
	wh := s.store.GetByEvent("order.rejected")
	if wh == nil {
		return
	}
	go s.deliver(wh, "order.rejected", buildOrderEventPayload("order.rejected", order))
}

// NotifyTradeExecuted implements sim.Notifier. Fire-and-forget.
func (s *WebhookService) NotifyTradeExecuted(trade *domain.Trade, order *domain.Order) {
	wh := s.store.GetByEvent("trade.executed")
	if wh == nil {
		return
	}

	payload := tradeExecutedPayload{
		Event:     "trade.executed",
		Timestamp: trade.CreatedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: tradeExecutedData{
			TradeID:            trade.ID,
			OrderID:            trade.OrderID,
			Side:               string(trade.Side),
			Price:              trade.Price,
			Quantity:           trade.Quantity,
			Fee:                trade.Fee,
			BalanceAfterTrade:  trade.BalanceAfterTrade,
			HoldingsAfterTrade: trade.HoldingsAfterTrade,
			OrderStatus:        string(order.Status),
		},
	}
	go s.deliver(wh, "trade.executed", payload)
}

func buildOrderEventPayload(event string, order *domain.Order) orderEventPayload {
	return orderEventPayload{
		Event:     event,
		Timestamp: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: orderEventData{
			OrderID:        order.ID,
			Type:           string(order.Type),
			Side:           string(order.Side),
			Status:         string(order.Status),
			Price:          order.Price,
			StopPrice:      order.StopPrice,
			Quantity:       order.Quantity,
			FilledQuantity: order.FilledQuantity,
			Funds:          order.Funds,
			FillFees:       order.FillFees,
			DoneReason:     order.DoneReason,
			RejectReason:   order.RejectReason,
		},
	}
}

// deliver sends the webhook payload via HTTP POST with the required
// headers. Errors are silently ignored (fire-and-forget).
func (s *WebhookService) deliver(wh *domain.Webhook, eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
