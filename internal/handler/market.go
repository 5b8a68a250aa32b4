package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/service"
)

// TickApplier feeds market observations into the exchange. Satisfied by
// the simulated exchange.
type TickApplier interface {
	Apply(td domain.TradingData) error
}

// MarketHandler handles HTTP requests for market data endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
	applier   TickApplier
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService, applier TickApplier) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc, applier: applier}
}

// priceResponse is the JSON response for GET /market/price.
type priceResponse struct {
	Product       string           `json:"product"`
	CurrentPrice  *decimal.Decimal `json:"current_price"`
	Window        string           `json:"window"`
	TicksInWindow int              `json:"ticks_in_window"`
	LastTickAt    *string          `json:"last_tick_at"`
}

// tickResponse is a single market observation in the history response.
type tickResponse struct {
	Timestamp string          `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
	Volume    decimal.Decimal `json:"volume"`
}

// historyResponse is the JSON response for GET /market/history.
type historyResponse struct {
	Product string         `json:"product"`
	Ticks   []tickResponse `json:"ticks"`
}

// tickRequest is a single observation in the POST /market/ticks body.
type tickRequest struct {
	Timestamp string           `json:"timestamp"`
	Price     decimal.Decimal  `json:"price"`
	Volume    *decimal.Decimal `json:"volume"`
}

// submitTicksRequest is the JSON request body for POST /market/ticks.
type submitTicksRequest struct {
	Ticks []tickRequest `json:"ticks"`
}

// submitTicksResponse is the JSON response for POST /market/ticks.
type submitTicksResponse struct {
	Accepted int `json:"accepted"`
}

// GetPrice handles GET /market/price.
func (h *MarketHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	price := h.marketSvc.GetPrice()

	resp := priceResponse{
		Product:       price.Product,
		CurrentPrice:  price.CurrentPrice,
		Window:        price.Window,
		TicksInWindow: price.TicksInWindow,
	}
	if price.LastTickAt != nil {
		s := formatTime(*price.LastTickAt)
		resp.LastTickAt = &s
	}
	WriteJSON(w, http.StatusOK, resp)
}

// GetHistory handles GET /market/history. The optional window query
// parameter (a Go duration like "5m") bounds how far back to look;
// absence means the full history.
func (h *MarketHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	var window time.Duration
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			WriteError(w, http.StatusBadRequest, "validation_error", "window must be a positive duration like 5m")
			return
		}
		window = d
	}

	ticks := h.marketSvc.History(window)
	result := make([]tickResponse, len(ticks))
	for i, td := range ticks {
		result[i] = tickResponse{
			Timestamp: formatTime(td.Timestamp),
			Price:     td.Price,
			Volume:    td.Volume,
		}
	}
	WriteJSON(w, http.StatusOK, historyResponse{
		Product: h.marketSvc.Product(),
		Ticks:   result,
	})
}

// SubmitTicks handles POST /market/ticks. Observations are applied in
// order; the first invalid one aborts the batch with the count of
// observations already applied left in effect.
func (h *MarketHandler) SubmitTicks(w http.ResponseWriter, r *http.Request) {
	var req submitTicksRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(req.Ticks) == 0 {
		WriteError(w, http.StatusBadRequest, "validation_error", "ticks must be a non-empty array")
		return
	}

	accepted := 0
	for _, tick := range req.Ticks {
		ts, err := time.Parse(time.RFC3339, tick.Timestamp)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "timestamp must be a valid RFC 3339 timestamp")
			return
		}
		td := domain.TradingData{Timestamp: ts, Price: tick.Price}
		if tick.Volume != nil {
			td.Volume = *tick.Volume
		}
		if err := h.applier.Apply(td); err != nil {
			mapOrderError(w, err)
			return
		}
		accepted++
	}
	WriteJSON(w, http.StatusOK, submitTicksResponse{Accepted: accepted})
}
