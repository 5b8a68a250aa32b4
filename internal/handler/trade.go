package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"tradesim/internal/exchange"
)

// TradeHandler handles HTTP requests for the trade history endpoint.
type TradeHandler struct {
	client exchange.Client
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(client exchange.Client) *TradeHandler {
	return &TradeHandler{client: client}
}

// tradeResponse is a single execution in the trade history.
type tradeResponse struct {
	TradeID            string          `json:"trade_id"`
	OrderID            string          `json:"order_id"`
	Side               string          `json:"side"`
	Price              decimal.Decimal `json:"price"`
	Quantity           decimal.Decimal `json:"quantity"`
	Fee                decimal.Decimal `json:"fee"`
	CreatedAt          string          `json:"created_at"`
	BalanceAfterTrade  decimal.Decimal `json:"balance_after_trade"`
	HoldingsAfterTrade decimal.Decimal `json:"holdings_after_trade"`
}

// tradeListResponse is the JSON response for GET /trades.
type tradeListResponse struct {
	Trades []tradeResponse `json:"trades"`
}

// ListTrades handles GET /trades. Trades are returned in execution order.
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.client.GetAllTrades(r.Context())
	if err != nil {
		mapOrderError(w, err)
		return
	}

	result := make([]tradeResponse, len(trades))
	for i, t := range trades {
		result[i] = tradeResponse{
			TradeID:            t.ID,
			OrderID:            t.OrderID,
			Side:               string(t.Side),
			Price:              t.Price,
			Quantity:           t.Quantity,
			Fee:                t.Fee,
			CreatedAt:          formatTime(t.CreatedAt),
			BalanceAfterTrade:  t.BalanceAfterTrade,
			HoldingsAfterTrade: t.HoldingsAfterTrade,
		}
	}
	WriteJSON(w, http.StatusOK, tradeListResponse{Trades: result})
}
