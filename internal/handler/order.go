package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"tradesim/internal/domain"
	"tradesim/internal/exchange"
)

// OrderHandler handles HTTP requests for order endpoints. It talks to
// the exchange purely through the client contract.
type OrderHandler struct {
	client exchange.Client
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(client exchange.Client) *OrderHandler {
	return &OrderHandler{client: client}
}

// submitOrderRequest is the JSON request body for POST /orders. The kind
// field selects the order variant; the other fields are required or
// forbidden depending on the kind.
type submitOrderRequest struct {
	Kind        string           `json:"kind"`
	Price       *decimal.Decimal `json:"price"`
	Funds       *decimal.Decimal `json:"funds"`
	Size        *decimal.Decimal `json:"size"`
	TimeInForce *string          `json:"time_in_force"`
	CancelAfter *string          `json:"cancel_after"`
}

// orderResponse is the JSON shape of a single order. Fields that do not
// apply to the order's kind are null.
type orderResponse struct {
	OrderID        string           `json:"order_id"`
	Type           string           `json:"type"`
	Side           string           `json:"side"`
	Stop           *string          `json:"stop"`
	Status         string           `json:"status"`
	TimeInForce    string           `json:"time_in_force"`
	Price          *decimal.Decimal `json:"price"`
	StopPrice      *decimal.Decimal `json:"stop_price"`
	Quantity       decimal.Decimal  `json:"quantity"`
	FilledQuantity decimal.Decimal  `json:"filled_quantity"`
	Funds          *decimal.Decimal `json:"funds"`
	FillFees       decimal.Decimal  `json:"fill_fees"`
	CreatedAt      string           `json:"created_at"`
	ExpireTime     *string          `json:"expire_time"`
	DoneAt         *string          `json:"done_at"`
	DoneReason     *string          `json:"done_reason"`
	RejectReason   *string          `json:"reject_reason"`
}

// orderListResponse is the JSON response for GET /orders.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
}

// SubmitOrder handles POST /orders.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	var opts []exchange.OrderOption
	if req.TimeInForce != nil {
		opts = append(opts, exchange.WithTimeInForce(domain.TimeInForce(*req.TimeInForce)))
	}
	if req.CancelAfter != nil {
		t, err := time.Parse(time.RFC3339, *req.CancelAfter)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "cancel_after must be a valid RFC 3339 timestamp")
			return
		}
		opts = append(opts, exchange.WithCancelAfter(t))
	}

	var (
		order *domain.Order
		err   error
	)
	switch req.Kind {
	case "market_buy":
		if req.Funds == nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "funds is required for kind market_buy")
			return
		}
		order, err = h.client.MarketBuyOrder(r.Context(), *req.Funds, opts...)
	case "market_sell":
		if req.Size == nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "size is required for kind market_sell")
			return
		}
		order, err = h.client.MarketSellOrder(r.Context(), *req.Size, opts...)
	case "limit_buy":
		if req.Price == nil || req.Funds == nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "price and funds are required for kind limit_buy")
			return
		}
		order, err = h.client.LimitBuyOrder(r.Context(), *req.Price, *req.Funds, opts...)
	case "limit_sell":
		if req.Price == nil || req.Size == nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "price and size are required for kind limit_sell")
			return
		}
		order, err = h.client.LimitSellOrder(r.Context(), *req.Price, *req.Size, opts...)
	case "stop_loss":
		if req.Price == nil || req.Size == nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "price and size are required for kind stop_loss")
			return
		}
		order, err = h.client.StopLossOrder(r.Context(), *req.Price, *req.Size, opts...)
	case "stop_entry":
		if req.Price == nil || req.Size == nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "price and size are required for kind stop_entry")
			return
		}
		order, err = h.client.StopEntryOrder(r.Context(), *req.Price, *req.Size, opts...)
	default:
		WriteError(w, http.StatusBadRequest, "validation_error",
			"kind must be one of: market_buy, market_sell, limit_buy, limit_sell, stop_loss, stop_entry")
		return
	}

	if err != nil {
		mapOrderError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, buildOrderResponse(order))
}

// ListOrders handles GET /orders. The optional status query parameter
// filters by lifecycle state; "all" and absence mean no filter.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter := domain.OrderStatusAll
	if raw := r.URL.Query().Get("status"); raw != "" {
		filter = domain.OrderStatus(raw)
		if !validStatusFilter(filter) {
			WriteError(w, http.StatusBadRequest, "validation_error",
				"status must be one of: received, open, active, pending, done, rejected, all")
			return
		}
	}

	orders, err := h.client.GetAllOrders(r.Context())
	if err != nil {
		mapOrderError(w, err)
		return
	}

	result := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		if filter != domain.OrderStatusAll && o.Status != filter {
			continue
		}
		result = append(result, buildOrderResponse(o))
	}
	WriteJSON(w, http.StatusOK, orderListResponse{Orders: result})
}

// GetOrder handles GET /orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	order, err := h.findOrder(r, orderID)
	if err != nil {
		mapOrderError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// CancelOrder handles DELETE /orders/{order_id}. Returns the order in
// its post-cancellation state.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	if err := h.client.CancelOrder(r.Context(), orderID); err != nil {
		mapOrderError(w, err)
		return
	}

	order, err := h.findOrder(r, orderID)
	if err != nil {
		mapOrderError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// CancelAllOrders handles DELETE /orders.
func (h *OrderHandler) CancelAllOrders(w http.ResponseWriter, r *http.Request) {
	if err := h.client.CancelAllOrders(r.Context()); err != nil {
		mapOrderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// findOrder looks an order up by id through the client contract, which
// only exposes bulk retrieval.
func (h *OrderHandler) findOrder(r *http.Request, orderID string) (*domain.Order, error) {
	orders, err := h.client.GetAllOrders(r.Context())
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

// validStatusFilter reports whether the status is a legal value for the
// list filter, which accepts lifecycle states plus the all sentinel.
func validStatusFilter(s domain.OrderStatus) bool {
	switch s {
	case domain.OrderStatusReceived, domain.OrderStatusOpen, domain.OrderStatusActive,
		domain.OrderStatusPending, domain.OrderStatusDone, domain.OrderStatusRejected,
		domain.OrderStatusAll:
		return true
	}
	return false
}

// buildOrderResponse converts a domain order to its JSON shape. Decimal
// fields that are zero because they do not apply to the kind render as
// null rather than zero.
func buildOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		OrderID:        o.ID,
		Type:           string(o.Type),
		Side:           string(o.Side),
		Status:         string(o.Status),
		TimeInForce:    string(o.TimeInForce),
		Quantity:       o.Quantity,
		FilledQuantity: o.FilledQuantity,
		FillFees:       o.FillFees,
		CreatedAt:      formatTime(o.CreatedAt),
	}
	if o.Stop != "" {
		s := string(o.Stop)
		resp.Stop = &s
	}
	if o.Price.IsPositive() {
		p := o.Price
		resp.Price = &p
	}
	if o.StopPrice.IsPositive() {
		p := o.StopPrice
		resp.StopPrice = &p
	}
	if o.Funds.IsPositive() {
		f := o.Funds
		resp.Funds = &f
	}
	if o.ExpireTime != nil {
		s := formatTime(*o.ExpireTime)
		resp.ExpireTime = &s
	}
	if o.DoneAt != nil {
		s := formatTime(*o.DoneAt)
		resp.DoneAt = &s
	}
	if o.DoneReason != "" {
		s := o.DoneReason
		resp.DoneReason = &s
	}
	if o.RejectReason != "" {
		s := o.RejectReason
		resp.RejectReason = &s
	}
	return resp
}

// mapOrderError maps domain errors to HTTP responses for order endpoints.
func mapOrderError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", "order does not exist")
	case errors.Is(err, domain.ErrAlreadyTerminal):
		WriteError(w, http.StatusConflict, "order_already_terminal", "order is already in a terminal state")
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusConflict, "insufficient_funds", "account funds do not cover the order")
	case errors.Is(err, domain.ErrInsufficientHoldings):
		WriteError(w, http.StatusConflict, "insufficient_holdings", "account holdings do not cover the order")
	case errors.Is(err, domain.ErrNoMarketData):
		WriteError(w, http.StatusConflict, "no_market_data", "no market price has been observed yet")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
