package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"tradesim/internal/exchange"
)

// AccountHandler handles HTTP requests for the account endpoint.
type AccountHandler struct {
	client exchange.Client
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(client exchange.Client) *AccountHandler {
	return &AccountHandler{client: client}
}

// accountResponse is the JSON response for GET /account.
type accountResponse struct {
	AccountID       string          `json:"account_id"`
	Currency        string          `json:"currency"`
	Balance         decimal.Decimal `json:"balance"`
	Available       decimal.Decimal `json:"available"`
	ProductQuantity decimal.Decimal `json:"product_quantity"`
	Fee             decimal.Decimal `json:"fee"`
}

// GetAccount handles GET /account.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.client.GetAccount(r.Context())
	if err != nil {
		mapOrderError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, accountResponse{
		AccountID:       account.ID,
		Currency:        account.Currency,
		Balance:         account.Balance,
		Available:       account.Available,
		ProductQuantity: account.ProductQuantity,
		Fee:             account.Fee,
	})
}
