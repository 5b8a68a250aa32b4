package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrOrderNotFound        = errors.New("order_not_found")
	ErrAlreadyTerminal      = errors.New("order_already_terminal")
	ErrInsufficientFunds    = errors.New("insufficient_funds")
	ErrInsufficientHoldings = errors.New("insufficient_holdings")
	ErrNoMarketData         = errors.New("no_market_data")
	ErrWebhookNotFound      = errors.New("webhook_not_found")
)

// ValidationError represents a structural validation failure on an order
// request. Validation errors fail fast: no order record is created.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
