package exchange

import (
	"time"

	"tradesim/internal/domain"
)

// OrderOptions carries the optional parameters of a placement operation.
type OrderOptions struct {
	TimeInForce domain.TimeInForce
	CancelAfter *time.Time
}

// OrderOption configures a placement operation.
type OrderOption func(*OrderOptions)

// WithTimeInForce overrides the default GTC time-in-force policy.
func WithTimeInForce(tif domain.TimeInForce) OrderOption {
	return func(o *OrderOptions) { o.TimeInForce = tif }
}

// WithCancelAfter sets the time at which a GTT order expires.
func WithCancelAfter(t time.Time) OrderOption {
	return func(o *OrderOptions) { o.CancelAfter = &t }
}

// ApplyOrderOptions resolves the options for a placement call, defaulting
// the time-in-force to GTC.
func ApplyOrderOptions(opts ...OrderOption) OrderOptions {
	resolved := OrderOptions{TimeInForce: domain.TimeInForceGTC}
	for _, opt := range opts {
		opt(&resolved)
	}
	return resolved
}
