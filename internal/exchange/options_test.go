package exchange

import (
	"testing"
	"time"

	"tradesim/internal/domain"
)

func TestApplyOrderOptions_DefaultsToGTC(t *testing.T) {
	resolved := ApplyOrderOptions()
	if resolved.TimeInForce != domain.TimeInForceGTC {
		t.Errorf("time in force = %s, want GTC", resolved.TimeInForce)
	}
	if resolved.CancelAfter != nil {
		t.Errorf("cancel after = %v, want nil", resolved.CancelAfter)
	}
}

func TestApplyOrderOptions_Overrides(t *testing.T) {
	at := time.Now().Add(time.Hour)
	resolved := ApplyOrderOptions(
		WithTimeInForce(domain.TimeInForceGTT),
		WithCancelAfter(at),
	)
	if resolved.TimeInForce != domain.TimeInForceGTT {
		t.Errorf("time in force = %s, want GTT", resolved.TimeInForce)
	}
	if resolved.CancelAfter == nil || !resolved.CancelAfter.Equal(at) {
		t.Errorf("cancel after = %v, want %v", resolved.CancelAfter, at)
	}
}
