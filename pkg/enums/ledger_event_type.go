package enums

import "fmt"

// LedgerEventType classifies immutable audit events recorded against an order.
type LedgerEventType string

const (
	LedgerEventTypeOrderCreated     LedgerEventType = "order_created"
	LedgerEventTypePaymentSucceeded LedgerEventType = "payment_succeeded"
	LedgerEventTypePaymentFailed    LedgerEventType = "payment_failed"
	LedgerEventTypeStockRestored    LedgerEventType = "stock_restored"
	LedgerEventTypeRestoreFailed    LedgerEventType = "restore_failed"
	LedgerEventTypeOrderCancelled   LedgerEventType = "order_cancelled"
)

var validLedgerEventTypes = []LedgerEventType{
	LedgerEventTypeOrderCreated,
	LedgerEventTypePaymentSucceeded,
	LedgerEventTypePaymentFailed,
	LedgerEventTypeStockRestored,
	LedgerEventTypeRestoreFailed,
	LedgerEventTypeOrderCancelled,
}

// String implements fmt.Stringer.
func (l LedgerEventType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LedgerEventType.
func (l LedgerEventType) IsValid() bool {
	for _, candidate := range validLedgerEventTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLedgerEventType converts raw input into a LedgerEventType.
func ParseLedgerEventType(value string) (LedgerEventType, error) {
	for _, candidate := range validLedgerEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger event type %q", value)
}
