package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentInput carries everything a settlement provider needs for one charge.
type PaymentInput struct {
	Amount         decimal.Decimal
	PhoneNumber    string
	OrderReference string
}

// Result is the structured outcome of a gateway call. A declined payment is an
// expected operational outcome, so it is reported here rather than as an error;
// errors are reserved for transport-level trouble (timeouts, cancellation).
type Result struct {
	Succeeded     bool
	TransactionID string
	Message       string
	FailureReason string
}

// Gateway abstracts one settlement provider. Implementations must be
// idempotent per OrderReference from the caller's perspective; the checkout
// service additionally guards against double submission.
type Gateway interface {
	Name() string
	ProcessPayment(ctx context.Context, input PaymentInput) (Result, error)
}
