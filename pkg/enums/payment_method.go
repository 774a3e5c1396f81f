package enums

import "fmt"

// PaymentMethod describes how a buyer intends to settle an order. The string
// values double as gateway registry keys and are an external contract.
type PaymentMethod string

const (
	PaymentMethodMpesa       PaymentMethod = "mpesa"
	PaymentMethodTigoPesa    PaymentMethod = "tigopesa"
	PaymentMethodAirtelMoney PaymentMethod = "airtelmoney"
	PaymentMethodSelcom      PaymentMethod = "selcom"
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodCash        PaymentMethod = "cash"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodMpesa,
	PaymentMethodTigoPesa,
	PaymentMethodAirtelMoney,
	PaymentMethodSelcom,
	PaymentMethodCard,
	PaymentMethodCash,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
