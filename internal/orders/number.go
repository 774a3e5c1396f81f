package orders

import (
	"strings"

	"github.com/google/uuid"
)

// NumberPrefix starts every customer-facing order reference.
const NumberPrefix = "ORD-"

// NewNumber generates an order reference like ORD-1A2B3C4D. Uniqueness is
// enforced by the orders table; callers retry on collision.
func NewNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return NumberPrefix + strings.ToUpper(hex[:8])
}
