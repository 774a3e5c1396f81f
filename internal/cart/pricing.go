package cart

import (
	"github.com/shopspring/decimal"

	"github.com/Barackwilliam/sokoletu/pkg/config"
	"github.com/Barackwilliam/sokoletu/pkg/db/models"
)

// Quote is a full pricing breakdown for a cart, computed from live product
// prices at the moment of the call.
type Quote struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`

	ItemCount             int             `json:"item_count"`
	FreeShippingRemaining decimal.Decimal `json:"free_shipping_remaining"`
}

// Pricer applies the marketplace pricing policy: VAT on the subtotal plus a
// flat shipping fee that is waived once the subtotal reaches the free-shipping
// threshold.
type Pricer struct {
	taxRate               decimal.Decimal
	freeShippingThreshold decimal.Decimal
	shippingFlatFee       decimal.Decimal
}

// NewPricer builds a Pricer from the checkout policy config.
func NewPricer(cfg config.CheckoutConfig) Pricer {
	return Pricer{
		taxRate:               cfg.TaxRate,
		freeShippingThreshold: cfg.FreeShippingThreshold,
		shippingFlatFee:       cfg.ShippingFlatFee,
	}
}

// Quote prices the given cart items. Items without a loaded product are priced
// at zero; an empty cart quotes to all zeros, shipping included.
func (p Pricer) Quote(items []models.CartItem) Quote {
	subtotal := decimal.Zero
	itemCount := 0
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		subtotal = subtotal.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		itemCount += item.Quantity
	}

	tax := subtotal.Mul(p.taxRate).Round(2)
	shipping := p.shippingCost(subtotal)

	return Quote{
		Subtotal:              subtotal.Round(2),
		TaxAmount:             tax,
		ShippingCost:          shipping,
		Total:                 subtotal.Add(tax).Add(shipping).Round(2),
		ItemCount:             itemCount,
		FreeShippingRemaining: p.freeShippingRemaining(subtotal),
	}
}

func (p Pricer) shippingCost(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsZero() {
		return decimal.Zero
	}
	if subtotal.GreaterThanOrEqual(p.freeShippingThreshold) {
		return decimal.Zero
	}
	return p.shippingFlatFee.Round(2)
}

func (p Pricer) freeShippingRemaining(subtotal decimal.Decimal) decimal.Decimal {
	remaining := p.freeShippingThreshold.Sub(subtotal)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining.Round(2)
}
