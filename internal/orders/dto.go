package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Barackwilliam/sokoletu/pkg/db/models"
	"github.com/Barackwilliam/sokoletu/pkg/enums"
)

// ItemView is one purchased line as snapshotted at checkout.
type ItemView struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// View renders an order for the buyer.
type View struct {
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`

	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`

	ShippingName     string `json:"shipping_name"`
	ShippingPhone    string `json:"shipping_phone"`
	ShippingEmail    string `json:"shipping_email"`
	ShippingAddress  string `json:"shipping_address"`
	ShippingRegion   string `json:"shipping_region"`
	ShippingDistrict string `json:"shipping_district"`
	ShippingWard     string `json:"shipping_ward,omitempty"`

	PaymentReference string     `json:"payment_reference,omitempty"`
	PaymentDate      *time.Time `json:"payment_date,omitempty"`

	Items []ItemView `json:"items"`

	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// Page is one cursor page of a buyer's order history, newest first.
type Page struct {
	Orders     []View `json:"orders"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// NewView maps a stored order onto its API shape.
func NewView(order *models.Order) *View {
	items := make([]ItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemView{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.ProductPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.TotalPrice,
		})
	}
	return &View{
		OrderNumber:      order.OrderNumber,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		PaymentMethod:    order.PaymentMethod,
		Subtotal:         order.Subtotal,
		TaxAmount:        order.TaxAmount,
		ShippingCost:     order.ShippingCost,
		Total:            order.Total,
		ShippingName:     order.ShippingName,
		ShippingPhone:    order.ShippingPhone,
		ShippingEmail:    order.ShippingEmail,
		ShippingAddress:  order.ShippingAddress,
		ShippingRegion:   order.ShippingRegion,
		ShippingDistrict: order.ShippingDistrict,
		ShippingWard:     order.ShippingWard,
		PaymentReference: order.PaymentReference,
		PaymentDate:      order.PaymentDate,
		Items:            items,
		CreatedAt:        order.CreatedAt,
		ConfirmedAt:      order.ConfirmedAt,
		ShippedAt:        order.ShippedAt,
		DeliveredAt:      order.DeliveredAt,
	}
}
