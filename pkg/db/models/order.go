package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Barackwilliam/sokoletu/pkg/enums"
)

// Order is the immutable record of a checkout attempt. Monetary fields are
// snapshotted at creation and never recomputed from live cart or product rows.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string    `gorm:"column:order_number;not null;uniqueIndex:uq_orders_number"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`

	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxAmount    decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`

	ShippingName     string `gorm:"column:shipping_name;not null"`
	ShippingPhone    string `gorm:"column:shipping_phone;not null"`
	ShippingEmail    string `gorm:"column:shipping_email;not null"`
	ShippingAddress  string `gorm:"column:shipping_address;not null"`
	ShippingRegion   string `gorm:"column:shipping_region;not null"`
	ShippingDistrict string `gorm:"column:shipping_district;not null"`
	ShippingWard     string `gorm:"column:shipping_ward;not null;default:''"`

	PaymentReference string     `gorm:"column:payment_reference;not null;default:''"`
	PaymentDate      *time.Time `gorm:"column:payment_date"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`
	ShippedAt   *time.Time `gorm:"column:shipped_at"`
	DeliveredAt *time.Time `gorm:"column:delivered_at"`
}

// IsPaid reports whether payment settled for this order.
func (o Order) IsPaid() bool {
	return o.PaymentStatus == enums.PaymentStatusPaid
}

// CanBeCancelled reports whether the order is still early enough to cancel.
func (o Order) CanBeCancelled() bool {
	return o.Status == enums.OrderStatusPending || o.Status == enums.OrderStatusConfirmed
}
