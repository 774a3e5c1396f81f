package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Barackwilliam/sokoletu/pkg/enums"
)

// Product is the canonical seller listing. StockQuantity is the authoritative
// inventory count and is only mutated through conditional updates.
type Product struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ShopID            uuid.UUID           `gorm:"column:shop_id;type:uuid;not null"`
	Name              string              `gorm:"column:name;not null"`
	Slug              string              `gorm:"column:slug;not null"`
	Description       *string             `gorm:"column:description"`
	Price             decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	StockQuantity     int                 `gorm:"column:stock_quantity;not null;default:0"`
	LowStockThreshold int                 `gorm:"column:low_stock_threshold;not null;default:5"`
	Status            enums.ProductStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	IsActive          bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// IsSellable reports whether the product can be added to carts or checked out.
func (p Product) IsSellable() bool {
	return p.Status == enums.ProductStatusPublished && p.IsActive
}

// IsInStock reports whether any stock remains on a sellable product.
func (p Product) IsInStock() bool {
	return p.IsSellable() && p.StockQuantity > 0
}

// IsLowStock reports whether stock sits at or under the low-stock threshold.
func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}
