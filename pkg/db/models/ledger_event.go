package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Barackwilliam/sokoletu/pkg/enums"
)

// LedgerEvent records an immutable checkout lifecycle event tied to an order.
type LedgerEvent struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	UserID    uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	Type      enums.LedgerEventType `gorm:"column:type;type:text;not null"`
	Amount    decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Metadata  json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}
