package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/osgbhub/osgbhub-backend/pkg/enums"
)

// QuoteLineItem persists one priced row of a submitted quote, in builder
// order via Position.
type QuoteLineItem struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteID       uuid.UUID          `gorm:"column:quote_id;type:uuid;not null"`
	CatalogItemID *uuid.UUID         `gorm:"column:catalog_item_id;type:uuid"`
	Description   string             `gorm:"column:description;not null"`
	Quantity      int                `gorm:"column:quantity;not null"`
	UnitPrice     decimal.Decimal    `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Discount      decimal.Decimal    `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;not null;default:'percentage'"`
	TaxRate       decimal.Decimal    `gorm:"column:tax_rate;type:numeric(5,2);not null;default:0"`
	Position      int                `gorm:"column:position;not null"`
	LineTotal     decimal.Decimal    `gorm:"column:line_total;type:numeric(14,2);not null;default:0"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
