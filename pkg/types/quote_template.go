package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/osgbhub/osgbhub-backend/pkg/enums"
)

// TemplateItem is the reusable shape of a line item: everything except the
// per-order identity and the transient selection flag.
type TemplateItem struct {
	CatalogRef   *uuid.UUID         `json:"catalog_ref,omitempty"`
	Description  string             `json:"description"`
	Quantity     int                `json:"quantity"`
	UnitPrice    decimal.Decimal    `json:"unit_price"`
	Discount     decimal.Decimal    `json:"discount"`
	DiscountType enums.DiscountType `json:"discount_type"`
	TaxRate      decimal.Decimal    `json:"tax_rate"`
}

// QuoteTemplate is a named snapshot of a line-item list. Immutable once
// saved except for deletion.
type QuoteTemplate struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Items     []TemplateItem `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewTemplateItem strips a line item down to its reusable fields.
func NewTemplateItem(item LineItem) TemplateItem {
	return TemplateItem{
		CatalogRef:   copyUUIDPtr(item.CatalogRef),
		Description:  item.Description,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		Discount:     item.Discount,
		DiscountType: item.DiscountType,
		TaxRate:      item.TaxRate,
	}
}

// Materialize clones a template item into a fresh LineItem with a new id,
// selection cleared, and the given position.
func (t TemplateItem) Materialize(position int) LineItem {
	return LineItem{
		ID:           uuid.New(),
		CatalogRef:   copyUUIDPtr(t.CatalogRef),
		Description:  t.Description,
		Quantity:     t.Quantity,
		UnitPrice:    t.UnitPrice,
		Discount:     t.Discount,
		DiscountType: t.DiscountType,
		TaxRate:      t.TaxRate,
		Selected:     false,
		Position:     position,
	}
}

func copyUUIDPtr(src *uuid.UUID) *uuid.UUID {
	if src == nil {
		return nil
	}
	val := *src
	return &val
}
