package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogEntry is the engine-facing view of a priced catalog item. Price is
// nil for entries quoted ad hoc.
type CatalogEntry struct {
	ID       uuid.UUID        `json:"id"`
	Name     string           `json:"name"`
	Code     string           `json:"code"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	IsActive bool             `json:"is_active"`
}
