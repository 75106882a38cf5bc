package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogItem is a priced service offering (health test, screening,
// consultancy) selectable in the quote builder. Price is nil for entries
// priced ad hoc per quote. SortOrder fixes the catalog order used for
// suggestion tie-breaking.
type CatalogItem struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string           `gorm:"column:name;not null"`
	Code      string           `gorm:"column:code;not null;uniqueIndex"`
	Price     *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true"`
	SortOrder int              `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
