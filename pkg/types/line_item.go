package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/osgbhub/osgbhub-backend/pkg/enums"
)

// LineItem is one priced row in the quote builder. All monetary fields are
// TRY. Selected is a transient bulk-edit flag; it travels with the autosaved
// draft but is not business data. Position is reassigned contiguously by
// every sequencing operation.
type LineItem struct {
	ID           uuid.UUID          `json:"id"`
	CatalogRef   *uuid.UUID         `json:"catalog_ref,omitempty"`
	Description  string             `json:"description"`
	Quantity     int                `json:"quantity"`
	UnitPrice    decimal.Decimal    `json:"unit_price"`
	Discount     decimal.Decimal    `json:"discount"`
	DiscountType enums.DiscountType `json:"discount_type"`
	TaxRate      decimal.Decimal    `json:"tax_rate"`
	Selected     bool               `json:"selected"`
	Position     int                `json:"position"`
}

// ItemBreakdown is the derived pricing of a single line item. It is always
// recomputed from the LineItem fields and never stored.
type ItemBreakdown struct {
	ItemSubtotal   decimal.Decimal `json:"item_subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	AfterDiscount  decimal.Decimal `json:"after_discount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ItemTotal      decimal.Decimal `json:"item_total"`
}

// OrderAdjustments carries the order-level fields applied once per quote.
type OrderAdjustments struct {
	GeneralDiscount     decimal.Decimal    `json:"general_discount"`
	GeneralDiscountType enums.DiscountType `json:"general_discount_type"`
	ExtraCosts          decimal.Decimal    `json:"extra_costs"`
	DownPayment         decimal.Decimal    `json:"down_payment"`
}

// OrderTotals is the full derived breakdown for an order. The general
// discount applies to subtotal plus tax; extras and down payment come after.
type OrderTotals struct {
	Subtotal                   decimal.Decimal `json:"subtotal"`
	TotalTax                   decimal.Decimal `json:"total_tax"`
	TotalBeforeGeneralDiscount decimal.Decimal `json:"total_before_general_discount"`
	GeneralDiscountAmount      decimal.Decimal `json:"general_discount_amount"`
	Total                      decimal.Decimal `json:"total"`
	TotalWithExtras            decimal.Decimal `json:"total_with_extras"`
	NetPayable                 decimal.Decimal `json:"net_payable"`
}
