package builder

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	buildersvc "github.com/osgbhub/osgbhub-backend/internal/builder"
	pkgerrors "github.com/osgbhub/osgbhub-backend/pkg/errors"
	"github.com/osgbhub/osgbhub-backend/pkg/enums"
)

// HeaderRequest carries partial quote header updates.
type HeaderRequest struct {
	CompanyID    *uuid.UUID `json:"company_id"`
	ClearCompany bool       `json:"clear_company"`
	IssueDate    *time.Time `json:"issue_date"`
	ValidUntil   *time.Time `json:"valid_until"`
	Notes        *string    `json:"notes"`
	PaymentTerms *string    `json:"payment_terms"`
}

func (r HeaderRequest) toPatch() buildersvc.HeaderPatch {
	return buildersvc.HeaderPatch{
		CompanyID:    r.CompanyID,
		ClearCompany: r.ClearCompany,
		IssueDate:    r.IssueDate,
		ValidUntil:   r.ValidUntil,
		Notes:        r.Notes,
		PaymentTerms: r.PaymentTerms,
	}
}

// AdjustmentsRequest carries partial order-level pricing updates.
type AdjustmentsRequest struct {
	GeneralDiscount     *decimal.Decimal `json:"general_discount"`
	GeneralDiscountType *string          `json:"general_discount_type"`
	ExtraCosts          *decimal.Decimal `json:"extra_costs"`
	DownPayment         *decimal.Decimal `json:"down_payment"`
}

func (r AdjustmentsRequest) toPatch() (buildersvc.AdjustmentsPatch, error) {
	patch := buildersvc.AdjustmentsPatch{
		GeneralDiscount: r.GeneralDiscount,
		ExtraCosts:      r.ExtraCosts,
		DownPayment:     r.DownPayment,
	}
	if r.GeneralDiscountType != nil {
		discountType, err := enums.ParseDiscountType(*r.GeneralDiscountType)
		if err != nil {
			return patch, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
		}
		patch.GeneralDiscountType = &discountType
	}
	return patch, nil
}

// CurrencyRequest switches the display currency.
type CurrencyRequest struct {
	Currency   string           `json:"currency" validate:"required"`
	ManualRate *decimal.Decimal `json:"manual_rate"`
}

// AddItemRequest appends a line item.
type AddItemRequest struct {
	CatalogItemID *uuid.UUID       `json:"catalog_item_id"`
	Description   string           `json:"description"`
	Quantity      int              `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	Discount      decimal.Decimal  `json:"discount"`
	DiscountType  string           `json:"discount_type"`
	TaxRate       decimal.Decimal  `json:"tax_rate"`
}

func (r AddItemRequest) toInput() (buildersvc.AddItemInput, error) {
	input := buildersvc.AddItemInput{
		CatalogItemID: r.CatalogItemID,
		Description:   r.Description,
		Quantity:      r.Quantity,
		UnitPrice:     r.UnitPrice,
		Discount:      r.Discount,
		TaxRate:       r.TaxRate,
	}
	if r.DiscountType != "" {
		discountType, err := enums.ParseDiscountType(r.DiscountType)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
		}
		input.DiscountType = discountType
	}
	return input, nil
}

// UpdateItemRequest patches a line item.
type UpdateItemRequest struct {
	Description  *string          `json:"description"`
	Quantity     *int             `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	Discount     *decimal.Decimal `json:"discount"`
	DiscountType *string          `json:"discount_type"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
}

func (r UpdateItemRequest) toPatch() (buildersvc.ItemPatch, error) {
	patch := buildersvc.ItemPatch{
		Description: r.Description,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		Discount:    r.Discount,
		TaxRate:     r.TaxRate,
	}
	if r.DiscountType != nil {
		discountType, err := enums.ParseDiscountType(*r.DiscountType)
		if err != nil {
			return patch, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
		}
		patch.DiscountType = &discountType
	}
	return patch, nil
}

// ReorderRequest moves a line item to a new position.
type ReorderRequest struct {
	Position int `json:"position"`
}

// SelectAllRequest sets the selection flag on every item.
type SelectAllRequest struct {
	Selected bool `json:"selected"`
}

// BulkDiscountRequest applies a percentage discount to the selection.
type BulkDiscountRequest struct {
	Percent decimal.Decimal `json:"percent"`
}

// BulkTaxRequest applies a tax rate to the selection.
type BulkTaxRequest struct {
	Rate decimal.Decimal `json:"rate"`
}

// BulkPriceRequest scales every unit price.
type BulkPriceRequest struct {
	Percent   decimal.Decimal `json:"percent"`
	Direction string          `json:"direction" validate:"required"`
}

// SaveTemplateRequest snapshots the current items under a name.
type SaveTemplateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}
