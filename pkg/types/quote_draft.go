package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/osgbhub/osgbhub-backend/pkg/enums"
)

// QuoteDraft is the full serializable builder state. It is the single
// autosaved unit: every mutation replaces the relevant slice of it with a
// fresh value and the whole draft is written back to the store.
type QuoteDraft struct {
	CompanyID           *uuid.UUID         `json:"company_id,omitempty"`
	IssueDate           *time.Time         `json:"issue_date,omitempty"`
	ValidUntil          *time.Time         `json:"valid_until,omitempty"`
	Notes               string             `json:"notes"`
	PaymentTerms        string             `json:"payment_terms"`
	Items               []LineItem         `json:"items"`
	Currency            enums.Currency     `json:"currency"`
	GeneralDiscount     decimal.Decimal    `json:"general_discount"`
	GeneralDiscountType enums.DiscountType `json:"general_discount_type"`
	ExtraCosts          decimal.Decimal    `json:"extra_costs"`
	DownPayment         decimal.Decimal    `json:"down_payment"`
	ManualRate          *decimal.Decimal   `json:"manual_rate,omitempty"`
	SavedAt             time.Time          `json:"saved_at"`
}

// EmptyQuoteDraft returns the state of a freshly mounted builder.
func EmptyQuoteDraft() QuoteDraft {
	return QuoteDraft{
		Items:               []LineItem{},
		Currency:            enums.CurrencyTRY,
		GeneralDiscountType: enums.DiscountTypePercentage,
	}
}

// Adjustments extracts the order-level fields for aggregation.
func (d QuoteDraft) Adjustments() OrderAdjustments {
	return OrderAdjustments{
		GeneralDiscount:     d.GeneralDiscount,
		GeneralDiscountType: d.GeneralDiscountType,
		ExtraCosts:          d.ExtraCosts,
		DownPayment:         d.DownPayment,
	}
}

// IsTrivial reports whether the draft is still the untouched empty builder.
// A trivial draft is never persisted.
func (d QuoteDraft) IsTrivial() bool {
	if len(d.Items) > 0 {
		return false
	}
	if d.CompanyID != nil {
		return false
	}
	if d.Notes != "" || d.PaymentTerms != "" {
		return false
	}
	if d.Currency != "" && d.Currency != enums.CurrencyTRY {
		return false
	}
	if !d.GeneralDiscount.IsZero() || !d.ExtraCosts.IsZero() || !d.DownPayment.IsZero() {
		return false
	}
	if d.ManualRate != nil {
		return false
	}
	return true
}
