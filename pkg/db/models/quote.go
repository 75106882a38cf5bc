package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/osgbhub/osgbhub-backend/pkg/enums"
)

// QuoteRecord is a finalized, submitted quote. All monetary columns are TRY;
// Currency and ManualRate only describe how the total was presented. The
// totals are persisted as computed at submission time, but remain derivable
// from the line items and order-level fields.
type QuoteRecord struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number              string             `gorm:"column:number;not null;uniqueIndex"`
	CompanyID           uuid.UUID          `gorm:"column:company_id;type:uuid;not null"`
	Status              enums.QuoteStatus  `gorm:"column:status;not null;default:'submitted'"`
	IssueDate           time.Time          `gorm:"column:issue_date;not null"`
	ValidUntil          time.Time          `gorm:"column:valid_until;not null"`
	Notes               string             `gorm:"column:notes"`
	PaymentTerms        string             `gorm:"column:payment_terms"`
	Currency            enums.Currency     `gorm:"column:currency;not null;default:'TRY'"`
	ManualRate          *decimal.Decimal   `gorm:"column:manual_rate;type:numeric(12,4)"`
	GeneralDiscount     decimal.Decimal    `gorm:"column:general_discount;type:numeric(12,2);not null;default:0"`
	GeneralDiscountType enums.DiscountType `gorm:"column:general_discount_type;not null;default:'percentage'"`
	ExtraCosts          decimal.Decimal    `gorm:"column:extra_costs;type:numeric(12,2);not null;default:0"`
	DownPayment         decimal.Decimal    `gorm:"column:down_payment;type:numeric(12,2);not null;default:0"`
	Subtotal            decimal.Decimal    `gorm:"column:subtotal;type:numeric(14,2);not null;default:0"`
	TotalTax            decimal.Decimal    `gorm:"column:total_tax;type:numeric(14,2);not null;default:0"`
	GeneralDiscountAmt  decimal.Decimal    `gorm:"column:general_discount_amount;type:numeric(14,2);not null;default:0"`
	Total               decimal.Decimal    `gorm:"column:total;type:numeric(14,2);not null;default:0"`
	TotalWithExtras     decimal.Decimal    `gorm:"column:total_with_extras;type:numeric(14,2);not null;default:0"`
	NetPayable          decimal.Decimal    `gorm:"column:net_payable;type:numeric(14,2);not null;default:0"`
	Items               []QuoteLineItem    `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
