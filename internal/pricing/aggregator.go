package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/osgbhub/osgbhub-backend/pkg/enums"
	"github.com/osgbhub/osgbhub-backend/pkg/types"
)

// Aggregate folds the per-item breakdowns and the order-level adjustments
// into the full order breakdown. Items are summed left to right in their
// current order. The general discount applies to subtotal plus tax, that
// is discount after tax, never before. Extra costs and the down payment come
// after the general discount. No intermediate rounding: only display
// formatting rounds.
func Aggregate(items []types.LineItem, adj types.OrderAdjustments) types.OrderTotals {
	subtotal := decimal.Zero
	totalTax := decimal.Zero
	for _, item := range items {
		breakdown := Calculate(item)
		subtotal = subtotal.Add(breakdown.ItemSubtotal)
		totalTax = totalTax.Add(breakdown.TaxAmount)
	}

	beforeGeneral := subtotal.Add(totalTax)

	var generalDiscountAmount decimal.Decimal
	if adj.GeneralDiscountType == enums.DiscountTypeFixed {
		generalDiscountAmount = adj.GeneralDiscount
	} else {
		generalDiscountAmount = beforeGeneral.Mul(adj.GeneralDiscount).Div(hundred)
	}

	total := beforeGeneral.Sub(generalDiscountAmount)
	totalWithExtras := total.Add(adj.ExtraCosts)

	return types.OrderTotals{
		Subtotal:                   subtotal,
		TotalTax:                   totalTax,
		TotalBeforeGeneralDiscount: beforeGeneral,
		GeneralDiscountAmount:      generalDiscountAmount,
		Total:                      total,
		TotalWithExtras:            totalWithExtras,
		NetPayable:                 totalWithExtras.Sub(adj.DownPayment),
	}
}
