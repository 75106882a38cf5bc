package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/osgbhub/osgbhub-backend/pkg/enums"
	"github.com/osgbhub/osgbhub-backend/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Calculate derives a single line item's totals from its own fields. The
// result is fully determined by the input; calling it twice yields identical
// values.
//
// A fixed discount larger than the item subtotal is NOT clamped: afterDiscount,
// taxAmount and itemTotal go negative and propagate into the order totals.
// Flagged as an open product question; do not "fix" here without confirmation.
func Calculate(item types.LineItem) types.ItemBreakdown {
	qty := decimal.NewFromInt(int64(item.Quantity))
	itemSubtotal := qty.Mul(item.UnitPrice)

	var discountAmount decimal.Decimal
	if item.DiscountType == enums.DiscountTypeFixed {
		discountAmount = item.Discount
	} else {
		discountAmount = itemSubtotal.Mul(item.Discount).Div(hundred)
	}

	afterDiscount := itemSubtotal.Sub(discountAmount)
	taxAmount := afterDiscount.Mul(item.TaxRate).Div(hundred)

	return types.ItemBreakdown{
		ItemSubtotal:   itemSubtotal,
		DiscountAmount: discountAmount,
		AfterDiscount:  afterDiscount,
		TaxAmount:      taxAmount,
		ItemTotal:      afterDiscount.Add(taxAmount),
	}
}
