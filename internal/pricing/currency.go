package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/osgbhub/osgbhub-backend/pkg/enums"
)

// rateTable maps a display currency to its approximate fixed TRY rate.
// TRY is the base and always 1. These are presentation conveniences, not
// accounting rates; a manual override per conversion is supported.
var rateTable = map[enums.Currency]decimal.Decimal{
	enums.CurrencyTRY: decimal.NewFromInt(1),
	enums.CurrencyUSD: decimal.RequireFromString("41.50"),
	enums.CurrencyEUR: decimal.RequireFromString("48.20"),
	enums.CurrencyGBP: decimal.RequireFromString("55.10"),
}

// Rate resolves the conversion rate for the target currency. A positive
// manual rate overrides the table for this call only; a nil or non-positive
// manual rate falls back to the table. Unknown currencies resolve to the
// base rate.
func Rate(target enums.Currency, manualRate *decimal.Decimal) decimal.Decimal {
	if target != enums.CurrencyTRY && manualRate != nil && manualRate.IsPositive() {
		return *manualRate
	}
	if rate, ok := rateTable[target]; ok {
		return rate
	}
	return rateTable[enums.CurrencyTRY]
}

// Convert translates a TRY amount into the target currency. Display-only:
// callers must never write the converted value back into stored state.
func Convert(amountTRY decimal.Decimal, target enums.Currency, manualRate *decimal.Decimal) decimal.Decimal {
	return amountTRY.Div(Rate(target, manualRate))
}

// Present formats a TRY amount in the target currency with two decimals.
func Present(amountTRY decimal.Decimal, target enums.Currency, manualRate *decimal.Decimal) string {
	converted := Convert(amountTRY, target, manualRate)
	return fmt.Sprintf("%s %s", converted.StringFixed(2), target)
}
