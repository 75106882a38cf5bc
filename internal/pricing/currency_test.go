package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/osgbhub/osgbhub-backend/pkg/enums"
)

func TestRateManualOverride(t *testing.T) {
	t.Parallel()

	manual := dec("40")
	if got := Rate(enums.CurrencyUSD, &manual); !got.Equal(manual) {
		t.Fatalf("expected manual rate 40, got %s", got)
	}
}

func TestRateIgnoresNonPositiveManualRate(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"0", "-5"} {
		manual := dec(raw)
		if got := Rate(enums.CurrencyUSD, &manual); !got.Equal(dec("41.50")) {
			t.Fatalf("manual rate %s should fall back to table rate, got %s", raw, got)
		}
	}
}

func TestRateManualOverrideDoesNotApplyToBase(t *testing.T) {
	t.Parallel()

	manual := dec("7")
	if got := Rate(enums.CurrencyTRY, &manual); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("base currency rate must stay 1, got %s", got)
	}
}

func TestConvertLeavesInputUntouched(t *testing.T) {
	t.Parallel()

	amount := dec("830")
	converted := Convert(amount, enums.CurrencyUSD, nil)

	if !converted.Equal(dec("20")) {
		t.Fatalf("expected 830/41.50 = 20, got %s", converted)
	}
	if !amount.Equal(dec("830")) {
		t.Fatalf("conversion must not mutate the stored amount, got %s", amount)
	}
}

func TestPresentFormatsTwoDecimals(t *testing.T) {
	t.Parallel()

	if got := Present(dec("964"), enums.CurrencyEUR, nil); got != "20.00 EUR" {
		t.Fatalf("expected %q, got %q", "20.00 EUR", got)
	}
	if got := Present(dec("1234.5"), enums.CurrencyTRY, nil); got != "1234.50 TRY" {
		t.Fatalf("expected %q, got %q", "1234.50 TRY", got)
	}
}
