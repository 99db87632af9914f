package checkout

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kynkyro/shaderstore-backend/pkg/enums"
)

func TestComputeTotals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subtotal int64
		rate     string
		wantVAT  int64
		wantTot  int64
	}{
		{name: "twenty percent", subtotal: 4500, rate: "0.20", wantVAT: 900, wantTot: 5400},
		{name: "zero rate", subtotal: 4500, rate: "0", wantVAT: 0, wantTot: 4500},
		{name: "zero subtotal", subtotal: 0, rate: "0.20", wantVAT: 0, wantTot: 0},
		{name: "rounds half up", subtotal: 333, rate: "0.19", wantVAT: 63, wantTot: 396},
		{name: "romanian rate", subtotal: 10000, rate: "0.19", wantVAT: 1900, wantTot: 11900},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			totals := ComputeTotals(tc.subtotal, enums.CurrencyEUR, decimal.RequireFromString(tc.rate))
			if totals.VATCents != tc.wantVAT {
				t.Fatalf("vat: got %d, want %d", totals.VATCents, tc.wantVAT)
			}
			if totals.TotalCents != tc.wantTot {
				t.Fatalf("total: got %d, want %d", totals.TotalCents, tc.wantTot)
			}
			if totals.Currency != enums.CurrencyEUR {
				t.Fatalf("currency: got %q", totals.Currency)
			}
		})
	}
}
