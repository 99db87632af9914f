package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/kynkyro/shaderstore-backend/pkg/enums"
)

// Totals is the money breakdown shown on every checkout step. Values are
// integer cents; VAT is computed with decimal arithmetic and rounded half up.
type Totals struct {
	SubtotalCents int64          `json:"subtotal_cents"`
	VATCents      int64          `json:"vat_cents"`
	TotalCents    int64          `json:"total_cents"`
	VATRate       string         `json:"vat_rate"`
	Currency      enums.Currency `json:"currency"`
}

// ComputeTotals derives the checkout totals from a cart subtotal. Totals are
// never cached across cart mutations; callers recompute on every read.
func ComputeTotals(subtotalCents int64, currency enums.Currency, vatRate decimal.Decimal) Totals {
	vat := decimal.NewFromInt(subtotalCents).Mul(vatRate).Round(0).IntPart()
	return Totals{
		SubtotalCents: subtotalCents,
		VATCents:      vat,
		TotalCents:    subtotalCents + vat,
		VATRate:       vatRate.String(),
		Currency:      currency,
	}
}
