package cart

import (
	"strings"

	"github.com/google/uuid"

	"github.com/kynkyro/shaderstore-backend/pkg/enums"
)

// LineItem is one entry in a shopper's cart. Name, image and unit price are a
// display snapshot captured at add time and never re-synced to product edits,
// so the cart survives catalog changes.
type LineItem struct {
	ID             string         `json:"id"`
	ProductID      string         `json:"product_id"`
	VariantID      *string        `json:"variant_id,omitempty"`
	Name           string         `json:"name"`
	Image          string         `json:"image,omitempty"`
	UnitPriceCents int64          `json:"unit_price_cents"`
	Currency       enums.Currency `json:"currency"`
	Qty            int            `json:"qty"`
	MaxStock       *int           `json:"max_stock,omitempty"`
}

// Candidate carries the product snapshot the caller captured from the catalog.
// It lacks a line id and quantity; both are supplied when the line is added.
type Candidate struct {
	ProductID      string
	VariantID      *string
	Name           string
	Image          string
	UnitPriceCents int64
	Currency       enums.Currency
	MaxStock       *int
}

// matches reports whether the candidate targets the same purchasable as the
// line, i.e. the same (product, variant) pair.
func (li LineItem) matches(candidate Candidate) bool {
	if li.ProductID != candidate.ProductID {
		return false
	}
	return equalVariant(li.VariantID, candidate.VariantID)
}

func equalVariant(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func newLineID() string {
	return uuid.NewString()
}

func (c Candidate) valid() bool {
	return strings.TrimSpace(c.ProductID) != "" && c.UnitPriceCents >= 0
}
