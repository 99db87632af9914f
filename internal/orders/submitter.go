package orders

import (
	"context"

	"github.com/kynkyro/shaderstore-backend/pkg/enums"
	"github.com/kynkyro/shaderstore-backend/pkg/types"
)

// SubmitLine is the snapshot of one cart line sent to the order service.
type SubmitLine struct {
	ProductID      string  `json:"product_id"`
	VariantID      *string `json:"variant_id,omitempty"`
	Name           string  `json:"name"`
	Image          string  `json:"image,omitempty"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	Qty            int     `json:"qty"`
	TotalCents     int64   `json:"total_cents"`
}

// SubmitOrderInput is the full payload handed to the external order service.
type SubmitOrderInput struct {
	ShopperID        string         `json:"shopper_id"`
	Items            []SubmitLine   `json:"items"`
	ShippingAddress  types.Address  `json:"shipping_address"`
	BillingAddress   types.Address  `json:"billing_address"`
	PaymentReference string         `json:"payment_reference"`
	Currency         enums.Currency `json:"currency"`
	SubtotalCents    int64          `json:"subtotal_cents"`
	VATCents         int64          `json:"vat_cents"`
	TotalCents       int64          `json:"total_cents"`
}

// SubmitResult carries the order service's acknowledgement.
type SubmitResult struct {
	OrderRef string `json:"order_ref"`
	Status   string `json:"status"`
}

// Submitter places an order with the external order service. A returned error
// means the order was NOT placed; callers keep their state and may retry the
// whole submission.
type Submitter interface {
	Submit(ctx context.Context, input SubmitOrderInput) (SubmitResult, error)
}
