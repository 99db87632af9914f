package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kynkyro/shaderstore-backend/pkg/enums"
	"github.com/kynkyro/shaderstore-backend/pkg/types"
)

// Order is the local record of an order the external order service accepted.
// It is a snapshot of the cart and checkout data at submission time.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopperID        string            `gorm:"column:shopper_id;not null;index"`
	ExternalRef      string            `gorm:"column:external_ref;not null;uniqueIndex"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:'placed'"`
	Currency         enums.Currency    `gorm:"column:currency;not null"`
	SubtotalCents    int64             `gorm:"column:subtotal_cents;not null"`
	VATCents         int64             `gorm:"column:vat_cents;not null"`
	TotalCents       int64             `gorm:"column:total_cents;not null"`
	PaymentReference string            `gorm:"column:payment_reference;not null"`
	ShippingAddress  types.Address     `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress   types.Address     `gorm:"column:billing_address;type:jsonb;serializer:json"`
	Items            []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the GORM default.
func (Order) TableName() string {
	return "orders"
}
