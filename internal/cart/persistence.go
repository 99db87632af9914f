package cart

import (
	"context"
	"errors"
)

// ErrNotPersisted signals that no cart items exist in durable storage for the
// shopper. Callers start from an empty cart.
var ErrNotPersisted = errors.New("cart: no persisted items")

// Persistence is the durable key-value adapter the store writes items to on
// every mutation and rehydrates from on first access. The serialized format is
// owned by the adapter; the only contract is an exact round-trip of the line
// list, fields and order included.
type Persistence interface {
	Save(ctx context.Context, shopperID string, items []LineItem) error
	Load(ctx context.Context, shopperID string) ([]LineItem, error)
	Delete(ctx context.Context, shopperID string) error
}
