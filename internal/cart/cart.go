package cart

import (
	"github.com/kynkyro/shaderstore-backend/pkg/enums"
	pkgerrors "github.com/kynkyro/shaderstore-backend/pkg/errors"
)

// Cart is the per-shopper aggregate. All mutations go through the Store, which
// owns locking, persistence and observer notification; the aggregate itself is
// pure state plus merge/clamp rules.
type Cart struct {
	items  []LineItem
	isOpen bool
}

// AddItem merges the candidate into an existing line with the same
// (product, variant) pair, or appends a new line preserving insertion order.
// Quantities are clamped to the candidate's max stock when present.
func (c *Cart) AddItem(candidate Candidate, qty int) (LineItem, error) {
	if !candidate.valid() {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "product id and a non-negative unit price are required")
	}
	if qty < 1 {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if !candidate.Currency.IsValid() {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	if existing := c.currency(); existing != "" && existing != candidate.Currency {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "cart holds a different currency").
			WithDetails(map[string]any{"cart_currency": existing, "item_currency": candidate.Currency})
	}

	for i := range c.items {
		if c.items[i].matches(candidate) {
			c.items[i].Qty = clampQty(c.items[i].Qty+qty, c.items[i].MaxStock)
			return c.items[i], nil
		}
	}

	line := LineItem{
		ID:             newLineID(),
		ProductID:      candidate.ProductID,
		VariantID:      copyStringPtr(candidate.VariantID),
		Name:           candidate.Name,
		Image:          candidate.Image,
		UnitPriceCents: candidate.UnitPriceCents,
		Currency:       candidate.Currency,
		Qty:            clampQty(qty, candidate.MaxStock),
		MaxStock:       copyIntPtr(candidate.MaxStock),
	}
	c.items = append(c.items, line)
	return line, nil
}

// RemoveItem deletes the line with the given id. Removing an absent line is a
// no-op, not an error.
func (c *Cart) RemoveItem(id string) bool {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateQuantity sets the line quantity, clamped to max stock. A quantity of
// zero or less removes the line. Unknown ids are a no-op.
func (c *Cart) UpdateQuantity(id string, qty int) bool {
	if qty <= 0 {
		return c.RemoveItem(id)
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Qty = clampQty(qty, c.items[i].MaxStock)
			return true
		}
	}
	return false
}

// Clear empties the cart unconditionally.
func (c *Cart) Clear() {
	c.items = nil
}

// SetOpen toggles the transient drawer-visibility flag. Never persisted.
func (c *Cart) SetOpen(open bool) {
	c.isOpen = open
}

// TotalItems sums all line quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.items {
		total += item.Qty
	}
	return total
}

// TotalPriceCents sums unit price times quantity across all lines. Currency
// conversion is never applied; the cart enforces a single currency on add.
func (c *Cart) TotalPriceCents() int64 {
	var total int64
	for _, item := range c.items {
		total += item.UnitPriceCents * int64(item.Qty)
	}
	return total
}

// ItemCount returns the quantity of the first line matching the product id,
// or zero.
func (c *Cart) ItemCount(productID string) int {
	for _, item := range c.items {
		if item.ProductID == productID {
			return item.Qty
		}
	}
	return 0
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []LineItem {
	return copyItems(c.items)
}

func (c *Cart) currency() enums.Currency {
	if len(c.items) == 0 {
		return ""
	}
	return c.items[0].Currency
}

func (c *Cart) restore(items []LineItem) {
	c.items = copyItems(items)
}

func clampQty(qty int, maxStock *int) int {
	if maxStock != nil && qty > *maxStock {
		return *maxStock
	}
	return qty
}

func copyItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item
		out[i].VariantID = copyStringPtr(item.VariantID)
		out[i].MaxStock = copyIntPtr(item.MaxStock)
	}
	return out
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	val := *src
	return &val
}

func copyIntPtr(src *int) *int {
	if src == nil {
		return nil
	}
	val := *src
	return &val
}
