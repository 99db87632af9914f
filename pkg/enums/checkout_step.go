package enums

import "fmt"

// CheckoutStep identifies a stage of the checkout flow. Steps are ordered;
// shipping is always first and payment is terminal.
type CheckoutStep int

const (
	CheckoutStepShipping CheckoutStep = 1
	CheckoutStepBilling  CheckoutStep = 2
	CheckoutStepPayment  CheckoutStep = 3
)

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	switch s {
	case CheckoutStepShipping:
		return "shipping"
	case CheckoutStepBilling:
		return "billing"
	case CheckoutStepPayment:
		return "payment"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// IsValid reports whether the step is one of the known stages.
func (s CheckoutStep) IsValid() bool {
	return s >= CheckoutStepShipping && s <= CheckoutStepPayment
}

// Next returns the following step; payment has no successor.
func (s CheckoutStep) Next() (CheckoutStep, bool) {
	if s < CheckoutStepShipping || s >= CheckoutStepPayment {
		return s, false
	}
	return s + 1, true
}

// Prev returns the preceding step; shipping has no predecessor.
func (s CheckoutStep) Prev() (CheckoutStep, bool) {
	if s <= CheckoutStepShipping || s > CheckoutStepPayment {
		return s, false
	}
	return s - 1, true
}
