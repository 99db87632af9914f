package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kynkyro/shaderstore-backend/internal/cart"
	"github.com/kynkyro/shaderstore-backend/internal/orders"
	"github.com/kynkyro/shaderstore-backend/pkg/db/models"
	"github.com/kynkyro/shaderstore-backend/pkg/enums"
	pkgerrors "github.com/kynkyro/shaderstore-backend/pkg/errors"
	"github.com/kynkyro/shaderstore-backend/pkg/logger"
	"github.com/kynkyro/shaderstore-backend/pkg/metrics"
	"github.com/kynkyro/shaderstore-backend/pkg/types"
)

// cartReader is the slice of the cart store the orchestrator consumes.
type cartReader interface {
	Get(ctx context.Context, shopperID string) (cart.Snapshot, error)
	Clear(ctx context.Context, shopperID string) (cart.Snapshot, error)
}

// orderRecorder snapshots accepted orders into local history.
type orderRecorder interface {
	Record(ctx context.Context, input orders.SubmitOrderInput, result orders.SubmitResult) (*models.Order, error)
}

// session is the per-shopper accumulated checkout state. Step data is never
// cleared on retreat, only overwritten by a later save.
type session struct {
	step     enums.CheckoutStep
	shipping *types.Address
	billing  *types.Address
}

// State is the read model of a checkout session: the current step, the data
// gathered so far and the live cart totals.
type State struct {
	Step     enums.CheckoutStep `json:"step"`
	StepName string             `json:"step_name"`
	Shipping *types.Address     `json:"shipping,omitempty"`
	Billing  *types.Address     `json:"billing,omitempty"`
	Totals   Totals             `json:"totals"`
}

// SubmitOutcome is returned when the order service accepts a submission.
type SubmitOutcome struct {
	OrderRef string    `json:"order_ref"`
	OrderID  uuid.UUID `json:"order_id"`
	Totals   Totals    `json:"totals"`
}

// Orchestrator sequences the checkout flow. Sessions live in memory only;
// abandoning a checkout simply leaves the session to be replaced by the next
// Start.
type Orchestrator struct {
	mu       sync.Mutex
	sessions map[string]*session

	cart      cartReader
	submitter orders.Submitter
	recorder  orderRecorder
	vatRate   decimal.Decimal
	logg      *logger.Logger
	metrics   *metrics.StorefrontMetrics
}

// NewOrchestrator builds the checkout orchestrator.
func NewOrchestrator(cartStore cartReader, submitter orders.Submitter, recorder orderRecorder, vatRate decimal.Decimal, logg *logger.Logger, m *metrics.StorefrontMetrics) (*Orchestrator, error) {
	if cartStore == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("order recorder required")
	}
	if vatRate.IsNegative() || vatRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("vat rate %s out of range [0,1]", vatRate)
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Orchestrator{
		sessions:  map[string]*session{},
		cart:      cartStore,
		submitter: submitter,
		recorder:  recorder,
		vatRate:   vatRate,
		logg:      logg,
		metrics:   m,
	}, nil
}

// Start opens a fresh checkout session at the shipping step. An empty cart is
// refused; any previous session for the shopper is discarded.
func (o *Orchestrator) Start(ctx context.Context, shopperID string) (State, error) {
	snap, err := o.snapshot(ctx, shopperID)
	if err != nil {
		return State{}, err
	}
	if snap.TotalItems == 0 {
		return State{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	o.mu.Lock()
	sess := &session{step: enums.CheckoutStepShipping}
	o.sessions[shopperID] = sess
	state := o.stateLocked(sess, snap)
	o.mu.Unlock()
	return state, nil
}

// Current returns the session state with totals recomputed from the live cart.
func (o *Orchestrator) Current(ctx context.Context, shopperID string) (State, error) {
	snap, err := o.snapshot(ctx, shopperID)
	if err != nil {
		return State{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.sessionLocked(shopperID)
	if err != nil {
		return State{}, err
	}
	return o.stateLocked(sess, snap), nil
}

// SetShipping saves the shipping address and advances past the shipping step.
// Saving again from a later step (after a retreat) overwrites the address
// without moving the shopper backward.
func (o *Orchestrator) SetShipping(ctx context.Context, shopperID string, addr types.Address) (State, error) {
	addr.Normalize()
	snap, err := o.snapshot(ctx, shopperID)
	if err != nil {
		return State{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.sessionLocked(shopperID)
	if err != nil {
		return State{}, err
	}

	sess.shipping = &addr
	if sess.step == enums.CheckoutStepShipping {
		sess.step = enums.CheckoutStepBilling
	}
	return o.stateLocked(sess, snap), nil
}

// SetBilling saves the billing address and advances past the billing step.
func (o *Orchestrator) SetBilling(ctx context.Context, shopperID string, addr types.Address) (State, error) {
	addr.Normalize()
	snap, err := o.snapshot(ctx, shopperID)
	if err != nil {
		return State{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.sessionLocked(shopperID)
	if err != nil {
		return State{}, err
	}
	if sess.shipping == nil {
		return State{}, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping info must be saved first")
	}

	sess.billing = &addr
	if sess.step == enums.CheckoutStepBilling {
		sess.step = enums.CheckoutStepPayment
	}
	return o.stateLocked(sess, snap), nil
}

// Retreat moves one step backward. Data saved for later steps is retained, so
// moving back and forward again does not force re-entry.
func (o *Orchestrator) Retreat(ctx context.Context, shopperID string) (State, error) {
	snap, err := o.snapshot(ctx, shopperID)
	if err != nil {
		return State{}, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.sessionLocked(shopperID)
	if err != nil {
		return State{}, err
	}
	if prev, ok := sess.step.Prev(); ok {
		sess.step = prev
	}
	return o.stateLocked(sess, snap), nil
}

// Submit places the order from the payment step. On failure the session stays
// on payment and the cart is untouched, so the shopper can retry. On success
// the order is recorded locally, the cart is cleared and the session is
// discarded.
func (o *Orchestrator) Submit(ctx context.Context, shopperID, paymentReference string) (SubmitOutcome, error) {
	if strings.TrimSpace(paymentReference) == "" {
		return SubmitOutcome{}, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}

	snap, err := o.snapshot(ctx, shopperID)
	if err != nil {
		return SubmitOutcome{}, err
	}
	if snap.TotalItems == 0 {
		return SubmitOutcome{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	o.mu.Lock()
	sess, err := o.sessionLocked(shopperID)
	if err != nil {
		o.mu.Unlock()
		return SubmitOutcome{}, err
	}
	if sess.step != enums.CheckoutStepPayment {
		o.mu.Unlock()
		return SubmitOutcome{}, pkgerrors.New(pkgerrors.CodeStateConflict, "submission is only allowed from the payment step").
			WithDetails(map[string]any{"current_step": sess.step.String()})
	}
	if sess.shipping == nil || sess.billing == nil {
		o.mu.Unlock()
		return SubmitOutcome{}, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping and billing info must be saved first")
	}
	input := buildSubmitInput(shopperID, snap, *sess.shipping, *sess.billing, paymentReference, o.vatRate)
	o.mu.Unlock()

	started := time.Now()
	result, err := o.submitter.Submit(ctx, input)
	o.metrics.ObserveSubmitDuration(time.Since(started))
	if err != nil {
		o.metrics.IncSubmitResult("failure")
		return SubmitOutcome{}, err
	}
	o.metrics.IncSubmitResult("success")

	logCtx := o.logg.WithOrderRef(o.logg.WithShopperID(ctx, shopperID), result.OrderRef)
	// The order is placed; a history write failure must not fail the checkout.
	var orderID uuid.UUID
	recorded, err := o.recorder.Record(ctx, input, result)
	if err != nil {
		o.logg.Error(logCtx, "recording accepted order failed", err)
	} else if recorded != nil {
		orderID = recorded.ID
	}
	if _, err := o.cart.Clear(ctx, shopperID); err != nil {
		o.logg.Error(logCtx, "clearing cart after submission failed", err)
	}

	o.mu.Lock()
	delete(o.sessions, shopperID)
	o.mu.Unlock()

	o.logg.Info(logCtx, "order submitted")
	return SubmitOutcome{
		OrderRef: result.OrderRef,
		OrderID:  orderID,
		Totals:   ComputeTotals(input.SubtotalCents, input.Currency, o.vatRate),
	}, nil
}

func (o *Orchestrator) snapshot(ctx context.Context, shopperID string) (cart.Snapshot, error) {
	if shopperID == "" {
		return cart.Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "shopper id is required")
	}
	return o.cart.Get(ctx, shopperID)
}

func (o *Orchestrator) sessionLocked(shopperID string) (*session, error) {
	sess, ok := o.sessions[shopperID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout has not been started")
	}
	return sess, nil
}

func (o *Orchestrator) stateLocked(sess *session, snap cart.Snapshot) State {
	return State{
		Step:     sess.step,
		StepName: sess.step.String(),
		Shipping: copyAddress(sess.shipping),
		Billing:  copyAddress(sess.billing),
		Totals:   ComputeTotals(snap.TotalPriceCents, snap.Currency, o.vatRate),
	}
}

func buildSubmitInput(shopperID string, snap cart.Snapshot, shipping, billing types.Address, paymentReference string, vatRate decimal.Decimal) orders.SubmitOrderInput {
	lines := make([]orders.SubmitLine, 0, len(snap.Items))
	for _, item := range snap.Items {
		lines = append(lines, orders.SubmitLine{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Name:           item.Name,
			Image:          item.Image,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			TotalCents:     item.UnitPriceCents * int64(item.Qty),
		})
	}

	totals := ComputeTotals(snap.TotalPriceCents, snap.Currency, vatRate)
	return orders.SubmitOrderInput{
		ShopperID:        shopperID,
		Items:            lines,
		ShippingAddress:  shipping,
		BillingAddress:   billing,
		PaymentReference: paymentReference,
		Currency:         snap.Currency,
		SubtotalCents:    totals.SubtotalCents,
		VATCents:         totals.VATCents,
		TotalCents:       totals.TotalCents,
	}
}

func copyAddress(src *types.Address) *types.Address {
	if src == nil {
		return nil
	}
	out := *src
	if src.Line2 != nil {
		line2 := *src.Line2
		out.Line2 = &line2
	}
	if src.Phone != nil {
		phone := *src.Phone
		out.Phone = &phone
	}
	return &out
}
