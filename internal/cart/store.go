package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kynkyro/shaderstore-backend/pkg/enums"
	pkgerrors "github.com/kynkyro/shaderstore-backend/pkg/errors"
	"github.com/kynkyro/shaderstore-backend/pkg/logger"
	"github.com/kynkyro/shaderstore-backend/pkg/metrics"
)

// Snapshot is the read model handed to observers and the API layer.
type Snapshot struct {
	Items           []LineItem     `json:"items"`
	IsOpen          bool           `json:"is_open"`
	TotalItems      int            `json:"total_items"`
	TotalPriceCents int64          `json:"total_price_cents"`
	Currency        enums.Currency `json:"currency"`
}

// Subscriber receives the post-mutation snapshot for the shopper whose cart
// changed. Called synchronously after persistence, outside the store lock.
type Subscriber func(shopperID string, snap Snapshot)

// Store is the single source of truth for what each shopper intends to buy.
// In-memory state is authoritative for the session; every mutation is written
// through to the persistence adapter, and write failures are swallowed so the
// cart keeps working when durable storage is unavailable.
type Store struct {
	mu          sync.Mutex
	carts       map[string]*Cart
	persistence Persistence
	defCurrency enums.Currency
	logg        *logger.Logger
	metrics     *metrics.StorefrontMetrics
	subscribers []Subscriber
}

// NewStore builds the cart store backed by the provided persistence adapter.
func NewStore(persistence Persistence, defaultCurrency enums.Currency, logg *logger.Logger, m *metrics.StorefrontMetrics) (*Store, error) {
	if persistence == nil {
		return nil, fmt.Errorf("persistence adapter required")
	}
	if !defaultCurrency.IsValid() {
		return nil, fmt.Errorf("invalid default currency %q", defaultCurrency)
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Store{
		carts:       map[string]*Cart{},
		persistence: persistence,
		defCurrency: defaultCurrency,
		logg:        logg,
		metrics:     m,
	}, nil
}

// Subscribe registers an observer for cart changes. Not safe to call after the
// store starts serving traffic; wire subscribers during startup.
func (s *Store) Subscribe(fn Subscriber) {
	if fn == nil {
		return
	}
	s.subscribers = append(s.subscribers, fn)
}

// Get returns the current snapshot, rehydrating from durable storage on the
// shopper's first access this process lifetime.
func (s *Store) Get(ctx context.Context, shopperID string) (Snapshot, error) {
	if shopperID == "" {
		return Snapshot{}, errEmptyShopper()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.loadLocked(ctx, shopperID)
	return s.snapshotLocked(cart), nil
}

// AddItem merges the candidate into the shopper's cart and persists the result.
func (s *Store) AddItem(ctx context.Context, shopperID string, candidate Candidate, qty int) (Snapshot, error) {
	if shopperID == "" {
		return Snapshot{}, errEmptyShopper()
	}

	s.mu.Lock()
	cart := s.loadLocked(ctx, shopperID)
	if _, err := cart.AddItem(candidate, qty); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	// Adding to the cart opens the drawer, mirroring the storefront UI.
	cart.SetOpen(true)
	s.persistLocked(ctx, shopperID, cart)
	snap := s.snapshotLocked(cart)
	s.mu.Unlock()

	s.metrics.IncCartMutation("add_item")
	s.notify(shopperID, snap)
	return snap, nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, shopperID, lineID string, qty int) (Snapshot, error) {
	if shopperID == "" {
		return Snapshot{}, errEmptyShopper()
	}

	s.mu.Lock()
	cart := s.loadLocked(ctx, shopperID)
	changed := cart.UpdateQuantity(lineID, qty)
	if changed {
		s.persistLocked(ctx, shopperID, cart)
	}
	snap := s.snapshotLocked(cart)
	s.mu.Unlock()

	if changed {
		s.metrics.IncCartMutation("update_quantity")
		s.notify(shopperID, snap)
	}
	return snap, nil
}

// RemoveItem drops the line with the given id; absent lines are a no-op.
func (s *Store) RemoveItem(ctx context.Context, shopperID, lineID string) (Snapshot, error) {
	if shopperID == "" {
		return Snapshot{}, errEmptyShopper()
	}

	s.mu.Lock()
	cart := s.loadLocked(ctx, shopperID)
	changed := cart.RemoveItem(lineID)
	if changed {
		s.persistLocked(ctx, shopperID, cart)
	}
	snap := s.snapshotLocked(cart)
	s.mu.Unlock()

	if changed {
		s.metrics.IncCartMutation("remove_item")
		s.notify(shopperID, snap)
	}
	return snap, nil
}

// Clear empties the cart and deletes the persisted copy.
func (s *Store) Clear(ctx context.Context, shopperID string) (Snapshot, error) {
	if shopperID == "" {
		return Snapshot{}, errEmptyShopper()
	}

	s.mu.Lock()
	cart := s.loadLocked(ctx, shopperID)
	cart.Clear()
	if err := s.persistence.Delete(ctx, shopperID); err != nil {
		s.logg.Warn(s.logg.WithShopperID(ctx, shopperID), "cart persistence delete failed, in-memory state remains authoritative")
	}
	snap := s.snapshotLocked(cart)
	s.mu.Unlock()

	s.metrics.IncCartMutation("clear")
	s.notify(shopperID, snap)
	return snap, nil
}

// SetOpen toggles the transient drawer flag without touching persistence.
func (s *Store) SetOpen(ctx context.Context, shopperID string, open bool) (Snapshot, error) {
	if shopperID == "" {
		return Snapshot{}, errEmptyShopper()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.loadLocked(ctx, shopperID)
	cart.SetOpen(open)
	return s.snapshotLocked(cart), nil
}

// ItemCount returns the quantity of the first line matching the product id.
func (s *Store) ItemCount(ctx context.Context, shopperID, productID string) (int, error) {
	if shopperID == "" {
		return 0, errEmptyShopper()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, shopperID).ItemCount(productID), nil
}

func (s *Store) loadLocked(ctx context.Context, shopperID string) *Cart {
	if cart, ok := s.carts[shopperID]; ok {
		return cart
	}

	cart := &Cart{}
	items, err := s.persistence.Load(ctx, shopperID)
	switch {
	case err == nil:
		cart.restore(items)
	case errors.Is(err, ErrNotPersisted):
		// first visit, start empty
	default:
		s.logg.Warn(s.logg.WithShopperID(ctx, shopperID), "cart rehydration failed, starting from an empty cart")
	}

	s.carts[shopperID] = cart
	return cart
}

func (s *Store) persistLocked(ctx context.Context, shopperID string, cart *Cart) {
	if err := s.persistence.Save(ctx, shopperID, cart.items); err != nil {
		s.logg.Warn(s.logg.WithShopperID(ctx, shopperID), "cart persistence write failed, in-memory state remains authoritative")
	}
}

func (s *Store) snapshotLocked(cart *Cart) Snapshot {
	currency := cart.currency()
	if currency == "" {
		currency = s.defCurrency
	}
	return Snapshot{
		Items:           cart.Items(),
		IsOpen:          cart.isOpen,
		TotalItems:      cart.TotalItems(),
		TotalPriceCents: cart.TotalPriceCents(),
		Currency:        currency,
	}
}

func (s *Store) notify(shopperID string, snap Snapshot) {
	for _, fn := range s.subscribers {
		fn(shopperID, snap)
	}
}

func errEmptyShopper() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "shopper id is required")
}
