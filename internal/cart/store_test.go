package cart

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/kynkyro/shaderstore-backend/pkg/enums"
	"github.com/kynkyro/shaderstore-backend/pkg/logger"
)

type fakePersistence struct {
	saved     map[string][]LineItem
	loadErr   error
	saveErr   error
	deleteErr error
	saves     int
	deletes   int
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{saved: map[string][]LineItem{}}
}

func (f *fakePersistence) Save(_ context.Context, shopperID string, items []LineItem) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[shopperID] = copyItems(items)
	return nil
}

func (f *fakePersistence) Load(_ context.Context, shopperID string) ([]LineItem, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	items, ok := f.saved[shopperID]
	if !ok {
		return nil, ErrNotPersisted
	}
	return copyItems(items), nil
}

func (f *fakePersistence) Delete(_ context.Context, shopperID string) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.saved, shopperID)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestStore(t *testing.T, persistence Persistence) *Store {
	t.Helper()
	store, err := NewStore(persistence, enums.CurrencyEUR, testLogger(), nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestNewStoreValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewStore(nil, enums.CurrencyEUR, testLogger(), nil); err == nil {
		t.Fatal("expected error for nil persistence")
	}
	if _, err := NewStore(newFakePersistence(), enums.Currency("XX"), testLogger(), nil); err == nil {
		t.Fatal("expected error for invalid currency")
	}
	if _, err := NewStore(newFakePersistence(), enums.CurrencyEUR, nil, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}

func TestStoreAddItemPersistsAndOpensDrawer(t *testing.T) {
	t.Parallel()

	persistence := newFakePersistence()
	store := newTestStore(t, persistence)
	ctx := context.Background()

	snap, err := store.AddItem(ctx, "shopper-1", candidateP1(), 2)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if !snap.IsOpen {
		t.Fatal("adding an item should open the drawer")
	}
	if snap.TotalItems != 2 || snap.TotalPriceCents != 2000 {
		t.Fatalf("unexpected totals: %+v", snap)
	}
	if got := len(persistence.saved["shopper-1"]); got != 1 {
		t.Fatalf("expected 1 persisted line, got %d", got)
	}
}

func TestStoreRehydratesOnFirstAccess(t *testing.T) {
	t.Parallel()

	persistence := newFakePersistence()
	seed := newTestStore(t, persistence)
	ctx := context.Background()
	if _, err := seed.AddItem(ctx, "shopper-2", candidateP1(), 3); err != nil {
		t.Fatalf("seed AddItem failed: %v", err)
	}

	// a fresh store sees only what persistence holds
	store := newTestStore(t, persistence)
	snap, err := store.Get(ctx, "shopper-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(snap.Items) != 1 || snap.Items[0].Qty != 3 {
		t.Fatalf("expected rehydrated line with qty 3, got %+v", snap.Items)
	}
	if snap.IsOpen {
		t.Fatal("drawer state must not survive rehydration")
	}
}

func TestStoreSwallowsPersistenceWriteFailures(t *testing.T) {
	t.Parallel()

	persistence := newFakePersistence()
	persistence.saveErr = errors.New("redis down")
	store := newTestStore(t, persistence)
	ctx := context.Background()

	snap, err := store.AddItem(ctx, "shopper-3", candidateP1(), 1)
	if err != nil {
		t.Fatalf("AddItem must succeed despite write failure: %v", err)
	}
	if snap.TotalItems != 1 {
		t.Fatalf("in-memory state must hold the item, got %+v", snap)
	}

	// subsequent reads serve the in-memory cart
	snap, err = store.Get(ctx, "shopper-3")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if snap.TotalItems != 1 {
		t.Fatalf("expected cached cart, got %+v", snap)
	}
}

func TestStoreStartsEmptyWhenRehydrationFails(t *testing.T) {
	t.Parallel()

	persistence := newFakePersistence()
	persistence.loadErr = errors.New("redis down")
	store := newTestStore(t, persistence)

	snap, err := store.Get(context.Background(), "shopper-4")
	if err != nil {
		t.Fatalf("Get must succeed despite load failure: %v", err)
	}
	if len(snap.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", snap.Items)
	}
}

func TestStoreClearDeletesPersistedCopy(t *testing.T) {
	t.Parallel()

	persistence := newFakePersistence()
	store := newTestStore(t, persistence)
	ctx := context.Background()

	if _, err := store.AddItem(ctx, "shopper-5", candidateP1(), 2); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	snap, err := store.Clear(ctx, "shopper-5")
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if snap.TotalItems != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	if persistence.deletes != 1 {
		t.Fatalf("expected one delete, got %d", persistence.deletes)
	}
	if _, ok := persistence.saved["shopper-5"]; ok {
		t.Fatal("persisted copy must be gone")
	}
}

func TestStoreNotifiesSubscribersAfterMutations(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newFakePersistence())
	ctx := context.Background()

	var gotShopper string
	var gotSnaps []Snapshot
	store.Subscribe(func(shopperID string, snap Snapshot) {
		gotShopper = shopperID
		gotSnaps = append(gotSnaps, snap)
	})

	snap, err := store.AddItem(ctx, "shopper-6", candidateP1(), 2)
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if _, err := store.UpdateQuantity(ctx, "shopper-6", snap.Items[0].ID, 5); err != nil {
		t.Fatalf("UpdateQuantity failed: %v", err)
	}

	if gotShopper != "shopper-6" {
		t.Fatalf("unexpected shopper id %q", gotShopper)
	}
	if len(gotSnaps) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(gotSnaps))
	}
	if gotSnaps[1].TotalItems != 5 {
		t.Fatalf("expected final snapshot with 5 items, got %+v", gotSnaps[1])
	}
}

func TestStoreNoNotificationForNoOpMutations(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newFakePersistence())
	ctx := context.Background()

	calls := 0
	store.Subscribe(func(string, Snapshot) { calls++ })

	if _, err := store.RemoveItem(ctx, "shopper-7", "missing"); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if _, err := store.UpdateQuantity(ctx, "shopper-7", "missing", 3); err != nil {
		t.Fatalf("UpdateQuantity failed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("no-op mutations must not notify, got %d calls", calls)
	}
}

func TestStoreSetOpenSkipsPersistence(t *testing.T) {
	t.Parallel()

	persistence := newFakePersistence()
	store := newTestStore(t, persistence)
	ctx := context.Background()

	snap, err := store.SetOpen(ctx, "shopper-8", true)
	if err != nil {
		t.Fatalf("SetOpen failed: %v", err)
	}
	if !snap.IsOpen {
		t.Fatal("expected drawer open")
	}
	if persistence.saves != 0 {
		t.Fatalf("drawer toggles must not persist, got %d saves", persistence.saves)
	}
}

func TestStoreItemCount(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newFakePersistence())
	ctx := context.Background()

	if _, err := store.AddItem(ctx, "shopper-9", candidateP1(), 4); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	count, err := store.ItemCount(ctx, "shopper-9", "p1")
	if err != nil {
		t.Fatalf("ItemCount failed: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 units, got %d", count)
	}
}

func TestStoreRejectsEmptyShopperID(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newFakePersistence())
	ctx := context.Background()

	if _, err := store.Get(ctx, ""); err == nil {
		t.Fatal("expected error for empty shopper id")
	}
	if _, err := store.AddItem(ctx, "", candidateP1(), 1); err == nil {
		t.Fatal("expected error for empty shopper id")
	}
}

func TestStoreSnapshotFallsBackToDefaultCurrency(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newFakePersistence())
	snap, err := store.Get(context.Background(), "shopper-10")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if snap.Currency != enums.CurrencyEUR {
		t.Fatalf("expected default currency, got %q", snap.Currency)
	}
}
