package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgerrors "github.com/kynkyro/shaderstore-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func setupOrdersService(t *testing.T) (Service, Repository) {
	t.Helper()
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, gormTxRunner{db: db}, testLogger())
	require.NoError(t, err)
	return svc, repo
}

func TestServiceRecordCreatesHistoryEntry(t *testing.T) {
	svc, _ := setupOrdersService(t)
	ctx := context.Background()

	order, err := svc.Record(ctx, testSubmitInput(), SubmitResult{OrderRef: "ord_10", Status: "placed"})
	require.NoError(t, err)
	assert.Equal(t, "ord_10", order.ExternalRef)
	assert.Equal(t, int64(900), order.VATCents)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(4500), order.Items[0].TotalCents)
}

func TestServiceRecordIsIdempotentPerReference(t *testing.T) {
	svc, _ := setupOrdersService(t)
	ctx := context.Background()

	first, err := svc.Record(ctx, testSubmitInput(), SubmitResult{OrderRef: "ord_11"})
	require.NoError(t, err)

	second, err := svc.Record(ctx, testSubmitInput(), SubmitResult{OrderRef: "ord_11"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	orders, err := svc.History(ctx, "shopper-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestServiceRecordValidation(t *testing.T) {
	svc, _ := setupOrdersService(t)
	ctx := context.Background()

	input := testSubmitInput()
	input.ShopperID = ""
	_, err := svc.Record(ctx, input, SubmitResult{OrderRef: "ord_12"})
	require.Error(t, err)

	_, err = svc.Record(ctx, testSubmitInput(), SubmitResult{})
	require.Error(t, err)
}

func TestServiceHistoryAndDetail(t *testing.T) {
	svc, _ := setupOrdersService(t)
	ctx := context.Background()

	recorded, err := svc.Record(ctx, testSubmitInput(), SubmitResult{OrderRef: "ord_13"})
	require.NoError(t, err)

	orders, err := svc.History(ctx, "shopper-1")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	detail, err := svc.Detail(ctx, "shopper-1", recorded.ID)
	require.NoError(t, err)
	assert.Equal(t, recorded.ExternalRef, detail.ExternalRef)
}

func TestServiceDetailNotFound(t *testing.T) {
	svc, _ := setupOrdersService(t)

	_, err := svc.Detail(context.Background(), "shopper-1", uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
