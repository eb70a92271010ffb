package inventoryrepo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/repository/inventoryrepo"
)

func seededStore() *inventoryrepo.MemoryStore {
	store := inventoryrepo.NewMemoryStore()
	store.Put(domain.InventoryRecord{ProductID: "camisa", StockByVariant: map[string]int{"S": 2, "M": 3}})
	store.Put(domain.InventoryRecord{ProductID: "gorra", Stock: 4})
	store.Put(domain.InventoryRecord{ProductID: "jean", Stock: 1})
	return store
}

func TestReadStock(t *testing.T) {
	ctx := context.Background()
	store := seededStore()

	reading, err := inventoryrepo.ReadStock(ctx, store, "camisa", "M")
	require.NoError(t, err)
	assert.Equal(t, domain.StockReading{Stock: 3, Found: true}, reading)

	reading, err = inventoryrepo.ReadStock(ctx, store, "camisa", "XL")
	require.NoError(t, err)
	assert.Equal(t, domain.StockReading{Stock: 0, Found: true}, reading)

	reading, err = inventoryrepo.ReadStock(ctx, store, "gorra", "L")
	require.NoError(t, err)
	assert.Equal(t, 4, reading.Stock)

	reading, err = inventoryrepo.ReadStock(ctx, store, "inexistente", "M")
	require.NoError(t, err)
	assert.False(t, reading.Found)
	assert.Equal(t, 0, reading.Stock)
}

func TestMemoryStore_BatchAdjust_AppliesAll(t *testing.T) {
	ctx := context.Background()
	store := seededStore()

	err := store.BatchAdjust(ctx, []domain.StockAdjustment{
		{ProductID: "camisa", Variant: "M", Delta: -2},
		{ProductID: "gorra", Variant: "M", Delta: -4},
	})
	require.NoError(t, err)

	camisa, _, _ := store.GetRecord(ctx, "camisa")
	assert.Equal(t, 1, camisa.StockByVariant["M"])
	assert.Equal(t, 3, camisa.Stock, "agregado recalculado a partir das variantes")
	assert.NotNil(t, camisa.LastSale)

	gorra, _, _ := store.GetRecord(ctx, "gorra")
	assert.Equal(t, 0, gorra.Stock)
}

func TestMemoryStore_BatchAdjust_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	before, err := store.ListRecords(ctx)
	require.NoError(t, err)

	err = store.BatchAdjust(ctx, []domain.StockAdjustment{
		{ProductID: "camisa", Variant: "S", Delta: -1},
		{ProductID: "gorra", Variant: "M", Delta: -1},
		{ProductID: "jean", Variant: "M", Delta: -2},
	})
	require.Error(t, err)

	var insufficient *apperror.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "jean", insufficient.ProductKey)
	assert.Equal(t, 1, insufficient.CurrentStock)

	after, err := store.ListRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "nenhum delta pode ser aplicado quando o lote falha")
}

func TestMemoryStore_BatchAdjust_MissingRecord(t *testing.T) {
	ctx := context.Background()
	store := seededStore()

	err := store.BatchAdjust(ctx, []domain.StockAdjustment{{ProductID: "fantasma", Variant: "M", Delta: -1}})
	var notFound *apperror.NotFoundError
	assert.True(t, errors.As(err, &notFound))

	// restauração para produto removido é ignorada
	err = store.BatchAdjust(ctx, []domain.StockAdjustment{
		{ProductID: "fantasma", Variant: "M", Delta: 1},
		{ProductID: "gorra", Variant: "M", Delta: 1},
	})
	require.NoError(t, err)
	gorra, _, _ := store.GetRecord(ctx, "gorra")
	assert.Equal(t, 5, gorra.Stock)
}

func TestMemoryStore_DecrementThenRestoreIsSymmetric(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	before, _, _ := store.GetRecord(ctx, "camisa")

	dec := []domain.StockAdjustment{{ProductID: "camisa", Variant: "S", Delta: -2}, {ProductID: "camisa", Variant: "M", Delta: -1}}
	inc := []domain.StockAdjustment{{ProductID: "camisa", Variant: "S", Delta: 2}, {ProductID: "camisa", Variant: "M", Delta: 1}}
	require.NoError(t, store.BatchAdjust(ctx, dec))
	require.NoError(t, store.BatchAdjust(ctx, inc))

	after, _, _ := store.GetRecord(ctx, "camisa")
	assert.Equal(t, before.StockByVariant, after.StockByVariant)
	assert.Equal(t, before.Stock, after.Stock)
}

func TestMemoryStore_FailNextBatch(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	store.FailNextBatch(errors.New("rede indisponível"))

	err := store.BatchAdjust(ctx, []domain.StockAdjustment{{ProductID: "gorra", Variant: "M", Delta: -1}})
	require.Error(t, err)
	gorra, _, _ := store.GetRecord(ctx, "gorra")
	assert.Equal(t, 4, gorra.Stock)

	require.NoError(t, store.BatchAdjust(ctx, []domain.StockAdjustment{{ProductID: "gorra", Variant: "M", Delta: -1}}))
}
