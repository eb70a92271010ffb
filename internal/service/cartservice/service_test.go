package cartservice_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/cache"
	"stockcart/internal/pkg/logger"
	"stockcart/internal/repository/cartrepo"
	"stockcart/internal/repository/inventoryrepo"
	"stockcart/internal/service/cartservice"
	"stockcart/internal/service/stockservice"
)

// fakeCatalog resolve produtos a partir de um mapa fixo.
type fakeCatalog map[string]domain.Product

func (c fakeCatalog) GetProductByID(_ context.Context, id string) (domain.Product, error) {
	p, ok := c[id]
	if !ok {
		return domain.Product{}, apperror.NewNotFoundError("Produto com ID " + id + " não foi encontrado.")
	}
	return p, nil
}

var catalog = fakeCatalog{
	"camisa": {ID: "camisa", Name: "Camisa", Price: 15, ImageRef: "camisa.jpg", Sizes: []string{"S", "M"}},
	"gorra":  {ID: "gorra", Name: "Gorra", Price: 8, ImageRef: "gorra.jpg"},
}

// flakyCache faz o GET falhar enquanto getErr estiver definido; as escritas
// continuam funcionando.
type flakyCache struct {
	cache.Client
	getErr error
}

func (c *flakyCache) Get(ctx context.Context, key string) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	return c.Client.Get(ctx, key)
}

type fixture struct {
	svc       *cartservice.Service
	carts     *cartrepo.Store
	cache     *flakyCache
	inventory *inventoryrepo.MemoryStore
	redis     *miniredis.Miniredis
}

func setup(t *testing.T) fixture {
	mr := miniredis.RunT(t)
	log := logger.NewNop()
	flaky := &flakyCache{Client: cache.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))}
	carts := cartrepo.NewStore(flaky, time.Hour, time.Second, log)

	inventory := inventoryrepo.NewMemoryStore()
	inventory.Put(domain.InventoryRecord{ProductID: "camisa", StockByVariant: map[string]int{"S": 1, "M": 3}})
	inventory.Put(domain.InventoryRecord{ProductID: "gorra", Stock: 10})

	svc := cartservice.NewService(carts, stockservice.NewValidator(inventory, log), catalog, nil, log)
	return fixture{svc: svc, carts: carts, cache: flaky, inventory: inventory, redis: mr}
}

func camisa(variant string, qty int) domain.AddItemRequest {
	return domain.AddItemRequest{ProductID: "camisa", DisplayName: "Camisa", UnitPrice: 15, Variant: variant, Quantity: qty}
}

func TestAddItem_MergesSameVariant(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cart, err := f.svc.AddItem(ctx, "s1", camisa("M", 1))
	require.NoError(t, err)
	require.Len(t, cart, 1)

	cart, err = f.svc.AddItem(ctx, "s1", camisa("M", 2))
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, 3, cart[0].Quantity)

	assert.Equal(t, cart, f.carts.Load(ctx, "s1"))
}

func TestAddItem_Defaults(t *testing.T) {
	f := setup(t)
	cart, err := f.svc.AddItem(context.Background(), "s1", domain.AddItemRequest{ProductID: "gorra", DisplayName: "Gorra", UnitPrice: 8})
	require.NoError(t, err)
	assert.Equal(t, "M", cart[0].Variant)
	assert.Equal(t, 1, cart[0].Quantity)
	assert.Equal(t, domain.PlaceholderImage, cart[0].ImageRef)
}

func TestAddItem_InsufficientCountsExistingQuantity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "s1", camisa("M", 2))
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, "s1", camisa("M", 2))
	var insufficient *apperror.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 3, insufficient.CurrentStock)

	cart := f.carts.Load(ctx, "s1")
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity, "carrinho inalterado após rejeição")
}

func TestAddItem_UnknownProductIsUnavailable(t *testing.T) {
	f := setup(t)
	_, err := f.svc.AddItem(context.Background(), "s1", domain.AddItemRequest{DisplayName: "Sem cadastro", UnitPrice: 1})
	var insufficient *apperror.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 0, insufficient.CurrentStock)
	assert.True(t, f.carts.Load(context.Background(), "s1").IsEmpty())
}

func TestAddItem_InvalidProduct(t *testing.T) {
	f := setup(t)
	cases := []domain.AddItemRequest{
		{ProductID: "", DisplayName: "Camisa", UnitPrice: 15},
		{ProductID: "nao-existe", DisplayName: "Camisa", UnitPrice: 15},
		{ProductID: "camisa", DisplayName: "Camisa", UnitPrice: -1},
		{ProductID: "camisa", DisplayName: "Camisa", UnitPrice: math.NaN()},
		{ProductID: "camisa", DisplayName: "Camisa", UnitPrice: 15, Quantity: -2},
	}
	for _, req := range cases {
		_, err := f.svc.AddItem(context.Background(), "s1", req)
		var invalid *apperror.InvalidProductError
		assert.True(t, errors.As(err, &invalid), "%+v", req)
	}
	assert.True(t, f.carts.Load(context.Background(), "s1").IsEmpty())
}

func TestAddItem_RejectsPriceOrNameNotInCatalog(t *testing.T) {
	f := setup(t)
	cases := []domain.AddItemRequest{
		{ProductID: "camisa", DisplayName: "Camisa", UnitPrice: 0.01, Variant: "M"},
		{ProductID: "camisa", DisplayName: "Camisa de Seda", UnitPrice: 15, Variant: "M"},
	}
	for _, req := range cases {
		_, err := f.svc.AddItem(context.Background(), "s1", req)
		var invalid *apperror.InvalidProductError
		assert.True(t, errors.As(err, &invalid), "%+v", req)
	}
	assert.True(t, f.carts.Load(context.Background(), "s1").IsEmpty())
}

func TestAddItem_TakesPriceNameAndImageFromCatalog(t *testing.T) {
	f := setup(t)

	cart, err := f.svc.AddItem(context.Background(), "s1", domain.AddItemRequest{ProductID: "camisa", Variant: "S"})
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, "Camisa", cart[0].DisplayName)
	assert.Equal(t, 15.0, cart[0].UnitPrice)
	assert.Equal(t, "camisa.jpg", cart[0].ImageRef)
	assert.Equal(t, 1, cart[0].Quantity)

	cart, err = f.svc.AddItem(context.Background(), "s1", domain.AddItemRequest{ProductID: "gorra", DisplayName: "gorra", UnitPrice: 8})
	require.NoError(t, err)
	assert.Equal(t, "Gorra", cart[1].DisplayName)
}

func TestAddItem_WithoutCatalogTrustsRequest(t *testing.T) {
	f := setup(t)
	log := logger.NewNop()
	svc := cartservice.NewService(f.carts, stockservice.NewValidator(f.inventory, log), nil, nil, log)

	_, err := svc.AddItem(context.Background(), "s1", domain.AddItemRequest{ProductID: "camisa", DisplayName: " ", UnitPrice: 15})
	var invalid *apperror.InvalidProductError
	require.True(t, errors.As(err, &invalid), "sem catálogo o nome continua obrigatório")

	cart, err := svc.AddItem(context.Background(), "s1", domain.AddItemRequest{ProductID: "gorra", DisplayName: "Gorra", UnitPrice: 7.5})
	require.NoError(t, err)
	assert.Equal(t, 7.5, cart[0].UnitPrice)
}

func TestAddItem_CatalogFailureIsStoreError(t *testing.T) {
	f := setup(t)
	failing := new(mockCatalog)
	failing.On("GetProductByID", mock.Anything, "camisa").Return(domain.Product{}, errors.New("firestore down"))
	log := logger.NewNop()
	svc := cartservice.NewService(f.carts, stockservice.NewValidator(f.inventory, log), failing, nil, log)

	_, err := svc.AddItem(context.Background(), "s1", camisa("M", 1))
	var storeErr *apperror.StoreError
	assert.True(t, errors.As(err, &storeErr))
	failing.AssertExpectations(t)
}

type mockChecker struct {
	mock.Mock
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *mockChecker) CheckOne(ctx context.Context, productKey, variant string, requested int) (domain.AvailabilityResult, error) {
	args := m.Called(ctx, productKey, variant, requested)
	return args.Get(0).(domain.AvailabilityResult), args.Error(1)
}

func (m *mockChecker) CheckCart(ctx context.Context, cart domain.Cart) (domain.CartValidationReport, error) {
	args := m.Called(ctx, cart)
	return args.Get(0).(domain.CartValidationReport), args.Error(1)
}

func TestAddItem_StoreFailureIsStoreError(t *testing.T) {
	f := setup(t)
	checker := new(mockChecker)
	checker.On("CheckOne", mock.Anything, "camisa", "M", 1).Return(domain.AvailabilityResult{}, errors.New("unavailable"))
	svc := cartservice.NewService(f.carts, checker, catalog, nil, logger.NewNop())

	_, err := svc.AddItem(context.Background(), "s1", camisa("M", 1))
	var storeErr *apperror.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.True(t, f.carts.Load(context.Background(), "s1").IsEmpty())
	checker.AssertExpectations(t)
}

func TestAddItem_StorageFailure(t *testing.T) {
	f := setup(t)
	f.redis.Close()

	_, err := f.svc.AddItem(context.Background(), "s1", camisa("M", 1))
	var storageErr *apperror.StorageError
	assert.True(t, errors.As(err, &storageErr))
}

func TestAddItem_ReadFailureDoesNotOverwriteCart(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, "s1", camisa("M", 2))
	require.NoError(t, err)

	f.cache.getErr = errors.New("i/o timeout")
	_, err = f.svc.AddItem(ctx, "s1", domain.AddItemRequest{ProductID: "gorra", Quantity: 1})
	var storageErr *apperror.StorageError
	require.True(t, errors.As(err, &storageErr))

	_, err = f.svc.RemoveItem(ctx, "s1", "camisa", "M")
	require.True(t, errors.As(err, &storageErr))

	_, err = f.svc.Review(ctx, "s1")
	require.True(t, errors.As(err, &storageErr))

	f.cache.getErr = nil
	cart := f.carts.Load(ctx, "s1")
	require.Len(t, cart, 1)
	assert.Equal(t, "camisa", cart[0].ProductKey)
	assert.Equal(t, 2, cart[0].Quantity)
}

func TestRemoveAndClear(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, "s1", camisa("M", 1))
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "s1", camisa("S", 1))
	require.NoError(t, err)

	cart, err := f.svc.RemoveItem(ctx, "s1", "camisa", "S")
	require.NoError(t, err)
	require.Len(t, cart, 1)

	summary := f.svc.Summary(ctx, "s1")
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, "15", summary.Total.String())

	require.NoError(t, f.svc.Clear(ctx, "s1"))
	assert.True(t, f.svc.Summary(ctx, "s1").IsEmpty)
}

func TestReview_TrimsUnavailableLines(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, "s1", camisa("S", 1))
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "s1", domain.AddItemRequest{ProductID: "gorra", DisplayName: "Gorra", UnitPrice: 8, Quantity: 2})
	require.NoError(t, err)

	// outra sessão leva a última camisa S
	require.NoError(t, f.inventory.BatchAdjust(ctx, []domain.StockAdjustment{{ProductID: "camisa", Variant: "S", Delta: -1}}))

	report, err := f.svc.Review(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, report.AllAvailable)
	require.Len(t, report.InvalidLines, 1)
	assert.Equal(t, "camisa", report.InvalidLines[0].ProductKey)

	cart := f.carts.Load(ctx, "s1")
	require.Len(t, cart, 1)
	assert.Equal(t, "gorra", cart[0].ProductKey)
}

func TestAddItem_ConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.AddItem(ctx, "s1", domain.AddItemRequest{ProductID: "gorra", DisplayName: "Gorra", UnitPrice: 8, Quantity: 1})
		}()
	}
	wg.Wait()

	cart := f.carts.Load(ctx, "s1")
	require.Len(t, cart, 1)
	assert.Equal(t, 5, cart[0].Quantity)
}
