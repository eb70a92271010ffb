package cartrepo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/cache"
	"stockcart/internal/pkg/logger"
	"stockcart/internal/repository/cartrepo"
)

func setupStore(t *testing.T) (*cartrepo.Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := cache.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return cartrepo.NewStore(client, 24*time.Hour, time.Second, logger.NewNop()), mr
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	cart := domain.Cart{{
		ProductKey:  "p1",
		DisplayName: "Camisa",
		UnitPrice:   12.5,
		Variant:     "M",
		Quantity:    2,
		ImageRef:    domain.PlaceholderImage,
		AddedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	require.NoError(t, store.Save(ctx, "s1", cart))
	assert.True(t, mr.Exists("cart:s1"))
	assert.Greater(t, mr.TTL("cart:s1"), time.Duration(0))

	loaded := store.Load(ctx, "s1")
	assert.Equal(t, cart, loaded)
}

func TestStore_LoadMissingIsEmpty(t *testing.T) {
	store, _ := setupStore(t)
	cart := store.Load(context.Background(), "nada")
	assert.NotNil(t, cart)
	assert.True(t, cart.IsEmpty())
}

func TestStore_LoadCorruptIsEmpty(t *testing.T) {
	store, mr := setupStore(t)
	require.NoError(t, mr.Set("cart:s1", "{não é json"))
	assert.True(t, store.Load(context.Background(), "s1").IsEmpty())
}

func TestStore_LoadDropsInvalidAndPersists(t *testing.T) {
	store, mr := setupStore(t)
	require.NoError(t, mr.Set("cart:s1", `[
		{"id":"p1","nombre":"Camisa","precio":10,"talla":"L","cantidad":2},
		{"nombre":"","precio":10,"cantidad":1},
		{"nombre":"Gorra","precio":"10","cantidad":1},
		{"nombre":"Jean","precio":20,"cantidad":0}
	]`))

	cart := store.Load(context.Background(), "s1")
	require.Len(t, cart, 1)
	assert.Equal(t, "p1", cart[0].ProductKey)
	assert.Equal(t, "L", cart[0].Variant)
	assert.Equal(t, 2, cart[0].Quantity)

	raw, err := mr.Get("cart:s1")
	require.NoError(t, err)
	again, dropped, err := domain.DecodeCart([]byte(raw))
	require.NoError(t, err)
	assert.Zero(t, dropped, "o carrinho corrigido deve ter sido regravado")
	assert.Len(t, again, 1)
}

func TestStore_SaveFailureIsStorageError(t *testing.T) {
	store, mr := setupStore(t)
	mr.Close()

	err := store.Save(context.Background(), "s1", domain.Cart{})
	var storageErr *apperror.StorageError
	assert.True(t, errors.As(err, &storageErr))

	assert.True(t, store.Load(context.Background(), "s1").IsEmpty())
}

func TestStore_Clear(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", domain.Cart{{ProductKey: "p", DisplayName: "x", Variant: "M", Quantity: 1}}))
	require.NoError(t, store.Clear(ctx, "s1"))
	assert.False(t, mr.Exists("cart:s1"))
}

func TestStore_LoadStrictSeparatesMissFromFailure(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	cart, err := store.LoadStrict(ctx, "nada")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	require.NoError(t, store.Save(ctx, "s1", domain.Cart{{ProductKey: "p", DisplayName: "x", Variant: "M", Quantity: 1}}))
	mr.SetError("LOADING Redis is loading the dataset in memory")

	_, err = store.LoadStrict(ctx, "s1")
	var storageErr *apperror.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.True(t, store.Load(ctx, "s1").IsEmpty(), "Load continua tolerante")

	mr.SetError("")
	cart, err = store.LoadStrict(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, cart, 1)
}
