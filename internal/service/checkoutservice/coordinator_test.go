package checkoutservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
	"stockcart/internal/pkg/sessionlock"
	"stockcart/internal/repository/inventoryrepo"
	"stockcart/internal/service/checkoutservice"
	"stockcart/internal/service/stockservice"
)

// memCarts guarda carrinhos em memória.
type memCarts struct {
	mu       sync.Mutex
	carts    map[string]domain.Cart
	loadErr  error
	clearErr error
}

func newMemCarts() *memCarts { return &memCarts{carts: make(map[string]domain.Cart)} }

func (m *memCarts) Load(_ context.Context, id string) domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[id].Clone()
}

func (m *memCarts) LoadStrict(_ context.Context, id string) (domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.carts[id].Clone(), nil
}

func (m *memCarts) Save(_ context.Context, id string, cart domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[id] = cart.Clone()
	return nil
}

func (m *memCarts) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	delete(m.carts, id)
	return nil
}

func (m *memCarts) put(id string, cart domain.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[id] = cart
}

// MockRecorder é um mock do SaleRecorder.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, sale domain.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

// MockNotifier é um mock do Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Deliver(ctx context.Context, payload domain.HandoffPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// blockingStore segura o BatchAdjust até release ser fechado.
type blockingStore struct {
	*inventoryrepo.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) BatchAdjust(ctx context.Context, adj []domain.StockAdjustment) error {
	close(s.entered)
	<-s.release
	return s.MemoryStore.BatchAdjust(ctx, adj)
}

// slowStore nunca responde antes do prazo do contexto.
type slowStore struct {
	*inventoryrepo.MemoryStore
}

func (s slowStore) BatchAdjust(ctx context.Context, _ []domain.StockAdjustment) error {
	<-ctx.Done()
	return ctx.Err()
}

type fixture struct {
	coord     *checkoutservice.Coordinator
	carts     *memCarts
	locks     *sessionlock.Locks
	inventory *inventoryrepo.MemoryStore
	recorder  *MockRecorder
	notifier  *MockNotifier
}

func seedInventory() *inventoryrepo.MemoryStore {
	inv := inventoryrepo.NewMemoryStore()
	inv.Put(domain.InventoryRecord{ProductID: "camisa", StockByVariant: map[string]int{"S": 1, "M": 3}})
	inv.Put(domain.InventoryRecord{ProductID: "gorra", Stock: 10})
	return inv
}

func newFixture(t *testing.T, store checkoutservice.InventoryStore, inv *inventoryrepo.MemoryStore) fixture {
	t.Helper()
	log := logger.NewNop()
	carts := newMemCarts()
	recorder := new(MockRecorder)
	notifier := new(MockNotifier)
	locks := sessionlock.New()
	coord := checkoutservice.NewCoordinator(checkoutservice.Dependencies{
		Carts:     carts,
		Checker:   stockservice.NewValidator(inv, log),
		Inventory: store,
		Recorder:  recorder,
		Notifier:  notifier,
		Locks:     locks,
		Logger:    log,
	})
	return fixture{coord: coord, carts: carts, locks: locks, inventory: inv, recorder: recorder, notifier: notifier}
}

func setup(t *testing.T) fixture {
	inv := seedInventory()
	return newFixture(t, inv, inv)
}

func sampleCart() domain.Cart {
	return domain.Cart{
		{ProductKey: "camisa", DisplayName: "Camisa", UnitPrice: 15, Variant: "M", Quantity: 2},
		{ProductKey: "gorra", DisplayName: "Gorra", UnitPrice: 8.5, Variant: "M", Quantity: 1},
	}
}

func stockOf(t *testing.T, inv *inventoryrepo.MemoryStore, id, variant string) int {
	t.Helper()
	reading, err := inventoryrepo.ReadStock(context.Background(), inv, id, variant)
	require.NoError(t, err)
	return reading.Stock
}

func TestConfirm_Success(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())
	f.recorder.On("Record", mock.Anything, mock.MatchedBy(func(s domain.Sale) bool {
		return s.PaymentMethod == "efectivo" && s.Status == domain.SaleStatusPending && s.Total.String() == "38.5"
	})).Return(nil).Once()
	f.notifier.On("Deliver", mock.Anything, mock.AnythingOfType("domain.HandoffPayload")).Return(nil).Once()

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutReviewing, attempt.State())

	view, err := attempt.Confirm(ctx, "efectivo", map[string]interface{}{"nombre": "Ana"})
	require.NoError(t, err)

	assert.Equal(t, domain.CheckoutCompleted, view.State)
	assert.True(t, view.StockCommitted)
	assert.NotEmpty(t, view.SaleID)
	require.NotNil(t, view.Handoff)
	assert.Equal(t, 3, view.Handoff.TotalUnits)
	assert.Empty(t, view.Warnings)

	assert.Equal(t, 1, stockOf(t, f.inventory, "camisa", "M"))
	assert.Equal(t, 9, stockOf(t, f.inventory, "gorra", ""))
	assert.True(t, f.carts.Load(ctx, "s1").IsEmpty())
	f.recorder.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestBegin_EmptyCart(t *testing.T) {
	f := setup(t)

	attempt, err := f.coord.Begin(context.Background(), "s1")
	require.NoError(t, err)

	view := attempt.View()
	assert.Equal(t, domain.CheckoutFailed, view.State)
	require.NotNil(t, view.Failure)
	assert.Equal(t, domain.CheckoutReviewing, view.Failure.Stage)
	assert.Equal(t, domain.ReasonEmptyCart, view.Failure.Reason)

	_, err = attempt.Commit(context.Background(), "efectivo", nil)
	var illegal *apperror.IllegalTransitionError
	assert.ErrorAs(t, err, &illegal)
}

func TestCommit_NoPaymentMethod(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)

	view, err := attempt.Commit(ctx, "", nil)
	require.Error(t, err)
	_, category, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, apperror.CategoryNoPaymentMethod, category)
	assert.Equal(t, domain.CheckoutReviewing, view.State)
	assert.Equal(t, 3, stockOf(t, f.inventory, "camisa", "M"))
}

func TestCommit_StockChangedDuringReview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)

	// Outra sessão compra antes da confirmação.
	require.NoError(t, f.inventory.BatchAdjust(ctx, []domain.StockAdjustment{{ProductID: "camisa", Variant: "M", Delta: -2}}))

	view, err := attempt.Confirm(ctx, "efectivo", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutFailed, view.State)
	require.NotNil(t, view.Failure)
	assert.Equal(t, domain.CheckoutRevalidating, view.Failure.Stage)
	assert.Equal(t, domain.ReasonStockChanged, view.Failure.Reason)
	require.NotNil(t, view.Report)
	assert.Len(t, view.Report.InvalidLines, 1)
	assert.False(t, view.StockCommitted)

	assert.Equal(t, 10, stockOf(t, f.inventory, "gorra", ""))
	assert.Len(t, f.carts.Load(ctx, "s1"), 2)
	f.recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestCommit_StoreFailureKeepsCartAndAllowsRetry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())
	f.recorder.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Deliver", mock.Anything, mock.Anything).Return(nil)

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)

	f.inventory.FailNextBatch(errors.New("unavailable"))
	view, err := attempt.Confirm(ctx, "transferencia", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutFailed, view.State)
	assert.Equal(t, domain.CheckoutCommitting, view.Failure.Stage)
	assert.Equal(t, domain.ReasonStoreError, view.Failure.Reason)
	assert.Equal(t, 3, stockOf(t, f.inventory, "camisa", "M"))
	assert.Len(t, f.carts.Load(ctx, "s1"), 2)

	view, err = attempt.Confirm(ctx, "transferencia", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutCompleted, view.State)
	assert.Equal(t, 1, stockOf(t, f.inventory, "camisa", "M"))
}

func TestCommit_StoreRejectsNegativeStock(t *testing.T) {
	inv := seedInventory()
	f := newFixture(t, inv, inv)
	ctx := context.Background()
	// O validador enxerga estoque suficiente, mas o lote é rejeitado.
	f.carts.put("s1", domain.Cart{{ProductKey: "camisa", DisplayName: "Camisa", UnitPrice: 15, Variant: "S", Quantity: 1}})

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)
	inv.FailNextBatch(apperror.NewInsufficientStockError("camisa", "S", 0, "sem estoque"))

	view, err := attempt.Commit(ctx, "efectivo", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonStockChanged, view.Failure.Reason)
	assert.Equal(t, domain.CheckoutCommitting, view.Failure.Stage)
}

func TestCancel_AfterCommitRestoresStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)

	view, err := attempt.Commit(ctx, "efectivo", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutCommitting, view.State)
	assert.True(t, view.StockCommitted)
	assert.Equal(t, 1, stockOf(t, f.inventory, "camisa", "M"))

	view, err = attempt.Cancel(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutCancelled, view.State)
	assert.Equal(t, 3, stockOf(t, f.inventory, "camisa", "M"))
	assert.Equal(t, 10, stockOf(t, f.inventory, "gorra", ""))
	assert.True(t, f.carts.Load(ctx, "s1").IsEmpty())

	_, err = attempt.Cancel(ctx)
	var illegal *apperror.IllegalTransitionError
	assert.ErrorAs(t, err, &illegal)
}

func TestCancel_RestoreFailurePreservesCart(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)
	_, err = attempt.Commit(ctx, "efectivo", nil)
	require.NoError(t, err)

	f.inventory.FailNextBatch(errors.New("network down"))
	view, err := attempt.Cancel(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutFailed, view.State)
	assert.Equal(t, domain.CheckoutCancelling, view.Failure.Stage)
	assert.Equal(t, domain.ReasonStoreError, view.Failure.Reason)
	assert.Len(t, f.carts.Load(ctx, "s1"), 2)
	assert.Equal(t, 1, stockOf(t, f.inventory, "camisa", "M"))

	// Enquanto o estoque não volta, a sessão não abre outro checkout.
	_, err = f.coord.Begin(ctx, "s1")
	var inProgress *apperror.AlreadyInProgressError
	assert.ErrorAs(t, err, &inProgress)

	view, err = attempt.Cancel(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutCancelled, view.State)
	assert.Equal(t, 3, stockOf(t, f.inventory, "camisa", "M"))
}

func TestCancel_BeforeCommitOnlyClearsCart(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)

	view, err := attempt.Cancel(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutCancelled, view.State)
	assert.Equal(t, 3, stockOf(t, f.inventory, "camisa", "M"))
	assert.True(t, f.carts.Load(ctx, "s1").IsEmpty())
}

func TestConcurrentConfirm_RejectedWithAlreadyInProgress(t *testing.T) {
	inv := seedInventory()
	store := &blockingStore{MemoryStore: inv, entered: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, store, inv)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())
	f.recorder.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Deliver", mock.Anything, mock.Anything).Return(nil)

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)

	done := make(chan checkoutservice.View, 1)
	go func() {
		view, _ := attempt.Confirm(ctx, "efectivo", nil)
		done <- view
	}()
	<-store.entered

	_, err = attempt.Confirm(ctx, "efectivo", nil)
	var inProgress *apperror.AlreadyInProgressError
	assert.ErrorAs(t, err, &inProgress)

	_, err = f.coord.Begin(ctx, "s1")
	assert.ErrorAs(t, err, &inProgress)

	close(store.release)
	view := <-done
	assert.Equal(t, domain.CheckoutCompleted, view.State)
	assert.Equal(t, 1, stockOf(t, inv, "camisa", "M"))
}

func TestCommit_TimeoutBecomesStoreError(t *testing.T) {
	inv := seedInventory()
	guarded := inventoryrepo.NewGuarded(slowStore{MemoryStore: inv}, inventoryrepo.GuardConfig{Timeout: 20 * time.Millisecond}, logger.NewNop())
	f := newFixture(t, guarded, inv)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)

	view, err := attempt.Confirm(ctx, "efectivo", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutFailed, view.State)
	assert.Equal(t, domain.ReasonStoreError, view.Failure.Reason)
	assert.Equal(t, 3, stockOf(t, inv, "camisa", "M"))
	assert.Len(t, f.carts.Load(ctx, "s1"), 2)
}

func TestFinalize_CollaboratorFailuresBecomeWarnings(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())
	f.recorder.On("Record", mock.Anything, mock.Anything).Return(errors.New("firestore down"))
	f.notifier.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)

	view, err := attempt.Confirm(ctx, "efectivo", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutCompleted, view.State)
	assert.Empty(t, view.SaleID)
	assert.Len(t, view.Warnings, 2)
	assert.Equal(t, 1, stockOf(t, f.inventory, "camisa", "M"))
}

func TestBegin_SupersedesReviewingAttempt(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())

	first, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)
	second, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, domain.CheckoutCancelled, first.State())
	assert.Equal(t, domain.CheckoutReviewing, second.State())

	got, err := f.coord.Get("s1", second.ID)
	require.NoError(t, err)
	assert.Same(t, second, got)

	_, err = f.coord.Get("outra", second.ID)
	var notFound *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestNilCollaboratorsAreOptional(t *testing.T) {
	inv := seedInventory()
	carts := newMemCarts()
	carts.put("s1", sampleCart())
	coord := checkoutservice.NewCoordinator(checkoutservice.Dependencies{
		Carts:     carts,
		Checker:   stockservice.NewValidator(inv, logger.NewNop()),
		Inventory: inv,
	})

	attempt, err := coord.Begin(context.Background(), "s1")
	require.NoError(t, err)
	view, err := attempt.Confirm(context.Background(), "efectivo", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutCompleted, view.State)
}

func TestFinalize_KeepsLinesAddedAfterCommit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())
	f.recorder.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Deliver", mock.Anything, mock.Anything).Return(nil)

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)
	_, err = attempt.Commit(ctx, "efectivo", nil)
	require.NoError(t, err)

	// Entre o commit e a finalização a sessão inclui mais uma camisa M e uma S.
	extra := append(sampleCart(), domain.CartLineItem{ProductKey: "camisa", DisplayName: "Camisa", UnitPrice: 15, Variant: "S", Quantity: 1})
	extra[0].Quantity = 3
	f.carts.put("s1", extra)

	view, err := attempt.Finalize(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutCompleted, view.State)
	assert.Empty(t, view.Warnings)

	rest := f.carts.Load(ctx, "s1")
	require.Len(t, rest, 2)
	assert.Equal(t, "camisa", rest[0].ProductKey)
	assert.Equal(t, "M", rest[0].Variant)
	assert.Equal(t, 1, rest[0].Quantity)
	assert.Equal(t, "S", rest[1].Variant)
	assert.Equal(t, 1, rest[1].Quantity)
}

func TestCancel_KeepsLinesAddedAfterBegin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)
	_, err = attempt.Commit(ctx, "efectivo", nil)
	require.NoError(t, err)

	f.carts.put("s1", append(sampleCart(), domain.CartLineItem{ProductKey: "camisa", DisplayName: "Camisa", UnitPrice: 15, Variant: "S", Quantity: 1}))

	view, err := attempt.Cancel(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutCancelled, view.State)
	assert.Equal(t, 3, stockOf(t, f.inventory, "camisa", "M"))

	rest := f.carts.Load(ctx, "s1")
	require.Len(t, rest, 1)
	assert.Equal(t, "S", rest[0].Variant)
}

func TestFinalize_WaitsForSessionLock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())
	f.recorder.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Deliver", mock.Anything, mock.Anything).Return(nil)

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)
	_, err = attempt.Commit(ctx, "efectivo", nil)
	require.NoError(t, err)

	// Uma inclusão no carrinho segura a trava da sessão.
	unlock := f.locks.Lock("s1")
	done := make(chan checkoutservice.View, 1)
	go func() {
		view, _ := attempt.Finalize(ctx)
		done <- view
	}()

	select {
	case <-done:
		t.Fatal("a finalização não pode mexer no carrinho enquanto a sessão está travada")
	case <-time.After(30 * time.Millisecond):
	}
	f.carts.put("s1", append(sampleCart(), domain.CartLineItem{ProductKey: "gorra", DisplayName: "Gorra", UnitPrice: 8.5, Variant: "L", Quantity: 1}))
	unlock()

	view := <-done
	assert.Equal(t, domain.CheckoutCompleted, view.State)
	rest := f.carts.Load(ctx, "s1")
	require.Len(t, rest, 1)
	assert.Equal(t, "L", rest[0].Variant)
}

func TestBegin_CartReadFailureIsStoreError(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.carts.put("s1", sampleCart())
	f.carts.loadErr = apperror.NewStorageError("falha ao ler o carrinho", errors.New("redis down"))

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)
	view := attempt.View()
	assert.Equal(t, domain.CheckoutFailed, view.State)
	assert.Equal(t, domain.CheckoutReviewing, view.Failure.Stage)
	assert.Equal(t, domain.ReasonStoreError, view.Failure.Reason)
	assert.Len(t, f.carts.Load(ctx, "s1"), 2)
}

func TestPrune_DropsSettledAttemptsAfterRetention(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	f.coord.WithClock(func() time.Time { return now })
	f.carts.put("s1", sampleCart())

	attempt, err := f.coord.Begin(ctx, "s1")
	require.NoError(t, err)
	_, err = attempt.Cancel(ctx)
	require.NoError(t, err)

	now = now.Add(checkoutservice.DefaultRetention / 2)
	_, err = f.coord.Begin(ctx, "outra")
	require.NoError(t, err)
	_, err = f.coord.Get("s1", attempt.ID)
	require.NoError(t, err, "dentro da retenção a tentativa continua consultável")

	now = now.Add(checkoutservice.DefaultRetention)
	_, err = f.coord.Begin(ctx, "outra")
	require.NoError(t, err)
	_, err = f.coord.Get("s1", attempt.ID)
	var notFound *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
