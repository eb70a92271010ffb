package checkoutservice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
	"stockcart/internal/pkg/sessionlock"
)

// DefaultRetention é quanto tempo uma tentativa encerrada continua consultável.
const DefaultRetention = time.Hour

// Dependencies agrupa os colaboradores do coordenador. Recorder e Notifier
// são opcionais. Locks deve ser o mesmo conjunto de travas do serviço de
// carrinho; nil cria um conjunto próprio.
type Dependencies struct {
	Carts     CartStore
	Checker   CartChecker
	Inventory InventoryStore
	Recorder  SaleRecorder
	Notifier  Notifier
	Locks     *sessionlock.Locks
	Logger    logger.Logger
}

// Coordinator conduz as tentativas de compra e mantém o registro por sessão.
type Coordinator struct {
	carts     CartStore
	checker   CartChecker
	inventory InventoryStore
	recorder  SaleRecorder
	notifier  Notifier
	locks     *sessionlock.Locks
	logger    logger.Logger

	now       func() time.Time
	newID     func() string
	retention time.Duration

	mu        sync.Mutex
	byID      map[string]*Attempt
	bySession map[string]*Attempt
}

// NewCoordinator cria o coordenador.
func NewCoordinator(deps Dependencies) *Coordinator {
	c := &Coordinator{
		carts:     deps.Carts,
		checker:   deps.Checker,
		inventory: deps.Inventory,
		recorder:  deps.Recorder,
		notifier:  deps.Notifier,
		locks:     deps.Locks,
		logger:    deps.Logger,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		retention: DefaultRetention,
		byID:      make(map[string]*Attempt),
		bySession: make(map[string]*Attempt),
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.logger == nil {
		c.logger = logger.NewNop()
	}
	if c.locks == nil {
		c.locks = sessionlock.New()
	}
	return c
}

// WithClock troca o relógio (testes).
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// Begin abre uma tentativa para a sessão. Se a sessão já tem uma tentativa
// ocupada ou com estoque baixado e não finalizado, devolve AlreadyInProgress.
// Uma tentativa anterior ainda em revisão (ou que falhou antes de baixar
// estoque) é substituída.
func (c *Coordinator) Begin(ctx context.Context, sessionID string) (*Attempt, error) {
	c.mu.Lock()
	c.pruneLocked()
	if prev, ok := c.bySession[sessionID]; ok {
		if err := c.supersedeLocked(prev); err != nil {
			c.mu.Unlock()
			return nil, err
		}
	}

	now := c.now()
	a := &Attempt{
		ID:        c.newID(),
		SessionID: sessionID,
		coord:     c,
		state:     domain.CheckoutIdle,
		busy:      true,
		createdAt: now,
		updatedAt: now,
	}
	c.byID[a.ID] = a
	c.bySession[sessionID] = a
	c.mu.Unlock()
	defer a.release()

	cart, err := c.readCart(ctx, sessionID)
	if err != nil {
		c.logger.Error("Falha ao ler o carrinho no início do checkout", err)
		a.fail(domain.CheckoutReviewing, domain.ReasonStoreError, err.Error())
		return a, nil
	}
	a.mu.Lock()
	a.cart = cart.Clone()
	a.mu.Unlock()

	if cart.IsEmpty() {
		a.fail(domain.CheckoutReviewing, domain.ReasonEmptyCart, "o carrinho está vazio")
		c.logger.Info("Checkout iniciado com carrinho vazio", map[string]interface{}{"checkout_id": a.ID, "session_id": sessionID})
		return a, nil
	}

	a.transition(domain.CheckoutReviewing)
	c.logger.Info("Checkout iniciado", map[string]interface{}{
		"checkout_id": a.ID,
		"session_id":  sessionID,
		"lines":       len(cart),
		"total":       cart.Total().String(),
	})
	return a, nil
}

// supersedeLocked encerra a tentativa anterior da sessão quando isso é seguro.
func (c *Coordinator) supersedeLocked(prev *Attempt) error {
	prev.mu.Lock()
	defer prev.mu.Unlock()

	if prev.state.IsTerminal() {
		return nil
	}
	if !prev.settledLocked() {
		return apperror.NewAlreadyInProgressError("já existe um checkout em andamento para este carrinho")
	}
	switch prev.state {
	case domain.CheckoutReviewing, domain.CheckoutFailed, domain.CheckoutIdle:
		prev.state = domain.CheckoutCancelled
		prev.failure = nil
		prev.updatedAt = c.now()
		c.logger.Debug("Checkout anterior substituído", map[string]interface{}{"checkout_id": prev.ID})
		return nil
	}
	return apperror.NewAlreadyInProgressError("já existe um checkout em andamento para este carrinho")
}

// pruneLocked descarta tentativas encerradas há mais tempo que a retenção.
func (c *Coordinator) pruneLocked() {
	cutoff := c.now().Add(-c.retention)
	for id, a := range c.byID {
		a.mu.Lock()
		stale := a.state.IsTerminal() && a.updatedAt.Before(cutoff)
		a.mu.Unlock()
		if !stale {
			continue
		}
		delete(c.byID, id)
		if c.bySession[a.SessionID] == a {
			delete(c.bySession, a.SessionID)
		}
	}
}

// Get devolve a tentativa pelo id, restrita à sessão dona.
func (c *Coordinator) Get(sessionID, id string) (*Attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.byID[id]
	if !ok || a.SessionID != sessionID {
		return nil, apperror.NewNotFoundError("checkout " + id)
	}
	return a, nil
}

// Confirm executa Commit e, se o estoque foi baixado, Finalize.
func (a *Attempt) Confirm(ctx context.Context, paymentMethod string, customerMeta map[string]interface{}) (View, error) {
	view, err := a.Commit(ctx, paymentMethod, customerMeta)
	if err != nil || !view.StockCommitted || view.State == domain.CheckoutFailed {
		return view, err
	}
	return a.Finalize(ctx)
}

// Commit revalida o carrinho e baixa o estoque num único lote. Falhas de
// revalidação ou do armazenamento deixam a tentativa em FAILED e não são
// devolvidas como erro; o erro fica para rejeições de pré-condição.
func (a *Attempt) Commit(ctx context.Context, paymentMethod string, customerMeta map[string]interface{}) (View, error) {
	if err := a.acquire("commit"); err != nil {
		return a.View(), err
	}
	defer a.release()
	c := a.coord

	a.mu.Lock()
	if a.committed && a.state == domain.CheckoutCommitting {
		v := a.viewLocked()
		a.mu.Unlock()
		return v, nil
	}
	if !a.canCommitLocked() {
		from := a.state.String()
		v := a.viewLocked()
		a.mu.Unlock()
		return v, apperror.NewIllegalTransitionError(from, "commit")
	}
	if paymentMethod == "" {
		v := a.viewLocked()
		a.mu.Unlock()
		return v, apperror.NewNoPaymentMethodError()
	}
	a.paymentMethod = paymentMethod
	a.customerMeta = customerMeta
	a.report = nil
	a.mu.Unlock()

	a.transition(domain.CheckoutRevalidating)
	cart, err := c.readCart(ctx, a.SessionID)
	if err != nil {
		c.logger.Error("Falha ao ler o carrinho na revalidação", err)
		a.fail(domain.CheckoutRevalidating, domain.ReasonStoreError, err.Error())
		return a.View(), nil
	}
	a.mu.Lock()
	a.cart = cart.Clone()
	a.mu.Unlock()

	if cart.IsEmpty() {
		a.fail(domain.CheckoutRevalidating, domain.ReasonEmptyCart, "o carrinho está vazio")
		return a.View(), nil
	}

	report, err := c.checker.CheckCart(ctx, cart)
	if err != nil {
		c.logger.Error("Falha ao revalidar o carrinho no checkout", err)
		a.fail(domain.CheckoutRevalidating, domain.ReasonStoreError, err.Error())
		return a.View(), nil
	}
	if !report.AllAvailable {
		a.mu.Lock()
		a.report = &report
		a.mu.Unlock()
		a.fail(domain.CheckoutRevalidating, domain.ReasonStockChanged, report.Message)
		c.logger.Warn("Estoque alterado durante o checkout", map[string]interface{}{
			"checkout_id":   a.ID,
			"invalid_lines": len(report.InvalidLines),
		})
		return a.View(), nil
	}

	a.transition(domain.CheckoutCommitting)
	if err := c.inventory.BatchAdjust(ctx, deltas(cart, -1)); err != nil {
		reason := domain.ReasonStoreError
		if isStockRejection(err) {
			reason = domain.ReasonStockChanged
		}
		c.logger.Error("Falha ao baixar estoque no checkout", err)
		a.fail(domain.CheckoutCommitting, reason, err.Error())
		return a.View(), nil
	}

	a.mu.Lock()
	a.committed = true
	a.decremented = deltas(cart, 1)
	a.updatedAt = c.now()
	v := a.viewLocked()
	a.mu.Unlock()

	c.logger.Info("Estoque baixado no checkout", map[string]interface{}{
		"checkout_id": a.ID,
		"lines":       len(cart),
		"units":       cart.TotalUnits(),
	})
	return v, nil
}

// Finalize grava a venda, entrega o pedido e tira do carrinho o que foi
// vendido. As três etapas são best-effort: falhas viram avisos na tentativa.
func (a *Attempt) Finalize(ctx context.Context) (View, error) {
	if err := a.acquire("finalize"); err != nil {
		return a.View(), err
	}
	defer a.release()
	c := a.coord

	a.mu.Lock()
	if !a.committed || a.state != domain.CheckoutCommitting {
		from := a.state.String()
		v := a.viewLocked()
		a.mu.Unlock()
		return v, apperror.NewIllegalTransitionError(from, "finalize")
	}
	cart := a.cart.Clone()
	paymentMethod := a.paymentMethod
	meta := a.customerMeta
	a.mu.Unlock()

	now := c.now()
	sale := domain.NewSale(c.newID(), cart, paymentMethod, meta, now)
	if err := c.recorder.Record(ctx, sale); err != nil {
		c.logger.Error("Falha ao registrar venda", err)
		a.warn("venda não registrada: " + err.Error())
	} else {
		a.mu.Lock()
		a.saleID = sale.ID
		a.mu.Unlock()
	}

	payload := domain.NewHandoffPayload(cart, paymentMethod, now)
	if err := c.notifier.Deliver(ctx, payload); err != nil {
		c.logger.Error("Falha ao entregar o pedido", err)
		a.warn("pedido não entregue: " + err.Error())
	}

	if err := c.removeLines(ctx, a.SessionID, cart); err != nil {
		c.logger.Error("Falha ao limpar o carrinho após o checkout", err)
		a.warn("carrinho não foi limpo: " + err.Error())
	}

	a.mu.Lock()
	a.handoff = &payload
	a.mu.Unlock()
	a.transition(domain.CheckoutCompleted)

	c.logger.Info("Checkout concluído", map[string]interface{}{
		"checkout_id": a.ID,
		"sale_id":     sale.ID,
		"total":       payload.Total.String(),
	})
	return a.View(), nil
}

// Cancel restaura o estoque baixado por esta tentativa e tira do carrinho as
// linhas dela. Linhas incluídas depois do início da tentativa ficam.
// Se a restauração falhar, a tentativa fica em FAILED{CANCELLING} e o
// carrinho é preservado; Cancel pode ser repetido.
func (a *Attempt) Cancel(ctx context.Context) (View, error) {
	if err := a.acquire("cancel"); err != nil {
		return a.View(), err
	}
	defer a.release()
	c := a.coord

	a.mu.Lock()
	if a.state.IsTerminal() {
		from := a.state.String()
		v := a.viewLocked()
		a.mu.Unlock()
		return v, apperror.NewIllegalTransitionError(from, "cancel")
	}
	restore := append([]domain.StockAdjustment(nil), a.decremented...)
	cart := a.cart.Clone()
	a.mu.Unlock()

	a.transition(domain.CheckoutCancelling)
	if len(restore) > 0 {
		if err := c.inventory.BatchAdjust(ctx, restore); err != nil {
			c.logger.Error("Falha ao restaurar estoque no cancelamento", err)
			a.fail(domain.CheckoutCancelling, domain.ReasonStoreError, err.Error())
			return a.View(), nil
		}
		a.mu.Lock()
		a.decremented = nil
		a.committed = false
		a.mu.Unlock()
		c.logger.Info("Estoque restaurado", map[string]interface{}{"checkout_id": a.ID, "lines": len(restore)})
	}

	if err := c.removeLines(ctx, a.SessionID, cart); err != nil {
		c.logger.Error("Falha ao limpar o carrinho no cancelamento", err)
		a.warn("carrinho não foi limpo: " + err.Error())
	}
	a.transition(domain.CheckoutCancelled)
	return a.View(), nil
}

// readCart lê o carrinho sob a trava da sessão, a mesma do serviço de carrinho.
func (c *Coordinator) readCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	unlock := c.locks.Lock(sessionID)
	defer unlock()
	return c.carts.LoadStrict(ctx, sessionID)
}

// removeLines relê o carrinho sob a trava da sessão e desconta as linhas da
// tentativa. O que foi incluído depois continua no carrinho.
func (c *Coordinator) removeLines(ctx context.Context, sessionID string, lines domain.Cart) error {
	unlock := c.locks.Lock(sessionID)
	defer unlock()

	current, err := c.carts.LoadStrict(ctx, sessionID)
	if err != nil {
		return err
	}
	rest := current.Minus(lines)
	if rest.IsEmpty() {
		return c.carts.Clear(ctx, sessionID)
	}
	c.logger.Debug("Carrinho mantém linhas incluídas durante o checkout", map[string]interface{}{
		"session_id": sessionID,
		"lines":      len(rest),
	})
	return c.carts.Save(ctx, sessionID, rest)
}

// deltas monta um ajuste por linha com o sinal informado.
func deltas(cart domain.Cart, sign int) []domain.StockAdjustment {
	out := make([]domain.StockAdjustment, 0, len(cart))
	for _, line := range cart {
		out = append(out, domain.StockAdjustment{
			ProductID: line.ProductKey,
			Variant:   line.Variant,
			Delta:     sign * line.Quantity,
		})
	}
	return out
}

// isStockRejection separa a rejeição de negócio (estoque negativo ou produto
// sumido) das falhas de infraestrutura.
func isStockRejection(err error) bool {
	_, category, _ := apperror.MapToHTTPStatus(err)
	return category == apperror.CategoryInsufficientStock || category == apperror.CategoryNotFound
}
