package checkoutservice

import (
	"fmt"
	"sync"
	"time"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
)

// Attempt é uma tentativa de compra. Guarda o carrinho revalidado e as linhas
// que ela mesma baixou no estoque; nada disso é global.
type Attempt struct {
	ID        string
	SessionID string

	coord *Coordinator

	mu            sync.Mutex
	busy          bool
	state         domain.CheckoutState
	failure       *domain.CheckoutFailure
	cart          domain.Cart
	report        *domain.CartValidationReport
	decremented   []domain.StockAdjustment
	committed     bool
	paymentMethod string
	customerMeta  map[string]interface{}
	saleID        string
	handoff       *domain.HandoffPayload
	warnings      []string
	createdAt     time.Time
	updatedAt     time.Time
}

// View é a fotografia imutável de uma tentativa.
type View struct {
	ID             string                       `json:"id"`
	SessionID      string                       `json:"sessionId"`
	State          domain.CheckoutState         `json:"state"`
	Failure        *domain.CheckoutFailure      `json:"failure,omitempty"`
	Cart           domain.Cart                  `json:"cart"`
	Report         *domain.CartValidationReport `json:"report,omitempty"`
	StockCommitted bool                         `json:"stockCommitted"`
	PaymentMethod  string                       `json:"paymentMethod,omitempty"`
	SaleID         string                       `json:"saleId,omitempty"`
	Handoff        *domain.HandoffPayload       `json:"handoff,omitempty"`
	Warnings       []string                     `json:"warnings,omitempty"`
	CreatedAt      time.Time                    `json:"createdAt"`
	UpdatedAt      time.Time                    `json:"updatedAt"`
}

// View devolve o estado atual.
func (a *Attempt) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewLocked()
}

func (a *Attempt) viewLocked() View {
	v := View{
		ID:             a.ID,
		SessionID:      a.SessionID,
		State:          a.state,
		Cart:           a.cart.Clone(),
		StockCommitted: a.committed,
		PaymentMethod:  a.paymentMethod,
		SaleID:         a.saleID,
		Warnings:       append([]string(nil), a.warnings...),
		CreatedAt:      a.createdAt,
		UpdatedAt:      a.updatedAt,
	}
	if a.failure != nil {
		f := *a.failure
		v.Failure = &f
	}
	if a.report != nil {
		r := *a.report
		v.Report = &r
	}
	if a.handoff != nil {
		h := *a.handoff
		v.Handoff = &h
	}
	return v
}

// State devolve o estado atual.
func (a *Attempt) State() domain.CheckoutState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// acquire marca a tentativa como ocupada. Uma segunda operação concorrente
// recebe AlreadyInProgress em vez de intercalar.
func (a *Attempt) acquire(op string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy {
		return apperror.NewAlreadyInProgressError(fmt.Sprintf("checkout %s já está executando uma operação (%s)", a.ID, op))
	}
	a.busy = true
	return nil
}

func (a *Attempt) release() {
	a.mu.Lock()
	a.busy = false
	a.mu.Unlock()
}

// transition muda o estado e limpa a falha anterior.
func (a *Attempt) transition(to domain.CheckoutState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = to
	a.failure = nil
	a.updatedAt = a.coord.now()
}

func (a *Attempt) fail(stage domain.CheckoutState, reason domain.FailureReason, detail string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = domain.CheckoutFailed
	a.failure = &domain.CheckoutFailure{Stage: stage, Reason: reason, Detail: detail}
	a.updatedAt = a.coord.now()
}

func (a *Attempt) warn(msg string) {
	a.mu.Lock()
	a.warnings = append(a.warnings, msg)
	a.mu.Unlock()
}

// holdsStockLocked informa se a tentativa baixou estoque que ainda não foi
// restaurado nem finalizado.
func (a *Attempt) holdsStockLocked() bool {
	return a.committed && !a.state.IsTerminal()
}

// settledLocked: nada em voo e nenhum estoque preso. Uma nova tentativa pode
// substituir esta.
func (a *Attempt) settledLocked() bool {
	return !a.busy && !a.holdsStockLocked()
}

// canCommitLocked: revisão, ou falha recuperável antes de qualquer baixa.
func (a *Attempt) canCommitLocked() bool {
	if a.committed {
		return false
	}
	switch a.state {
	case domain.CheckoutReviewing:
		return true
	case domain.CheckoutFailed:
		return a.failure != nil &&
			(a.failure.Stage == domain.CheckoutRevalidating || a.failure.Stage == domain.CheckoutCommitting)
	}
	return false
}
