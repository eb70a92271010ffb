package inventoryrepo

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/sony/gobreaker"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
)

// GuardConfig controla o timeout por chamada e o circuit breaker.
type GuardConfig struct {
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Guarded decora um Store com timeout por chamada e circuit breaker. Toda
// falha de infraestrutura sai como *apperror.StoreError; rejeições de negócio
// (estoque insuficiente, produto ausente) passam intactas e não abrem o circuito.
type Guarded struct {
	next    Store
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
	logger  logger.Logger
}

// NewGuarded cria o decorador.
func NewGuarded(next Store, cfg GuardConfig, log logger.Logger) *Guarded {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:        "inventory-store",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// Cancelamento pelo chamador (cliente desconectou) não diz nada sobre a
		// saúde do armazenamento e não conta como falha.
		IsSuccessful: func(err error) bool {
			return err == nil || isBusinessRejection(err) || stderrors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker do estoque mudou de estado", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}

	return &Guarded{
		next:    next,
		timeout: cfg.Timeout,
		cb:      gobreaker.NewCircuitBreaker(st),
		logger:  log,
	}
}

// GetRecord delega com timeout e breaker.
func (g *Guarded) GetRecord(ctx context.Context, productID string) (domain.InventoryRecord, bool, error) {
	type result struct {
		rec   domain.InventoryRecord
		found bool
	}
	out, err := g.execute(ctx, "GetRecord", func(ctx context.Context) (interface{}, error) {
		rec, found, err := g.next.GetRecord(ctx, productID)
		return result{rec: rec, found: found}, err
	})
	if err != nil {
		return domain.InventoryRecord{}, false, err
	}
	res := out.(result)
	return res.rec, res.found, nil
}

// BatchAdjust delega com timeout e breaker.
func (g *Guarded) BatchAdjust(ctx context.Context, adjustments []domain.StockAdjustment) error {
	_, err := g.execute(ctx, "BatchAdjust", func(ctx context.Context) (interface{}, error) {
		return nil, g.next.BatchAdjust(ctx, adjustments)
	})
	return err
}

// ListRecords delega com timeout e breaker.
func (g *Guarded) ListRecords(ctx context.Context) ([]domain.InventoryRecord, error) {
	out, err := g.execute(ctx, "ListRecords", func(ctx context.Context) (interface{}, error) {
		return g.next.ListRecords(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]domain.InventoryRecord), nil
}

// PutRecord delega com timeout e breaker quando o armazenamento aceita escrita
// de registro inteiro.
func (g *Guarded) PutRecord(ctx context.Context, rec domain.InventoryRecord) error {
	w, ok := g.next.(Writer)
	if !ok {
		return apperror.NewStoreError("o armazenamento de estoque não aceita cadastro", nil)
	}
	_, err := g.execute(ctx, "PutRecord", func(ctx context.Context) (interface{}, error) {
		return nil, w.PutRecord(ctx, rec)
	})
	return err
}

func (g *Guarded) execute(ctx context.Context, op string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); stderrors.Is(err, context.Canceled) {
		return nil, apperror.NewStoreError("operação de estoque cancelada", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.cb.Execute(func() (interface{}, error) {
		return fn(callCtx)
	})
	if err == nil {
		return out, nil
	}
	if isBusinessRejection(err) {
		return nil, err
	}

	var storeErr *apperror.StoreError
	if stderrors.As(err, &storeErr) {
		return nil, err
	}

	switch {
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		g.logger.Warn("Estoque indisponível: circuito aberto", map[string]interface{}{"op": op})
		return nil, apperror.NewStoreError("circuito aberto para o armazenamento de estoque", err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return nil, apperror.NewStoreError("tempo esgotado ao acessar o estoque", err)
	case stderrors.Is(err, context.Canceled):
		return nil, apperror.NewStoreError("operação de estoque cancelada", err)
	default:
		g.logger.Error("Falha no armazenamento de estoque", err)
		return nil, apperror.NewStoreError("falha ao acessar o estoque", err)
	}
}

func isBusinessRejection(err error) bool {
	var insufficient *apperror.InsufficientStockError
	var notFound *apperror.NotFoundError
	return stderrors.As(err, &insufficient) || stderrors.As(err, &notFound)
}
