package checkoutservice

import (
	"context"

	"stockcart/internal/domain"
)

// CartStore é o contrato de persistência do carrinho usado pelo checkout.
// LoadStrict devolve erro quando o armazenamento falha, para que o checkout
// nunca confunda falha de leitura com carrinho vazio.
type CartStore interface {
	LoadStrict(ctx context.Context, sessionID string) (domain.Cart, error)
	Save(ctx context.Context, sessionID string, cart domain.Cart) error
	Clear(ctx context.Context, sessionID string) error
}

// CartChecker revalida o carrinho contra o estoque.
type CartChecker interface {
	CheckCart(ctx context.Context, cart domain.Cart) (domain.CartValidationReport, error)
}

// InventoryStore aplica os lotes de baixa e restauração.
type InventoryStore interface {
	BatchAdjust(ctx context.Context, adjustments []domain.StockAdjustment) error
}

// SaleRecorder grava o registro de venda. Falhas não desfazem a compra.
type SaleRecorder interface {
	Record(ctx context.Context, sale domain.Sale) error
}

// Notifier entrega o pedido confirmado ao canal externo.
type Notifier interface {
	Deliver(ctx context.Context, payload domain.HandoffPayload) error
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, domain.Sale) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Deliver(context.Context, domain.HandoffPayload) error { return nil }
