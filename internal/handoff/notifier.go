package handoff

import (
	"context"
	"errors"

	"stockcart/internal/domain"
	"stockcart/internal/pkg/logger"
)

// Notifier entrega o payload a um canal.
type Notifier interface {
	Deliver(ctx context.Context, payload domain.HandoffPayload) error
}

// LinkNotifier só registra o link de WhatsApp; o cliente abre o link.
type LinkNotifier struct {
	number string
	logger logger.Logger
}

// NewLinkNotifier cria o notificador de link.
func NewLinkNotifier(number string, log logger.Logger) *LinkNotifier {
	if number == "" {
		number = DefaultWhatsAppNumber
	}
	return &LinkNotifier{number: number, logger: log}
}

func (n *LinkNotifier) Deliver(_ context.Context, payload domain.HandoffPayload) error {
	n.logger.Info("Pedido pronto para WhatsApp", map[string]interface{}{
		"total": payload.Total.StringFixed(2),
		"units": payload.TotalUnits,
		"url":   Link(n.number, payload),
	})
	return nil
}

// Chain entrega para todos os canais e junta as falhas.
type Chain []Notifier

func (c Chain) Deliver(ctx context.Context, payload domain.HandoffPayload) error {
	var errs []error
	for _, n := range c {
		if err := n.Deliver(ctx, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
