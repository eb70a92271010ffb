package stockservice

import (
	"context"
	"fmt"

	"stockcart/internal/domain"
	"stockcart/internal/pkg/logger"
)

// Mensagens exibidas na loja.
const (
	msgNotFound        = "Producto no encontrado"
	msgAvailable       = "%d unidades disponibles"
	msgOnlyLeft        = "Solo quedan %d unidades disponibles"
	msgAllAvailable    = "Todos los productos están disponibles"
	msgSomeUnavailable = "Algunos productos no tienen stock suficiente"
)

// InventoryStore é o contrato que o serviço espera do acesso ao estoque.
type InventoryStore interface {
	GetRecord(ctx context.Context, productID string) (domain.InventoryRecord, bool, error)
	BatchAdjust(ctx context.Context, adjustments []domain.StockAdjustment) error
	ListRecords(ctx context.Context) ([]domain.InventoryRecord, error)
}

// Validator compara quantidades solicitadas com o estoque remoto.
// Só lê: nunca escreve no estoque.
type Validator struct {
	store  InventoryStore
	logger logger.Logger
}

// NewValidator cria o validador.
func NewValidator(store InventoryStore, log logger.Logger) *Validator {
	return &Validator{store: store, logger: log}
}

// CheckOne verifica uma linha. Produto ausente é indisponível com estoque zero;
// falha do armazenamento volta como erro.
func (v *Validator) CheckOne(ctx context.Context, productKey, variant string, requested int) (domain.AvailabilityResult, error) {
	variant = domain.NormalizeVariant(variant)
	result := domain.AvailabilityResult{ProductKey: productKey, Variant: variant, Requested: requested}

	record, found, err := v.store.GetRecord(ctx, productKey)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}
	if !found {
		v.logger.Warn("Produto não encontrado no estoque", map[string]interface{}{"product_key": productKey})
		result.Message = msgNotFound
		return result, nil
	}

	current := record.StockFor(variant)
	result.CurrentStock = current
	result.Available = current >= requested
	if result.Available {
		result.Message = fmt.Sprintf(msgAvailable, current)
	} else {
		result.Message = fmt.Sprintf(msgOnlyLeft, current)
	}
	return result, nil
}

// CheckCart verifica cada linha de forma independente. Cada leitura observa
// o estoque no momento em que é feita; o resultado não é um snapshot único.
func (v *Validator) CheckCart(ctx context.Context, cart domain.Cart) (domain.CartValidationReport, error) {
	report := domain.CartValidationReport{
		AllAvailable: true,
		Results:      make([]domain.AvailabilityResult, 0, len(cart)),
		ValidCart:    domain.Cart{},
		InvalidLines: domain.Cart{},
	}

	for _, line := range cart {
		result, err := v.CheckOne(ctx, line.ProductKey, line.Variant, line.Quantity)
		if err != nil {
			return domain.CartValidationReport{}, err
		}
		result.DisplayName = line.DisplayName
		report.Results = append(report.Results, result)

		if result.Available {
			report.ValidCart = append(report.ValidCart, line)
		} else {
			report.AllAvailable = false
			report.InvalidLines = append(report.InvalidLines, line)
		}
	}

	if report.AllAvailable {
		report.Message = msgAllAvailable
	} else {
		report.Message = msgSomeUnavailable
	}
	return report, nil
}
