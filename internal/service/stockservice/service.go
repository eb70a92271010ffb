package stockservice

import (
	"context"
	"errors"
	"strings"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
)

// DefaultLowStockLimit é o limite usado quando o relatório não recebe um.
const DefaultLowStockLimit = 5

// Service agrupa as operações administrativas de estoque.
type Service struct {
	store         InventoryStore
	logger        logger.Logger
	lowStockLimit int
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(store InventoryStore, logger logger.Logger, lowStockLimit int) *Service {
	if lowStockLimit <= 0 {
		lowStockLimit = DefaultLowStockLimit
	}
	return &Service{store: store, logger: logger, lowStockLimit: lowStockLimit}
}

// AdjustStock aplica um ajuste manual (entrada ou baixa) através do mesmo
// BatchAdjust usado pelo checkout.
func (s *Service) AdjustStock(ctx context.Context, adjustment domain.StockAdjustmentRequest) (domain.StockLevelResponse, error) {
	s.logger.Debug("Iniciando ajuste de estoque no serviço.", map[string]interface{}{
		"product_id": adjustment.ProductID,
		"variant":    adjustment.Variant,
		"delta":      adjustment.Delta,
	})

	if strings.TrimSpace(adjustment.ProductID) == "" {
		return domain.StockLevelResponse{}, apperror.NewValidationError("O id do produto é obrigatório.")
	}
	if adjustment.Delta == 0 {
		return domain.StockLevelResponse{}, apperror.NewValidationError("O ajuste de estoque (delta) não pode ser zero.")
	}

	variant := domain.NormalizeVariant(adjustment.Variant)
	if adjustment.Delta > 0 {
		// o BatchAdjust ignora entradas para produtos inexistentes
		_, found, err := s.store.GetRecord(ctx, adjustment.ProductID)
		if err != nil {
			return domain.StockLevelResponse{}, err
		}
		if !found {
			return domain.StockLevelResponse{}, apperror.NewNotFoundError("Producto no encontrado: " + adjustment.ProductID)
		}
	}

	err := s.store.BatchAdjust(ctx, []domain.StockAdjustment{{
		ProductID: adjustment.ProductID,
		Variant:   variant,
		Delta:     adjustment.Delta,
	}})
	if err != nil {
		var insufficient *apperror.InsufficientStockError
		if errors.As(err, &insufficient) {
			s.logger.Warn("Ajuste resultaria em estoque negativo.", map[string]interface{}{"product_id": adjustment.ProductID, "current": insufficient.CurrentStock})
			return domain.StockLevelResponse{}, err
		}
		s.logger.Error("Falha ao ajustar estoque.", err)
		return domain.StockLevelResponse{}, err
	}

	return s.GetStock(ctx, adjustment.ProductID, variant)
}

// GetStock lê o estoque de (produto, variante).
func (s *Service) GetStock(ctx context.Context, productID, variant string) (domain.StockLevelResponse, error) {
	variant = domain.NormalizeVariant(variant)
	record, found, err := s.store.GetRecord(ctx, productID)
	if err != nil {
		return domain.StockLevelResponse{}, err
	}
	resp := domain.StockLevelResponse{ProductID: productID, Variant: variant, Found: found}
	if found {
		resp.Stock = record.StockFor(variant)
	}
	return resp, nil
}

// LowStock lista produtos com 0 < estoque <= limite e os esgotados.
func (s *Service) LowStock(ctx context.Context, limit int) (domain.LowStockReport, error) {
	if limit <= 0 {
		limit = s.lowStockLimit
	}
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		s.logger.Error("Falha ao gerar relatório de estoque baixo.", err)
		return domain.LowStockReport{}, err
	}

	report := domain.LowStockReport{
		Limit:      limit,
		LowStock:   []domain.InventoryRecord{},
		OutOfStock: []domain.InventoryRecord{},
	}
	for _, rec := range records {
		switch {
		case rec.Stock == 0:
			report.OutOfStock = append(report.OutOfStock, rec)
		case rec.Stock > 0 && rec.Stock <= limit:
			report.LowStock = append(report.LowStock, rec)
		}
	}
	return report, nil
}
