package inventoryrepo

import (
	"context"
	"errors"
	"fmt"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
)

// Store é o acesso ao estoque remoto. BatchAdjust é a única escrita e é
// atômica: ou todos os deltas são aplicados ou nenhum.
type Store interface {
	// GetRecord devolve o registro do produto; found=false quando não existe.
	GetRecord(ctx context.Context, productID string) (domain.InventoryRecord, bool, error)
	// BatchAdjust aplica todos os deltas numa única escrita atômica.
	BatchAdjust(ctx context.Context, adjustments []domain.StockAdjustment) error
	// ListRecords devolve todos os registros (relatório de estoque baixo).
	ListRecords(ctx context.Context) ([]domain.InventoryRecord, error)
}

// Writer grava o registro inteiro do produto. Só o cadastro de produtos e a
// carga inicial usam; as vendas passam sempre por BatchAdjust.
type Writer interface {
	PutRecord(ctx context.Context, rec domain.InventoryRecord) error
}

// ReadStock resolve o estoque relevante para (produto, variante).
// Registro ausente devolve Found=false e Stock=0.
func ReadStock(ctx context.Context, store Store, productID, variant string) (domain.StockReading, error) {
	record, found, err := store.GetRecord(ctx, productID)
	if err != nil {
		return domain.StockReading{}, err
	}
	if !found {
		return domain.StockReading{Stock: 0, Found: false}, nil
	}
	return domain.StockReading{Stock: record.StockFor(variant), Found: true}, nil
}

// rejection traduz a falha de domínio de um lote para o erro tipado da aplicação.
func rejection(err error) error {
	var negative *domain.NegativeStockError
	if errors.As(err, &negative) {
		return apperror.NewInsufficientStockError(
			negative.ProductID,
			negative.Variant,
			negative.Current,
			fmt.Sprintf("ajuste de %d deixaria %s/%s negativo", negative.Delta, negative.ProductID, negative.Variant),
		)
	}
	return err
}

// hasDecrement informa se algum delta do produto é negativo.
func hasDecrement(adjustments []domain.StockAdjustment) bool {
	for _, adj := range adjustments {
		if adj.Delta < 0 {
			return true
		}
	}
	return false
}

func missingRecord(productID string) error {
	return apperror.NewNotFoundError(fmt.Sprintf("Producto no encontrado: %s", productID))
}
