package salerepo

import (
	"context"

	"cloud.google.com/go/firestore"

	"stockcart/internal/domain"
	"stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
)

// DefaultCollection é a coleção de vendas usada pela loja.
const DefaultCollection = "ventas"

// FirestoreRecorder grava vendas como documentos novos na coleção ventas.
type FirestoreRecorder struct {
	Client     *firestore.Client
	Collection string
	logger     logger.Logger
}

// NewFirestoreRecorder cria o gravador de vendas sobre o Firestore.
func NewFirestoreRecorder(client *firestore.Client, collection string, log logger.Logger) *FirestoreRecorder {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreRecorder{Client: client, Collection: collection, logger: log}
}

// Record grava a venda com o id já gerado pelo checkout.
func (r *FirestoreRecorder) Record(ctx context.Context, sale domain.Sale) error {
	_, err := r.Client.Collection(r.Collection).Doc(sale.ID).Create(ctx, SaleDocument(sale))
	if err != nil {
		r.logger.Error("Falha ao registrar venda no Firestore.", err)
		return errors.NewStoreError("falha ao registrar venda", err)
	}
	return nil
}

// SaleDocument monta o documento no formato que o painel da loja já lê.
func SaleDocument(sale domain.Sale) map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(sale.Items))
	for _, item := range sale.Items {
		subtotal, _ := item.Subtotal.Float64()
		items = append(items, map[string]interface{}{
			"id":       item.ProductKey,
			"nombre":   item.DisplayName,
			"talla":    item.Variant,
			"cantidad": item.Quantity,
			"precio":   item.UnitPrice,
			"subtotal": subtotal,
		})
	}
	total, _ := sale.Total.Float64()
	cliente := sale.CustomerMeta
	if cliente == nil {
		cliente = map[string]interface{}{}
	}
	return map[string]interface{}{
		"items":      items,
		"total":      total,
		"fecha":      sale.Timestamp,
		"cliente":    cliente,
		"metodoPago": sale.PaymentMethod,
		"estado":     sale.Status,
		"plataforma": sale.Platform,
	}
}
