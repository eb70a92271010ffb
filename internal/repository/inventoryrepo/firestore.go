package inventoryrepo

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"stockcart/internal/domain"
	"stockcart/internal/errors"
	fsclient "stockcart/internal/pkg/firestore"
	"stockcart/internal/pkg/logger"
)

// Nomes de campo dos documentos de produto. Os documentos antigos usam os
// nomes em espanhol; ambos são lidos e a escrita preserva o nome encontrado.
const (
	DefaultCollection = "productos"

	fieldStock          = "stock"
	fieldVariants       = "stockByVariant"
	fieldVariantsLegacy = "stockPorTalla"
	fieldLastSale       = "lastSale"
	fieldLastSaleLegacy = "ultimaVenta"
)

// FirestoreStore implementa Store sobre a coleção de produtos do Firestore.
type FirestoreStore struct {
	Client     *firestore.Client
	Collection string
	logger     logger.Logger
	now        func() time.Time
}

// NewFirestoreStore cria o acesso ao estoque no Firestore.
func NewFirestoreStore(client *firestore.Client, collection string, logger logger.Logger) *FirestoreStore {
	if strings.TrimSpace(collection) == "" {
		collection = DefaultCollection
	}
	return &FirestoreStore{Client: client, Collection: collection, logger: logger, now: time.Now}
}

func (r *FirestoreStore) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

// GetRecord lê o documento do produto.
func (r *FirestoreStore) GetRecord(ctx context.Context, productID string) (domain.InventoryRecord, bool, error) {
	snap, err := r.col().Doc(productID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.InventoryRecord{}, false, nil
		}
		r.logger.Error("Falha ao ler documento de estoque no Firestore.", err)
		return domain.InventoryRecord{}, false, errors.NewStoreError("Falha ao ler estoque no Firestore", err)
	}
	if snap == nil || !snap.Exists() {
		return domain.InventoryRecord{}, false, nil
	}
	rec, _ := RecordFromDocument(productID, snap.Data())
	return rec, true, nil
}

// ListRecords percorre toda a coleção.
func (r *FirestoreStore) ListRecords(ctx context.Context) ([]domain.InventoryRecord, error) {
	it := r.col().Documents(ctx)
	defer it.Stop()

	out := make([]domain.InventoryRecord, 0)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			r.logger.Error("Falha ao listar estoque no Firestore.", err)
			return nil, errors.NewStoreError("Falha ao listar estoque no Firestore", err)
		}
		rec, _ := RecordFromDocument(snap.Ref.ID, snap.Data())
		out = append(out, rec)
	}
	return out, nil
}

// BatchAdjust lê todos os documentos tocados e grava os novos valores numa
// única transação do Firestore.
func (r *FirestoreStore) BatchAdjust(ctx context.Context, adjustments []domain.StockAdjustment) error {
	ids, grouped := domain.GroupAdjustments(adjustments)
	if len(ids) == 0 {
		return nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.col().Doc(id))
	}

	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snaps, err := tx.GetAll(refs)
		if err != nil {
			return err
		}

		now := r.now().UTC()
		type pending struct {
			ref     *firestore.DocumentRef
			updates []firestore.Update
		}
		writes := make([]pending, 0, len(snaps))

		for i, snap := range snaps {
			id := ids[i]
			if snap == nil || !snap.Exists() {
				if hasDecrement(grouped[id]) {
					return missingRecord(id)
				}
				continue
			}
			rec, names := RecordFromDocument(id, snap.Data())
			next, err := domain.ApplyAdjustments(rec, grouped[id], now)
			if err != nil {
				return rejection(err)
			}
			writes = append(writes, pending{ref: refs[i], updates: DocumentUpdates(next, names)})
		}

		for _, w := range writes {
			if err := tx.Update(w.ref, w.updates); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var appErr errors.AppError
	if stderrors.As(err, &appErr) {
		r.logger.Warn("Lote de estoque rejeitado no Firestore.", map[string]interface{}{"category": appErr.Category()})
		return err
	}
	r.logger.Error("Falha na transação de estoque do Firestore.", err)
	return errors.NewStoreError("Falha na transação de estoque do Firestore", err)
}

// PutRecord grava o estoque do produto (cadastro ou carga inicial) mantendo os
// demais campos do documento. Documento novo usa os nomes em espanhol.
func (r *FirestoreStore) PutRecord(ctx context.Context, rec domain.InventoryRecord) error {
	ref := r.col().Doc(rec.ProductID)
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, names := RecordFromDocument(rec.ProductID, nil)
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		case snap.Exists():
			_, names = RecordFromDocument(rec.ProductID, snap.Data())
		}
		return tx.Set(ref, RecordFields(rec, names), firestore.MergeAll)
	})
	if err != nil {
		r.logger.Error("Falha ao gravar estoque no Firestore.", err)
		return errors.NewStoreError("Falha ao gravar estoque no Firestore", err)
	}
	return nil
}

// RecordFields monta o mapa para Set com MergeAll. Sem variantes, os mapas
// antigos de variante são apagados para não voltarem na próxima leitura.
func RecordFields(rec domain.InventoryRecord, names FieldNames) map[string]interface{} {
	fields := make(map[string]interface{})
	for _, u := range DocumentUpdates(rec, names) {
		fields[u.Path] = u.Value
	}
	if !rec.HasVariants() {
		fields[fieldVariants] = firestore.Delete
		fields[fieldVariantsLegacy] = firestore.Delete
	}
	return fields
}

// FieldNames guarda os nomes de campo usados pelo documento lido.
type FieldNames struct {
	Variants string
	LastSale string
}

// RecordFromDocument normaliza os campos do documento (nomes novos e antigos)
// num InventoryRecord. É o único ponto que conhece o formato armazenado.
func RecordFromDocument(id string, data map[string]interface{}) (domain.InventoryRecord, FieldNames) {
	names := FieldNames{Variants: fieldVariantsLegacy, LastSale: fieldLastSaleLegacy}
	rec := domain.InventoryRecord{ProductID: id}

	if n, ok := fsclient.AsInt(data[fieldStock]); ok {
		rec.Stock = n
	}

	for _, key := range []string{fieldVariants, fieldVariantsLegacy} {
		raw, ok := data[key].(map[string]interface{})
		if !ok {
			continue
		}
		names.Variants = key
		rec.StockByVariant = make(map[string]int, len(raw))
		for variant, v := range raw {
			n, _ := fsclient.AsInt(v)
			rec.StockByVariant[variant] = n
		}
		rec.Stock = rec.SumVariants()
		break
	}

	for _, key := range []string{fieldLastSale, fieldLastSaleLegacy} {
		if ts, ok := data[key].(time.Time); ok {
			names.LastSale = key
			t := ts
			rec.LastSale = &t
			break
		}
	}
	return rec, names
}

// DocumentUpdates monta os campos a gravar: agregado, mapa de variantes e data
// da última venda, sempre juntos.
func DocumentUpdates(rec domain.InventoryRecord, names FieldNames) []firestore.Update {
	updates := []firestore.Update{{Path: fieldStock, Value: rec.Stock}}
	if rec.HasVariants() {
		variants := make(map[string]interface{}, len(rec.StockByVariant))
		for k, v := range rec.StockByVariant {
			variants[k] = v
		}
		updates = append(updates, firestore.Update{Path: names.Variants, Value: variants})
	}
	if rec.LastSale != nil {
		updates = append(updates, firestore.Update{Path: names.LastSale, Value: *rec.LastSale})
	}
	return updates
}
