package productrepo

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"stockcart/internal/domain"
	"stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
)

// DefaultCollection é a coleção de produtos da loja.
const DefaultCollection = "productos"

// FirestoreRepository lê o catálogo da coleção productos. Documentos que não
// passam pela normalização são ignorados.
type FirestoreRepository struct {
	Client     *firestore.Client
	Collection string
	logger     logger.Logger
}

// NewFirestoreRepository cria o repositório de catálogo sobre o Firestore.
func NewFirestoreRepository(client *firestore.Client, collection string, log logger.Logger) *FirestoreRepository {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreRepository{Client: client, Collection: collection, logger: log}
}

// Save grava os campos de catálogo com os nomes em espanhol. O estoque do
// mesmo documento é escrito pelo repositório de estoque e não é tocado aqui.
func (r *FirestoreRepository) Save(ctx context.Context, p domain.Product) error {
	_, err := r.Client.Collection(r.Collection).Doc(p.ID).Set(ctx, ProductFields(p), firestore.MergeAll)
	if err != nil {
		r.logger.Error("Falha ao gravar produto no Firestore", err)
		return errors.NewStoreError("falha ao gravar produto no Firestore", err)
	}
	return nil
}

// ProductFields monta o documento de catálogo lido por domain.NormalizeProduct.
func ProductFields(p domain.Product) map[string]interface{} {
	sizes := p.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	return map[string]interface{}{
		"nombre":       p.Name,
		"marca":        p.Brand,
		"descripcion":  p.Description,
		"categoria":    p.Category,
		"subcategoria": p.Subcategory,
		"precio":       p.Price,
		"imagen":       p.ImageRef,
		"tallas":       sizes,
	}
}

func (r *FirestoreRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	iter := r.Client.Collection(r.Collection).Documents(ctx)
	defer iter.Stop()

	products := make([]domain.Product, 0)
	skipped := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.NewStoreError("falha ao listar produtos no Firestore", err)
		}
		p, ok := domain.NormalizeProduct(snap.Ref.ID, snap.Data())
		if !ok {
			skipped++
			continue
		}
		products = append(products, p)
	}

	if skipped > 0 {
		r.logger.Warn("Documentos de produto inválidos ignorados", map[string]interface{}{"skipped": skipped})
	}
	return products, nil
}

func (r *FirestoreRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	snap, err := r.Client.Collection(r.Collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", id))
	}
	if err != nil {
		return domain.Product{}, errors.NewStoreError("falha ao ler produto no Firestore", err)
	}
	p, ok := domain.NormalizeProduct(snap.Ref.ID, snap.Data())
	if !ok {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s está incompleto.", id))
	}
	return p, nil
}
