package productrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"stockcart/internal/domain"
	"stockcart/internal/errors"
)

// StockSource fornece o estoque atual; no backend em memória é o próprio
// MemoryStore do estoque.
type StockSource interface {
	ListRecords(ctx context.Context) ([]domain.InventoryRecord, error)
}

// MemoryRepository guarda o catálogo em memória e cruza com o estoque.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	stock    StockSource
}

// NewMemoryRepository cria o catálogo em memória. stock pode ser nil.
func NewMemoryRepository(stock StockSource) *MemoryRepository {
	return &MemoryRepository{products: make(map[string]domain.Product), stock: stock}
}

// Put grava um produto.
func (r *MemoryRepository) Put(p domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

// Save grava o produto; o estoque continua vindo do StockSource.
func (r *MemoryRepository) Save(ctx context.Context, p domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.Put(p)
	return nil
}

func (r *MemoryRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	levels, err := r.levels(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, withStock(p, levels))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	p, ok := r.products[id]
	r.mu.RUnlock()
	if !ok {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", id))
	}
	levels, err := r.levels(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	return withStock(p, levels), nil
}

func (r *MemoryRepository) levels(ctx context.Context) (map[string]int, error) {
	if r.stock == nil {
		return nil, nil
	}
	records, err := r.stock.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(records))
	for _, rec := range records {
		out[rec.ProductID] = rec.Stock
	}
	return out, nil
}

func withStock(p domain.Product, levels map[string]int) domain.Product {
	if levels != nil {
		p.Stock = levels[p.ID]
	}
	p.Available = p.Stock > 0
	return p
}
