package salerepo

import (
	"context"
	"sync"

	"stockcart/internal/domain"
)

// MemoryRecorder guarda as vendas em memória (backend "memory" e testes).
type MemoryRecorder struct {
	mu    sync.Mutex
	sales []domain.Sale
}

// NewMemoryRecorder cria um gravador vazio.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(_ context.Context, sale domain.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales = append(r.sales, sale)
	return nil
}

// Sales devolve uma cópia das vendas registradas.
func (r *MemoryRecorder) Sales() []domain.Sale {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Sale(nil), r.sales...)
}
