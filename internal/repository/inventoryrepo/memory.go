package inventoryrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"stockcart/internal/domain"
)

// MemoryStore implementa Store em memória. Usado no modo STORE_BACKEND=memory
// e nos testes dos serviços.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.InventoryRecord
	now     func() time.Time

	// failNext, quando definido, é devolvido pela próxima chamada de BatchAdjust
	// sem aplicar nada (simula falha do armazenamento remoto).
	failNext error
}

// NewMemoryStore cria um MemoryStore vazio.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]domain.InventoryRecord),
		now:     time.Now,
	}
}

// Put grava (ou substitui) um registro. O agregado é recalculado quando o
// registro usa o formato por variante.
func (s *MemoryStore) Put(record domain.InventoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := record.Clone()
	if rec.HasVariants() {
		rec.Stock = rec.SumVariants()
	}
	s.records[rec.ProductID] = rec
}

// PutRecord é o Put com contexto, para o cadastro de produtos.
func (s *MemoryStore) PutRecord(ctx context.Context, record domain.InventoryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Put(record)
	return nil
}

// FailNextBatch faz a próxima chamada de BatchAdjust falhar com err.
func (s *MemoryStore) FailNextBatch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// GetRecord devolve uma cópia do registro.
func (s *MemoryStore) GetRecord(ctx context.Context, productID string) (domain.InventoryRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.InventoryRecord{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[productID]
	if !ok {
		return domain.InventoryRecord{}, false, nil
	}
	return rec.Clone(), true, nil
}

// ListRecords devolve cópias de todos os registros, ordenados por id.
func (s *MemoryStore) ListRecords(ctx context.Context) ([]domain.InventoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.InventoryRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// BatchAdjust valida todo o lote antes de aplicar qualquer delta.
func (s *MemoryStore) BatchAdjust(ctx context.Context, adjustments []domain.StockAdjustment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}

	ids, grouped := domain.GroupAdjustments(adjustments)
	now := s.now()

	// Primeira passada: calcula os novos registros sem tocar no mapa
	updated := make(map[string]domain.InventoryRecord, len(ids))
	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok {
			if hasDecrement(grouped[id]) {
				return missingRecord(id)
			}
			continue
		}
		next, err := domain.ApplyAdjustments(rec, grouped[id], now)
		if err != nil {
			return rejection(err)
		}
		updated[id] = next
	}

	// Segunda passada: aplica
	for id, rec := range updated {
		s.records[id] = rec
	}
	return nil
}
