package domain

import (
	"fmt"
	"sort"
	"time"
)

// InventoryRecord é o documento remoto de estoque de um produto.
// Quando StockByVariant != nil, Stock é sempre a soma dos valores do mapa.
type InventoryRecord struct {
	ProductID      string         `json:"productId"`
	Stock          int            `json:"stock"`
	StockByVariant map[string]int `json:"stockByVariant,omitempty"`
	LastSale       *time.Time     `json:"lastSale,omitempty"`
}

// HasVariants informa se o registro usa o formato por variante.
func (r InventoryRecord) HasVariants() bool {
	return r.StockByVariant != nil
}

// StockFor resolve o estoque relevante: por variante quando o registro tem
// esse formato, senão o agregado. Variante ausente no mapa vale zero.
func (r InventoryRecord) StockFor(variant string) int {
	if r.HasVariants() {
		return r.StockByVariant[NormalizeVariant(variant)]
	}
	return r.Stock
}

// Clone copia o mapa de variantes.
func (r InventoryRecord) Clone() InventoryRecord {
	out := r
	if r.StockByVariant != nil {
		out.StockByVariant = make(map[string]int, len(r.StockByVariant))
		for k, v := range r.StockByVariant {
			out.StockByVariant[k] = v
		}
	}
	if r.LastSale != nil {
		ts := *r.LastSale
		out.LastSale = &ts
	}
	return out
}

// SumVariants recalcula o agregado a partir do mapa.
func (r InventoryRecord) SumVariants() int {
	total := 0
	for _, v := range r.StockByVariant {
		total += v
	}
	return total
}

// StockAdjustment é um delta de estoque para um produto/variante.
type StockAdjustment struct {
	ProductID string `json:"productId"`
	Variant   string `json:"variant"`
	Delta     int    `json:"delta"`
}

// StockReading é o resultado de readStock.
type StockReading struct {
	Stock int  `json:"stock"`
	Found bool `json:"found"`
}

// NegativeStockError indica que aplicar o lote deixaria estoque negativo.
type NegativeStockError struct {
	ProductID string
	Variant   string
	Current   int
	Delta     int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("estoque negativo para %s/%s: atual %d, delta %d", e.ProductID, e.Variant, e.Current, e.Delta)
}

// GroupAdjustments agrupa os deltas por produto, preservando a ordem por id.
// A ordem estável evita deadlocks quando o backend trava linhas.
func GroupAdjustments(adjustments []StockAdjustment) ([]string, map[string][]StockAdjustment) {
	grouped := make(map[string][]StockAdjustment)
	for _, adj := range adjustments {
		grouped[adj.ProductID] = append(grouped[adj.ProductID], adj)
	}
	ids := make([]string, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, grouped
}

// ApplyAdjustments aplica os deltas de um único produto sobre uma cópia do
// registro. Verifica antes de escrever: qualquer resultado negativo rejeita
// tudo e o registro original não muda. No formato por variante o agregado é
// recalculado a partir do mapa.
func ApplyAdjustments(record InventoryRecord, adjustments []StockAdjustment, now time.Time) (InventoryRecord, error) {
	out := record.Clone()
	decremented := false

	for _, adj := range adjustments {
		if adj.Delta < 0 {
			decremented = true
		}
		if out.HasVariants() {
			variant := NormalizeVariant(adj.Variant)
			current := out.StockByVariant[variant]
			next := current + adj.Delta
			if next < 0 {
				return record, &NegativeStockError{ProductID: record.ProductID, Variant: variant, Current: current, Delta: adj.Delta}
			}
			out.StockByVariant[variant] = next
			continue
		}

		next := out.Stock + adj.Delta
		if next < 0 {
			return record, &NegativeStockError{ProductID: record.ProductID, Variant: adj.Variant, Current: out.Stock, Delta: adj.Delta}
		}
		out.Stock = next
	}

	if out.HasVariants() {
		out.Stock = out.SumVariants()
	}
	if decremented {
		ts := now
		out.LastSale = &ts
	}
	return out, nil
}

// AvailabilityResult é o resultado da verificação de uma linha.
type AvailabilityResult struct {
	ProductKey   string `json:"productKey"`
	DisplayName  string `json:"displayName,omitempty"`
	Variant      string `json:"variant"`
	Requested    int    `json:"requested"`
	Available    bool   `json:"available"`
	CurrentStock int    `json:"currentStock"`
	Message      string `json:"message"`
}

// CartValidationReport agrega os resultados por linha e o carrinho corrigido.
type CartValidationReport struct {
	AllAvailable bool                 `json:"allAvailable"`
	Results      []AvailabilityResult `json:"perLineResults"`
	ValidCart    Cart                 `json:"validCart"`
	InvalidLines Cart                 `json:"invalidLines"`
	Message      string               `json:"message"`
}

// LowStockReport lista produtos com pouco estoque e esgotados.
type LowStockReport struct {
	Limit      int               `json:"limit"`
	LowStock   []InventoryRecord `json:"lowStock"`
	OutOfStock []InventoryRecord `json:"outOfStock"`
}
