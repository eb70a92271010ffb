package inventoryrepo_test

import (
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"

	"stockcart/internal/domain"
	"stockcart/internal/repository/inventoryrepo"
)

func TestRecordFromDocument_LegacyFields(t *testing.T) {
	sold := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rec, names := inventoryrepo.RecordFromDocument("p1", map[string]interface{}{
		"nombre":        "Camisa",
		"stock":         int64(99), // desatualizado, recalculado a partir do mapa
		"stockPorTalla": map[string]interface{}{"S": int64(1), "M": int64(4)},
		"ultimaVenta":   sold,
	})

	assert.Equal(t, "p1", rec.ProductID)
	assert.Equal(t, map[string]int{"S": 1, "M": 4}, rec.StockByVariant)
	assert.Equal(t, 5, rec.Stock)
	assert.Equal(t, sold, *rec.LastSale)
	assert.Equal(t, inventoryrepo.FieldNames{Variants: "stockPorTalla", LastSale: "ultimaVenta"}, names)
}

func TestRecordFromDocument_AggregateOnly(t *testing.T) {
	rec, _ := inventoryrepo.RecordFromDocument("p2", map[string]interface{}{"stock": float64(7)})
	assert.False(t, rec.HasVariants())
	assert.Equal(t, 7, rec.Stock)
	assert.Nil(t, rec.LastSale)
}

func TestDocumentUpdates_WritesAllFieldsTogether(t *testing.T) {
	now := time.Now().UTC()
	rec := domain.InventoryRecord{ProductID: "p1", Stock: 3, StockByVariant: map[string]int{"M": 3}, LastSale: &now}

	updates := inventoryrepo.DocumentUpdates(rec, inventoryrepo.FieldNames{Variants: "stockByVariant", LastSale: "lastSale"})
	paths := make(map[string]interface{})
	for _, u := range updates {
		paths[u.Path] = u.Value
	}
	assert.Equal(t, 3, paths["stock"])
	assert.Equal(t, map[string]interface{}{"M": 3}, paths["stockByVariant"])
	assert.Equal(t, now, paths["lastSale"])
}

func TestRecordFields_AggregateDropsVariantMaps(t *testing.T) {
	_, names := inventoryrepo.RecordFromDocument("p1", nil)
	fields := inventoryrepo.RecordFields(domain.InventoryRecord{ProductID: "p1", Stock: 4}, names)

	assert.Equal(t, 4, fields["stock"])
	assert.Equal(t, firestore.Delete, fields["stockByVariant"])
	assert.Equal(t, firestore.Delete, fields["stockPorTalla"])

	fields = inventoryrepo.RecordFields(domain.InventoryRecord{ProductID: "p1", Stock: 2, StockByVariant: map[string]int{"M": 2}}, names)
	assert.Equal(t, map[string]interface{}{"M": 2}, fields["stockPorTalla"], "documento novo usa o nome em espanhol")
	assert.NotContains(t, fields, "stockByVariant")
}
