package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockcart/internal/domain"
)

func TestNormalizePrice(t *testing.T) {
	cases := map[string]struct {
		in   interface{}
		want float64
	}{
		"número":             {12.5, 12.5},
		"negativo":           {-3.0, 0},
		"texto simples":      {"$15", 15},
		"vírgula decimal":    {"12,50", 12.5},
		"milhar com vírgula": {"1,200", 1200},
		"europeu":            {"1.299,90", 1299.9},
		"americano":          {"1,299.90", 1299.9},
		"lixo":               {"abc", 0},
		"nulo":               {nil, 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tc.want, domain.NormalizePrice(tc.in), 0.0001)
		})
	}
}

func TestNormalizeSizes(t *testing.T) {
	assert.Equal(t, []string{"S", "M", "L"}, domain.NormalizeSizes("S, M;L"))
	assert.Equal(t, []string{"S", "XL"}, domain.NormalizeSizes([]interface{}{"S", " ", "XL"}))
	assert.Equal(t, []string{}, domain.NormalizeSizes(nil))
}

func TestNormalizeProduct(t *testing.T) {
	p, ok := domain.NormalizeProduct("doc1", map[string]interface{}{
		"nombre":    "Camiseta Oversize",
		"precio":    "19,99",
		"stock":     int64(3),
		"categoria": " Ropa ",
		"tallas":    "S,M",
	})
	require.True(t, ok)
	assert.Equal(t, "doc1", p.ID)
	assert.Equal(t, 19.99, p.Price)
	assert.Equal(t, "Ropa", p.Category)
	assert.Equal(t, domain.DefaultBrand, p.Brand)
	assert.Equal(t, domain.PlaceholderImage, p.ImageRef)
	assert.True(t, p.Available)

	_, ok = domain.NormalizeProduct("doc2", map[string]interface{}{"nombre": "Sem preço", "stock": 1})
	assert.False(t, ok)
}

func TestProductSearch(t *testing.T) {
	products := []domain.Product{
		{ID: "1", Name: "Camiseta Negra", Brand: "Nike", Category: "Ropa", Price: 20, Sizes: []string{"M", "L"}},
		{ID: "2", Name: "Gorra Roja", Brand: "Adidas", Category: "Accesorios", Price: 10},
		{ID: "3", Name: "Jean Azul", Brand: "Levis", Category: "Ropa", Subcategory: "Pantalones", Price: 35, Sizes: []string{"32"}},
	}

	ids := func(ps []domain.Product) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1"}, ids(domain.FilterProducts(products, domain.ProductFilter{Query: "camiseta negra"})))
	assert.Equal(t, []string{"1", "2"}, ids(domain.FilterProducts(products, domain.ProductFilter{Query: "negra roja"})), "qualquer palavra")
	assert.Equal(t, []string{"3"}, ids(domain.FilterProducts(products, domain.ProductFilter{Category: "pantalones"})))
	assert.Equal(t, []string{"1"}, ids(domain.FilterProducts(products, domain.ProductFilter{Size: "l"})))

	min, max := 15.0, 30.0
	assert.Equal(t, []string{"1"}, ids(domain.FilterProducts(products, domain.ProductFilter{MinPrice: &min, MaxPrice: &max})))
}

func TestProductUpsert_DefaultsAndVariantStock(t *testing.T) {
	u := domain.ProductUpsert{
		ID:             "camisa-1",
		Name:           "  Camisa Oxford ",
		Price:          19.25,
		Stock:          99,
		StockByVariant: map[string]int{"L": 1, " M ": 4},
	}

	rec := u.Record()
	assert.Equal(t, "camisa-1", rec.ProductID)
	assert.Equal(t, 5, rec.Stock, "com variantes o agregado é a soma")
	assert.Equal(t, 4, rec.StockFor("M"))

	p := u.Product()
	assert.Equal(t, "Camisa Oxford", p.Name)
	assert.Equal(t, domain.DefaultBrand, p.Brand)
	assert.Equal(t, domain.DefaultCategory, p.Category)
	assert.Equal(t, domain.PlaceholderImage, p.ImageRef)
	assert.Equal(t, []string{"L", "M"}, p.Sizes)
	assert.Equal(t, 5, p.Stock)
	assert.True(t, p.Available)

	single := domain.ProductUpsert{ID: "gorra", Name: "Gorra", Price: 8, Sizes: []string{"U"}}
	assert.False(t, single.Record().HasVariants())
	assert.False(t, single.Product().Available)
	assert.Equal(t, []string{"U"}, single.Product().Sizes)
}
