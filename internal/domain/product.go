package domain

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultBrand é usado quando o documento não traz marca.
	DefaultBrand = "Sin marca"
	// DefaultCategory é usado quando o documento não traz categoria.
	DefaultCategory = "sin categoria"
)

// Product representa o item do catálogo exibido na vitrine.
// Os campos já estão normalizados: nada abaixo da camada de repositório
// precisa adivinhar nomes alternativos.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Price       float64  `json:"price"`
	ImageRef    string   `json:"imageRef"`
	Sizes       []string `json:"sizes"`
	Stock       int      `json:"stock"`
	Available   bool     `json:"available"`
}

// --- Interfaces de Contrato ---

// ProductRepository é a fonte do catálogo (Postgres, Firestore ou memória).
type ProductRepository interface {
	FindAll(ctx context.Context) ([]Product, error)
	FindByID(ctx context.Context, id string) (Product, error)
	// Save insere ou atualiza o produto. O estoque fica no InventoryRecord.
	Save(ctx context.Context, p Product) error
}

// ProductUpsert é o cadastro administrativo de um produto junto com o
// estoque. Sem StockByVariant, Stock é o estoque único do produto.
type ProductUpsert struct {
	ID             string         `json:"id,omitempty"`
	Name           string         `json:"name"`
	Brand          string         `json:"brand,omitempty"`
	Description    string         `json:"description,omitempty"`
	Category       string         `json:"category,omitempty"`
	Subcategory    string         `json:"subcategory,omitempty"`
	Price          float64        `json:"price"`
	ImageRef       string         `json:"imageRef,omitempty"`
	Sizes          []string       `json:"sizes,omitempty"`
	Stock          int            `json:"stock"`
	StockByVariant map[string]int `json:"stockByVariant,omitempty"`
}

// Product devolve o produto normalizado com os padrões de marca, categoria e
// imagem. Os tamanhos vêm das variantes quando não foram informadas.
func (u ProductUpsert) Product() Product {
	p := Product{
		ID:          strings.TrimSpace(u.ID),
		Name:        strings.TrimSpace(u.Name),
		Brand:       strings.TrimSpace(u.Brand),
		Description: strings.TrimSpace(u.Description),
		Category:    strings.TrimSpace(u.Category),
		Subcategory: strings.TrimSpace(u.Subcategory),
		Price:       u.Price,
		ImageRef:    strings.TrimSpace(u.ImageRef),
		Sizes:       NormalizeSizes(u.Sizes),
	}
	if p.Brand == "" {
		p.Brand = DefaultBrand
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if p.ImageRef == "" {
		p.ImageRef = PlaceholderImage
	}
	if len(p.Sizes) == 0 && len(u.StockByVariant) > 0 {
		for variant := range u.Record().StockByVariant {
			p.Sizes = append(p.Sizes, variant)
		}
		sort.Strings(p.Sizes)
	}
	p.Stock = u.Record().Stock
	p.Available = p.Stock > 0
	return p
}

// Record devolve o registro de estoque do cadastro. Com variantes, Stock é a
// soma delas.
func (u ProductUpsert) Record() InventoryRecord {
	rec := InventoryRecord{ProductID: strings.TrimSpace(u.ID), Stock: u.Stock}
	if len(u.StockByVariant) > 0 {
		rec.StockByVariant = make(map[string]int, len(u.StockByVariant))
		for variant, qty := range u.StockByVariant {
			rec.StockByVariant[NormalizeVariant(variant)] = qty
		}
		rec.Stock = rec.SumVariants()
	}
	return rec
}

// ProductFilter define os parâmetros de busca do catálogo.
type ProductFilter struct {
	Query    string
	Category string
	Size     string
	MinPrice *float64
	MaxPrice *float64
}

// NormalizeProduct converte um documento solto (mapa de campos) no Product
// canônico. Documentos sem nome, preço ou estoque são rejeitados.
func NormalizeProduct(id string, fields map[string]interface{}) (Product, bool) {
	name, _ := firstString(fields, "nombre", "name", "title")
	if strings.TrimSpace(name) == "" {
		return Product{}, false
	}
	rawPrice, hasPrice := firstPresent(fields, "precio", "price")
	rawStock, hasStock := firstPresent(fields, "stock")
	if !hasPrice || !hasStock {
		return Product{}, false
	}

	p := Product{
		ID:    id,
		Name:  strings.TrimSpace(name),
		Price: NormalizePrice(rawPrice),
		Stock: toInt(rawStock),
	}
	if brand, _ := firstString(fields, "marca", "brand"); strings.TrimSpace(brand) != "" {
		p.Brand = strings.TrimSpace(brand)
	} else {
		p.Brand = DefaultBrand
	}
	if cat, _ := firstString(fields, "categoria", "category"); strings.TrimSpace(cat) != "" {
		p.Category = strings.TrimSpace(cat)
	} else {
		p.Category = DefaultCategory
	}
	sub, _ := firstString(fields, "subcategoria", "subcategory")
	p.Subcategory = strings.TrimSpace(sub)
	p.Description, _ = firstString(fields, "descripcion", "description")
	if img, _ := firstString(fields, "imagen", "image", "foto"); img != "" {
		p.ImageRef = img
	} else {
		p.ImageRef = PlaceholderImage
	}
	if raw, ok := firstPresent(fields, "tallas", "sizes", "talla"); ok {
		p.Sizes = NormalizeSizes(raw)
	} else {
		p.Sizes = []string{}
	}
	p.Available = p.Stock > 0
	return p, true
}

var nonPriceChars = regexp.MustCompile(`[^\d.,]`)

// NormalizePrice aceita número ou texto ("$1.299,50", "12,5", "1,200.00").
// Valores inválidos ou negativos viram zero.
func NormalizePrice(raw interface{}) float64 {
	switch v := raw.(type) {
	case float64:
		if v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
		return 0
	case int:
		if v >= 0 {
			return float64(v)
		}
		return 0
	case int64:
		if v >= 0 {
			return float64(v)
		}
		return 0
	case string:
		return parsePriceText(v)
	default:
		return 0
	}
}

func parsePriceText(text string) float64 {
	clean := nonPriceChars.ReplaceAllString(text, "")
	hasComma := strings.Contains(clean, ",")
	hasDot := strings.Contains(clean, ".")

	switch {
	case hasComma && hasDot:
		// o último separador é o decimal
		if strings.LastIndex(clean, ",") > strings.LastIndex(clean, ".") {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case hasComma:
		parts := strings.Split(clean, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

var sizeSeparators = regexp.MustCompile(`[,\s;|]+`)

// NormalizeSizes aceita lista ou texto separado por vírgula, espaço, ; ou |.
func NormalizeSizes(raw interface{}) []string {
	out := []string{}
	switch v := raw.(type) {
	case []interface{}:
		for _, s := range v {
			if t := strings.TrimSpace(fmt.Sprint(s)); t != "" && s != nil {
				out = append(out, t)
			}
		}
	case []string:
		for _, s := range v {
			if t := strings.TrimSpace(s); t != "" {
				out = append(out, t)
			}
		}
	case string:
		for _, s := range sizeSeparators.Split(v, -1) {
			if t := strings.TrimSpace(s); t != "" {
				out = append(out, t)
			}
		}
	case nil:
	default:
		if t := strings.TrimSpace(fmt.Sprint(v)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// MatchesQuery implementa a busca: frase inteira, depois todas as palavras
// e, com mais de uma palavra, qualquer uma delas.
func (p Product) MatchesQuery(query string) bool {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return true
	}
	fields := []string{p.Name, p.Brand, p.Description, p.Category, p.Subcategory}
	fields = append(fields, p.Sizes...)
	text := strings.ToLower(strings.Join(fields, " "))

	if strings.Contains(text, term) {
		return true
	}
	words := strings.Fields(term)
	all := true
	for _, w := range words {
		if !strings.Contains(text, w) {
			all = false
			break
		}
	}
	if all {
		return true
	}
	if len(words) > 1 {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
	}
	return false
}

// Matches aplica todos os filtros do ProductFilter.
func (p Product) Matches(f ProductFilter) bool {
	if f.Category != "" &&
		!strings.EqualFold(p.Category, f.Category) &&
		!strings.EqualFold(p.Subcategory, f.Category) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Size != "" {
		found := false
		for _, s := range p.Sizes {
			if strings.EqualFold(s, f.Size) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return p.MatchesQuery(f.Query)
}

// FilterProducts devolve os produtos que passam pelo filtro, na ordem original.
func FilterProducts(products []Product, f ProductFilter) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Matches(f) {
			out = append(out, p)
		}
	}
	return out
}

func firstPresent(fields map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func toInt(raw interface{}) int {
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
