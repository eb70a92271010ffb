package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultVariant é a talla assumida quando o produto não informa uma.
	DefaultVariant = "M"
	// PlaceholderImage é usada quando o produto não tem imagem.
	PlaceholderImage = "https://via.placeholder.com/300x300?text=Sin+Imagen"
)

// CartLineItem representa uma linha do carrinho: um par (produto, variante)
// e a quantidade solicitada.
type CartLineItem struct {
	ProductKey  string    `json:"productKey"`
	DisplayName string    `json:"displayName"`
	UnitPrice   float64   `json:"unitPrice"`
	Variant     string    `json:"variant"`
	Quantity    int       `json:"quantity"`
	ImageRef    string    `json:"imageRef,omitempty"`
	AddedAt     time.Time `json:"addedAt"`
}

// Subtotal devolve preço unitário x quantidade.
func (i CartLineItem) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(i.UnitPrice).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Matches compara pela identidade (productKey, variant).
func (i CartLineItem) Matches(productKey, variant string) bool {
	return i.ProductKey == productKey && i.Variant == NormalizeVariant(variant)
}

// Valid aplica as regras de validação de uma linha persistida.
func (i CartLineItem) Valid() bool {
	if strings.TrimSpace(i.DisplayName) == "" {
		return false
	}
	if math.IsNaN(i.UnitPrice) || math.IsInf(i.UnitPrice, 0) || i.UnitPrice < 0 {
		return false
	}
	return i.Quantity > 0
}

// Cart é a lista ordenada de linhas persistida como um único blob.
type Cart []CartLineItem

// Total soma os subtotais das linhas.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Subtotal())
	}
	return total
}

// TotalUnits soma as quantidades.
func (c Cart) TotalUnits() int {
	units := 0
	for _, item := range c {
		units += item.Quantity
	}
	return units
}

// IsEmpty informa se o carrinho não tem linhas.
func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// Find devolve o índice da linha (productKey, variant) ou -1.
func (c Cart) Find(productKey, variant string) int {
	for idx, item := range c {
		if item.Matches(productKey, variant) {
			return idx
		}
	}
	return -1
}

// Without devolve uma cópia do carrinho sem a linha (productKey, variant).
func (c Cart) Without(productKey, variant string) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if !item.Matches(productKey, variant) {
			out = append(out, item)
		}
	}
	return out
}

// Minus desconta do carrinho as quantidades de outro carrinho, linha a linha
// por (productKey, variant). Linhas que chegam a zero saem; linhas que só
// existem em c ficam intactas.
func (c Cart) Minus(other Cart) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if idx := other.Find(item.ProductKey, item.Variant); idx >= 0 {
			item.Quantity -= other[idx].Quantity
			if item.Quantity <= 0 {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// Clone copia o slice para que mutações não vazem para o chamador.
func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// CartSummary resume o carrinho para a interface.
type CartSummary struct {
	Items      Cart            `json:"items"`
	Count      int             `json:"count"`
	TotalUnits int             `json:"totalUnits"`
	Total      decimal.Decimal `json:"total"`
	IsEmpty    bool            `json:"isEmpty"`
}

// Summarize monta o resumo do carrinho.
func (c Cart) Summarize() CartSummary {
	return CartSummary{
		Items:      c.Clone(),
		Count:      len(c),
		TotalUnits: c.TotalUnits(),
		Total:      c.Total(),
		IsEmpty:    c.IsEmpty(),
	}
}

// AddItemRequest é o pedido de inclusão vindo da interface.
type AddItemRequest struct {
	ProductID   string  `json:"productId"`
	DisplayName string  `json:"displayName"`
	UnitPrice   float64 `json:"unitPrice"`
	Variant     string  `json:"variant"`
	Quantity    int     `json:"quantity"`
	ImageRef    string  `json:"imageRef"`
}

// NormalizeVariant aplica a variante padrão.
func NormalizeVariant(variant string) string {
	v := strings.TrimSpace(variant)
	if v == "" {
		return DefaultVariant
	}
	return v
}

// ProductKeyFor usa o id do produto e, na falta dele, o nome.
func ProductKeyFor(productID, displayName string) string {
	if id := strings.TrimSpace(productID); id != "" {
		return id
	}
	return strings.TrimSpace(displayName)
}

// ValidateCart remove as linhas inválidas. Função pura e idempotente.
func ValidateCart(cart Cart) Cart {
	out := make(Cart, 0, len(cart))
	for _, item := range cart {
		if item.Valid() {
			out = append(out, item)
		}
	}
	return out
}

// MergeItem soma a quantidade numa linha existente ou acrescenta uma nova.
// O carrinho recebido não é alterado.
func MergeItem(cart Cart, item CartLineItem, now time.Time) Cart {
	out := cart.Clone()
	item.Variant = NormalizeVariant(item.Variant)
	if idx := out.Find(item.ProductKey, item.Variant); idx > -1 {
		out[idx].Quantity += item.Quantity
		out[idx].AddedAt = now
		return out
	}
	item.AddedAt = now
	if item.ImageRef == "" {
		item.ImageRef = PlaceholderImage
	}
	return append(out, item)
}

// DecodeCart lê o blob persistido. Cada entrada passa por normalizeEntry, que
// aceita os nomes de campo antigos (nombre, precio, talla, cantidad...), e
// depois por ValidateCart. Devolve também quantas entradas foram descartadas.
func DecodeCart(blob []byte) (Cart, int, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		return Cart{}, 0, err
	}

	cart := make(Cart, 0, len(raw))
	dropped := 0
	for _, entry := range raw {
		var fields map[string]interface{}
		if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
			dropped++
			continue
		}
		item, ok := normalizeEntry(fields)
		if !ok || !item.Valid() {
			dropped++
			continue
		}
		cart = append(cart, item)
	}
	return cart, dropped, nil
}

// normalizeEntry converte um objeto solto no formato canônico. Preço e
// quantidade precisam ser números JSON; strings são rejeitadas.
func normalizeEntry(fields map[string]interface{}) (CartLineItem, bool) {
	name, ok := firstString(fields, "displayName", "nombre", "name", "title")
	if !ok || strings.TrimSpace(name) == "" {
		return CartLineItem{}, false
	}

	price, ok := firstNumber(fields, "unitPrice", "precio", "price")
	if !ok {
		return CartLineItem{}, false
	}

	qty, ok := firstNumber(fields, "quantity", "cantidad")
	if !ok || qty != math.Trunc(qty) || qty <= 0 || qty > math.MaxInt32 {
		return CartLineItem{}, false
	}

	key, _ := firstString(fields, "productKey", "id")
	variant, _ := firstString(fields, "variant", "talla", "size")
	image, _ := firstString(fields, "imageRef", "imagen", "image")
	if image == "" {
		image = PlaceholderImage
	}

	item := CartLineItem{
		ProductKey:  ProductKeyFor(key, name),
		DisplayName: name,
		UnitPrice:   price,
		Variant:     NormalizeVariant(variant),
		Quantity:    int(qty),
		ImageRef:    image,
	}

	if added, ok := firstString(fields, "addedAt", "fechaAgregado"); ok {
		if ts, err := time.Parse(time.RFC3339Nano, added); err == nil {
			item.AddedAt = ts
		}
	}
	return item, true
}

func firstString(fields map[string]interface{}, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := fields[k].(string); ok {
			return v, true
		}
	}
	return "", false
}

func firstNumber(fields map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		raw, present := fields[k]
		if !present {
			continue
		}
		n, ok := raw.(float64)
		return n, ok
	}
	return 0, false
}
