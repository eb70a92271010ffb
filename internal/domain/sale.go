package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// SaleStatusPending é o estado inicial de uma venda registrada.
	SaleStatusPending = "pendiente"
	// SalePlatformWhatsApp identifica o canal de entrega do pedido.
	SalePlatformWhatsApp = "whatsapp"
)

// SaleItem é uma linha do registro de venda.
type SaleItem struct {
	ProductKey  string          `json:"productKey"`
	DisplayName string          `json:"displayName"`
	Variant     string          `json:"variant"`
	Quantity    int             `json:"quantity"`
	UnitPrice   float64         `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Sale é o documento append-only gravado após um commit de estoque.
type Sale struct {
	ID            string                 `json:"id"`
	Items         []SaleItem             `json:"items"`
	Total         decimal.Decimal        `json:"total"`
	Timestamp     time.Time              `json:"timestamp"`
	CustomerMeta  map[string]interface{} `json:"customerMeta,omitempty"`
	PaymentMethod string                 `json:"paymentMethod"`
	Status        string                 `json:"status"`
	Platform      string                 `json:"platform"`
}

// NewSale monta o registro de venda a partir do carrinho confirmado.
func NewSale(id string, cart Cart, paymentMethod string, customerMeta map[string]interface{}, now time.Time) Sale {
	items := make([]SaleItem, 0, len(cart))
	for _, line := range cart {
		items = append(items, SaleItem{
			ProductKey:  line.ProductKey,
			DisplayName: line.DisplayName,
			Variant:     line.Variant,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal(),
		})
	}
	return Sale{
		ID:            id,
		Items:         items,
		Total:         cart.Total(),
		Timestamp:     now,
		CustomerMeta:  customerMeta,
		PaymentMethod: paymentMethod,
		Status:        SaleStatusPending,
		Platform:      SalePlatformWhatsApp,
	}
}
