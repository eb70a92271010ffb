// Package handoff entrega o pedido confirmado ao canal externo: o texto e o
// link de WhatsApp que a loja já usa e, opcionalmente, um e-mail via SendGrid.
package handoff

import (
	"fmt"
	"net/url"
	"strings"

	"stockcart/internal/domain"
)

// DefaultWhatsAppNumber é o número da loja.
const DefaultWhatsAppNumber = "593969251642"

const dateLayout = "02/01/2006, 15:04:05"

// RenderText monta a mensagem do pedido.
func RenderText(p domain.HandoffPayload) string {
	var b strings.Builder
	b.WriteString("🛒 *¡Hola! he adquirido estos productos exitosamente:*\n\n")
	for i, line := range p.Lines {
		fmt.Fprintf(&b, "*%d. %s*\n", i+1, line.DisplayName)
		fmt.Fprintf(&b, "   📏 Talla: %s\n", line.Variant)
		fmt.Fprintf(&b, "   📦 Cantidad: %d\n", line.Quantity)
		fmt.Fprintf(&b, "   💰 Precio: %s\n\n", line.Subtotal().StringFixed(2))
	}
	b.WriteString("📊 *Resumen de compra:*\n")
	fmt.Fprintf(&b, "• Total de productos: %d\n", p.TotalUnits)
	fmt.Fprintf(&b, "• *Total a pagar: %s*\n", p.Total.StringFixed(2))
	fmt.Fprintf(&b, "• Método de pago: *%s*\n\n", p.PaymentMethod)
	fmt.Fprintf(&b, "📅 Fecha: %s\n\n", p.Timestamp.Format(dateLayout))
	b.WriteString("¡Gracias! 😊")
	return b.String()
}

// WhatsAppURL devolve o link wa.me com o texto codificado.
func WhatsAppURL(number, text string) string {
	if number == "" {
		number = DefaultWhatsAppNumber
	}
	// QueryEscape codifica espaço como "+", o WhatsApp espera %20
	encoded := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s?text=%s", number, encoded)
}

// Link é o atalho usado pela API.
func Link(number string, p domain.HandoffPayload) string {
	return WhatsAppURL(number, RenderText(p))
}
