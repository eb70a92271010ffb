package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutState é o estado de uma tentativa de compra.
type CheckoutState string

const (
	CheckoutIdle         CheckoutState = "IDLE"
	CheckoutReviewing    CheckoutState = "REVIEWING"
	CheckoutRevalidating CheckoutState = "REVALIDATING"
	CheckoutCommitting   CheckoutState = "COMMITTING"
	CheckoutCompleted    CheckoutState = "COMPLETED"
	CheckoutFailed       CheckoutState = "FAILED"
	CheckoutCancelling   CheckoutState = "CANCELLING"
	CheckoutCancelled    CheckoutState = "CANCELLED"
)

// IsTerminal informa se nenhuma transição é mais aceita.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutCompleted || s == CheckoutCancelled
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

// FailureReason classifica a falha de uma tentativa.
type FailureReason string

const (
	ReasonEmptyCart    FailureReason = "EMPTY_CART"
	ReasonStockChanged FailureReason = "STOCK_CHANGED"
	ReasonStoreError   FailureReason = "STORE_ERROR"
)

// CheckoutFailure registra em que etapa e por que a tentativa falhou.
type CheckoutFailure struct {
	Stage  CheckoutState `json:"stage"`
	Reason FailureReason `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

// HandoffPayload é entregue ao canal externo de mensagens após o commit.
type HandoffPayload struct {
	Lines         Cart            `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	TotalUnits    int             `json:"totalUnits"`
	PaymentMethod string          `json:"paymentMethod"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewHandoffPayload monta o payload a partir do carrinho confirmado.
func NewHandoffPayload(cart Cart, paymentMethod string, now time.Time) HandoffPayload {
	return HandoffPayload{
		Lines:         cart.Clone(),
		Total:         cart.Total(),
		TotalUnits:    cart.TotalUnits(),
		PaymentMethod: paymentMethod,
		Timestamp:     now,
	}
}
