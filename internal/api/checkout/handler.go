package checkout

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stockcart/internal/api/respond"
	"stockcart/internal/domain"
	"stockcart/internal/handoff"
	"stockcart/internal/pkg/logger"
	"stockcart/internal/service/checkoutservice"
)

// Coordinator é o contrato do coordenador de checkout usado aqui.
type Coordinator interface {
	Begin(ctx context.Context, sessionID string) (*checkoutservice.Attempt, error)
	Get(sessionID, id string) (*checkoutservice.Attempt, error)
}

// ConfirmRequest é o corpo de commit e confirm.
type ConfirmRequest struct {
	PaymentMethod string                 `json:"paymentMethod"`
	Customer      map[string]interface{} `json:"customer,omitempty"`
}

// AttemptResponse é a tentativa mais o link de WhatsApp quando concluída.
type AttemptResponse struct {
	checkoutservice.View
	WhatsAppURL string `json:"whatsappUrl,omitempty"`
}

// Handler agrupa os handlers de checkout.
type Handler struct {
	Coordinator    Coordinator
	WhatsAppNumber string
	Logger         logger.Logger
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(coord Coordinator, whatsappNumber string, log logger.Logger) *Handler {
	return &Handler{Coordinator: coord, WhatsAppNumber: whatsappNumber, Logger: log}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	respond.ServiceResponse(w, r, h.Logger, data, err, successStatus)
}

// writeView escolhe o status pela situação da tentativa: uma tentativa em
// FAILED responde com o status da causa, mas o corpo é sempre a tentativa.
func (h *Handler) writeView(w http.ResponseWriter, r *http.Request, view checkoutservice.View, successStatus int) {
	resp := AttemptResponse{View: view, WhatsAppURL: linkFor(h.WhatsAppNumber, view)}
	respond.WithStatus(w, h.Logger, statusFor(view, successStatus), resp)
}

func statusFor(view checkoutservice.View, successStatus int) int {
	if view.State != domain.CheckoutFailed || view.Failure == nil {
		return successStatus
	}
	switch view.Failure.Reason {
	case domain.ReasonEmptyCart:
		return http.StatusUnprocessableEntity
	case domain.ReasonStockChanged:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

func (h *Handler) attempt(w http.ResponseWriter, r *http.Request) (*checkoutservice.Attempt, bool) {
	sessionID, err := respond.SessionID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return nil, false
	}
	a, err := h.Coordinator.Get(sessionID, chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return nil, false
	}
	return a, true
}

// BeginHandler lida com POST /v1/checkout.
// @Summary Inicia o checkout do carrinho
// @Description Abre uma tentativa em REVIEWING. Carrinho vazio termina em FAILED.
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Success 201 {object} AttemptResponse
// @Failure 409 {object} domain.ErrorResponse "Checkout já em andamento"
// @Failure 422 {object} AttemptResponse "Carrinho vazio"
// @Router /checkout [post]
func (h *Handler) BeginHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := respond.SessionID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	a, err := h.Coordinator.Begin(r.Context(), sessionID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.writeView(w, r, a.View(), http.StatusCreated)
}

// GetHandler lida com GET /v1/checkout/{id}.
// @Summary Consulta uma tentativa de checkout
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da tentativa"
// @Success 200 {object} AttemptResponse
// @Failure 404 {object} domain.ErrorResponse "Tentativa não encontrada"
// @Router /checkout/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := h.attempt(w, r)
	if !ok {
		return
	}
	view := a.View()
	respond.WithStatus(w, h.Logger, http.StatusOK, AttemptResponse{View: view, WhatsAppURL: linkFor(h.WhatsAppNumber, view)})
}

// CommitHandler lida com POST /v1/checkout/{id}/commit: revalida e baixa o
// estoque sem finalizar, para o cliente confirmar ou cancelar depois.
// @Summary Revalida e baixa o estoque
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da tentativa"
// @Param body body ConfirmRequest true "Método de pagamento"
// @Success 200 {object} AttemptResponse
// @Failure 409 {object} AttemptResponse "Estoque alterado"
// @Failure 422 {object} domain.ErrorResponse "Método de pagamento ausente"
// @Failure 503 {object} AttemptResponse "Armazenamento indisponível"
// @Router /checkout/{id}/commit [post]
func (h *Handler) CommitHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := h.attempt(w, r)
	if !ok {
		return
	}
	var req ConfirmRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	view, err := a.Commit(r.Context(), req.PaymentMethod, req.Customer)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.writeView(w, r, view, http.StatusOK)
}

// ConfirmHandler lida com POST /v1/checkout/{id}/confirm.
// @Summary Confirma a compra
// @Description Revalida, baixa o estoque, registra a venda e devolve o link de WhatsApp.
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da tentativa"
// @Param body body ConfirmRequest true "Método de pagamento e dados do cliente"
// @Success 200 {object} AttemptResponse
// @Failure 409 {object} AttemptResponse "Estoque alterado"
// @Failure 422 {object} domain.ErrorResponse "Método de pagamento ausente"
// @Failure 503 {object} AttemptResponse "Armazenamento indisponível"
// @Router /checkout/{id}/confirm [post]
func (h *Handler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := h.attempt(w, r)
	if !ok {
		return
	}
	var req ConfirmRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	view, err := a.Confirm(r.Context(), req.PaymentMethod, req.Customer)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.writeView(w, r, view, http.StatusOK)
}

// CancelHandler lida com POST /v1/checkout/{id}/cancel.
// @Summary Cancela a tentativa e restaura o estoque baixado
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da tentativa"
// @Success 200 {object} AttemptResponse
// @Failure 409 {object} domain.ErrorResponse "Tentativa já encerrada"
// @Failure 503 {object} AttemptResponse "Falha ao restaurar o estoque"
// @Router /checkout/{id}/cancel [post]
func (h *Handler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	a, ok := h.attempt(w, r)
	if !ok {
		return
	}
	view, err := a.Cancel(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.writeView(w, r, view, http.StatusOK)
}

func linkFor(number string, view checkoutservice.View) string {
	if view.State != domain.CheckoutCompleted || view.Handoff == nil {
		return ""
	}
	return handoff.Link(number, *view.Handoff)
}
