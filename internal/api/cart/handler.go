package cart

import (
	"context"
	"net/http"

	"stockcart/internal/api/respond"
	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
)

// CartService define o contrato do carrinho usado pelos handlers.
type CartService interface {
	AddItem(ctx context.Context, sessionID string, req domain.AddItemRequest) (domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID, productKey, variant string) (domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
	Summary(ctx context.Context, sessionID string) domain.CartSummary
	Review(ctx context.Context, sessionID string) (domain.CartValidationReport, error)
}

// ReviewResponse traz o carrinho já corrigido e o resultado por linha.
type ReviewResponse struct {
	Summary domain.CartSummary          `json:"summary"`
	Report  domain.CartValidationReport `json:"report"`
}

// Handler agrupa os handlers do carrinho.
type Handler struct {
	Service CartService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(svc CartService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	respond.ServiceResponse(w, r, h.Logger, data, err, successStatus)
}

// ReviewHandler lida com GET /v1/cart.
// @Summary Revisa o carrinho contra o estoque
// @Description Linhas sem estoque suficiente são removidas e listadas em invalidLines.
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ReviewResponse
// @Failure 503 {object} domain.ErrorResponse "Estoque indisponível"
// @Router /cart [get]
func (h *Handler) ReviewHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := respond.SessionID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	report, err := h.Service.Review(r.Context(), sessionID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, ReviewResponse{Summary: report.ValidCart.Summarize(), Report: report}, nil, http.StatusOK)
}

// SummaryHandler lida com GET /v1/cart/summary. Não consulta o estoque.
// @Summary Resumo do carrinho
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.CartSummary
// @Router /cart/summary [get]
func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := respond.SessionID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, h.Service.Summary(r.Context(), sessionID), nil, http.StatusOK)
}

// AddItemHandler lida com POST /v1/cart/items.
// @Summary Adiciona um produto ao carrinho
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body domain.AddItemRequest true "Produto"
// @Success 200 {object} domain.CartSummary
// @Failure 400 {object} domain.ErrorResponse "Produto inválido"
// @Failure 409 {object} domain.ErrorResponse "Estoque insuficiente"
// @Failure 503 {object} domain.ErrorResponse "Estoque indisponível"
// @Router /cart/items [post]
func (h *Handler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := respond.SessionID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	var req domain.AddItemRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	cart, err := h.Service.AddItem(r.Context(), sessionID, req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, cart.Summarize(), nil, http.StatusOK)
}

// RemoveItemHandler lida com DELETE /v1/cart/items?productKey=&variant=.
// @Summary Remove uma linha do carrinho
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param productKey query string true "Produto"
// @Param variant query string false "Talla"
// @Success 200 {object} domain.CartSummary
// @Router /cart/items [delete]
func (h *Handler) RemoveItemHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := respond.SessionID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	productKey := r.URL.Query().Get("productKey")
	if productKey == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("productKey é obrigatório."), http.StatusOK)
		return
	}

	cart, err := h.Service.RemoveItem(r.Context(), sessionID, productKey, r.URL.Query().Get("variant"))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, cart.Summarize(), nil, http.StatusOK)
}

// ClearHandler lida com DELETE /v1/cart.
// @Summary Esvazia o carrinho
// @Tags cart
// @Security BearerAuth
// @Success 204
// @Router /cart [delete]
func (h *Handler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, err := respond.SessionID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	err = h.Service.Clear(r.Context(), sessionID)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
