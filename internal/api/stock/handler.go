package stock

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stockcart/internal/api/respond"
	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	AdjustStock(ctx context.Context, adjustment domain.StockAdjustmentRequest) (domain.StockLevelResponse, error)
	GetStock(ctx context.Context, productID, variant string) (domain.StockLevelResponse, error)
	LowStock(ctx context.Context, limit int) (domain.LowStockReport, error)
}

// CatalogCache é invalidado depois de um ajuste manual.
type CatalogCache interface {
	Invalidate(ctx context.Context)
}

// Handler agrupa todos os métodos de Handler de estoque.
type Handler struct {
	Service StockService
	Catalog CatalogCache
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler. catalog pode ser nil.
func NewHandler(svc StockService, catalog CatalogCache, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Catalog: catalog,
		Logger:  log,
	}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	respond.ServiceResponse(w, r, h.Logger, data, err, successStatus)
}

// AdjustStockHandler lida com a requisição POST /v1/stock/adjust.
// @Summary Ajusta o estoque de um produto
// @Description Delta positivo repõe, negativo baixa. Estoque negativo é rejeitado.
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param adjustment body domain.StockAdjustmentRequest true "Ajuste"
// @Success 200 {object} domain.StockLevelResponse
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Estoque insuficiente"
// @Failure 503 {object} domain.ErrorResponse "Armazenamento indisponível"
// @Router /stock/adjust [post]
func (h *Handler) AdjustStockHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var adjustmentRequest domain.StockAdjustmentRequest
	if err := respond.DecodeJSON(r, &adjustmentRequest); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	level, err := h.Service.AdjustStock(ctx, adjustmentRequest)
	if err == nil && h.Catalog != nil {
		h.Catalog.Invalidate(ctx)
	}
	h.handleServiceResponse(w, r, level, err, http.StatusOK)
}

// GetStockHandler lida com a requisição GET /v1/stock/{productId}.
// @Summary Consulta o estoque de um produto
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param productId path string true "ID do produto"
// @Param variant query string false "Talla"
// @Success 200 {object} domain.StockLevelResponse
// @Router /stock/{productId} [get]
func (h *Handler) GetStockHandler(w http.ResponseWriter, r *http.Request) {
	level, err := h.Service.GetStock(r.Context(), chi.URLParam(r, "productId"), r.URL.Query().Get("variant"))
	h.handleServiceResponse(w, r, level, err, http.StatusOK)
}

// LowStockHandler lida com a requisição GET /v1/stock/low.
// @Summary Produtos com pouco estoque
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limite (padrão 5)"
// @Success 200 {object} domain.LowStockReport
// @Router /stock/low [get]
func (h *Handler) LowStockHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Parâmetro limit inválido."), http.StatusOK)
			return
		}
		limit = n
	}

	report, err := h.Service.LowStock(r.Context(), limit)
	h.handleServiceResponse(w, r, report, err, http.StatusOK)
}
