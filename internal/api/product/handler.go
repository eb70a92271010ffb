package product

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"stockcart/internal/api/respond"
	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
	"stockcart/internal/pkg/middleware"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	GetProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
	UpsertProduct(ctx context.Context, req domain.ProductUpsert) (domain.Product, error)
}

// Handler agrupa todos os métodos de Handler do catálogo.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	respond.ServiceResponse(w, r, h.Logger, data, err, successStatus)
}

// GetProductsHandler lida com a requisição GET /v1/products.
// @Summary Lista o catálogo
// @Description Busca por frase ou palavras, categoria, talla e faixa de preço.
// @Tags products
// @Produce json
// @Param q query string false "Termo de busca"
// @Param category query string false "Categoria ou subcategoria"
// @Param size query string false "Talla"
// @Param minPrice query number false "Preço mínimo"
// @Param maxPrice query number false "Preço máximo"
// @Success 200 {array} domain.Product
// @Failure 400 {object} domain.ErrorResponse "Filtro inválido"
// @Failure 503 {object} domain.ErrorResponse "Catálogo indisponível"
// @Router /products [get]
func (h *Handler) GetProductsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	products, err := h.Service.GetProducts(r.Context(), filter)
	h.handleServiceResponse(w, r, products, err, http.StatusOK)
}

// GetProductByIDHandler lida com a requisição GET /v1/products/{id}.
// @Summary Busca um produto
// @Tags products
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} domain.Product
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id} [get]
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	product, err := h.Service.GetProductByID(r.Context(), chi.URLParam(r, "id"))
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}

// CreateProductHandler lida com a requisição POST /v1/admin/products.
// @Summary Cadastra um produto com o estoque inicial
// @Description Sem id, um novo é gerado. Com stockByVariant, o estoque é por talla.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body domain.ProductUpsert true "Produto"
// @Success 201 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 503 {object} domain.ErrorResponse "Armazenamento indisponível"
// @Router /admin/products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductUpsert
	if err := respond.DecodeJSON(r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	h.upsert(w, r, req, http.StatusCreated)
}

// UpdateProductHandler lida com a requisição PUT /v1/admin/products/{id}.
// @Summary Atualiza um produto e o estoque dele
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Param product body domain.ProductUpsert true "Produto"
// @Success 200 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 503 {object} domain.ErrorResponse "Armazenamento indisponível"
// @Router /admin/products/{id} [put]
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.ProductUpsert
	if err := respond.DecodeJSON(r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	req.ID = chi.URLParam(r, "id")
	h.upsert(w, r, req, http.StatusOK)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request, req domain.ProductUpsert, successStatus int) {
	ctx := r.Context()
	if claims, ok := middleware.GetSessionClaimsFromContext(ctx); ok {
		h.Logger.Info("Cadastro de produto por", map[string]interface{}{
			"session_id": claims.SessionID,
			"product_id": req.ID,
		})
	}
	product, err := h.Service.UpsertProduct(ctx, req)
	h.handleServiceResponse(w, r, product, err, successStatus)
}

func parseFilter(r *http.Request) (domain.ProductFilter, error) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: strings.TrimSpace(q.Get("category")),
		Size:     strings.TrimSpace(q.Get("size")),
	}
	var err error
	if filter.MinPrice, err = parsePrice(q.Get("minPrice"), "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = parsePrice(q.Get("maxPrice"), "maxPrice"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parsePrice(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, apperror.NewValidationError("Parâmetro " + name + " inválido.")
	}
	return &v, nil
}
