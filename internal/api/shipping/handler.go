package shipping

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stockcart/internal/api/respond"
	"stockcart/internal/domain"
	"stockcart/internal/pkg/logger"
	"stockcart/internal/service/shippingservice"
)

// ShippingService define o contrato de cotação.
type ShippingService interface {
	Quote(province, canton string) (domain.ShippingQuote, error)
	Provinces() []string
	Cantons(province string) ([]shippingservice.CantonCost, error)
}

// Handler agrupa os handlers de envio.
type Handler struct {
	Service ShippingService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(svc ShippingService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// QuoteHandler lida com GET /v1/shipping?province=&canton=.
// @Summary Cota o envio
// @Tags shipping
// @Produce json
// @Param province query string true "Província"
// @Param canton query string false "Cantão"
// @Success 200 {object} domain.ShippingQuote
// @Failure 400 {object} domain.ErrorResponse "Província ausente"
// @Router /shipping [get]
func (h *Handler) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quote, err := h.Service.Quote(q.Get("province"), q.Get("canton"))
	respond.ServiceResponse(w, r, h.Logger, quote, err, http.StatusOK)
}

// ProvincesHandler lida com GET /v1/shipping/provinces.
// @Summary Lista as províncias atendidas
// @Tags shipping
// @Produce json
// @Success 200 {array} string
// @Router /shipping/provinces [get]
func (h *Handler) ProvincesHandler(w http.ResponseWriter, r *http.Request) {
	respond.ServiceResponse(w, r, h.Logger, h.Service.Provinces(), nil, http.StatusOK)
}

// CantonsHandler lida com GET /v1/shipping/provinces/{province}.
// @Summary Lista os cantões de uma província com o custo
// @Tags shipping
// @Produce json
// @Param province path string true "Província"
// @Success 200 {array} shippingservice.CantonCost
// @Failure 404 {object} domain.ErrorResponse "Província desconhecida"
// @Router /shipping/provinces/{province} [get]
func (h *Handler) CantonsHandler(w http.ResponseWriter, r *http.Request) {
	cantons, err := h.Service.Cantons(chi.URLParam(r, "province"))
	respond.ServiceResponse(w, r, h.Logger, cantons, err, http.StatusOK)
}
