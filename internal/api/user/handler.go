package user

import (
	"context"
	"net/http"

	"stockcart/internal/api/respond"
	"stockcart/internal/domain"
	"stockcart/internal/pkg/logger"
)

// UserService define o contrato para sessões e login administrativo.
type UserService interface {
	StartSession(ctx context.Context) (domain.SessionResponse, error)
	AdminLogin(ctx context.Context, password string) (domain.TokenResponse, error)
}

// Handler agrupa os handlers de sessão.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	respond.ServiceResponse(w, r, h.Logger, data, err, successStatus)
}

// StartSessionHandler lida com a requisição POST /v1/session.
// @Summary Abre uma sessão de carrinho
// @Description Gera um identificador de carrinho e o JWT que o acompanha.
// @Tags session
// @Produce json
// @Success 201 {object} domain.SessionResponse "Sessão criada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /session [post]
func (h *Handler) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.StartSession(r.Context())
	h.handleServiceResponse(w, r, session, err, http.StatusCreated)
}

// AdminLoginHandler lida com a requisição POST /v1/admin/login.
// @Summary Autentica o administrador e retorna um JWT
// @Tags session
// @Accept json
// @Produce json
// @Param login body domain.AdminLogin true "Senha administrativa"
// @Success 200 {object} domain.TokenResponse "Token JWT emitido"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Router /admin/login [post]
func (h *Handler) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var login domain.AdminLogin
	if err := respond.DecodeJSON(r, &login); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	resp, err := h.Service.AdminLogin(r.Context(), login.Password)
	h.handleServiceResponse(w, r, resp, err, http.StatusOK)
}
