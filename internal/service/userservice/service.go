package userservice

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
	"stockcart/internal/pkg/token"
)

// adminSubject identifica o administrador no token.
const adminSubject = "admin"

// UserService abre sessões de carrinho e autentica o administrador.
type UserService struct {
	TokenSvc  token.TokenService
	adminHash []byte
	logger    logger.Logger
}

// NewService cria uma nova instância do UserService. adminHash é o hash
// bcrypt da senha administrativa; vazio desabilita o login de admin.
func NewService(tokenSvc token.TokenService, adminHash string, log logger.Logger) *UserService {
	return &UserService{
		TokenSvc:  tokenSvc,
		adminHash: []byte(strings.TrimSpace(adminHash)),
		logger:    log,
	}
}

// StartSession cria uma sessão anônima de carrinho.
func (s *UserService) StartSession(ctx context.Context) (domain.SessionResponse, error) {
	sessionID := uuid.NewString()
	tokenString, err := s.TokenSvc.GenerateToken(sessionID, string(domain.RoleGuest))
	if err != nil {
		return domain.SessionResponse{}, apperror.NewInternalError("Falha ao gerar token de sessão.", err)
	}
	s.logger.Debug("Sessão de carrinho criada.", map[string]interface{}{"session_id": sessionID})
	return domain.SessionResponse{Token: tokenString, SessionID: sessionID}, nil
}

// AdminLogin confere a senha com o hash configurado e emite o JWT de admin.
func (s *UserService) AdminLogin(ctx context.Context, password string) (domain.TokenResponse, error) {
	if password == "" {
		return domain.TokenResponse{}, apperror.NewUnauthorizedError("A senha é obrigatória.")
	}
	if len(s.adminHash) == 0 {
		s.logger.Warn("Login administrativo tentado sem ADMIN_PASSWORD_HASH configurado.", nil)
		return domain.TokenResponse{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	// Compara a senha informada (texto puro) com o hash configurado.
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)); err != nil {
		return domain.TokenResponse{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, err := s.TokenSvc.GenerateToken(adminSubject, string(domain.RoleAdmin))
	if err != nil {
		return domain.TokenResponse{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	s.logger.Info("Login administrativo realizado.", nil)
	return domain.TokenResponse{Token: tokenString}, nil
}
