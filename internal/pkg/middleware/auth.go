package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/token"
)

// ContextKey é o tipo das chaves deste pacote no contexto.
type ContextKey int

const (
	SessionClaimsKey ContextKey = iota
)

// SessionClaims são os dados extraídos do JWT e anexados ao contexto.
type SessionClaims struct {
	SessionID string
	Role      domain.UserRole
}

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// NewAuthMiddleware valida o JWT do header Authorization e anexa a sessão ao contexto.
func NewAuthMiddleware(tokenSvc TokenService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeError(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."), http.StatusUnauthorized)
				return
			}

			claims, err := tokenSvc.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				writeError(w, apperror.NewUnauthorizedError("Token inválido ou expirado."), http.StatusUnauthorized)
				return
			}

			ctx := WithSessionClaims(r.Context(), SessionClaims{
				SessionID: claims.SessionID,
				Role:      domain.UserRole(claims.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithSessionClaims anexa as claims ao contexto (também usado nos testes dos handlers).
func WithSessionClaims(ctx context.Context, claims SessionClaims) context.Context {
	return context.WithValue(ctx, SessionClaimsKey, claims)
}

// GetSessionClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetSessionClaimsFromContext(ctx context.Context) (SessionClaims, bool) {
	claims, ok := ctx.Value(SessionClaimsKey).(SessionClaims)
	return claims, ok
}

// PermissionMiddleware exige que a role da sessão esteja entre as informadas.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetSessionClaimsFromContext(r.Context())
			if !ok {
				writeError(w, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."), http.StatusUnauthorized)
				return
			}

			for _, requiredRole := range requiredRoles {
				if claims.Role == requiredRole {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, apperror.NewUnauthorizedError("Acesso negado. Você não tem a permissão necessária."), http.StatusForbidden)
		})
	}
}

func writeError(w http.ResponseWriter, err apperror.AppError, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: err.Category(),
		Message:  err.Error(),
	})
}
