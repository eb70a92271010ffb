// Package respond padroniza as respostas JSON dos handlers.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
	"stockcart/internal/pkg/middleware"
)

// WithStatus escreve data como JSON com o status informado.
func WithStatus(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Falha ao codificar JSON de resposta", err)
	}
}

// ServiceResponse traduz o resultado de um serviço: sucesso com
// successStatus, ou o erro mapeado pela taxonomia de AppError.
func ServiceResponse(w http.ResponseWriter, r *http.Request, log logger.Logger, data interface{}, err error, successStatus int) {
	if err == nil {
		WithStatus(w, log, successStatus, data)
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	WithStatus(w, log, status, domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// DecodeJSON lê o corpo da requisição em dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.NewValidationError("Payload JSON inválido.")
	}
	return nil
}

// SessionID extrai a sessão autenticada do contexto.
func SessionID(r *http.Request) (string, error) {
	claims, ok := middleware.GetSessionClaimsFromContext(r.Context())
	if !ok || claims.SessionID == "" {
		return "", apperror.NewUnauthorizedError("Sessão de carrinho ausente.")
	}
	return claims.SessionID, nil
}
