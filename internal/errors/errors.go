package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do stockcart.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION", "INSUFFICIENT_STOCK", "STORE_ERROR")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// Categorias usadas pelo carrinho e pelo checkout.
const (
	CategoryInvalidProduct    = "INVALID_PRODUCT"
	CategoryInsufficientStock = "INSUFFICIENT_STOCK"
	CategoryNoPaymentMethod   = "NO_PAYMENT_METHOD_SELECTED"
	CategoryStoreError        = "STORE_ERROR"
	CategoryStorageError      = "STORAGE_ERROR"
	CategoryAlreadyInProgress = "ALREADY_IN_PROGRESS"
	CategoryIllegalTransition = "ILLEGAL_TRANSITION"
	CategoryValidation        = "VALIDATION_ERROR"
	CategoryNotFound          = "NOT_FOUND"
	CategoryInternal          = "INTERNAL_ERROR"
	CategoryUnauthorized      = "UNAUTHORIZED"
)

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return CategoryValidation }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }                   // Não encapsula erro subjacente

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return CategoryNotFound }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// InvalidProductError rejeita um produto sem nome ou com preço inválido.
// Não é recuperável sem corrigir a entrada.
type InvalidProductError struct {
	Msg string
}

func (e *InvalidProductError) Error() string    { return fmt.Sprintf("Produto inválido: %s", e.Msg) }
func (e *InvalidProductError) Category() string { return CategoryInvalidProduct }
func (e *InvalidProductError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *InvalidProductError) Unwrap() error    { return nil }

// NewInvalidProductError cria um erro de produto inválido.
func NewInvalidProductError(msg string) AppError {
	return &InvalidProductError{Msg: msg}
}

// InsufficientStockError carrega o estoque observado no momento da rejeição.
type InsufficientStockError struct {
	ProductKey   string
	Variant      string
	CurrentStock int
	Msg          string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Estoque insuficiente: %s (estoque atual: %d)", e.Msg, e.CurrentStock)
}
func (e *InsufficientStockError) Category() string { return CategoryInsufficientStock }
func (e *InsufficientStockError) HTTPStatus() int  { return http.StatusConflict }
func (e *InsufficientStockError) Unwrap() error    { return nil }

// NewInsufficientStockError cria um erro de estoque insuficiente.
func NewInsufficientStockError(productKey, variant string, currentStock int, msg string) AppError {
	return &InsufficientStockError{ProductKey: productKey, Variant: variant, CurrentStock: currentStock, Msg: msg}
}

// PreconditionError cobre o método de pagamento ausente.
// Corrigível pelo usuário, sem efeitos colaterais.
type PreconditionError struct {
	Code string
	Msg  string
}

func (e *PreconditionError) Error() string    { return fmt.Sprintf("Pré-condição não atendida: %s", e.Msg) }
func (e *PreconditionError) Category() string { return e.Code }
func (e *PreconditionError) HTTPStatus() int  { return http.StatusUnprocessableEntity } // 422
func (e *PreconditionError) Unwrap() error    { return nil }

// NewNoPaymentMethodError cria o erro de método de pagamento não selecionado.
func NewNoPaymentMethodError() AppError {
	return &PreconditionError{Code: CategoryNoPaymentMethod, Msg: "selecione um método de pagamento"}
}

// AlreadyInProgressError rejeita um segundo checkout concorrente para o mesmo carrinho.
type AlreadyInProgressError struct {
	Msg string
}

func (e *AlreadyInProgressError) Error() string    { return fmt.Sprintf("Operação em andamento: %s", e.Msg) }
func (e *AlreadyInProgressError) Category() string { return CategoryAlreadyInProgress }
func (e *AlreadyInProgressError) HTTPStatus() int  { return http.StatusConflict }
func (e *AlreadyInProgressError) Unwrap() error    { return nil }

// NewAlreadyInProgressError cria um erro de checkout já em andamento.
func NewAlreadyInProgressError(msg string) AppError {
	return &AlreadyInProgressError{Msg: msg}
}

// IllegalTransitionError é devolvido quando uma operação não é válida no estado atual.
type IllegalTransitionError struct {
	From string
	Op   string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("Transição ilegal: %s não permitido no estado %s", e.Op, e.From)
}
func (e *IllegalTransitionError) Category() string { return CategoryIllegalTransition }
func (e *IllegalTransitionError) HTTPStatus() int  { return http.StatusConflict }
func (e *IllegalTransitionError) Unwrap() error    { return nil }

// NewIllegalTransitionError cria um erro de transição ilegal.
func NewIllegalTransitionError(from, op string) AppError {
	return &IllegalTransitionError{From: from, Op: op}
}

// UnauthorizedError representa falha de autenticação ou autorização.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return CategoryUnauthorized }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um erro de autorização.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return CategoryInternal }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// StoreError representa falha transitória no armazenamento remoto de estoque
// (rede, timeout, circuito aberto). Sempre recuperável com nova tentativa.
type StoreError struct {
	Msg string
	Err error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Falha no armazenamento de estoque: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("Falha no armazenamento de estoque: %s", e.Msg)
}
func (e *StoreError) Category() string { return CategoryStoreError }
func (e *StoreError) HTTPStatus() int  { return http.StatusServiceUnavailable } // 503
func (e *StoreError) Unwrap() error    { return e.Err }

// NewStoreError cria um erro de armazenamento remoto.
func NewStoreError(msg string, err error) AppError {
	return &StoreError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um StoreError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewStoreError(fmt.Sprintf("%s (DB)", msg), err)
}

// StorageError representa falha ao persistir o carrinho local da sessão.
type StorageError struct {
	Msg string
	Err error
}

func (e *StorageError) Error() string    { return fmt.Sprintf("Erro de Armazenamento: %s", e.Msg) }
func (e *StorageError) Category() string { return CategoryStorageError }
func (e *StorageError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *StorageError) Unwrap() error    { return e.Err }

// NewStorageError cria um erro de persistência do carrinho.
func NewStorageError(msg string, err error) AppError {
	return &StorageError{Msg: msg, Err: err}
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		// O erro é tipado (ValidationError, InsufficientStockError, etc.)
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado (e.g., erro simples de pacote Go que não implementa AppError)
	// Tratar como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}
