package domain

// UserRole é um tipo string para representar o papel de quem chama a API.
type UserRole string

// Constantes para os papéis
const (
	RoleAdmin UserRole = "admin"
	RoleGuest UserRole = "guest"
)

// SessionResponse é devolvido ao abrir uma sessão de carrinho.
type SessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
}

// AdminLogin representa o payload de entrada do login administrativo.
type AdminLogin struct {
	Password string `json:"password"`
}

// TokenResponse carrega o JWT administrativo.
type TokenResponse struct {
	Token string `json:"token"`
}
