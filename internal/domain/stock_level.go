package domain

// StockAdjustmentRequest é o payload esperado para a requisição de ajuste de estoque.
type StockAdjustmentRequest struct {
	ProductID string `json:"productId" example:"prod-123"`
	Variant   string `json:"variant" example:"M"`
	Delta     int    `json:"delta" example:"5"` // Quantidade a ser adicionada/removida
}

// StockLevelResponse é a leitura de estoque exposta pela API administrativa.
type StockLevelResponse struct {
	ProductID string `json:"productId"`
	Variant   string `json:"variant"`
	Stock     int    `json:"stock"`
	Found     bool   `json:"found"`
}
