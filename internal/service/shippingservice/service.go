package shippingservice

import (
	"fmt"
	"sort"
	"strings"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
)

// CantonCost é uma linha da tabela de uma província.
type CantonCost struct {
	Canton string  `json:"canton"`
	Cost   float64 `json:"cost"`
}

// Service responde cotações de envio a partir da tabela da loja.
type Service struct {
	table domain.ShippingTable
}

// NewService usa a tabela informada ou, se nil, a tabela padrão.
func NewService(table domain.ShippingTable) *Service {
	if table == nil {
		table = domain.DefaultShippingTable
	}
	return &Service{table: table}
}

// Quote cota o envio. Província vazia é erro de validação; destinos
// desconhecidos caem nos fallbacks da tabela.
func (s *Service) Quote(province, canton string) (domain.ShippingQuote, error) {
	if strings.TrimSpace(province) == "" {
		return domain.ShippingQuote{}, apperror.NewValidationError("A província é obrigatória.")
	}
	return s.table.Quote(province, canton), nil
}

// Provinces lista as províncias em ordem alfabética.
func (s *Service) Provinces() []string {
	out := make([]string, 0, len(s.table))
	for name := range s.table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Cantons lista os cantões de uma província com seus custos.
func (s *Service) Cantons(province string) ([]CantonCost, error) {
	cantons := s.table.Cantons(province)
	if cantons == nil {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("província %s", province))
	}
	out := make([]CantonCost, 0, len(cantons))
	for name, cost := range cantons {
		out = append(out, CantonCost{Canton: name, Cost: cost})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Canton < out[j].Canton })
	return out, nil
}
