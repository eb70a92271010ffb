package cartservice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
	"stockcart/internal/pkg/sessionlock"
)

// CartStore é o contrato de persistência do carrinho da sessão.
type CartStore interface {
	Load(ctx context.Context, sessionID string) domain.Cart
	LoadStrict(ctx context.Context, sessionID string) (domain.Cart, error)
	Save(ctx context.Context, sessionID string, cart domain.Cart) error
	Clear(ctx context.Context, sessionID string) error
}

// AvailabilityChecker é o contrato do validador de estoque.
type AvailabilityChecker interface {
	CheckOne(ctx context.Context, productKey, variant string, requested int) (domain.AvailabilityResult, error)
	CheckCart(ctx context.Context, cart domain.Cart) (domain.CartValidationReport, error)
}

// Catalog resolve o produto pelo id; é a fonte de nome, preço e imagem das
// linhas do carrinho.
type Catalog interface {
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
}

// Service reconcilia o carrinho da sessão com o estoque.
type Service struct {
	store   CartStore
	checker AvailabilityChecker
	catalog Catalog
	logger  logger.Logger
	locks   *sessionlock.Locks
	now     func() time.Time
}

// NewService cria e retorna uma nova instância do Serviço de Carrinho. locks
// deve ser o mesmo usado pelo checkout; nil cria um conjunto próprio. Sem
// catalog, nome e preço vêm do pedido.
func NewService(store CartStore, checker AvailabilityChecker, catalog Catalog, locks *sessionlock.Locks, logger logger.Logger) *Service {
	if locks == nil {
		locks = sessionlock.New()
	}
	return &Service{
		store:   store,
		checker: checker,
		catalog: catalog,
		logger:  logger,
		locks:   locks,
		now:     time.Now,
	}
}

// AddItem valida o pedido, consulta o estoque para a quantidade total
// (já no carrinho + pedida) e só então grava. Em qualquer rejeição o carrinho
// persistido não muda.
func (s *Service) AddItem(ctx context.Context, sessionID string, req domain.AddItemRequest) (domain.Cart, error) {
	item, err := s.resolveItem(ctx, req)
	if err != nil {
		s.logger.Debug("Produto inválido rejeitado", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		return nil, err
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	cart, err := s.store.LoadStrict(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	existing := 0
	if idx := cart.Find(item.ProductKey, item.Variant); idx > -1 {
		existing = cart[idx].Quantity
	}
	requestedTotal := existing + item.Quantity

	result, err := s.checker.CheckOne(ctx, item.ProductKey, item.Variant, requestedTotal)
	if err != nil {
		s.logger.Error("Falha ao consultar estoque ao adicionar item", err)
		return nil, asStoreError(err)
	}
	if !result.Available {
		s.logger.Info("Estoque insuficiente ao adicionar item", map[string]interface{}{
			"session_id":    sessionID,
			"product_key":   item.ProductKey,
			"variant":       item.Variant,
			"requested":     requestedTotal,
			"current_stock": result.CurrentStock,
		})
		return nil, apperror.NewInsufficientStockError(item.ProductKey, item.Variant, result.CurrentStock, result.Message)
	}

	next := domain.MergeItem(cart, item, s.now())
	if err := s.store.Save(ctx, sessionID, next); err != nil {
		return nil, err
	}

	s.logger.Info("Item adicionado ao carrinho", map[string]interface{}{
		"session_id":  sessionID,
		"product_key": item.ProductKey,
		"variant":     item.Variant,
		"quantity":    requestedTotal,
	})
	return next, nil
}

// RemoveItem remove a linha (productKey, variant). Linha ausente não é erro.
func (s *Service) RemoveItem(ctx context.Context, sessionID, productKey, variant string) (domain.Cart, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	cart, err := s.store.LoadStrict(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	next := cart.Without(productKey, variant)
	if len(next) == len(cart) {
		return cart, nil
	}
	if err := s.store.Save(ctx, sessionID, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Clear esvazia o carrinho.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	return s.store.Clear(ctx, sessionID)
}

// Summary devolve o resumo do carrinho (contagem, unidades, total).
func (s *Service) Summary(ctx context.Context, sessionID string) domain.CartSummary {
	return s.store.Load(ctx, sessionID).Summarize()
}

// Review revalida o carrinho contra o estoque e grava a versão corrigida
// quando alguma linha ficou indisponível.
func (s *Service) Review(ctx context.Context, sessionID string) (domain.CartValidationReport, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	cart, err := s.store.LoadStrict(ctx, sessionID)
	if err != nil {
		return domain.CartValidationReport{}, err
	}
	report, err := s.checker.CheckCart(ctx, cart)
	if err != nil {
		s.logger.Error("Falha ao revalidar carrinho", err)
		return domain.CartValidationReport{}, asStoreError(err)
	}

	if !report.AllAvailable {
		s.logger.Warn("Linhas sem estoque removidas do carrinho", map[string]interface{}{
			"session_id": sessionID,
			"removed":    len(report.InvalidLines),
		})
		if err := s.store.Save(ctx, sessionID, report.ValidCart); err != nil {
			return domain.CartValidationReport{}, err
		}
	}
	return report, nil
}

// resolveItem monta a linha do carrinho. Com catálogo configurado, o produto
// precisa existir e nome, preço e imagem vêm dele; um pedido que diverge do
// catálogo é rejeitado.
func (s *Service) resolveItem(ctx context.Context, req domain.AddItemRequest) (domain.CartLineItem, error) {
	if s.catalog == nil {
		return itemFromRequest(req)
	}

	id := strings.TrimSpace(req.ProductID)
	if id == "" {
		return domain.CartLineItem{}, apperror.NewInvalidProductError("o produto precisa de um id do catálogo")
	}
	product, err := s.catalog.GetProductByID(ctx, id)
	if err != nil {
		var notFound *apperror.NotFoundError
		var invalid *apperror.ValidationError
		if errors.As(err, &notFound) || errors.As(err, &invalid) {
			return domain.CartLineItem{}, apperror.NewInvalidProductError(fmt.Sprintf("produto %s não existe no catálogo", id))
		}
		s.logger.Error("Falha ao consultar o catálogo ao adicionar item", err)
		return domain.CartLineItem{}, asStoreError(err)
	}

	if math.IsNaN(req.UnitPrice) || math.IsInf(req.UnitPrice, 0) || req.UnitPrice < 0 {
		return domain.CartLineItem{}, apperror.NewInvalidProductError(fmt.Sprintf("preço inválido para %s", id))
	}
	name := strings.TrimSpace(req.DisplayName)
	if name != "" && !strings.EqualFold(name, product.Name) {
		return domain.CartLineItem{}, apperror.NewInvalidProductError(fmt.Sprintf("nome não confere com o catálogo para %s", id))
	}
	if req.UnitPrice != 0 && !decimal.NewFromFloat(req.UnitPrice).Equal(decimal.NewFromFloat(product.Price)) {
		return domain.CartLineItem{}, apperror.NewInvalidProductError(fmt.Sprintf("preço não confere com o catálogo para %s", id))
	}

	req.ProductID = product.ID
	req.DisplayName = product.Name
	req.UnitPrice = product.Price
	req.ImageRef = product.ImageRef
	return itemFromRequest(req)
}

// itemFromRequest aplica os padrões (variante M, quantidade 1) e as regras de
// validação do produto.
func itemFromRequest(req domain.AddItemRequest) (domain.CartLineItem, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return domain.CartLineItem{}, apperror.NewInvalidProductError("o produto precisa de um nome")
	}
	if math.IsNaN(req.UnitPrice) || math.IsInf(req.UnitPrice, 0) || req.UnitPrice < 0 {
		return domain.CartLineItem{}, apperror.NewInvalidProductError(fmt.Sprintf("preço inválido para %s", name))
	}
	if req.Quantity < 0 {
		return domain.CartLineItem{}, apperror.NewInvalidProductError(fmt.Sprintf("quantidade inválida para %s", name))
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	return domain.CartLineItem{
		ProductKey:  domain.ProductKeyFor(req.ProductID, name),
		DisplayName: name,
		UnitPrice:   req.UnitPrice,
		Variant:     domain.NormalizeVariant(req.Variant),
		Quantity:    qty,
		ImageRef:    strings.TrimSpace(req.ImageRef),
	}, nil
}

// asStoreError garante que falhas do estoque saiam tipadas.
func asStoreError(err error) error {
	var appErr apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewStoreError("falha ao consultar o estoque", err)
}
