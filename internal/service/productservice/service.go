package productservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/cache"
	"stockcart/internal/pkg/logger"
)

const (
	catalogCacheKey = "catalog:products"
	// DefaultCacheTTL é o tempo que o catálogo fica no Redis.
	DefaultCacheTTL = 5 * time.Minute
)

// InventoryWriter grava o registro de estoque do produto cadastrado.
type InventoryWriter interface {
	PutRecord(ctx context.Context, rec domain.InventoryRecord) error
}

// Service serve o catálogo com cache-aside no Redis. Se a fonte falhar, a
// última lista carregada com sucesso continua sendo servida.
type Service struct {
	repo      domain.ProductRepository
	inventory InventoryWriter
	cache     cache.Client
	ttl       time.Duration
	logger    logger.Logger

	group singleflight.Group

	mu    sync.RWMutex
	stale []domain.Product
}

// NewService cria e retorna uma nova instância do Serviço de Catálogo.
func NewService(repo domain.ProductRepository, inventory InventoryWriter, cacheClient cache.Client, ttl time.Duration, log logger.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{repo: repo, inventory: inventory, cache: cacheClient, ttl: ttl, logger: log}
}

// UpsertProduct cadastra ou atualiza o produto e grava o estoque dele. Sem id,
// um novo é gerado.
func (s *Service) UpsertProduct(ctx context.Context, req domain.ProductUpsert) (domain.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return domain.Product{}, apperror.NewValidationError("O nome do produto não pode ser vazio.")
	}
	if math.IsNaN(req.Price) || math.IsInf(req.Price, 0) || req.Price <= 0 {
		return domain.Product{}, apperror.NewValidationError("O preço do produto deve ser positivo.")
	}
	if req.Stock < 0 {
		return domain.Product{}, apperror.NewValidationError("O estoque não pode ser negativo.")
	}
	for variant, qty := range req.StockByVariant {
		if qty < 0 {
			return domain.Product{}, apperror.NewValidationError(fmt.Sprintf("O estoque da talla %s não pode ser negativo.", variant))
		}
	}
	if strings.TrimSpace(req.ID) == "" {
		req.ID = uuid.New().String()
	}

	product := req.Product()
	if err := s.repo.Save(ctx, product); err != nil {
		s.logger.Error("Falha ao gravar produto", err)
		return domain.Product{}, err
	}
	if err := s.inventory.PutRecord(ctx, req.Record()); err != nil {
		s.logger.Error("Falha ao gravar estoque do produto", err)
		return domain.Product{}, err
	}
	s.Invalidate(ctx)

	s.logger.Info("Produto cadastrado", map[string]interface{}{
		"product_id": product.ID,
		"stock":      product.Stock,
	})
	return product, nil
}

// Seed cadastra uma lista de produtos (carga inicial). Para no primeiro erro
// e devolve quantos foram gravados.
func (s *Service) Seed(ctx context.Context, items []domain.ProductUpsert) (int, error) {
	for i, item := range items {
		if _, err := s.UpsertProduct(ctx, item); err != nil {
			return i, fmt.Errorf("produto %d (%s): %w", i+1, item.Name, err)
		}
	}
	return len(items), nil
}

// ReadSeedFile lê a carga inicial: um array JSON de ProductUpsert.
func ReadSeedFile(path string) ([]domain.ProductUpsert, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []domain.ProductUpsert
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("carga inicial %s inválida: %w", path, err)
	}
	return items, nil
}

// GetProducts devolve o catálogo filtrado.
func (s *Service) GetProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, apperror.NewValidationError("O preço mínimo não pode ser maior que o máximo.")
	}
	products, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterProducts(products, filter), nil
}

// GetProductByID procura no catálogo e, se não achar, consulta a fonte.
func (s *Service) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, apperror.NewValidationError("O ID do produto é obrigatório.")
	}

	if products, err := s.catalog(ctx); err == nil {
		for _, p := range products {
			if p.ID == id {
				return p, nil
			}
		}
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não foi encontrado.", id))
		}
		return domain.Product{}, err
	}
	return product, nil
}

// Invalidate remove o catálogo do cache (após ajuste de estoque).
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, catalogCacheKey); err != nil {
		s.logger.Warn("Falha ao invalidar cache do catálogo", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Service) catalog(ctx context.Context) ([]domain.Product, error) {
	cached, err := s.cache.Get(ctx, catalogCacheKey)
	if err == nil {
		var products []domain.Product
		if json.Unmarshal([]byte(cached), &products) == nil {
			return products, nil
		}
		s.logger.Warn("Cache do catálogo corrompido; recarregando", nil)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Falha ao ler cache do catálogo", map[string]interface{}{"error": err.Error()})
	}

	out, err, _ := s.group.Do(catalogCacheKey, func() (interface{}, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]domain.Product), nil
}

func (s *Service) load(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.mu.RLock()
		stale := s.stale
		s.mu.RUnlock()
		if stale != nil {
			s.logger.Warn("Fonte do catálogo indisponível; servindo versão anterior", map[string]interface{}{
				"error": err.Error(),
				"count": len(stale),
			})
			return stale, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.stale = products
	s.mu.Unlock()

	if payload, err := json.Marshal(products); err == nil {
		if err := s.cache.Set(ctx, catalogCacheKey, payload, s.ttl); err != nil {
			s.logger.Warn("Falha ao gravar cache do catálogo", map[string]interface{}{"error": err.Error()})
		}
	}
	s.logger.Debug("Catálogo recarregado", map[string]interface{}{"count": len(products)})
	return products, nil
}
