package cartrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockcart/internal/domain"
	apperror "stockcart/internal/errors"
	"stockcart/internal/pkg/cache"
	"stockcart/internal/pkg/logger"
)

// cartKey é a chave do blob do carrinho de uma sessão.
const cartKey = "cart:%s"

// Store persiste o carrinho de cada sessão como um único blob JSON no Redis.
type Store struct {
	Cache   cache.Client
	TTL     time.Duration
	Timeout time.Duration
	logger  logger.Logger
}

// NewStore cria o Cart Store.
func NewStore(cacheClient cache.Client, ttl, timeout time.Duration, log logger.Logger) *Store {
	return &Store{
		Cache:   cacheClient,
		TTL:     ttl,
		Timeout: timeout,
		logger:  log,
	}
}

// Load nunca falha: chave ausente, erro do Redis ou blob corrompido devolvem
// carrinho vazio. Serve apenas para leitura; quem vai regravar o carrinho usa
// LoadStrict.
func (s *Store) Load(ctx context.Context, sessionID string) domain.Cart {
	cart, err := s.LoadStrict(ctx, sessionID)
	if err != nil {
		return domain.Cart{}
	}
	return cart
}

// LoadStrict distingue carrinho ausente de falha de leitura: chave ausente ou
// blob corrompido devolvem carrinho vazio, mas um erro do Redis volta como
// StorageError para que o chamador não sobrescreva o carrinho real. Linhas
// inválidas são descartadas e o carrinho corrigido é regravado.
func (s *Store) LoadStrict(ctx context.Context, sessionID string) (domain.Cart, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	key := fmt.Sprintf(cartKey, sessionID)
	raw, err := s.Cache.Get(ctxTimeout, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return domain.Cart{}, nil
	}
	if err != nil {
		s.logger.Error("Falha ao ler carrinho do Redis", err)
		return nil, apperror.NewStorageError("falha ao ler o carrinho", err)
	}

	cart, dropped, err := domain.DecodeCart([]byte(raw))
	if err != nil {
		s.logger.Warn("Carrinho corrompido descartado", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		return domain.Cart{}, nil
	}

	if dropped > 0 {
		s.logger.Warn("Linhas inválidas removidas do carrinho", map[string]interface{}{"session_id": sessionID, "dropped": dropped})
		if err := s.Save(ctx, sessionID, cart); err != nil {
			s.logger.Error("Falha ao regravar carrinho corrigido", err)
		}
	}
	return cart, nil
}

// Save serializa e grava o carrinho. O carrinho do chamador não é alterado.
func (s *Store) Save(ctx context.Context, sessionID string, cart domain.Cart) error {
	if cart == nil {
		cart = domain.Cart{}
	}
	blob, err := json.Marshal(cart)
	if err != nil {
		return apperror.NewStorageError("falha ao serializar o carrinho", err)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.Cache.Set(ctxTimeout, fmt.Sprintf(cartKey, sessionID), blob, s.TTL); err != nil {
		s.logger.Error("Falha ao gravar carrinho no Redis", err)
		return apperror.NewStorageError("falha ao gravar o carrinho", err)
	}
	return nil
}

// Clear remove o carrinho da sessão.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.Cache.Delete(ctxTimeout, fmt.Sprintf(cartKey, sessionID)); err != nil {
		s.logger.Error("Falha ao limpar carrinho no Redis", err)
		return apperror.NewStorageError("falha ao limpar o carrinho", err)
	}
	return nil
}
