package productrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"stockcart/internal/domain"
	"stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
)

// ProductRepository implementa a interface domain.ProductRepository sobre o
// PostgreSQL. O estoque vem da tabela inventory, a mesma que o checkout baixa.
type ProductRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
func NewProductRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

const productColumns = `
	SELECT p.id, p.name, p.brand, p.description, p.category, p.subcategory,
	       p.price, p.image_ref, p.sizes, COALESCE(i.stock, 0)
	FROM products p
	LEFT JOIN inventory i ON i.product_id = p.id`

// FindAll lista o catálogo ordenado por nome.
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, productColumns+` ORDER BY p.name`)
	if err != nil {
		return nil, errors.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler produto", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar produtos", err)
	}

	r.logger.Debug("Catálogo carregado do DB.", map[string]interface{}{"count": len(products)})
	return products, nil
}

// FindByID busca um produto pelo ID.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	row := r.DB.QueryRowContext(ctxTimeout, productColumns+` WHERE p.id = $1`, id)
	product, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}
	return product, nil
}

// Save insere ou atualiza um produto (carga inicial do catálogo).
func (r *ProductRepository) Save(ctx context.Context, p domain.Product) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const upsertSQL = `
		INSERT INTO products (id, name, brand, description, category, subcategory, price, image_ref, sizes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, brand = EXCLUDED.brand, description = EXCLUDED.description,
			category = EXCLUDED.category, subcategory = EXCLUDED.subcategory, price = EXCLUDED.price,
			image_ref = EXCLUDED.image_ref, sizes = EXCLUDED.sizes`

	_, err := r.DB.ExecContext(ctxTimeout, upsertSQL,
		p.ID, p.Name, p.Brand, p.Description, p.Category, p.Subcategory, p.Price, p.ImageRef, pq.Array(p.Sizes))
	if err != nil {
		return errors.NewDBError("failed to upsert product", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var (
		p     domain.Product
		sizes []string
	)
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Brand,
		&p.Description,
		&p.Category,
		&p.Subcategory,
		&p.Price,
		&p.ImageRef,
		pq.Array(&sizes),
		&p.Stock,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.Sizes = sizes
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	if p.ImageRef == "" {
		p.ImageRef = domain.PlaceholderImage
	}
	p.Available = p.Stock > 0
	return p, nil
}
