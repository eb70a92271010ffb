package inventoryrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stockcart/internal/domain"
	"stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
)

// PostgresStore implementa Store sobre as tabelas inventory e inventory_variants.
type PostgresStore struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
	now       func() time.Time
}

// NewPostgresStore cria e retorna uma nova instância do acesso ao estoque no Postgres.
func NewPostgresStore(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *PostgresStore {
	return &PostgresStore{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
		now:       time.Now,
	}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// GetRecord busca o registro de estoque de um produto.
func (r *PostgresStore) GetRecord(ctx context.Context, productID string) (domain.InventoryRecord, bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rec, found, err := loadRecord(ctxTimeout, r.DB, productID, false)
	if err != nil {
		r.logger.Error("Falha ao buscar registro de estoque no DB.", err)
		return domain.InventoryRecord{}, false, errors.NewDBError("Falha ao buscar registro de estoque", err)
	}
	return rec, found, nil
}

// loadRecord lê a linha agregada e, se houver, as variantes. Com forUpdate as
// linhas ficam travadas até o fim da transação.
func loadRecord(ctx context.Context, q queryer, productID string, forUpdate bool) (domain.InventoryRecord, bool, error) {
	lock := ""
	if forUpdate {
		lock = " FOR UPDATE"
	}

	var (
		rec         domain.InventoryRecord
		hasVariants bool
		lastSale    sql.NullTime
	)
	err := q.QueryRowContext(ctx,
		`SELECT product_id, stock, has_variants, last_sale FROM inventory WHERE product_id = $1`+lock,
		productID,
	).Scan(&rec.ProductID, &rec.Stock, &hasVariants, &lastSale)
	if err == sql.ErrNoRows {
		return domain.InventoryRecord{}, false, nil
	}
	if err != nil {
		return domain.InventoryRecord{}, false, err
	}
	if lastSale.Valid {
		ts := lastSale.Time
		rec.LastSale = &ts
	}
	if !hasVariants {
		return rec, true, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT variant, stock FROM inventory_variants WHERE product_id = $1 ORDER BY variant`+lock,
		productID,
	)
	if err != nil {
		return domain.InventoryRecord{}, false, err
	}
	defer rows.Close()

	rec.StockByVariant = make(map[string]int)
	for rows.Next() {
		var (
			variant string
			stock   int
		)
		if err := rows.Scan(&variant, &stock); err != nil {
			return domain.InventoryRecord{}, false, err
		}
		rec.StockByVariant[variant] = stock
	}
	if err := rows.Err(); err != nil {
		return domain.InventoryRecord{}, false, err
	}
	return rec, true, nil
}

// ListRecords devolve todos os registros de estoque.
func (r *PostgresStore) ListRecords(ctx context.Context) ([]domain.InventoryRecord, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `
        SELECT i.product_id, i.stock, i.has_variants, i.last_sale, v.variant, v.stock
        FROM inventory i
        LEFT JOIN inventory_variants v ON v.product_id = i.product_id
        ORDER BY i.product_id, v.variant`)
	if err != nil {
		r.logger.Error("Falha ao listar estoque no DB.", err)
		return nil, errors.NewDBError("Falha ao listar estoque", err)
	}
	defer rows.Close()

	out := make([]domain.InventoryRecord, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			id           string
			stock        int
			hasVariants  bool
			lastSale     sql.NullTime
			variant      sql.NullString
			variantStock sql.NullInt64
		)
		if err := rows.Scan(&id, &stock, &hasVariants, &lastSale, &variant, &variantStock); err != nil {
			return nil, errors.NewDBError("Falha ao ler estoque", err)
		}
		pos, seen := index[id]
		if !seen {
			rec := domain.InventoryRecord{ProductID: id, Stock: stock}
			if hasVariants {
				rec.StockByVariant = make(map[string]int)
			}
			if lastSale.Valid {
				ts := lastSale.Time
				rec.LastSale = &ts
			}
			out = append(out, rec)
			pos = len(out) - 1
			index[id] = pos
		}
		if variant.Valid && out[pos].StockByVariant != nil {
			out[pos].StockByVariant[variant.String] = int(variantStock.Int64)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao ler estoque", err)
	}
	return out, nil
}

// BatchAdjust aplica o lote numa única transação. As linhas são travadas com
// FOR UPDATE em ordem de product_id; a checagem de negativos acontece antes
// de qualquer UPDATE.
func (r *PostgresStore) BatchAdjust(ctx context.Context, adjustments []domain.StockAdjustment) error {
	r.logger.Debug("Iniciando ajuste de estoque em lote.", map[string]interface{}{"adjustments": len(adjustments)})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para ajuste de estoque.", err)
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	ids, grouped := domain.GroupAdjustments(adjustments)
	now := r.now().UTC()

	updated := make([]domain.InventoryRecord, 0, len(ids))
	for _, id := range ids {
		rec, found, err := loadRecord(ctxTimeout, tx, id, true)
		if err != nil {
			r.logger.Error("Falha ao travar registro de estoque.", err)
			return errors.NewDBError("Falha ao buscar estoque para atualização", err)
		}
		if !found {
			if hasDecrement(grouped[id]) {
				r.logger.Warn("Produto não encontrado no lote de baixa.", map[string]interface{}{"product_id": id})
				return missingRecord(id)
			}
			continue
		}
		next, err := domain.ApplyAdjustments(rec, grouped[id], now)
		if err != nil {
			r.logger.Warn("Lote rejeitado: estoque ficaria negativo.", map[string]interface{}{"product_id": id, "error": err.Error()})
			return rejection(err)
		}
		updated = append(updated, next)
	}

	for _, rec := range updated {
		if rec.HasVariants() {
			for variant, stock := range rec.StockByVariant {
				if _, err := tx.ExecContext(ctxTimeout, `
                    INSERT INTO inventory_variants (product_id, variant, stock)
                    VALUES ($1, $2, $3)
                    ON CONFLICT (product_id, variant) DO UPDATE SET stock = EXCLUDED.stock`,
					rec.ProductID, variant, stock,
				); err != nil {
					r.logger.Error("Falha ao atualizar estoque da variante.", err)
					return errors.NewDBError("Falha ao atualizar variante", err)
				}
			}
		}

		var lastSale interface{}
		if rec.LastSale != nil {
			lastSale = *rec.LastSale
		}
		if _, err := tx.ExecContext(ctxTimeout, `
            UPDATE inventory SET stock = $1, last_sale = $2, updated_at = $3
            WHERE product_id = $4`,
			rec.Stock, lastSale, now, rec.ProductID,
		); err != nil {
			r.logger.Error("Falha ao atualizar estoque.", err)
			return errors.NewDBError("Falha ao atualizar estoque", err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de ajuste de estoque.", err)
		return errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Lote de estoque aplicado com sucesso.", map[string]interface{}{"products": len(updated)})
	return nil
}

// PutRecord insere ou substitui um registro (cadastro de produto e carga inicial).
func (r *PostgresStore) PutRecord(ctx context.Context, rec domain.InventoryRecord) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	stock := rec.Stock
	if rec.HasVariants() {
		stock = rec.SumVariants()
	}
	if _, err := tx.ExecContext(ctxTimeout, `
        INSERT INTO inventory (product_id, stock, has_variants, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (product_id) DO UPDATE
        SET stock = EXCLUDED.stock, has_variants = EXCLUDED.has_variants, updated_at = EXCLUDED.updated_at`,
		rec.ProductID, stock, rec.HasVariants(), r.now().UTC(),
	); err != nil {
		return errors.NewDBError(fmt.Sprintf("Falha ao gravar estoque de %s", rec.ProductID), err)
	}
	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM inventory_variants WHERE product_id = $1`, rec.ProductID); err != nil {
		return errors.NewDBError("Falha ao limpar variantes", err)
	}
	for variant, qty := range rec.StockByVariant {
		if _, err := tx.ExecContext(ctxTimeout,
			`INSERT INTO inventory_variants (product_id, variant, stock) VALUES ($1, $2, $3)`,
			rec.ProductID, variant, qty,
		); err != nil {
			return errors.NewDBError("Falha ao gravar variante", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewDBError("Falha ao commitar transação", err)
	}
	return nil
}
