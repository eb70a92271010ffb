package salerepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"stockcart/internal/domain"
	"stockcart/internal/errors"
	"stockcart/internal/pkg/logger"
)

// PostgresRecorder grava vendas na tabela sales.
type PostgresRecorder struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewPostgresRecorder cria o gravador de vendas sobre o Postgres.
func NewPostgresRecorder(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *PostgresRecorder {
	return &PostgresRecorder{DB: db, DBTimeout: dbTimeout, logger: log}
}

const insertSaleSQL = `INSERT INTO sales (id, items, total, customer_meta, payment_method, status, platform, created_at)
                       VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Record insere o registro de venda. Vendas nunca são atualizadas.
func (r *PostgresRecorder) Record(ctx context.Context, sale domain.Sale) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	items, err := json.Marshal(sale.Items)
	if err != nil {
		return errors.NewInternalError("falha ao serializar itens da venda", err)
	}
	meta := []byte("{}")
	if len(sale.CustomerMeta) > 0 {
		if meta, err = json.Marshal(sale.CustomerMeta); err != nil {
			return errors.NewInternalError("falha ao serializar dados do cliente", err)
		}
	}

	_, err = r.DB.ExecContext(ctxTimeout, insertSaleSQL,
		sale.ID,
		items,
		sale.Total.String(),
		meta,
		sale.PaymentMethod,
		sale.Status,
		sale.Platform,
		sale.Timestamp,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir venda no DB.", err)
		return errors.NewDBError("failed to insert sale", err)
	}

	r.logger.Debug("Venda registrada.", map[string]interface{}{"sale_id": sale.ID, "total": sale.Total.String()})
	return nil
}
