// Package pgtest sobe um Postgres descartável com as migrações aplicadas,
// para os testes de integração dos repositórios.
package pgtest

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	migrations "stockcart/sql"
)

// EnvFlag habilita os testes que precisam de Docker.
const EnvFlag = "STOCKCART_INTEGRATION"

// Start devolve uma conexão para um container novo, ou pula o teste quando
// EnvFlag não está definida.
func Start(t *testing.T) *sql.DB {
	t.Helper()
	if os.Getenv(EnvFlag) == "" {
		t.Skipf("defina %s=1 para rodar os testes com Postgres", EnvFlag)
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("stockcart"),
		postgres.WithUsername("stockcart"),
		postgres.WithPassword("stockcart"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("falha ao encerrar o container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, "."))
	return db
}
