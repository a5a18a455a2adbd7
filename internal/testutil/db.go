//go:build integration

package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	pgdb "github.com/envino/wine-api/internal/adapter/postgres"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// SetupTestDB starts (once per test binary) a Postgres container, applies the
// embedded migrations and returns a pool on a freshly truncated schema.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgOnce.Do(func() {
		var container *tcpostgres.PostgresContainer
		container, pgErr = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("wine_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if pgErr != nil {
			return
		}
		pgDSN, pgErr = container.ConnectionString(ctx, "sslmode=disable")
		if pgErr != nil {
			return
		}
		pgErr = pgdb.Migrate(pgDSN, zap.NewNop())
	})
	if pgErr != nil {
		t.Fatalf("start postgres container: %v", pgErr)
	}

	pool, err := pgdb.Connect(ctx, pgDSN, "wine-api-test", zap.NewNop())
	if err != nil {
		t.Fatalf("connect to test DB: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE wineries, processed_requests"); err != nil {
		pool.Close()
		t.Fatalf("truncate tables: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}
