package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies
// the schema. Returns a cleanup function that must be called after
// tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	runTestSchema(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// runTestSchema applies the alerts schema. Mirrors the embedded
// migration; kept inline so the test package has no dependency cycle
// with migrations.
func runTestSchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS alerts (
			id              UUID PRIMARY KEY,
			alert_type      TEXT NOT NULL,
			chain           TEXT NOT NULL,
			pair            TEXT NOT NULL,
			token_mint      TEXT NOT NULL,
			pool_address    TEXT NOT NULL,
			tx_signature    TEXT NOT NULL UNIQUE,
			value_sol       DOUBLE PRECISION NOT NULL,
			value_usd       DOUBLE PRECISION NOT NULL,
			lp_sol_before   DOUBLE PRECISION NOT NULL,
			lp_sol_after    DOUBLE PRECISION NOT NULL,
			market_cap_usd  DOUBLE PRECISION NOT NULL,
			pair_age_hours  DOUBLE PRECISION NOT NULL,
			is_new_pool     BOOLEAN NOT NULL,
			passed          BOOLEAN NOT NULL,
			priority        TEXT NOT NULL DEFAULT '',
			mode            TEXT NOT NULL,
			triggered_at    TIMESTAMPTZ NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_token_mint ON alerts (token_mint, triggered_at);
		CREATE INDEX IF NOT EXISTS idx_alerts_triggered_at ON alerts (triggered_at DESC);
	`)
	require.NoError(t, err, "failed to apply alerts schema")
}
