// Package testdb starts a migrated PostgreSQL container for integration tests.
// Tests using it are skipped unless TICKLER_TEST_INTEGRATION is set.
package testdb

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/JaimeStill/tickler/migrations"
	"github.com/JaimeStill/tickler/pkg/database"
)

// EnvIntegration gates container-backed tests.
const EnvIntegration = "TICKLER_TEST_INTEGRATION"

// Start runs a PostgreSQL container, applies the schema migrations, and
// returns a connected pool. The container and pool are released on test cleanup.
func Start(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv(EnvIntegration) == "" {
		t.Skipf("skipping integration test: %s not set", EnvIntegration)
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("tickler_test"),
		postgres.WithUsername("tickler"),
		postgres.WithPassword("tickler"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	portNum, err := strconv.Atoi(port.Port())
	if err != nil {
		t.Fatalf("container port %q: %v", port, err)
	}

	cfg := &database.Config{
		Host:     host,
		Port:     portNum,
		Name:     "tickler_test",
		User:     "tickler",
		Password: "tickler",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("database config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := database.Migrate(cfg.MigrationURL(), migrations.FS, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Dsn())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

// Reset removes all rows so each test starts from an empty schema.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), "TRUNCATE files, users CASCADE"); err != nil {
		t.Fatalf("reset tables: %v", err)
	}
}
