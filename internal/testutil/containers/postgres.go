//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/stwalsh4118/cityhall/internal/database"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *database.Database
}

// NewPostgresContainer starts PostgreSQL, connects a pool and applies the
// embedded migrations. The container is terminated when the test ends.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("cityhall"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := database.NewPostgresPoolFromDSN(ctx, dsn, 1, 8)
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(db.Close)

	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// Truncate empties every domain table and resets the number sequences.
// Use between tests to ensure isolation.
func (p *PostgresContainer) Truncate(t *testing.T) {
	t.Helper()

	_, err := p.DB.Pool.Exec(context.Background(), `
		TRUNCATE tax_payments, holding_taxes, tax_periods, properties, citizens RESTART IDENTITY CASCADE;
		ALTER SEQUENCE holding_tax_number_seq RESTART;
		ALTER SEQUENCE tax_payment_number_seq RESTART;
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
