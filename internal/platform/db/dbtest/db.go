// Package dbtest starts a throwaway Postgres for repository integration tests.
package dbtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/stallbook/stallbook/internal/platform/db"
	_ "github.com/stallbook/stallbook/internal/testing/guard"
	"github.com/stallbook/stallbook/migrations"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// Pool starts a shared PostgreSQL container once per test binary, applies the
// embedded migrations and returns a pool closed on test cleanup.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	once.Do(func() {
		sharedDSN, initErr = startContainer()
	})
	if initErr != nil {
		t.Fatalf("dbtest: setup: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.New(ctx, sharedDSN, 0)
	if err != nil {
		t.Fatalf("dbtest: pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "stallbook",
			"POSTGRES_PASSWORD": "stallbook",
			"POSTGRES_DB":       "stallbook",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("mapped port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://stallbook:stallbook@%s:%s/stallbook?sslmode=disable", host, port.Port())
	if err := db.Migrate(ctx, dsn, migrations.FS, nil); err != nil {
		return "", err
	}
	return dsn, nil
}

// SeedUser inserts a user with a unique email and returns its id.
func SeedUser(t *testing.T, pool *pgxpool.Pool, name string) int64 {
	t.Helper()
	var id int64
	email := fmt.Sprintf("%s-%d@stallbook.test", name, time.Now().UnixNano())
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`, name, email).Scan(&id)
	if err != nil {
		t.Fatalf("dbtest: seed user: %v", err)
	}
	return id
}
