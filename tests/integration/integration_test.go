//go:build integration

// Package integration runs the storage layer against a real PostgreSQL
// instance. The interesting properties here are the ones unit tests cannot
// show: transactional atomicity, row locking under concurrency, and the
// constraint-backed invariants of the schema.
package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mivanenko/shopflow/internal/domain/catalog"
	"github.com/mivanenko/shopflow/internal/domain/user"
	storage "github.com/mivanenko/shopflow/internal/storage/postgres"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shopflow_test"),
		tcpostgres.WithUsername("shopflow"),
		tcpostgres.WithPassword("shopflow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("start postgres container: %v", err)
	}
	defer func() {
		if err := container.Terminate(context.Background()); err != nil {
			log.Printf("terminate container: %v", err)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}

	pool, err = storage.NewPool(ctx, connStr)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	if err := storage.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	return m.Run()
}

// Fixtures. Every test creates its own users and products with fresh UUIDs,
// so tests share the database without stepping on each other.

func createUser(t *testing.T, ctx context.Context) string {
	t.Helper()

	id := uuid.New().String()
	u := &user.User{
		ID:           id,
		Name:         "Test Shopper",
		Email:        id + "@example.com",
		PasswordHash: "$2a$12$not.a.real.hash.but.long.enough.for.storage",
	}
	if err := storage.NewUserRepository(pool).Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func seedProduct(t *testing.T, ctx context.Context, name, price string, stock int) string {
	t.Helper()

	id := uuid.New().String()
	p := &catalog.Product{
		ID:       id,
		Name:     name,
		Category: "test",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
	if err := storage.NewProductRepository(pool).Upsert(ctx, p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return id
}
