package kv

import (
	"context"
	"errors"
	"os"
	"testing"

	"apparel-storefront/internal/domain"
	"apparel-storefront/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE kv_entries`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	store := NewPostgres(pool)
	if _, err := store.Get(ctx, "v1:cart"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set(ctx, "v1:cart", "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "v1:cart", "[1]"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := store.Get(ctx, "v1:cart")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "[1]" {
		t.Fatalf("expected upserted value, got %q", got)
	}
	if err := store.Remove(ctx, "v1:cart"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Get(ctx, "v1:cart"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}
