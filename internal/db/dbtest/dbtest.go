// Package dbtest opens a migrated Postgres pool for tests, or skips.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"universe/internal/db"
	"universe/internal/logging"
)

func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("UNIVERSE_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("UNIVERSE_TEST_DB or DATABASE_URL not set")
		return nil
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: url, MaxConns: 5})
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	if err := db.Migrate(ctx, pool, logging.Discard()); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

var seq atomic.Int64

// UniqueEmail returns an address that will not collide across test runs.
func UniqueEmail(local, domain string) string {
	return fmt.Sprintf("%s.%d.%d@%s", local, time.Now().UnixNano(), seq.Add(1), domain)
}

// UniqueSuffix returns a short run-unique string for other unique columns.
func UniqueSuffix() string {
	return fmt.Sprintf("%d%d", time.Now().UnixNano()%1e9, seq.Add(1))
}
