package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/soufiangit/supplementer.ai/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS recommendation_requests (
	id              UUID PRIMARY KEY,
	goals           TEXT[] NOT NULL,
	depth_level     TEXT NOT NULL,
	used_model      BOOLEAN NOT NULL DEFAULT FALSE,
	matched         BOOLEAN NOT NULL DEFAULT FALSE,
	recommendations TEXT[] NOT NULL,
	ip_address      TEXT,
	user_agent      TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS recommendation_requests_created_at_idx
	ON recommendation_requests (created_at DESC);
`

// NewPool opens a pgx connection pool. It returns a nil pool when no URL is
// configured.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate creates the history table and its index if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
