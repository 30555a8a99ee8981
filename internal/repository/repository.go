// Package repository provides the PostgreSQL storage layer: customer
// accounts, orders, per-user attributes, global options and API keys.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository wraps a pgx pool shared by every store in this package.
type Repository struct {
	pool *pgxpool.Pool
}

// PoolOption adjusts the pgx pool before it is opened.
type PoolOption func(*pgxpool.Config)

// WithConnLimits bounds the pool. Zero values keep the pgx defaults.
func WithConnLimits(maxConns, minConns int32) PoolOption {
	return func(c *pgxpool.Config) {
		if maxConns > 0 {
			c.MaxConns = maxConns
		}
		if minConns > 0 && minConns <= c.MaxConns {
			c.MinConns = minConns
		}
	}
}

// New opens a pool against databaseURL and pings it.
func New(ctx context.Context, databaseURL string, opts ...PoolOption) (*Repository, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	for _, opt := range opts {
		opt(poolCfg)
	}
	if poolCfg.MinConns > poolCfg.MaxConns {
		poolCfg.MinConns = poolCfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

func (r *Repository) Close() { r.pool.Close() }

// Pool exposes the pool for migrations and test helpers.
func (r *Repository) Pool() *pgxpool.Pool { return r.pool }

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
