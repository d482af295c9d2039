// Package postgres provides the Postgres-backed catalog and build store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// DB is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Store persists devices, models, regions, spec details and build tracking.
type Store struct {
	pool DB
}

// New connects a pool against the configured DSN.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for tests).
func NewWithPool(pool DB) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS devices (
	device_id INT PRIMARY KEY,
	name TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	img_url TEXT NOT NULL DEFAULT '',
	short_description TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS models (
	device_id INT NOT NULL REFERENCES devices(device_id) ON DELETE CASCADE,
	model TEXT PRIMARY KEY
)`,
	`CREATE TABLE IF NOT EXISTS regions (
	model TEXT NOT NULL REFERENCES models(model) ON DELETE CASCADE,
	region VARCHAR(3) NOT NULL,
	PRIMARY KEY (model, region)
)`,
	`CREATE TABLE IF NOT EXISTS details (
	device_id INT NOT NULL REFERENCES devices(device_id) ON DELETE CASCADE,
	category TEXT NOT NULL,
	name TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT '',
	position INT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS builds (
	model TEXT NOT NULL,
	kind TEXT NOT NULL,
	pda TEXT NOT NULL,
	PRIMARY KEY (model, kind)
)`,
}

// InitSchema creates the five tables if they do not exist yet.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
