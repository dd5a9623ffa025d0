package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/csvmatrix/internal/core"
)

// PoolConfig sizes the pgx connection pool.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PGStore loads tables into PostgreSQL using the COPY protocol.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to url and verifies the connection with a ping.
func NewPGStore(ctx context.Context, url string, cfg PoolConfig) (*PGStore, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// SaveTable replaces table name with the contents of t inside one
// transaction and bulk loads the rows with COPY.
func (s *PGStore) SaveTable(ctx context.Context, name string, t *core.Table) (int64, error) {
	table, err := tableName(name)
	if err != nil {
		return 0, err
	}
	cols := columnsFor(t)
	rows, err := pgRows(t, cols)
	if err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	drop := "DROP TABLE IF EXISTS " + pgx.Identifier{table}.Sanitize()
	if _, err := tx.Exec(ctx, drop); err != nil {
		return 0, fmt.Errorf("drop table %s: %w", table, err)
	}
	if _, err := tx.Exec(ctx, createTableSQL(table, cols, "DOUBLE PRECISION")); err != nil {
		return 0, fmt.Errorf("create table %s: %w", table, err)
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, names, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Close closes the pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// pgRows converts the grid into COPY values: pgtype.Float8 for Numeric
// columns and pgtype.Text for Text columns.
func pgRows(t *core.Table, cols []column) ([][]any, error) {
	out := make([][]any, 0, t.NumRows())
	for i, row := range t.Rows() {
		vals := make([]any, len(cols))
		for j, c := range cols {
			if c.Type != core.Numeric {
				vals[j] = core.ToPgText(row[j])
				continue
			}
			f, err := core.ToPgFloat8(row[j])
			if err != nil {
				return nil, atCell(err, i, j)
			}
			vals[j] = f
		}
		out = append(out, vals)
	}
	return out, nil
}
