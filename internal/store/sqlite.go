package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/csvmatrix/internal/core"
)

// SQLiteStore loads tables into an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file at path. An empty path
// opens a private in-memory database, useful for tests and one-off CLI runs.
func OpenSQLite(path string) (*SQLiteStore, error) {
	var dsn string
	if path == "" {
		// A unique name keeps separate in-memory stores from sharing a cache.
		dsn = fmt.Sprintf("file:csvmatrix-%s?mode=memory&cache=shared", uuid.NewString())
	} else {
		dsn = fmt.Sprintf(
			"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
			path,
		)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying handle for queries outside the loader.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// SaveTable replaces table name with the contents of t in one transaction.
func (s *SQLiteStore) SaveTable(ctx context.Context, name string, t *core.Table) (int64, error) {
	table, err := tableName(name)
	if err != nil {
		return 0, err
	}
	cols := columnsFor(t)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", table)); err != nil {
		return 0, fmt.Errorf("drop table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(table, cols, "REAL")); err != nil {
		return 0, fmt.Errorf("create table %s: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %q VALUES (%s)", table, placeholders))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var written int64
	for i, row := range t.Rows() {
		args, err := sqliteArgs(row, cols, i)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func sqliteArgs(row core.Row, cols []column, i int) ([]any, error) {
	args := make([]any, len(cols))
	for j, c := range cols {
		if c.Type != core.Numeric {
			args[j] = row[j].Value
			continue
		}
		f, err := core.ToPgFloat8(row[j])
		if err != nil {
			return nil, atCell(err, i, j)
		}
		if f.Valid {
			args[j] = f.Float64
		} else {
			args[j] = nil
		}
	}
	return args, nil
}
