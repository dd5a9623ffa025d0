// Package store loads finished tables into SQL databases.
//
// Two backends share the same naming and typing rules:
//
//   - PGStore: PostgreSQL through a pgx pool, bulk loaded with COPY
//   - SQLiteStore: an embedded SQLite file (or in-memory database)
//
// Numeric columns become floating point columns and Text columns become text
// columns. Empty Numeric cells are stored as NULL; any other Numeric cell that
// does not parse fails the load with a *core.NumericConversionError.
// Loading a table replaces any existing table of the same name.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvmatrix/internal/core"
)

// Store persists tables.
type Store interface {
	// SaveTable writes t into a table called name and returns rows written.
	SaveTable(ctx context.Context, name string, t *core.Table) (int64, error)
	Close() error
}

// Open picks a backend: Postgres when url is set, else SQLite when
// sqlitePath is set. With neither it returns nil and no error.
func Open(ctx context.Context, url, sqlitePath string, pool PoolConfig) (Store, error) {
	switch {
	case url != "":
		return NewPGStore(ctx, url, pool)
	case sqlitePath != "":
		return OpenSQLite(sqlitePath)
	default:
		return nil, nil
	}
}

// column is one target column after name sanitizing.
type column struct {
	Name string
	Type core.ElemType
}

// columnsFor derives unique, SQL-safe column names for t.
func columnsFor(t *core.Table) []column {
	types := t.ColumnTypes()
	cols := make([]column, len(types))
	used := make(map[string]bool, len(types))

	for j, et := range types {
		base := SanitizeIdent(t.ColumnName(j))
		if base == "" {
			base = "col" + strconv.Itoa(j+1)
		}
		name := base
		for k := 2; used[name]; k++ {
			name = base + "_" + strconv.Itoa(k)
		}
		used[name] = true
		cols[j] = column{Name: name, Type: et}
	}
	return cols
}

// SanitizeIdent lowercases s and replaces anything outside [a-z0-9_] with
// '_'. Leading and trailing underscores are trimmed and a leading digit gets
// a "c_" prefix. The result may be empty.
func SanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "c_" + out
	}
	return out
}

// tableName validates and sanitizes a target table name.
func tableName(name string) (string, error) {
	safe := SanitizeIdent(name)
	if safe == "" {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return safe, nil
}

// createTableSQL renders a CREATE TABLE statement. Identifiers are already
// restricted to [a-z0-9_] so plain double quoting is safe for both dialects.
func createTableSQL(table string, cols []column, numericType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %q (", table)
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		typ := "TEXT"
		if c.Type == core.Numeric {
			typ = numericType
		}
		fmt.Fprintf(&b, "%q %s", c.Name, typ)
	}
	b.WriteString(")")
	return b.String()
}

// atCell stamps a cell position onto a *core.NumericConversionError produced
// by a single-field conversion.
func atCell(err error, row, col int) error {
	var nce *core.NumericConversionError
	if errors.As(err, &nce) {
		placed := *nce
		placed.Row, placed.Column = row, col
		return &placed
	}
	return err
}
