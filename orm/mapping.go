package orm

import (
	"context"
	"database/sql"
)

// ScanFunc reads the current row into a T.
type ScanFunc[T any] func(rows *sql.Rows) (T, error)

// ColumnValueFunc lists the columns of t with their values. The primary key
// is left out when includesPK is false, so the database can assign it.
type ColumnValueFunc[T any] func(t *T, includesPK bool) (columns []string, values []any)

// SetPKFunc stores a database-assigned primary key. It is nil for tables
// whose key is supplied by the caller.
type SetPKFunc[T any] func(t *T, id int64)

// PreloaderFunc loads a relation for a page of rows, in place.
type PreloaderFunc[T any] func(ctx context.Context, db Querier, results []T) error

// TableNamer lets a model type name its own table.
type TableNamer interface {
	TableName() string
}

// TableNameOf returns the table T names through TableNamer, with either a
// value or a pointer receiver, or fallback.
func TableNameOf[T any](fallback string) string {
	var v T
	switch n := any(&v).(type) {
	case TableNamer:
		return n.TableName()
	default:
		return fallback
	}
}

// mapping ties a Go type to a table. It is shared, read-only, by every
// Query derived from one NewQuery call.
type mapping[T any] struct {
	table   string
	columns []string
	pk      string
	scan    ScanFunc[T]
	values  ColumnValueFunc[T]
	setPK   SetPKFunc[T]
}

// generatedKey reports whether the database assigns the primary key.
func (m *mapping[T]) generatedKey() bool { return m.setPK != nil }

// rows flattens items into one column list and a row-major value list.
func (m *mapping[T]) rows(items []*T) ([]string, []any) {
	withPK := !m.generatedKey()
	columns, _ := m.values(items[0], withPK)
	values := make([]any, 0, len(columns)*len(items))
	for _, item := range items {
		_, vs := m.values(item, withPK)
		values = append(values, vs...)
	}
	return columns, values
}

// assignments splits t into SET columns and values plus its key.
func (m *mapping[T]) assignments(t *T) (columns []string, values []any, key any) {
	cols, vals := m.values(t, true)
	for i, col := range cols {
		if col == m.pk {
			key = vals[i]
			continue
		}
		columns = append(columns, col)
		values = append(values, vals[i])
	}
	return columns, values, key
}
