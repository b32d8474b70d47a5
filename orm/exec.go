package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// All runs the SELECT, then each requested preloader over the result.
// Unknown preload names fail before any SQL is sent.
func (q *Query[T]) All(ctx context.Context) ([]T, error) {
	for _, name := range q.preloads {
		if _, ok := q.preloaders[name]; !ok {
			return nil, fmt.Errorf("orm: unknown preload %q", name)
		}
	}

	query, args := selectStmt(q.dialect(), q.m, q.c).build()
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	items, err := collect(rows, q.m.scan)
	if err != nil {
		return nil, err
	}

	for _, name := range q.preloads {
		if err := q.preloaders[name](ctx, q.db, items); err != nil {
			return nil, fmt.Errorf("orm: preload %s: %w", name, err)
		}
	}
	return items, nil
}

func collect[T any](rows *sql.Rows, scan ScanFunc[T]) ([]T, error) {
	defer func() { _ = rows.Close() }()

	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err() //nolint:wrapcheck // pass through
}

// First returns the first matching row, or ErrNotFound.
func (q *Query[T]) First(ctx context.Context) (T, error) {
	var zero T
	items, err := q.Limit(1).All(ctx)
	switch {
	case err != nil:
		return zero, err
	case len(items) == 0:
		return zero, ErrNotFound
	default:
		return items[0], nil
	}
}

// Create inserts t and stores its generated key, if any.
func (q *Query[T]) Create(ctx context.Context, t *T) error {
	return q.CreateAll(ctx, []*T{t})
}

// CreateAll inserts items with one multi-row INSERT. Generated keys come
// from RETURNING on PostgreSQL and from LastInsertId elsewhere.
func (q *Query[T]) CreateAll(ctx context.Context, items []*T) error {
	if len(items) == 0 {
		return nil
	}
	d := q.dialect()
	columns, values := q.m.rows(items)
	s := insertStmt(d, q.m.table, columns, len(items)).bind(values...)

	if !q.m.generatedKey() {
		query, args := s.build()
		_, err := q.db.ExecContext(ctx, query, args...)
		return err //nolint:wrapcheck // pass through
	}
	if d.UseReturning() {
		s.raw(d.ReturningClause(q.m.pk))
		return q.insertReturning(ctx, s, items)
	}

	query, args := s.build()
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err //nolint:wrapcheck // pass through
	}
	last, err := result.LastInsertId()
	if err != nil {
		return err //nolint:wrapcheck // pass through
	}
	// MySQL reports the first id of a multi-row insert, SQLite the last.
	first := last
	if d == SQLite {
		first = last - int64(len(items)) + 1
	}
	for i, item := range items {
		q.m.setPK(item, first+int64(i))
	}
	return nil
}

func (q *Query[T]) insertReturning(ctx context.Context, s *stmt, items []*T) error {
	query, args := s.build()
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err //nolint:wrapcheck // pass through
	}
	defer func() { _ = rows.Close() }()

	n := 0
	for ; rows.Next(); n++ {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err //nolint:wrapcheck // pass through
		}
		if n < len(items) {
			q.m.setPK(items[n], id)
		}
	}
	if err := rows.Err(); err != nil {
		return err //nolint:wrapcheck // pass through
	}
	if n != len(items) {
		return fmt.Errorf("orm: insert returned %d keys for %d rows", n, len(items))
	}
	return nil
}

// Update writes every non-key column of t to the row with t's key. It
// returns ErrNotFound when no row has that key.
func (q *Query[T]) Update(ctx context.Context, t *T) error {
	columns, values, key := q.m.assignments(t)
	if key == nil {
		return errors.New("orm: Update needs a primary key value")
	}
	query, args := updateStmt(q.dialect(), q.m.table, q.m.pk, columns).bind(values...).bind(key).build()

	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err //nolint:wrapcheck // pass through
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err //nolint:wrapcheck // pass through
	}
	// MySQL counts matched rows only with clientFoundRows=true.
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the rows matching the query's conditions and reports how
// many went. A query without conditions is refused.
func (q *Query[T]) Delete(ctx context.Context) (int64, error) {
	if len(q.c.where) == 0 {
		return 0, errors.New("orm: refusing to Delete without a condition")
	}
	query, args := deleteStmt(q.dialect(), q.m.table, q.c.where).build()
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err //nolint:wrapcheck // pass through
	}
	return result.RowsAffected() //nolint:wrapcheck // pass through
}

// SubSelect renders "SELECT column FROM table WHERE ..." with ?
// placeholders, for use inside another query's condition:
//
//	sub, args := authors.SubSelect("id")
//	posts.Where("author_id IN ("+sub+")", args...)
//
// Ordering and limits are dropped.
func (q *Query[T]) SubSelect(column string) (string, []any) {
	d := q.dialect()
	s := newStmt(d).raw("SELECT ").ident(column).raw(" FROM ").ident(q.m.table).where(q.c.where)
	return s.text(), s.args
}
