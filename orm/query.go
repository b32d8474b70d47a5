package orm

import (
	"slices"

	"github.com/mickamy/ormrest/scope"
)

// Query is a pending statement against one table. Builder methods return a
// new Query and never change the receiver, so a Query can be shared and
// extended by several callers.
type Query[T any] struct {
	db Querier
	m  *mapping[T]
	c  clauses

	preloaders map[string]PreloaderFunc[T]
	preloads   []string
}

// NewQuery returns a query selecting every column of table through db,
// which may be a *DB or a *Tx.
func NewQuery[T any](
	db Querier,
	table string,
	columns []string,
	pk string,
	scan ScanFunc[T],
	values ColumnValueFunc[T],
	setPK SetPKFunc[T],
) *Query[T] {
	return &Query[T]{
		db: db,
		m: &mapping[T]{
			table:   table,
			columns: columns,
			pk:      pk,
			scan:    scan,
			values:  values,
			setPK:   setPK,
		},
		c: newClauses(db.dialect()),
	}
}

// RegisterPreloader makes name available to Preload. Unlike the builder
// methods it changes q and every Query derived from q afterwards.
func (q *Query[T]) RegisterPreloader(name string, fn PreloaderFunc[T]) {
	if q.preloaders == nil {
		q.preloaders = make(map[string]PreloaderFunc[T])
	}
	q.preloaders[name] = fn
}

func (q *Query[T]) derive(change func(c *clauses)) *Query[T] {
	next := *q
	next.c = q.c.clone()
	next.preloads = slices.Clone(q.preloads)
	if change != nil {
		change(&next.c)
	}
	return &next
}

func (q *Query[T]) Where(sql string, args ...any) *Query[T] {
	return q.derive(func(c *clauses) { c.ApplyWhere(sql, args) })
}

func (q *Query[T]) OrderBy(sql string) *Query[T] {
	return q.derive(func(c *clauses) { c.ApplyOrderBy(sql) })
}

func (q *Query[T]) Limit(n int) *Query[T] {
	return q.derive(func(c *clauses) { c.ApplyLimit(n) })
}

func (q *Query[T]) Offset(n int) *Query[T] {
	return q.derive(func(c *clauses) { c.ApplyOffset(n) })
}

// Select replaces the column list, e.g. Select("id, title").
func (q *Query[T]) Select(columns string) *Query[T] {
	return q.derive(func(c *clauses) { c.ApplySelect(columns) })
}

// Scopes merges predefined fragments into the query.
func (q *Query[T]) Scopes(scopes ...scope.Scope) *Query[T] {
	return q.derive(func(c *clauses) { scope.Scopes(scopes).Apply(c) })
}

// Preload names relations to load after the rows, through preloaders
// registered with RegisterPreloader.
func (q *Query[T]) Preload(names ...string) *Query[T] {
	next := q.derive(nil)
	next.preloads = append(next.preloads, names...)
	return next
}

func (q *Query[T]) dialect() Dialect { return q.db.dialect() }
