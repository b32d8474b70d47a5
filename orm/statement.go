package orm

import (
	"slices"
	"strconv"
	"strings"

	"github.com/mickamy/ormrest/scope"
)

type condition struct {
	sql  string
	args []any
}

// clauses is the per-query state a builder call changes. Negative limit
// and offset mean unset.
type clauses struct {
	d       Dialect
	where   []condition
	order   []string
	columns string
	limit   int
	offset  int
}

func newClauses(d Dialect) clauses { return clauses{d: d, limit: -1, offset: -1} }

func (c clauses) clone() clauses {
	c.where = slices.Clone(c.where)
	c.order = slices.Clone(c.order)
	return c
}

var _ scope.Applier = (*clauses)(nil)

func (c *clauses) QuoteIdent(name string) string { return c.d.QuoteIdent(name) }

func (c *clauses) ApplyWhere(sql string, args []any) {
	c.where = append(c.where, condition{sql, args})
}
func (c *clauses) ApplyOrderBy(sql string)    { c.order = append(c.order, sql) }
func (c *clauses) ApplyLimit(n int)           { c.limit = n }
func (c *clauses) ApplyOffset(n int)          { c.offset = n }
func (c *clauses) ApplySelect(columns string) { c.columns = columns }

// stmt accumulates SQL text with ? placeholders and the matching args.
type stmt struct {
	d    Dialect
	sb   strings.Builder
	args []any
}

func newStmt(d Dialect) *stmt { return &stmt{d: d} }

func (s *stmt) raw(parts ...string) *stmt {
	for _, p := range parts {
		s.sb.WriteString(p)
	}
	return s
}

func (s *stmt) ident(name string) *stmt { return s.raw(s.d.QuoteIdent(name)) }

func (s *stmt) idents(names []string) *stmt {
	for i, n := range names {
		if i > 0 {
			s.raw(", ")
		}
		s.ident(n)
	}
	return s
}

// marks writes "(?, ?, ...)" with n placeholders.
func (s *stmt) marks(n int) *stmt {
	s.raw("(")
	for i := range n {
		if i > 0 {
			s.raw(", ")
		}
		s.raw("?")
	}
	return s.raw(")")
}

func (s *stmt) bind(args ...any) *stmt {
	s.args = append(s.args, args...)
	return s
}

func (s *stmt) where(conds []condition) *stmt {
	for i, c := range conds {
		if i == 0 {
			s.raw(" WHERE ")
		} else {
			s.raw(" AND ")
		}
		s.raw(c.sql).bind(c.args...)
	}
	return s
}

// text returns the SQL with ? placeholders, for embedding in another stmt.
func (s *stmt) text() string { return s.sb.String() }

// build returns the SQL in the dialect's placeholder style.
func (s *stmt) build() (string, []any) {
	return rewritePlaceholders(s.d, s.sb.String()), s.args
}

func selectStmt[T any](d Dialect, m *mapping[T], c clauses) *stmt {
	s := newStmt(d).raw("SELECT ")
	if c.columns != "" {
		s.raw(c.columns)
	} else {
		s.idents(m.columns)
	}
	s.raw(" FROM ").ident(m.table).where(c.where)
	if len(c.order) > 0 {
		s.raw(" ORDER BY ", strings.Join(c.order, ", "))
	}
	if c.limit >= 0 {
		s.raw(" LIMIT ", strconv.Itoa(c.limit))
	}
	if c.offset >= 0 {
		s.raw(" OFFSET ", strconv.Itoa(c.offset))
	}
	return s
}

func insertStmt(d Dialect, table string, columns []string, rows int) *stmt {
	s := newStmt(d).raw("INSERT INTO ").ident(table).raw(" (").idents(columns).raw(") VALUES ")
	for i := range rows {
		if i > 0 {
			s.raw(", ")
		}
		s.marks(len(columns))
	}
	return s
}

func updateStmt(d Dialect, table, pk string, columns []string) *stmt {
	s := newStmt(d).raw("UPDATE ").ident(table).raw(" SET ")
	for i, col := range columns {
		if i > 0 {
			s.raw(", ")
		}
		s.ident(col).raw(" = ?")
	}
	return s.raw(" WHERE ").ident(pk).raw(" = ?")
}

func deleteStmt(d Dialect, table string, conds []condition) *stmt {
	return newStmt(d).raw("DELETE FROM ").ident(table).where(conds)
}
