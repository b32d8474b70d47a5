// Package scope holds reusable query fragments. A Scope knows nothing about
// tables or dialects; it replays itself onto any Applier, which lets named
// scopes be declared once on a resource and merged into any query of it.
package scope

import "strings"

// Applier receives scope fragments. orm.Query implements it.
type Applier interface {
	// QuoteIdent quotes a column name for the target database.
	QuoteIdent(name string) string
	ApplyWhere(clause string, args []any)
	ApplyOrderBy(clause string)
	ApplyLimit(n int)
	ApplyOffset(n int)
	ApplySelect(columns string)
}

// Scope is one query fragment. The zero Scope applies nothing. Scopes are
// immutable and safe to share between goroutines.
type Scope struct {
	apply func(Applier)
}

// Apply replays the fragment onto a.
func (s Scope) Apply(a Applier) {
	if s.apply != nil {
		s.apply(a)
	}
}

// Where adds a condition; conditions are joined with AND.
//
//	scope.Where("published = ? AND archived = ?", true, false)
func Where(clause string, args ...any) Scope {
	return Scope{func(a Applier) { a.ApplyWhere(clause, args) }}
}

// OrderBy appends an ORDER BY term.
//
//	scope.OrderBy("id DESC")
func OrderBy(clause string) Scope {
	return Scope{func(a Applier) { a.ApplyOrderBy(clause) }}
}

func Limit(n int) Scope {
	return Scope{func(a Applier) { a.ApplyLimit(n) }}
}

func Offset(n int) Scope {
	return Scope{func(a Applier) { a.ApplyOffset(n) }}
}

// Select replaces the selected column list.
func Select(columns ...string) Scope {
	list := strings.Join(columns, ", ")
	return Scope{func(a Applier) { a.ApplySelect(list) }}
}

// column renders a condition on a quoted column name.
func column(name, rest string, args ...any) Scope {
	return Scope{func(a Applier) { a.ApplyWhere(a.QuoteIdent(name)+rest, args) }}
}

// Eq matches column = value, or column IS NULL when value is nil. Callers
// must check column against the entity's columns first.
func Eq(col string, value any) Scope {
	if value == nil {
		return IsNull(col)
	}
	return column(col, " = ?", value)
}

func IsNull(col string) Scope {
	return column(col, " IS NULL")
}

// InQuery matches column against a sub-select with ? placeholders, such as
// the output of orm.Query.SubSelect.
func InQuery(col, sub string, args ...any) Scope {
	return column(col, " IN ("+sub+")", args...)
}

// Asc orders by a quoted column, ascending.
func Asc(col string) Scope {
	return Scope{func(a Applier) { a.ApplyOrderBy(a.QuoteIdent(col)) }}
}

// In matches any of values. An empty list matches no row.
//
//	scope.In("id", []int64{1, 2, 3}) // "id" IN (?, ?, ?)
func In[T any](col string, values []T) Scope {
	if len(values) == 0 {
		return Where("1 = 0")
	}
	args := make([]any, 0, len(values))
	for _, v := range values {
		args = append(args, v)
	}
	marks := strings.Repeat("?, ", len(values))
	return column(col, " IN ("+marks[:len(marks)-2]+")", args...)
}

// Scopes is an ordered list of fragments.
type Scopes []Scope

// Combine collects scopes into a list.
func Combine(scopes ...Scope) Scopes { return Scopes(scopes) }

// Append returns a new list with scopes added; ss is left untouched.
func (ss Scopes) Append(scopes ...Scope) Scopes {
	out := make(Scopes, 0, len(ss)+len(scopes))
	return append(append(out, ss...), scopes...)
}

// Merge returns ss followed by other, copying both.
func (ss Scopes) Merge(other Scopes) Scopes { return ss.Append(other...) }

// Apply replays every fragment onto a, in order.
func (ss Scopes) Apply(a Applier) {
	for _, s := range ss {
		s.Apply(a)
	}
}
