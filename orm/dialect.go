package orm

import (
	"strconv"
	"strings"
)

// Dialect covers the SQL differences between the supported engines.
type Dialect interface {
	// Placeholder returns the bind marker for the 1-based argument index.
	Placeholder(index int) string
	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string
	// UseReturning reports whether generated keys come back through
	// INSERT ... RETURNING instead of LastInsertId.
	UseReturning() bool
	// ReturningClause is appended to INSERT when UseReturning is true.
	ReturningClause(pk string) string
}

var (
	MySQL      Dialect = dialect{name: "mysql", quote: "`"}
	PostgreSQL Dialect = dialect{name: "postgres", quote: `"`, numbered: true, returning: true}
	// SQLite targets modernc.org/sqlite.
	SQLite Dialect = dialect{name: "sqlite", quote: `"`}
)

type dialect struct {
	name      string
	quote     string
	numbered  bool
	returning bool
}

func (d dialect) String() string { return d.name }

func (d dialect) Placeholder(index int) string {
	if d.numbered {
		return "$" + strconv.Itoa(index)
	}
	return "?"
}

// QuoteIdent doubles embedded quote characters.
func (d dialect) QuoteIdent(name string) string {
	return d.quote + strings.ReplaceAll(name, d.quote, d.quote+d.quote) + d.quote
}

func (d dialect) UseReturning() bool { return d.returning }

func (d dialect) ReturningClause(pk string) string {
	if !d.returning {
		return ""
	}
	return " RETURNING " + d.QuoteIdent(pk)
}

// rewritePlaceholders numbers the ? markers of query for dialects that
// need it. Query text must not contain literal question marks.
func rewritePlaceholders(d Dialect, query string) string {
	if d.Placeholder(1) == "?" || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for {
		i := strings.IndexByte(query, '?')
		if i < 0 {
			b.WriteString(query)
			return b.String()
		}
		n++
		b.WriteString(query[:i])
		b.WriteString(d.Placeholder(n))
		query = query[i+1:]
	}
}
