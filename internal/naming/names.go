package naming

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// Names is the singular/plural pair used to build URL segments for an
// entity, e.g. {Singular: "author", Plural: "authors"}.
type Names struct {
	Singular string `json:"singular"`
	Plural   string `json:"plural"`
}

// For derives Names from a singular resource name, e.g. "Author" →
// {author, authors} and "BlogPost" → {blog_post, blog_posts}.
func For(name string) Names {
	singular := inflection.Singular(Snake(name))
	return Names{Singular: singular, Plural: inflection.Plural(singular)}
}

// Validate reports whether both forms are set and distinct. Identical forms
// ("sheep") would make item and collection routes collide.
func (n Names) Validate() error {
	if n.Singular == "" || n.Plural == "" {
		return fmt.Errorf("naming: empty name in %+v", n)
	}
	if n.Singular == n.Plural {
		return fmt.Errorf("naming: singular and plural are both %q", n.Singular)
	}
	return nil
}

// TableName returns the default table name: the snake_case plural.
func (n Names) TableName() string {
	return n.Plural
}

// Snake converts CamelCase to snake_case, keeping acronyms whole:
// "UserID" → "user_id", "HTTPServer" → "http_server".
func Snake(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) && startsWord(rs, i) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// startsWord reports whether the upper-case rune at i begins a new word.
func startsWord(rs []rune, i int) bool {
	prev := rs[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(rs) && unicode.IsLower(rs[i+1])
}
