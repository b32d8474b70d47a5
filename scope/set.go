package scope

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
)

// Set maps scope names to predefined filter presets, e.g.
//
//	scope.Set{
//	    "published": {scope.Where("published = ?", true)},
//	    "recent":    {scope.OrderBy("id DESC"), scope.Limit(10)},
//	}
//
// A Set is declared once per entity and treated as read-only afterwards.
type Set map[string]Scopes

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Names returns the scope names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the scopes registered under name.
func (s Set) Lookup(name string) (Scopes, bool) {
	ss, ok := s[name]
	return ss, ok
}

// Has reports whether name is declared in the set.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Validate checks that every name is an identifier (letters, digits and
// underscores, starting with a letter), so names can be used as URL path
// segments and enumerated in validation rules.
func (s Set) Validate() error {
	for _, name := range s.Names() {
		if !namePattern.MatchString(name) {
			return fmt.Errorf("scope: invalid scope name %q", name)
		}
	}
	return nil
}

// Clone returns a copy whose Scopes slices are not shared with s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for name, ss := range s {
		out[name] = slices.Clone(ss)
	}
	return out
}
