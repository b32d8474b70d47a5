package resource

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/mickamy/ormrest/internal/naming"
	"github.com/mickamy/ormrest/orm"
	"github.com/mickamy/ormrest/scope"
)

// Model declares a table-backed type T. It carries the same functions the
// orm package needs to build a Query[T], plus naming and scope metadata.
//
// JSON field names of T are expected to match its column names; request
// payloads are validated against Columns and decoded onto T.
type Model[T any] struct {
	// Name is the singular resource name, e.g. "Author". Names overrides it.
	Name  string
	Names naming.Names

	// Table defaults to T's TableName() when T implements orm.TableNamer,
	// otherwise to Names.Plural.
	Table   string
	Columns []string
	// PK defaults to "id".
	PK string

	Scan         orm.ScanFunc[T]
	ColumnValues orm.ColumnValueFunc[T]
	SetPK        orm.SetPKFunc[T]
	ID           func(*T) int64

	Scopes scope.Set
}

// Entity is the runtime descriptor built from a Model. Preloaders are
// registered while associations are declared at startup; an Entity must
// not be modified once it serves requests.
type Entity[T any] struct {
	names   naming.Names
	table   string
	columns []string
	pk      string
	scan    orm.ScanFunc[T]
	colVals orm.ColumnValueFunc[T]
	setPK   orm.SetPKFunc[T]
	idOf    func(*T) int64
	scopes  scope.Set

	preloaders map[string]orm.PreloaderFunc[T]
}

// Define validates m and returns its Entity.
func Define[T any](m Model[T]) (*Entity[T], error) {
	names := m.Names
	if names == (naming.Names{}) {
		if m.Name == "" {
			return nil, errors.New("resource: Name or Names is required")
		}
		names = naming.For(m.Name)
	}
	if err := names.Validate(); err != nil {
		return nil, fmt.Errorf("resource %s: %w", m.Name, err)
	}

	table := m.Table
	if table == "" {
		table = orm.TableNameOf[T](names.TableName())
	}
	pk := m.PK
	if pk == "" {
		pk = "id"
	}

	switch {
	case len(m.Columns) == 0:
		return nil, fmt.Errorf("resource %s: no columns", names.Singular)
	case !slices.Contains(m.Columns, pk):
		return nil, fmt.Errorf("resource %s: primary key %q is not a column", names.Singular, pk)
	case m.Scan == nil || m.ColumnValues == nil || m.ID == nil:
		return nil, fmt.Errorf("resource %s: Scan, ColumnValues and ID are required", names.Singular)
	}

	scopes := m.Scopes.Clone()
	if err := scopes.Validate(); err != nil {
		return nil, fmt.Errorf("resource %s: %w", names.Singular, err)
	}

	return &Entity[T]{
		names:      names,
		table:      table,
		columns:    slices.Clone(m.Columns),
		pk:         pk,
		scan:       m.Scan,
		colVals:    m.ColumnValues,
		setPK:      m.SetPK,
		idOf:       m.ID,
		scopes:     scopes,
		preloaders: make(map[string]orm.PreloaderFunc[T]),
	}, nil
}

// MustDefine is like Define but panics on error. Intended for package-level
// declarations.
func MustDefine[T any](m Model[T]) *Entity[T] {
	e, err := Define(m)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Entity[T]) Names() naming.Names { return e.names }
func (e *Entity[T]) Table() string       { return e.table }
func (e *Entity[T]) PK() string          { return e.pk }
func (e *Entity[T]) Columns() []string   { return slices.Clone(e.columns) }
func (e *Entity[T]) ID(v *T) int64       { return e.idOf(v) }

// HasColumn reports whether column belongs to the entity.
func (e *Entity[T]) HasColumn(column string) bool {
	return slices.Contains(e.columns, column)
}

// ScopeNames returns the declared scope names, sorted.
func (e *Entity[T]) ScopeNames() []string { return e.scopes.Names() }

// HasScope reports whether name is a declared scope.
func (e *Entity[T]) HasScope(name string) bool { return e.scopes.Has(name) }

// Includes returns the names accepted by Preload, sorted.
func (e *Entity[T]) Includes() []string {
	names := make([]string, 0, len(e.preloaders))
	for name := range e.preloaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasInclude reports whether name is a registered preloader.
func (e *Entity[T]) HasInclude(name string) bool {
	_, ok := e.preloaders[name]
	return ok
}

func (e *Entity[T]) registerPreloader(name string, fn orm.PreloaderFunc[T]) error {
	if _, dup := e.preloaders[name]; dup {
		return fmt.Errorf("resource %s: include %q already registered", e.names.Singular, name)
	}
	e.preloaders[name] = fn
	return nil
}

// Query returns a new query against the entity's table with every
// registered preloader available.
func (e *Entity[T]) Query(db orm.Querier) *orm.Query[T] {
	q := orm.NewQuery[T](db, e.table, e.columns, e.pk, e.scan, e.colVals, e.setPK)
	for name, fn := range e.preloaders {
		q.RegisterPreloader(name, fn)
	}
	return q
}

// Scoped returns Query narrowed by the named scope. An empty name applies
// no scope.
func (e *Entity[T]) Scoped(db orm.Querier, name string) (*orm.Query[T], error) {
	q := e.Query(db)
	if name == "" {
		return q, nil
	}
	ss, ok := e.scopes.Lookup(name)
	if !ok {
		return nil, &UnknownScopeError{Resource: e.names.Plural, Scope: name}
	}
	return q.Scopes(ss...), nil
}

// Find loads the row with the given primary key.
func (e *Entity[T]) Find(ctx context.Context, db orm.Querier, id int64) (T, error) {
	v, err := e.Query(db).Scopes(scope.Eq(e.pk, id)).First(ctx)
	if errors.Is(err, orm.ErrNotFound) {
		return v, &NotFoundError{Resource: e.names.Singular, ID: id}
	}
	if err != nil {
		return v, fmt.Errorf("find %s %d: %w", e.names.Singular, id, err)
	}
	return v, nil
}
