package resource

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mickamy/ormrest/orm"
	"github.com/mickamy/ormrest/scope"
)

// Relation declares how a child row C points at its parent P.
type Relation[P, C any] struct {
	// ForeignKey is the child column holding the parent's primary key.
	ForeignKey   string
	ForeignKeyOf func(*C) int64

	// Assign, when set, registers a preloader on the parent named after the
	// child's plural form ("posts") that fills the parent's children.
	Assign func(parent *P, children []C)
	// AssignParent, when set, registers a preloader on the child named
	// after the parent's singular form ("author").
	AssignParent func(child *C, parent *P)
}

// HasMany is a one-to-many association between two entities. Its methods
// are the fetch and mutation operations bound to the relation; they replace
// looking up accessor methods by naming convention.
type HasMany[P, C any] struct {
	parent     *Entity[P]
	child      *Entity[C]
	foreignKey string
	fkOf       func(*C) int64
	inverse    bool
}

// Filter narrows the children of an association.
type Filter struct {
	Scope   string // named child scope, "" for none
	Where   scope.Scopes
	Include []string
}

// OneToMany declares that every C belongs to one P through rel.ForeignKey.
func OneToMany[P, C any](parent *Entity[P], child *Entity[C], rel Relation[P, C]) (*HasMany[P, C], error) {
	if parent == nil || child == nil {
		return nil, errors.New("resource: OneToMany needs both entities")
	}
	if !child.HasColumn(rel.ForeignKey) {
		return nil, fmt.Errorf("resource %s: foreign key %q is not a column", child.names.Singular, rel.ForeignKey)
	}
	if rel.ForeignKeyOf == nil {
		return nil, fmt.Errorf("resource %s: ForeignKeyOf is required", child.names.Singular)
	}

	h := &HasMany[P, C]{
		parent:     parent,
		child:      child,
		foreignKey: rel.ForeignKey,
		fkOf:       rel.ForeignKeyOf,
	}
	if rel.Assign != nil {
		if err := parent.registerPreloader(child.names.Plural, h.preloadChildren(rel.Assign)); err != nil {
			return nil, err
		}
	}
	if rel.AssignParent != nil {
		if err := child.registerPreloader(parent.names.Singular, h.preloadParent(rel.AssignParent)); err != nil {
			return nil, err
		}
		h.inverse = true
	}
	return h, nil
}

func (h *HasMany[P, C]) Parent() *Entity[P] { return h.parent }
func (h *HasMany[P, C]) Child() *Entity[C]  { return h.child }
func (h *HasMany[P, C]) ForeignKey() string { return h.foreignKey }

// FindParent loads the parent row. Every parent-scoped operation starts
// here so a missing parent fails with NotFoundError before the association
// is touched.
func (h *HasMany[P, C]) FindParent(ctx context.Context, db orm.Querier, id int64) (P, error) {
	return h.parent.Find(ctx, db, id)
}

// Fetch returns the children of parent matching f, ordered by primary key.
// The result is never nil.
func (h *HasMany[P, C]) Fetch(ctx context.Context, db orm.Querier, parent *P, f Filter) ([]C, error) {
	q, err := h.child.Scoped(db, f.Scope)
	if err != nil {
		return nil, err
	}
	items, err := q.
		Scopes(scope.Eq(h.foreignKey, h.parent.ID(parent))).
		Scopes(f.Where...).
		Preload(f.Include...).
		Scopes(scope.Asc(h.child.pk)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", h.child.names.Plural, err)
	}
	return nonNil(items), nil
}

// FetchOne returns the child with primary key id if it belongs to parent,
// as a list of zero or one element.
func (h *HasMany[P, C]) FetchOne(ctx context.Context, db orm.Querier, parent *P, id int64, include []string) ([]C, error) {
	return h.Fetch(ctx, db, parent, Filter{
		Where:   scope.Combine(scope.Eq(h.child.pk, id)),
		Include: include,
	})
}

// CrossScope returns children matching f whose parent matches the named
// parent scope. Children without a qualifying parent are excluded. When the
// relation declares AssignParent the parent is eager-loaded as well.
// Ordering and limits declared on the parent scope do not apply.
func (h *HasMany[P, C]) CrossScope(ctx context.Context, db orm.Querier, parentScope string, f Filter) ([]C, error) {
	parents, err := h.parent.Scoped(db, parentScope)
	if err != nil {
		return nil, err
	}
	children, err := h.child.Scoped(db, f.Scope)
	if err != nil {
		return nil, err
	}

	include := f.Include
	if name := h.parent.names.Singular; h.inverse && !contains(include, name) {
		include = append(append([]string(nil), include...), name)
	}

	sub, args := parents.SubSelect(h.parent.pk)
	items, err := children.
		Scopes(f.Where...).
		Scopes(scope.InQuery(h.foreignKey, sub, args...)).
		Preload(include...).
		Scopes(scope.Asc(h.child.pk)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s by %s scope: %w", h.child.names.Plural, h.parent.names.Singular, err)
	}
	return nonNil(items), nil
}

// DestroyAll deletes the children of parent matching f with one DELETE and
// returns the rows that were targeted. Fetch and delete share a transaction.
func (h *HasMany[P, C]) DestroyAll(ctx context.Context, db *orm.DB, parent *P, f Filter) ([]C, error) {
	var items []C
	err := db.Transaction(ctx, func(tx *orm.Tx) error {
		var err error
		items, err = h.Fetch(ctx, tx, parent, f)
		if err != nil || len(items) == 0 {
			return err
		}
		ids := make([]int64, len(items))
		for i := range items {
			ids[i] = h.child.ID(&items[i])
		}
		if _, err := h.child.Query(tx).Scopes(scope.In(h.child.pk, ids)).Delete(ctx); err != nil {
			return fmt.Errorf("destroy %s: %w", h.child.names.Plural, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// DestroyEach deletes every child of parent matching f with one DELETE per
// row, all issued concurrently (at most limit at a time when limit > 0).
// It is all-or-nothing: the first failure cancels the remaining deletes and
// rolls the transaction back.
func (h *HasMany[P, C]) DestroyEach(ctx context.Context, db *orm.DB, parent *P, f Filter, limit int) ([]C, error) {
	var items []C
	err := db.Transaction(ctx, func(tx *orm.Tx) error {
		var err error
		items, err = h.Fetch(ctx, tx, parent, f)
		if err != nil {
			return err
		}
		return h.fanOut(ctx, "destroy", items, limit, func(ctx context.Context, item *C) error {
			n, err := h.child.Query(tx).Scopes(scope.Eq(h.child.pk, h.child.ID(item))).Delete(ctx)
			if err == nil && n == 0 {
				return orm.ErrNotFound
			}
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateEach applies apply to every child of parent matching f and saves
// each one, concurrently and all-or-nothing like DestroyEach. It returns
// the updated rows.
func (h *HasMany[P, C]) UpdateEach(ctx context.Context, db *orm.DB, parent *P, f Filter, limit int, apply func(*C) error) ([]C, error) {
	var items []C
	err := db.Transaction(ctx, func(tx *orm.Tx) error {
		var err error
		items, err = h.Fetch(ctx, tx, parent, f)
		if err != nil {
			return err
		}
		return h.fanOut(ctx, "update", items, limit, func(ctx context.Context, item *C) error {
			if err := apply(item); err != nil {
				return err
			}
			return h.child.Query(tx).Update(ctx, item)
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// fanOut runs fn for every item concurrently and waits for all of them.
// Each goroutine owns one element of items.
func (h *HasMany[P, C]) fanOut(ctx context.Context, op string, items []C, limit int, fn func(context.Context, *C) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range items {
		g.Go(func() error {
			if err := fn(gctx, &items[i]); err != nil {
				return &MutationError{Op: op, Resource: h.child.names.Singular, ID: h.child.ID(&items[i]), Err: err}
			}
			return nil
		})
	}
	return g.Wait() //nolint:wrapcheck // MutationError carries the context
}

func (h *HasMany[P, C]) preloadChildren(assign func(*P, []C)) orm.PreloaderFunc[P] {
	return func(ctx context.Context, db orm.Querier, results []P) error {
		if len(results) == 0 {
			return nil
		}
		ids := make([]int64, len(results))
		for i := range results {
			ids[i] = h.parent.ID(&results[i])
		}
		related, err := h.child.Query(db).Scopes(scope.In(h.foreignKey, ids), scope.Asc(h.child.pk)).All(ctx)
		if err != nil {
			return err
		}
		byFK := make(map[int64][]C)
		for i := range related {
			fk := h.fkOf(&related[i])
			byFK[fk] = append(byFK[fk], related[i])
		}
		for i := range results {
			assign(&results[i], nonNil(byFK[ids[i]]))
		}
		return nil
	}
}

func (h *HasMany[P, C]) preloadParent(assign func(*C, *P)) orm.PreloaderFunc[C] {
	return func(ctx context.Context, db orm.Querier, results []C) error {
		if len(results) == 0 {
			return nil
		}
		seen := make(map[int64]struct{}, len(results))
		ids := make([]int64, 0, len(results))
		for i := range results {
			fk := h.fkOf(&results[i])
			if _, ok := seen[fk]; !ok {
				seen[fk] = struct{}{}
				ids = append(ids, fk)
			}
		}
		related, err := h.parent.Query(db).Scopes(scope.In(h.parent.pk, ids)).All(ctx)
		if err != nil {
			return err
		}
		byPK := make(map[int64]*P, len(related))
		for i := range related {
			byPK[h.parent.ID(&related[i])] = &related[i]
		}
		for i := range results {
			if p, ok := byPK[h.fkOf(&results[i])]; ok {
				assign(&results[i], p)
			}
		}
		return nil
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
