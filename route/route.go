// Package route registers REST sub-resource routes for one-to-many
// associations on a gin router.
//
// For authors having many posts, OneToMany registers:
//
//	GET    /author/:aid/post/:bid
//	GET    /author/:aid/posts
//	GET    /author/:aid/posts/:scope
//	GET    /authors/:scopea/posts/:scopeb
//	DELETE /author/:aid/posts
//	DELETE /author/:aid/posts/:scope
//	PUT    /author/:aid/posts
//
// Every route answers with a JSON array. Errors are recorded with c.Error
// and rendered by httperr.Middleware, which must be installed on the router.
package route

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mickamy/ormrest/internal/httperr"
	"github.com/mickamy/ormrest/orm"
	"github.com/mickamy/ormrest/resource"
)

// Options configure OneToMany.
type Options struct {
	// Prefix is prepended to every path, e.g. "/api".
	Prefix string
	Logger *zap.Logger
	// FanOutLimit bounds concurrent per-row deletes and updates. Zero means
	// unbounded.
	FanOutLimit int
	// Validate runs the path parameter rules. A new validator is used when
	// nil.
	Validate *validator.Validate
}

// Path parameter names.
const (
	ParamParentID    = "aid"
	ParamChildID     = "bid"
	ParamScope       = "scope"
	ParamParentScope = "scopea"
	ParamChildScope  = "scopeb"
)

// OneToMany registers the seven routes of rel on r. Nothing is registered
// when it returns an error. Registering the same relation twice on one
// router panics inside gin.
func OneToMany[P, C any](r gin.IRouter, db *orm.DB, rel *resource.HasMany[P, C], opts Options) error {
	switch {
	case r == nil:
		return errors.New("route: nil router")
	case db == nil:
		return errors.New("route: nil database")
	case rel == nil:
		return errors.New("route: nil relation")
	case opts.FanOutLimit < 0:
		return fmt.Errorf("route: negative fan-out limit %d", opts.FanOutLimit)
	}

	parent, child := rel.Parent(), rel.Child()
	pn, cn := parent.Names(), child.Names()
	for _, n := range []string{pn.Singular, pn.Plural, cn.Singular, cn.Plural} {
		if strings.ContainsAny(n, "/:*") {
			return fmt.Errorf("route: %q is not a path segment", n)
		}
	}
	if err := pn.Validate(); err != nil {
		return fmt.Errorf("route: %w", err)
	}
	if err := cn.Validate(); err != nil {
		return fmt.Errorf("route: %w", err)
	}

	prefix := strings.TrimRight(opts.Prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := opts.Validate
	if validate == nil {
		validate = validator.New()
	}

	b := &binder[P, C]{
		db:       db,
		rel:      rel,
		limit:    opts.FanOutLimit,
		logger:   logger.With(zap.String("relation", pn.Singular+"."+cn.Plural)),
		writable: writableColumns(child.Columns(), child.PK(), rel.ForeignKey()),
	}

	var (
		parentID    = intParam(validate, ParamParentID)
		childID     = intParam(validate, ParamChildID)
		childScope  = scopeParam(validate, ParamScope, child.ScopeNames())
		parentScope = scopeParam(validate, ParamParentScope, parent.ScopeNames())
		crossChild  = scopeParam(validate, ParamChildScope, child.ScopeNames())
	)

	one := fmt.Sprintf("%s/%s/:%s/%s/:%s", prefix, pn.Singular, ParamParentID, cn.Singular, ParamChildID)
	list := fmt.Sprintf("%s/%s/:%s/%s", prefix, pn.Singular, ParamParentID, cn.Plural)
	scoped := fmt.Sprintf("%s/:%s", list, ParamScope)
	cross := fmt.Sprintf("%s/%s/:%s/%s/:%s", prefix, pn.Plural, ParamParentScope, cn.Plural, ParamChildScope)

	routes := []struct {
		method  string
		path    string
		rules   []paramRule
		handler gin.HandlerFunc
	}{
		{http.MethodGet, one, []paramRule{parentID, childID}, b.getOne},
		{http.MethodGet, list, []paramRule{parentID}, b.list},
		{http.MethodGet, scoped, []paramRule{childScope, parentID}, b.list},
		{http.MethodGet, cross, []paramRule{parentScope, crossChild}, b.crossScope},
		{http.MethodDelete, list, []paramRule{parentID}, b.destroyAll},
		{http.MethodDelete, scoped, []paramRule{childScope, parentID}, b.destroyEach},
		{http.MethodPut, list, []paramRule{parentID}, b.update},
	}
	for _, rt := range routes {
		r.Handle(rt.method, rt.path, validateParams(rt.rules), rt.handler)
		b.logger.Debug("route registered", zap.String("method", rt.method), zap.String("path", rt.path))
	}
	return nil
}

// writable accepts the columns a bulk update may set.
type writable map[string]bool

func (w writable) HasColumn(column string) bool { return w[column] }

func writableColumns(columns []string, exclude ...string) writable {
	w := make(writable, len(columns))
	for _, c := range columns {
		w[c] = true
	}
	for _, c := range exclude {
		delete(w, c)
	}
	return w
}

// paramRule is one path parameter check run before the handler.
type paramRule struct {
	name    string
	check   func(string) error
	message string
}

func intParam(v *validator.Validate, name string) paramRule {
	return paramRule{
		name:    name,
		check:   func(s string) error { return v.Var(s, "required,number,max=19") },
		message: "must be a positive integer",
	}
}

func scopeParam(v *validator.Validate, name string, scopes []string) paramRule {
	if len(scopes) == 0 {
		return paramRule{
			name:    name,
			check:   func(string) error { return errors.New("no scopes declared") },
			message: "no scopes are declared",
		}
	}
	tag := "required,oneof=" + strings.Join(scopes, " ")
	return paramRule{
		name:    name,
		check:   func(s string) error { return v.Var(s, tag) },
		message: fmt.Sprintf("must be one of [%s]", strings.Join(scopes, " ")),
	}
}

// validateParams rejects the request with a ValidationError naming every
// failing parameter; the handler does not run.
func validateParams(rules []paramRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ve httperr.ValidationError
		for _, rule := range rules {
			if err := rule.check(c.Param(rule.name)); err != nil {
				ve.Add(rule.name, "%s", rule.message)
			}
		}
		if err := ve.OrNil(); err != nil {
			httperr.Abort(c, err)
			return
		}
		c.Next()
	}
}
