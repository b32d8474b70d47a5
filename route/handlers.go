package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mickamy/ormrest/internal/reqparse"
	"github.com/mickamy/ormrest/orm"
	"github.com/mickamy/ormrest/resource"
)

type binder[P, C any] struct {
	db       *orm.DB
	rel      *resource.HasMany[P, C]
	limit    int
	logger   *zap.Logger
	writable writable
}

// parent loads the parent named by :aid. The lookup runs before any
// association query so a missing parent is a 404, not an empty list.
func (b *binder[P, C]) parent(c *gin.Context) (*P, bool) {
	id, err := reqparse.ID(c, ParamParentID)
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	p, err := b.rel.FindParent(c.Request.Context(), b.db, id)
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	return &p, true
}

// filter reads where conditions and includes from the query string.
func (b *binder[P, C]) filter(c *gin.Context, scopeParam string) (resource.Filter, bool) {
	child := b.rel.Child()
	where, err := reqparse.Where(c, child)
	if err != nil {
		_ = c.Error(err)
		return resource.Filter{}, false
	}
	include, err := reqparse.Include(c, child)
	if err != nil {
		_ = c.Error(err)
		return resource.Filter{}, false
	}
	f := resource.Filter{Where: where, Include: include}
	if scopeParam != "" {
		f.Scope = c.Param(scopeParam)
	}
	return f, true
}

// scopeParamOf returns ParamScope when the matched route carries it.
func scopeParamOf(c *gin.Context) string {
	if _, ok := c.Params.Get(ParamScope); ok {
		return ParamScope
	}
	return ""
}

func (b *binder[P, C]) reply(c *gin.Context, items []C) {
	if items == nil {
		items = []C{}
	}
	c.JSON(http.StatusOK, items)
}

// GET /{a}/:aid/{b}/:bid
func (b *binder[P, C]) getOne(c *gin.Context) {
	parent, ok := b.parent(c)
	if !ok {
		return
	}
	id, err := reqparse.ID(c, ParamChildID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	include, err := reqparse.Include(c, b.rel.Child())
	if err != nil {
		_ = c.Error(err)
		return
	}
	items, err := b.rel.FetchOne(c.Request.Context(), b.db, parent, id, include)
	if err != nil {
		_ = c.Error(err)
		return
	}
	b.reply(c, items)
}

// GET /{a}/:aid/{bs} and GET /{a}/:aid/{bs}/:scope
func (b *binder[P, C]) list(c *gin.Context) {
	parent, ok := b.parent(c)
	if !ok {
		return
	}
	f, ok := b.filter(c, scopeParamOf(c))
	if !ok {
		return
	}
	items, err := b.rel.Fetch(c.Request.Context(), b.db, parent, f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	b.reply(c, items)
}

// GET /{as}/:scopea/{bs}/:scopeb
func (b *binder[P, C]) crossScope(c *gin.Context) {
	f, ok := b.filter(c, ParamChildScope)
	if !ok {
		return
	}
	items, err := b.rel.CrossScope(c.Request.Context(), b.db, c.Param(ParamParentScope), f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	b.reply(c, items)
}

// DELETE /{a}/:aid/{bs}
func (b *binder[P, C]) destroyAll(c *gin.Context) {
	parent, ok := b.parent(c)
	if !ok {
		return
	}
	f, ok := b.filter(c, "")
	if !ok {
		return
	}
	items, err := b.rel.DestroyAll(c.Request.Context(), b.db, parent, f)
	if err != nil {
		_ = c.Error(err)
		return
	}
	b.logger.Info("destroyed", zap.Int("count", len(items)))
	b.reply(c, items)
}

// DELETE /{a}/:aid/{bs}/:scope
func (b *binder[P, C]) destroyEach(c *gin.Context) {
	parent, ok := b.parent(c)
	if !ok {
		return
	}
	f, ok := b.filter(c, ParamScope)
	if !ok {
		return
	}
	items, err := b.rel.DestroyEach(c.Request.Context(), b.db, parent, f, b.limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	b.logger.Info("destroyed", zap.String("scope", f.Scope), zap.Int("count", len(items)))
	b.reply(c, items)
}

// PUT /{a}/:aid/{bs}
func (b *binder[P, C]) update(c *gin.Context) {
	parent, ok := b.parent(c)
	if !ok {
		return
	}
	f, ok := b.filter(c, "")
	if !ok {
		return
	}
	payload, err := reqparse.ReadPayload(c, b.writable)
	if err != nil {
		_ = c.Error(err)
		return
	}
	// Catch type mismatches before any row is touched.
	var probe C
	if err := payload.Apply(&probe); err != nil {
		_ = c.Error(err)
		return
	}

	items, err := b.rel.UpdateEach(c.Request.Context(), b.db, parent, f, b.limit, func(item *C) error {
		return payload.Apply(item)
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	b.logger.Info("updated", zap.Strings("fields", payload.Keys()), zap.Int("count", len(items)))
	b.reply(c, items)
}
