package httperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mickamy/ormrest/internal/blog"
	"github.com/mickamy/ormrest/internal/blog/blogtest"
	"github.com/mickamy/ormrest/internal/httperr"
	"github.com/mickamy/ormrest/orm"
	"github.com/mickamy/ormrest/resource"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		kind    httperr.Kind
		status  int
		message string
	}{
		{
			name:    "validation",
			err:     httperr.Validation("scope", "must be one of [drafts published]"),
			kind:    httperr.KindValidation,
			status:  http.StatusBadRequest,
			message: "invalid request",
		},
		{
			name:    "unknown scope",
			err:     fmt.Errorf("fetch: %w", &resource.UnknownScopeError{Resource: "posts", Scope: "hot"}),
			kind:    httperr.KindValidation,
			status:  http.StatusBadRequest,
			message: `posts has no scope "hot"`,
		},
		{
			name:    "missing parent",
			err:     &resource.NotFoundError{Resource: "author", ID: 7},
			kind:    httperr.KindNotFound,
			status:  http.StatusNotFound,
			message: "author 7 not found",
		},
		{
			name:    "row vanished during fan-out",
			err:     &resource.MutationError{Op: "update", Resource: "post", ID: 3, Err: orm.ErrNotFound},
			kind:    httperr.KindNotFound,
			status:  http.StatusNotFound,
			message: "post 3 not found",
		},
		{
			name:    "postgres unique violation",
			err:     fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}),
			kind:    httperr.KindConflict,
			status:  http.StatusConflict,
			message: "constraint violation",
		},
		{
			name:    "postgres syntax error",
			err:     &pgconn.PgError{Code: "42601"},
			kind:    httperr.KindInternal,
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
		{
			name:    "mysql foreign key",
			err:     &resource.MutationError{Op: "destroy", Resource: "author", ID: 1, Err: &mysql.MySQLError{Number: 1451}},
			kind:    httperr.KindConflict,
			status:  http.StatusConflict,
			message: "constraint violation",
		},
		{
			name:    "mysql missing table",
			err:     &mysql.MySQLError{Number: 1146, Message: "Table 'posts' doesn't exist"},
			kind:    httperr.KindInternal,
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
		{
			name:    "anything else",
			err:     errors.New("connection reset"),
			kind:    httperr.KindInternal,
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := httperr.Classify(tt.err)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, tt.message, p.Message)
		})
	}
}

func TestSQLiteConstraintIsConflict(t *testing.T) {
	t.Parallel()

	db, models := blogtest.Open(t, true)
	repo := blog.NewRepository(db, models)

	err := repo.CreatePosts(t.Context(), &blog.Author{ID: 999}, []*blog.Post{{Title: "orphan"}})
	require.Error(t, err)
	assert.True(t, httperr.IsConstraintViolation(err), "err = %v", err)
	assert.Equal(t, httperr.KindConflict, httperr.Classify(err).Kind)
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	var ve httperr.ValidationError
	assert.NoError(t, ve.OrNil())

	ve.Add("include", "unknown include %q", "comments")
	ve.Add("where.color", "unknown column")
	require.Error(t, ve.OrNil())
	assert.Equal(t, `invalid request: include: unknown include "comments"; where.color: unknown column`, ve.Error())
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(httperr.RequestIDKey, "req-1")
		c.Next()
	})
	r.Use(httperr.Middleware(zaptest.NewLogger(t)))
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, []int{}) })
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(&resource.NotFoundError{Resource: "author", ID: 7})
	})
	r.GET("/invalid", func(c *gin.Context) {
		httperr.Abort(c, httperr.Validation("aid", "must be an integer"))
	}, func(c *gin.Context) {
		t.Error("handler after Abort must not run")
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("dial tcp: connection refused"))
	})

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/ok", http.StatusOK, `[]`},
		{"/missing", http.StatusNotFound, `{"kind":"not_found","status":404,"message":"author 7 not found","request_id":"req-1"}`},
		{"/invalid", http.StatusBadRequest, `{"kind":"validation","status":400,"message":"invalid request","fields":[{"field":"aid","message":"must be an integer"}],"request_id":"req-1"}`},
		{"/boom", http.StatusInternalServerError, `{"kind":"internal","status":500,"message":"internal server error","request_id":"req-1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}
