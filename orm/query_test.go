package orm_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/mickamy/ormrest/orm"
	"github.com/mickamy/ormrest/scope"
)

type testPost struct {
	ID       int
	AuthorID int
	Title    string
}

var testPostColumns = []string{"id", "author_id", "title"}

func scanTestPost(_ *sql.Rows) (testPost, error) {
	return testPost{}, nil
}

func testPostColValPairs(p *testPost, includesPK bool) ([]string, []any) {
	if includesPK {
		return []string{"id", "author_id", "title"}, []any{p.ID, p.AuthorID, p.Title}
	}
	return []string{"author_id", "title"}, []any{p.AuthorID, p.Title}
}

func setTestPostPK(p *testPost, id int64) {
	p.ID = int(id)
}

func newTestQuery(tq *orm.TestQuerier) *orm.Query[testPost] {
	return orm.NewQuery[testPost](tq, "posts", testPostColumns, "id", scanTestPost, testPostColValPairs, setTestPostPK)
}

// --- SELECT ---

func TestBuildSelect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(q *orm.Query[testPost]) *orm.Query[testPost]
		want  string
		args  int
	}{
		{
			name:  "all",
			build: func(q *orm.Query[testPost]) *orm.Query[testPost] { return q },
			want:  "SELECT `id`, `author_id`, `title` FROM `posts`",
		},
		{
			name: "multiple where",
			build: func(q *orm.Query[testPost]) *orm.Query[testPost] {
				return q.Where("author_id = ?", 1).Where("id > ?", 10)
			},
			want: "SELECT `id`, `author_id`, `title` FROM `posts` WHERE author_id = ? AND id > ?",
			args: 2,
		},
		{
			name: "custom columns",
			build: func(q *orm.Query[testPost]) *orm.Query[testPost] {
				return q.Select("id")
			},
			want: "SELECT id FROM `posts`",
		},
		{
			name: "full",
			build: func(q *orm.Query[testPost]) *orm.Query[testPost] {
				return q.Where("title = ?", "hello").OrderBy("id DESC").Limit(5).Offset(10)
			},
			want: "SELECT `id`, `author_id`, `title` FROM `posts` WHERE title = ? ORDER BY id DESC LIMIT 5 OFFSET 10",
			args: 1,
		},
		{
			name: "scopes",
			build: func(q *orm.Query[testPost]) *orm.Query[testPost] {
				return q.Scopes(
					scope.Where("title = ?", "hello"),
					scope.OrderBy("id DESC"),
					scope.Limit(5),
					scope.Offset(10),
				)
			},
			want: "SELECT `id`, `author_id`, `title` FROM `posts` WHERE title = ? ORDER BY id DESC LIMIT 5 OFFSET 10",
			args: 1,
		},
		{
			name: "in scope",
			build: func(q *orm.Query[testPost]) *orm.Query[testPost] {
				return q.Scopes(scope.In("id", []int{1, 2, 3}))
			},
			want: "SELECT `id`, `author_id`, `title` FROM `posts` WHERE `id` IN (?, ?, ?)",
			args: 3,
		},
		{
			name: "reserved word column",
			build: func(q *orm.Query[testPost]) *orm.Query[testPost] {
				return q.Scopes(scope.Eq("order", 1), scope.Asc("group"))
			},
			want: "SELECT `id`, `author_id`, `title` FROM `posts` WHERE `order` = ? ORDER BY `group`",
			args: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tq := orm.NewTestQuerier(orm.MySQL)
			_, _ = tt.build(newTestQuery(tq)).All(t.Context())

			got := tq.LastQuery()
			if got.SQL != tt.want {
				t.Errorf("SQL = %q, want %q", got.SQL, tt.want)
			}
			if len(got.Args) != tt.args {
				t.Errorf("Args = %v, want %d args", got.Args, tt.args)
			}
		})
	}
}

func TestQueryImmutability(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	base := newTestQuery(tq)

	_ = base.Where("title = ?", "hello")
	_ = base.OrderBy("id")
	_ = base.Limit(10)
	_ = base.Preload("author")

	_, _ = base.All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `id`, `author_id`, `title` FROM `posts`"
	if got.SQL != want {
		t.Errorf("base query was mutated: SQL = %q", got.SQL)
	}
}

func TestFirstAddsLimit(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	_, _ = newTestQuery(tq).First(t.Context())

	want := "SELECT `id`, `author_id`, `title` FROM `posts` LIMIT 1"
	if got := tq.LastQuery(); got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

// --- Preload ---

func TestUnknownPreloadFailsBeforeQuery(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	_, err := newTestQuery(tq).Preload("comments").All(t.Context())
	if err == nil {
		t.Fatal("expected error for unknown preload")
	}
	if len(tq.Queries) != 0 {
		t.Errorf("expected no query, got %v", tq.Queries)
	}
}

func TestRegisteredPreloadIsAccepted(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)
	q.RegisterPreloader("author", func(context.Context, orm.Querier, []testPost) error { return nil })

	_, err := q.Preload("author").All(t.Context())
	if len(tq.Queries) != 1 {
		t.Fatalf("expected the select to run, got %d queries (err=%v)", len(tq.Queries), err)
	}
}

// --- SubSelect ---

func TestSubSelect(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.PostgreSQL)
	authors := orm.NewQuery[testPost](tq, "authors", []string{"id"}, "id", scanTestPost, testPostColValPairs, setTestPostPK)

	sub, subArgs := authors.Where("active = ?", true).SubSelect("id")
	if want := `SELECT "id" FROM "authors" WHERE active = ?`; sub != want {
		t.Errorf("SubSelect = %q, want %q", sub, want)
	}

	_, _ = newTestQuery(tq).
		Where("title = ?", "hello").
		Where(`"author_id" IN (`+sub+")", subArgs...).
		All(t.Context())

	got := tq.LastQuery()
	want := `SELECT "id", "author_id", "title" FROM "posts" WHERE title = $1 AND "author_id" IN (SELECT "id" FROM "authors" WHERE active = $2)`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 2 || got.Args[0] != "hello" || got.Args[1] != true {
		t.Errorf("Args = %v", got.Args)
	}
}

// --- INSERT ---

func TestBuildInsert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dialect orm.Dialect
		want    string
	}{
		{orm.MySQL, "INSERT INTO `posts` (`author_id`, `title`) VALUES (?, ?)"},
		{orm.PostgreSQL, `INSERT INTO "posts" ("author_id", "title") VALUES ($1, $2) RETURNING "id"`},
		{orm.SQLite, `INSERT INTO "posts" ("author_id", "title") VALUES (?, ?)`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			tq := orm.NewTestQuerier(tt.dialect)
			p := testPost{AuthorID: 1, Title: "hello"}
			_ = newTestQuery(tq).Create(t.Context(), &p)

			if got := tq.LastQuery(); got.SQL != tt.want {
				t.Errorf("SQL = %q, want %q", got.SQL, tt.want)
			}
		})
	}
}

func TestBuildBatchInsert(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	posts := []*testPost{{AuthorID: 1, Title: "a"}, {AuthorID: 1, Title: "b"}}
	if err := newTestQuery(tq).CreateAll(t.Context(), posts); err != nil {
		t.Fatalf("CreateAll: %v", err)
	}

	got := tq.LastQuery()
	want := "INSERT INTO `posts` (`author_id`, `title`) VALUES (?, ?), (?, ?)"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 4 {
		t.Errorf("Args = %v, want 4 args", got.Args)
	}
}

// --- UPDATE ---

func TestBuildUpdate(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.PostgreSQL)
	p := testPost{ID: 1, AuthorID: 2, Title: "bye"}
	if err := newTestQuery(tq).Update(t.Context(), &p); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got := tq.LastQuery()
	want := `UPDATE "posts" SET "author_id" = $1, "title" = $2 WHERE "id" = $3`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 3 || got.Args[2] != 1 {
		t.Errorf("Args = %v", got.Args)
	}
}

func TestUpdateMissingRowReturnsNotFound(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	tq.Affected = 0
	p := testPost{ID: 99, Title: "ghost"}

	err := newTestQuery(tq).Update(t.Context(), &p)
	if !errors.Is(err, orm.ErrNotFound) {
		t.Errorf("Update error = %v, want ErrNotFound", err)
	}
}

// --- DELETE ---

func TestBuildDelete(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	n, err := newTestQuery(tq).Scopes(scope.In("id", []int{4, 5})).Delete(t.Context())
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 1 {
		t.Errorf("affected = %d, want 1", n)
	}

	want := "DELETE FROM `posts` WHERE `id` IN (?, ?)"
	if got := tq.LastQuery(); got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestDeleteWithoutWhereReturnsError(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	if _, err := newTestQuery(tq).Delete(t.Context()); err == nil {
		t.Fatal("expected error for Delete without WHERE, got nil")
	}
	if len(tq.Queries) != 0 {
		t.Errorf("expected no query, got %v", tq.Queries)
	}
}
