package blog

import (
	"context"

	"github.com/mickamy/ormrest/orm"
	"github.com/mickamy/ormrest/scope"
)

// Repository wraps the blog entities with plain CRUD helpers used by the
// seed command and tests. HTTP access goes through the route package.
type Repository struct {
	db     orm.Querier
	models *Models
}

func NewRepository(db orm.Querier, models *Models) *Repository {
	return &Repository{db: db, models: models}
}

func (r *Repository) CreateAuthor(ctx context.Context, a *Author) error {
	return r.models.Authors.Query(r.db).Create(ctx, a)
}

// CreatePosts inserts posts for author in one statement, setting AuthorID.
func (r *Repository) CreatePosts(ctx context.Context, author *Author, posts []*Post) error {
	for _, p := range posts {
		p.AuthorID = author.ID
	}
	return r.models.Posts.Query(r.db).CreateAll(ctx, posts)
}

func (r *Repository) FindAuthor(ctx context.Context, id int64) (Author, error) {
	return r.models.Authors.Find(ctx, r.db, id)
}

func (r *Repository) FindPost(ctx context.Context, id int64) (Post, error) {
	return r.models.Posts.Find(ctx, r.db, id)
}

func (r *Repository) Authors(ctx context.Context, scopes ...scope.Scope) ([]Author, error) {
	return r.models.Authors.Query(r.db).Scopes(scopes...).Scopes(scope.Asc("id")).All(ctx)
}

func (r *Repository) Posts(ctx context.Context, scopes ...scope.Scope) ([]Post, error) {
	return r.models.Posts.Query(r.db).Scopes(scopes...).Scopes(scope.Asc("id")).All(ctx)
}

func (r *Repository) UpdatePost(ctx context.Context, p *Post) error {
	return r.models.Posts.Query(r.db).Update(ctx, p)
}
