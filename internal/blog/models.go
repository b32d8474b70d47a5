package blog

import (
	"github.com/mickamy/ormrest/resource"
	"github.com/mickamy/ormrest/scope"
)

// Models holds the blog entities and the authors-to-posts association.
// Each call to Define builds fresh descriptors, so independent servers (and
// tests) never share registered preloaders.
type Models struct {
	Authors     *resource.Entity[Author]
	Posts       *resource.Entity[Post]
	AuthorPosts *resource.HasMany[Author, Post]
}

// AuthorScopes are the named filters on authors.
func AuthorScopes() scope.Set {
	return scope.Set{
		"active":   {scope.Eq("active", true)},
		"inactive": {scope.Eq("active", false)},
	}
}

// PostScopes are the named filters on posts.
func PostScopes() scope.Set {
	return scope.Set{
		"published": {scope.Eq("published", true), scope.Eq("archived", false)},
		"drafts":    {scope.Eq("published", false), scope.Eq("archived", false)},
		"archived":  {scope.Eq("archived", true)},
		"latest":    {scope.OrderBy("id DESC"), scope.Limit(3)},
	}
}

// Define builds the blog models.
func Define() (*Models, error) {
	authors, err := resource.Define(resource.Model[Author]{
		Name:         "Author",
		Columns:      authorColumns,
		Scan:         scanAuthor,
		ColumnValues: authorColumnValuePairs,
		SetPK:        setAuthorPK,
		ID:           func(a *Author) int64 { return a.ID },
		Scopes:       AuthorScopes(),
	})
	if err != nil {
		return nil, err
	}

	posts, err := resource.Define(resource.Model[Post]{
		Name:         "Post",
		Columns:      postColumns,
		Scan:         scanPost,
		ColumnValues: postColumnValuePairs,
		SetPK:        setPostPK,
		ID:           func(p *Post) int64 { return p.ID },
		Scopes:       PostScopes(),
	})
	if err != nil {
		return nil, err
	}

	authorPosts, err := resource.OneToMany(authors, posts, resource.Relation[Author, Post]{
		ForeignKey:   "author_id",
		ForeignKeyOf: func(p *Post) int64 { return p.AuthorID },
		Assign:       func(a *Author, ps []Post) { a.Posts = ps },
		AssignParent: func(p *Post, a *Author) {
			author := *a
			author.Posts = nil
			p.Author = &author
		},
	})
	if err != nil {
		return nil, err
	}

	return &Models{Authors: authors, Posts: posts, AuthorPosts: authorPosts}, nil
}

// MustDefine is like Define but panics on error.
func MustDefine() *Models {
	m, err := Define()
	if err != nil {
		panic(err)
	}
	return m
}
