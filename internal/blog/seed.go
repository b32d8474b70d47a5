package blog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mickamy/ormrest/orm"
)

// Fixtures is the YAML seed format:
//
//	authors:
//	  - name: Ada
//	    active: true
//	    posts:
//	      - title: Notes on the engine
//	        published: true
type Fixtures struct {
	Authors []AuthorFixture `yaml:"authors"`
}

type AuthorFixture struct {
	Name   string        `yaml:"name"`
	Active *bool         `yaml:"active"`
	Posts  []PostFixture `yaml:"posts"`
}

type PostFixture struct {
	Title     string `yaml:"title"`
	Body      string `yaml:"body"`
	Published bool   `yaml:"published"`
	Archived  bool   `yaml:"archived"`
}

// SeedResult counts the rows a Seed call inserted.
type SeedResult struct {
	Authors int
	Posts   int
}

// LoadFixtures decodes YAML fixtures. Unknown keys are rejected.
func LoadFixtures(r io.Reader) (Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Fixtures{}, fmt.Errorf("blog: decode fixtures: %w", err)
	}
	for i, a := range f.Authors {
		if a.Name == "" {
			return Fixtures{}, fmt.Errorf("blog: authors[%d]: name is required", i)
		}
		for j, p := range a.Posts {
			if p.Title == "" {
				return Fixtures{}, fmt.Errorf("blog: authors[%d].posts[%d]: title is required", i, j)
			}
		}
	}
	return f, nil
}

// Seed inserts the fixtures in one transaction. Authors default to active.
func Seed(ctx context.Context, db *orm.DB, models *Models, f Fixtures) (SeedResult, error) {
	var res SeedResult
	err := db.Transaction(ctx, func(tx *orm.Tx) error {
		repo := NewRepository(tx, models)
		for _, af := range f.Authors {
			a := &Author{Name: af.Name, Active: af.Active == nil || *af.Active}
			if err := repo.CreateAuthor(ctx, a); err != nil {
				return fmt.Errorf("create author %q: %w", af.Name, err)
			}
			res.Authors++

			if len(af.Posts) == 0 {
				continue
			}
			posts := make([]*Post, len(af.Posts))
			for i, pf := range af.Posts {
				posts[i] = &Post{Title: pf.Title, Body: pf.Body, Published: pf.Published, Archived: pf.Archived}
			}
			if err := repo.CreatePosts(ctx, a, posts); err != nil {
				return fmt.Errorf("create posts of %q: %w", af.Name, err)
			}
			res.Posts += len(posts)
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	return res, nil
}

//go:embed demo.yaml
var demoYAML []byte

// DemoFixtures returns the built-in demo data: three authors (the last one
// inactive) with published, draft and archived posts.
func DemoFixtures() Fixtures {
	f, err := LoadFixtures(bytes.NewReader(demoYAML))
	if err != nil {
		panic(err)
	}
	return f
}
