// Package blogtest opens a migrated, seeded SQLite database for tests.
package blogtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/mickamy/ormrest/internal/blog"
	"github.com/mickamy/ormrest/orm"
)

// Fixture ids of the demo data.
const (
	Ada    int64 = 1
	Grace  int64 = 2
	Edsger int64 = 3 // inactive

	AdaEngines   int64 = 1 // published
	AdaNotes     int64 = 2 // published
	AdaDraft     int64 = 3
	AdaOldNews   int64 = 4 // published, archived
	GraceCompile int64 = 5 // published
	GraceCobol   int64 = 6
	EdsgerGoto   int64 = 7 // published
	EdsgerStruct int64 = 8
)

// Open returns a database in t.TempDir() with the blog schema, and fresh
// blog models. It is seeded with blog.DemoFixtures unless empty is true.
func Open(t testing.TB, empty bool) (*orm.DB, *blog.Models) {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "blog.db")+"?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := orm.New(sqlDB, orm.SQLite)
	if err := blog.Migrate(t.Context(), db, orm.SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	models, err := blog.Define()
	if err != nil {
		t.Fatalf("define models: %v", err)
	}
	if !empty {
		if _, err := blog.Seed(t.Context(), db, models, blog.DemoFixtures()); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return db, models
}
