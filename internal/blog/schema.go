package blog

import (
	"context"
	"fmt"

	"github.com/mickamy/ormrest/orm"
)

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS authors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author_id INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		published BOOLEAN NOT NULL DEFAULT 0,
		archived BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS posts_author_id ON posts (author_id)`,
}

var schemaMySQL = []string{
	`CREATE TABLE IF NOT EXISTS authors (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		author_id BIGINT NOT NULL,
		title VARCHAR(255) NOT NULL,
		body TEXT NOT NULL,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		CONSTRAINT posts_author_id_fk FOREIGN KEY (author_id) REFERENCES authors (id) ON DELETE CASCADE
	)`,
}

var schemaPostgreSQL = []string{
	`CREATE TABLE IF NOT EXISTS authors (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		author_id BIGINT NOT NULL REFERENCES authors (id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		published BOOLEAN NOT NULL DEFAULT FALSE,
		archived BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS posts_author_id ON posts (author_id)`,
}

// Migrate creates the blog tables if they do not exist.
func Migrate(ctx context.Context, db orm.Querier, d orm.Dialect) error {
	var stmts []string
	switch d {
	case orm.SQLite:
		stmts = schemaSQLite
	case orm.MySQL:
		stmts = schemaMySQL
	case orm.PostgreSQL:
		stmts = schemaPostgreSQL
	default:
		return fmt.Errorf("blog: no schema for dialect %T", d)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("blog: migrate: %w", err)
		}
	}
	return nil
}
