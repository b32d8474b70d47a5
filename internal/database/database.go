// Package database opens the configured SQL database as an *orm.DB.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mickamy/ormrest/internal/config"
	"github.com/mickamy/ormrest/internal/logging"
	"github.com/mickamy/ormrest/orm"
)

type driver struct {
	name    string
	dialect orm.Dialect
}

var drivers = map[string]driver{
	config.DriverSQLite:   {"sqlite", orm.SQLite},
	config.DriverMySQL:    {"mysql", orm.MySQL},
	config.DriverPostgres: {"pgx", orm.PostgreSQL},
}

// Open connects to the database described by cfg and pings it. With
// cfg.Debug set, every statement is logged to logger.
func Open(ctx context.Context, cfg config.Database, logger *zap.Logger) (*orm.DB, error) {
	d, ok := drivers[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}

	raw, err := sql.Open(d.name, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == config.DriverSQLite {
		// One connection, so writers queue instead of failing with SQLITE_BUSY.
		raw.SetMaxOpenConns(1)
	}

	db := orm.New(raw, d.dialect)
	if err := db.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("database: ping %s: %w", cfg.Driver, err)
	}
	if cfg.Debug && logger != nil {
		db = db.Debug(logging.QueryLogger{L: logger.Named("sql")})
	}
	return db, nil
}
