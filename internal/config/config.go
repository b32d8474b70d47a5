// Package config loads server settings from defaults, an optional YAML file
// and ORMREST_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const envPrefix = "ORMREST"

type Config struct {
	HTTP     HTTP     `mapstructure:"http"`
	Database Database `mapstructure:"database"`
	Log      Log      `mapstructure:"log"`
	Route    Route    `mapstructure:"route"`
}

type HTTP struct {
	Addr   string `mapstructure:"addr" validate:"required"`
	Prefix string `mapstructure:"prefix"`
}

type Database struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite mysql postgres"`
	DSN    string `mapstructure:"dsn" validate:"required"`
	// Debug logs every statement at debug level.
	Debug bool `mapstructure:"debug"`
}

type Log struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type Route struct {
	FanOutLimit int `mapstructure:"fan_out_limit" validate:"min=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.prefix", "/api")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "file:ormrest.db?_pragma=foreign_keys(1)")
	v.SetDefault("database.debug", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("route.fan_out_limit", 0)
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.Database.Driver == DriverMySQL {
		dsn, err := mysqlDSN(cfg.Database.DSN)
		if err != nil {
			return Config{}, err
		}
		cfg.Database.DSN = dsn
	}
	return cfg, nil
}

func (c Config) validate() error {
	err := validator.New().Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}

// mysqlDSN forces the options bulk updates rely on: affected-row counts must
// report matched rows, and DATETIME columns must scan into time.Time.
func mysqlDSN(dsn string) (string, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("config: mysql dsn: %w", err)
	}
	mc.ParseTime = true
	mc.ClientFoundRows = true
	return mc.FormatDSN(), nil
}
