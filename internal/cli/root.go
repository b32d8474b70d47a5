// Package cli implements the ormrest command.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mickamy/ormrest/internal/config"
	"github.com/mickamy/ormrest/internal/database"
	"github.com/mickamy/ormrest/internal/logging"
	"github.com/mickamy/ormrest/orm"
)

type app struct {
	configPath string
}

// NewRootCmd returns the ormrest command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "ormrest",
		Short: "REST routes for one-to-many associations",
		Long: `ormrest serves sub-resource routes for the posts of each author:
reading, scoped listing, cross-scope queries, bulk update and delete.

Settings come from defaults, an optional YAML file (--config) and
ORMREST_* environment variables, e.g. ORMREST_DATABASE_DSN.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		a.serveCmd(),
		a.migrateCmd(),
		a.seedCmd(),
		a.routesCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every subcommand starts from.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	db     *orm.DB
}

func (e *env) close() {
	_ = e.db.Close()
	_ = e.logger.Sync()
}

func (a *app) setup(ctx context.Context, cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}
