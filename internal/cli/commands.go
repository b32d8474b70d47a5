package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mickamy/ormrest/internal/blog"
	"github.com/mickamy/ormrest/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := a.setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.close()

			models, err := blog.Define()
			if err != nil {
				return err
			}
			s, err := server.New(e.db, models, e.cfg, e.logger)
			if err != nil {
				return err
			}
			return s.Run(ctx)
		},
	}
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the authors and posts tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if err := blog.Migrate(cmd.Context(), e.db, e.db.Dialect()); err != nil {
				return err
			}
			e.logger.Info("migrated", zap.String("driver", e.cfg.Database.Driver))
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [FILE]",
		Short: "Insert fixture authors and posts",
		Long: `Insert authors and posts from a YAML fixture file. Without FILE the
bundled demo data is used. All rows are inserted in one transaction.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures := blog.DemoFixtures()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open fixtures: %w", err)
				}
				defer f.Close()
				if fixtures, err = blog.LoadFixtures(f); err != nil {
					return err
				}
			}

			e, err := a.setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer e.close()

			models, err := blog.Define()
			if err != nil {
				return err
			}
			res, err := blog.Seed(cmd.Context(), e.db, models, fixtures)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d authors, %d posts\n", res.Authors, res.Posts)
			return nil
		},
	}
}

func (a *app) routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the registered routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.setup(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer e.close()

			models, err := blog.Define()
			if err != nil {
				return err
			}
			s, err := server.New(e.db, models, e.cfg, e.logger)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, r := range s.Routes() {
				fmt.Fprintf(w, "%s\t%s\n", r.Method, r.Path)
			}
			return w.Flush()
		},
	}
}
