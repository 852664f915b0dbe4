package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/samirrijal/arcglobe/internal/adapters/postgres"
	"github.com/samirrijal/arcglobe/internal/core/ports"
	"github.com/samirrijal/arcglobe/internal/pkg/config"
	"github.com/samirrijal/arcglobe/internal/pkg/logging"
	"github.com/samirrijal/arcglobe/internal/routetable"
)

var sourceKind string

var rootCmd = &cobra.Command{
	Use:   "arcglobe",
	Short: "arcglobe route table tool",
	Long:  "Audit, dump, publish and watch the origin/destination table behind the globe arcs.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sourceKind, "source", "", "Route source: static or postgres (default from config)")

	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(watchCmd)
}

// loadConfig reads configuration and applies the --source override.
// Logs go to the command's stderr so they never mix with dump output.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load("arcglobe-cli")
	if err != nil {
		return nil, err
	}
	if sourceKind != "" {
		cfg.Source.Kind = sourceKind
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), cfg.Log.Level, "text"))
	return cfg, nil
}

// openSource returns the configured route source and a cleanup func.
func openSource(ctx context.Context, cfg *config.Config) (ports.RouteSource, func(), error) {
	if cfg.Source.Kind != config.SourcePostgres {
		return routetable.Static{}, func() {}, nil
	}
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	return postgres.NewRouteTableRepo(db), db.Close, nil
}
