package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/arcglobe/internal/adapters/nats"
	"github.com/samirrijal/arcglobe/internal/core/domain"
	"github.com/samirrijal/arcglobe/internal/core/usecases"
)

var watchCmd = &cobra.Command{
	Use:          "watch",
	Short:        "Follow route table snapshots published to NATS",
	Long:         "Prints a one-line audit summary for the latest snapshot and every later one until interrupted.",
	RunE:         runWatch,
	SilenceUsage: true,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.NATS.URL == "" {
		return fmt.Errorf("nats.url is not configured (set ARCGLOBE_NATS_URL)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		return err
	}
	defer sub.Close()

	out := cmd.OutOrStdout()
	err = sub.SubscribeSnapshots(ctx, func(_ context.Context, routes []domain.Route) error {
		report := usecases.Audit(routes)
		fmt.Fprintf(out, "snapshot: %d routes, %d points, %d errors, %d anomalies\n",
			report.Routes, report.Points, len(report.Errors), len(report.Anomalies))
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	<-ctx.Done()
	return nil
}
