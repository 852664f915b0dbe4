package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/arcglobe/internal/adapters/nats"
	"github.com/samirrijal/arcglobe/internal/core/usecases"
)

var publishCmd = &cobra.Command{
	Use:          "publish",
	Short:        "Publish the route table snapshot and audit to NATS",
	RunE:         runPublish,
	SilenceUsage: true,
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.NATS.URL == "" {
		return fmt.Errorf("nats.url is not configured (set ARCGLOBE_NATS_URL)")
	}

	src, closeSrc, err := openSource(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		return err
	}
	defer pub.Close()

	svc := usecases.NewRouteTableService(src, usecases.WithPublisher(pub))
	if err := svc.PublishSnapshot(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "published %s and %s\n", natsadapter.SubjectSnapshot, natsadapter.SubjectAudit)
	return nil
}
