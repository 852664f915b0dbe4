package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var dumpCompact bool

var dumpCmd = &cobra.Command{
	Use:          "dump",
	Short:        "Print the route table as JSON",
	RunE:         runDump,
	SilenceUsage: true,
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpCompact, "compact", false, "Single-line output")
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, closeSrc, err := openSource(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	routes, err := src.Routes(cmd.Context())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	if !dumpCompact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(routes)
}
