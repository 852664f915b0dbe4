package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/samirrijal/arcglobe/internal/core/domain"
	"github.com/samirrijal/arcglobe/internal/core/usecases"
)

var errAuditFailed = errors.New("route table has errors")

var auditJSON bool

var auditCmd = &cobra.Command{
	Use:          "audit",
	Short:        "Check the route table for schema errors and coordinate anomalies",
	Long:         "Exits non-zero when any error is found. Anomalies are reported but do not fail the audit.",
	RunE:         runAudit,
	SilenceUsage: true,
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Print the report as JSON")
}

func runAudit(cmd *cobra.Command, args []string) error {
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

	report := usecases.Audit(routes)
	out := cmd.OutOrStdout()
	if auditJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(out, &report)
	}

	if !report.Valid() {
		return errAuditFailed
	}
	return nil
}

func printReport(w io.Writer, r *domain.AuditReport) {
	fmt.Fprintf(w, "%d routes, %d points\n", r.Routes, r.Points)
	if r.Bounds != nil {
		fmt.Fprintf(w, "bounds: lat [%g, %g] lon [%g, %g]\n",
			r.Bounds.MinLat, r.Bounds.MaxLat, r.Bounds.MinLon, r.Bounds.MaxLon)
	}
	for _, is := range r.Errors {
		fmt.Fprintf(w, "ERROR   %s %s\n", is.Path, is.Message)
	}
	for _, is := range r.Anomalies {
		fmt.Fprintf(w, "ANOMALY %s (%s) %s\n", is.Path, is.Name, is.Message)
	}
	if r.Valid() {
		fmt.Fprintf(w, "ok: %d errors, %d anomalies\n", len(r.Errors), len(r.Anomalies))
	} else {
		fmt.Fprintf(w, "FAIL: %d errors, %d anomalies\n", len(r.Errors), len(r.Anomalies))
	}
}
