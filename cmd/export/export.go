// Package export runs the monthly accountant export.
package export

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/cmd/root"
)

var (
	month string
	types string
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export a month's documents for the accountant",
	Long: `Copy a month's documents into the export folder grouped by type and
write a CSV summary next to them.`,
	Run: exportFunc,
}

func init() {
	Cmd.Flags().StringVarP(&month, "month", "m", "", "Target month, YYYY-MM (required)")
	Cmd.Flags().StringVarP(&types, "types", "t", "", "Comma-separated document types (default: all)")
	_ = Cmd.MarkFlagRequired("month")
}

func exportFunc(cmd *cobra.Command, args []string) {
	if root.OwnerID == "" {
		root.Log.Fatal("Owner key is required (--owner)")
	}

	ctx := context.Background()
	c, err := root.Bootstrap(ctx)
	if err != nil {
		root.Log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() { _ = c.Close() }()

	var typeList []string
	for _, t := range strings.Split(types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			typeList = append(typeList, t)
		}
	}

	summary, err := c.Export().Build(ctx, root.OwnerID, month, typeList)
	if err != nil {
		root.Log.Fatalf("Export failed: %v", err)
	}

	if summary.Message != "" {
		root.Log.Info(summary.Message)
		return
	}
	for _, per := range summary.PerType {
		root.Log.Infof("%s: %d files, total %s", per.Type, per.Count, per.TotalAmount.String())
	}
	root.Log.Infof("Exported %d files (total %s) to %s",
		summary.TotalCount, summary.TotalAmount.String(), summary.ExportPath)
}
