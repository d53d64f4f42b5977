package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/denysvitali/aperture-graph/pkg/report"
)

var scanFormat string

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Inventory the data root and print the table",
	Long: `Scan every directory directly under the data root, read the f-number and
size of each file and print one row per file, grouped by directory and
sorted by f-number.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", string(report.FormatTable), "Output format (table, json, yaml, csv)")
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := GetLogger()

	format, err := report.ParseFormat(scanFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, cleanup, err := loadConfig(ctx, args)
	if err != nil {
		return err
	}
	defer cleanup()

	inv, err := runInventory(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return report.Write(cmd.OutOrStdout(), format, report.Document{
		Summary: inv.summary,
		Records: inv.records,
	})
}
