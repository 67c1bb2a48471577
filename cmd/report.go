package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spacefreq/ificsync/internal/report"
)

var (
	reportFailureLimit int
	reportParquetPath  string
)

// reportCmd aggregates the event log into summary statistics.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate the event log into summary statistics",
	Long: `Queries the DuckDB event log and prints aggregate counts per file type and
event, plus the most recent per-record failures. With --parquet the full event
log is also exported to a snappy-compressed Parquet file for downstream
analysis.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		ctx := context.Background()

		if err := report.PrintSummary(ctx, getDB(), logger, reportFailureLimit); err != nil {
			return fmt.Errorf("report failed: %w", err)
		}
		if reportParquetPath != "" {
			if err := report.ExportParquet(ctx, getDB(), logger, reportParquetPath); err != nil {
				return fmt.Errorf("parquet export failed: %w", err)
			}
			fmt.Printf("Event log exported to %s\n", reportParquetPath)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVarP(&reportFailureLimit, "failures", "n", 20, "Limit the number of recent failures displayed")
	reportCmd.Flags().StringVar(&reportParquetPath, "parquet", "", "Also export the full event log to this Parquet file")
}
