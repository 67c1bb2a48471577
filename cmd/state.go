package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spacefreq/ificsync/internal/db"
)

var (
	stateLimit       int
	stateFilterEvent string
)

// stateCmd views the raw event log history.
var stateCmd = &cobra.Command{
	Use:   "state [filetype]",
	Short: "View the event log history for tracked files (archives or databases)",
	Long: `Queries the DuckDB event log and displays the history for tracked files.
Specify 'archives' or 'databases' as an optional argument to filter by file
type. Use flags to filter by event and limit the output.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		fileTypeFilter := ""
		if len(args) > 0 {
			switch strings.ToLower(args[0]) {
			case "archives", "archive":
				fileTypeFilter = db.FileTypeArchive
			case "databases", "database":
				fileTypeFilter = db.FileTypeDatabase
			default:
				return fmt.Errorf("invalid filetype filter: %s (use 'archives' or 'databases')", args[0])
			}
		}

		logger.Debug("Querying event log", "type_filter", fileTypeFilter, "event_filter", stateFilterEvent, "limit", stateLimit)
		return db.DisplayFileHistory(context.Background(), getDB(), fileTypeFilter, stateFilterEvent, stateLimit)
	},
}

func init() {
	stateCmd.Flags().IntVarP(&stateLimit, "limit", "n", 50, "Limit the number of log records displayed")
	stateCmd.Flags().StringVarP(&stateFilterEvent, "event", "e", "", "Filter records by event (e.g. download_end, error, skip_download)")
}
