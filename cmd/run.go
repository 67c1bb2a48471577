package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spacefreq/ificsync/internal/app"
	"github.com/spacefreq/ificsync/internal/catalog"
	"github.com/spacefreq/ificsync/internal/db"
	"github.com/spacefreq/ificsync/internal/downloader"
	"github.com/spacefreq/ificsync/internal/extractor"
	"github.com/spacefreq/ificsync/internal/pipeline"
	"github.com/spacefreq/ificsync/internal/util"
)

var (
	startDateFlag string
	endDateFlag   string
	assumeYes     bool
)

// runCmd executes the full fetch-dedup-download-extract pipeline.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full discover, download, and extract pipeline",
	Long: `Performs the complete pipeline for a publication date range:
1. Builds the archive catalog from the per-year listing pages.
2. Resolves which archives are already in the download directory.
3. Downloads the missing archives with a bounded worker pool.
4. Extracts database files from every downloaded archive, skipping ones
   whose outputs already exist.

Without --yes an interactive prompt previews the pending downloads and a
progress view tracks the transfers. Failed archives are reported in the
summary and can be retried by re-running the command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLogger()
		cfg := getConfig()

		start, err := util.ParseCircularDate(startDateFlag)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		end, err := util.ParseCircularDate(endDateFlag)
		if err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}

		client := util.NewHTTPClient(cfg.HTTPTimeout)
		sched := &downloader.Scheduler{
			Client:  client,
			Workers: cfg.Workers,
			Dir:     cfg.DownloadDir,
			Logger:  logger,
		}

		p := &pipeline.Pipeline{
			Catalog: &catalog.Builder{
				URLTemplate: cfg.ListingURLTemplate,
				FormatTags:  cfg.FormatTags,
				Fetcher:     &catalog.HTTPPageFetcher{Client: client},
				Logger:      logger,
			},
			Downloads: sched,
			Engine: &extractor.Engine{
				ExtractDir:  cfg.ExtractDir,
				DatabaseExt: cfg.DatabaseExt,
				Logger:      logger,
			},
			DownloadDir: cfg.DownloadDir,
			Logger:      logger,
			Events:      &db.Recorder{DB: getDB(), Logger: logger},
		}
		if !assumeYes {
			p.Confirm = app.Confirm
			p.Downloads = &app.TUIFetcher{Scheduler: sched, Logger: logger}
		}

		res, err := p.Run(context.Background(), start, end)
		if err != nil {
			return fmt.Errorf("run pipeline failed: %w", err)
		}
		if res.Aborted {
			fmt.Println("Aborted by user.")
			return nil
		}

		printSummary(res.Summary)
		return nil
	},
}

func printSummary(s pipeline.Summary) {
	fmt.Println("--- Run Summary ---")
	fmt.Printf("Catalog entries found:    %d\n", s.CatalogEntries)
	fmt.Printf("Already local:            %d\n", s.AlreadyLocal)
	fmt.Printf("Downloaded successfully:  %d\n", s.Downloaded)
	fmt.Printf("Download failures:        %d\n", s.DownloadFailures)
	fmt.Printf("Extracted successfully:   %d\n", s.Extracted)
	fmt.Printf("Already extracted:        %d\n", s.AlreadyExtracted)
	fmt.Printf("Extraction failures:      %d\n", s.ExtractionFailures)
	if s.DownloadFailures > 0 || s.ExtractionFailures > 0 {
		fmt.Println("Some archives failed; re-running the pipeline will retry only those.")
	}
}

func init() {
	now := time.Now().UTC()
	defaultStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	runCmd.Flags().StringVar(&startDateFlag, "start", defaultStart.Format("02.01.2006"), "Start of the publication date range (dd.mm.yyyy)")
	runCmd.Flags().StringVar(&endDateFlag, "end", now.Format("02.01.2006"), "End of the publication date range (dd.mm.yyyy)")
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt and the progress view")
}
