package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
	"github.com/spf13/cobra"

	"github.com/spacefreq/ificsync/internal/config"
	"github.com/spacefreq/ificsync/internal/db"
)

var (
	// Config flags - bound in init()
	downloadDir string
	extractDir  string
	dbPath      string
	workers     int
	httpTimeout time.Duration
	listingURL  string
	formatTags  []string
	databaseExt string
	logFormat   string
	logLevel    string
	logOutput   string

	// Global instances populated in PersistentPreRunE
	rootLogger *slog.Logger
	dbConn     *sql.DB
	appConfig  config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ificsync",
	Short: "Fetch, extract, and track ITU space-service circular archives.",
	Long: `ificsync discovers the circular archives published on the ITU per-year
listing pages, downloads the ones missing from the local download directory,
and extracts their database files idempotently. A DuckDB event log records
what happened to each file for the 'state' and 'report' commands.

The primary command is 'run', which executes the full pipeline for a date
range.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// --- 1. Initialize Logger ---
		var level slog.Level
		switch strings.ToLower(logLevel) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var logWriter io.Writer = os.Stderr
		if logOutput != "" && strings.ToLower(logOutput) != "stderr" {
			if strings.ToLower(logOutput) == "stdout" {
				logWriter = os.Stdout
			} else {
				f, err := os.OpenFile(logOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("failed to open log file %s: %w", logOutput, err)
				}
				logWriter = f
			}
		}

		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		if logFormat == "json" {
			handler = slog.NewJSONHandler(logWriter, opts)
		} else {
			handler = slog.NewTextHandler(logWriter, opts)
		}
		rootLogger = slog.New(handler)
		slog.SetDefault(rootLogger)

		// --- 2. Load config from flags ---
		appConfig = config.Config{
			DownloadDir:        downloadDir,
			ExtractDir:         extractDir,
			DBPath:             dbPath,
			Workers:            workers,
			HTTPTimeout:        httpTimeout,
			ListingURLTemplate: listingURL,
			FormatTags:         formatTags,
			DatabaseExt:        databaseExt,
		}
		rootLogger.Debug("Configuration loaded", slog.Any("config", appConfig))

		if appConfig.DownloadDir == "" || appConfig.ExtractDir == "" || appConfig.DBPath == "" {
			return fmt.Errorf("--download-dir, --extract-dir, and --db-path flags are required")
		}

		for _, d := range []string{appConfig.DownloadDir, appConfig.ExtractDir} {
			if err := os.MkdirAll(d, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", d, err)
			}
		}
		if appConfig.DBPath != ":memory:" {
			dbDir := filepath.Dir(appConfig.DBPath)
			if err := os.MkdirAll(dbDir, 0o755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}

		// --- 3. Initialize DuckDB connection & schema ---
		var err error
		dbConn, err = sql.Open("duckdb", appConfig.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open duckdb database (%s): %w", appConfig.DBPath, err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err = dbConn.PingContext(pingCtx); err != nil {
			dbConn.Close()
			return fmt.Errorf("failed to ping duckdb database (%s): %w", appConfig.DBPath, err)
		}
		if err := db.InitializeSchema(dbConn); err != nil {
			dbConn.Close()
			return fmt.Errorf("failed to initialize database schema: %w", err)
		}
		rootLogger.Debug("DuckDB ready.", slog.String("path", appConfig.DBPath))

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if dbConn != nil {
			if err := dbConn.Close(); err != nil {
				rootLogger.Error("Failed to close DuckDB connection cleanly", "error", err)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main().
func Execute() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(stateCmd)

	if err := rootCmd.Execute(); err != nil {
		if rootLogger != nil {
			rootLogger.Error("Command execution failed", "error", err)
		} else {
			fmt.Fprintf(os.Stderr, "Command execution failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&downloadDir, "download-dir", "i", "./downloads", "Directory for downloaded archives")
	rootCmd.PersistentFlags().StringVarP(&extractDir, "extract-dir", "o", "./databases", "Directory for extracted database files")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db-path", "d", "./ificsync_state.duckdb", "Path to DuckDB event log file (:memory: for in-memory)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", config.DefaultWorkers, "Number of concurrent download workers")
	rootCmd.PersistentFlags().DurationVar(&httpTimeout, "http-timeout", config.DefaultHTTPTimeout, "Per-request HTTP timeout")
	rootCmd.PersistentFlags().StringVar(&listingURL, "listing-url", config.DefaultListingURLTemplate, "Per-year listing page URL template (%s is the two-digit year)")
	rootCmd.PersistentFlags().StringSliceVar(&formatTags, "format-tag", config.DefaultFormatTags, "Accepted archive naming tags (can specify multiple)")
	rootCmd.PersistentFlags().StringVar(&databaseExt, "database-ext", config.DefaultDatabaseExt, "Archive member extension to extract")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log output format (text or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-output", "stderr", "Log output destination (stderr, stdout, or file path)")

	rootCmd.Version = "0.1.0"
}

func getLogger() *slog.Logger {
	if rootLogger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return rootLogger
}

func getDB() *sql.DB {
	return dbConn
}

func getConfig() config.Config {
	return appConfig
}
