// Package db keeps a DuckDB event log of everything the pipeline did to each
// archive. The log is observational history for the state and report
// commands; the download and extraction directories remain the only ledger
// consulted when deciding what work is left.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // driver
)

// Constants for event types.
const (
	EventDiscovered    = "discovered"
	EventDownloadStart = "download_start"
	EventDownloadEnd   = "download_end"
	EventExtractEnd    = "extract_end"
	EventSkipDownload  = "skip_download"
	EventSkipExtract   = "skip_extract"
	EventError         = "error"
)

// Constants for file types.
const (
	FileTypeArchive  = "archive"
	FileTypeDatabase = "database"
)

const schemaSequenceSQL = `CREATE SEQUENCE IF NOT EXISTS event_log_id_seq;`
const schemaTableSQL = `
CREATE TABLE IF NOT EXISTS ific_event_log (
    log_id          BIGINT PRIMARY KEY DEFAULT nextval('event_log_id_seq'),
    filename        VARCHAR NOT NULL,      -- archive name or extracted database name
    filetype        VARCHAR NOT NULL,      -- 'archive', 'database'
    event           VARCHAR NOT NULL,
    event_timestamp TIMESTAMP NOT NULL,
    source_url      VARCHAR,
    output_path     VARCHAR,
    message         VARCHAR,
    size_bytes      BIGINT,
    duration_ms     BIGINT
);
CREATE INDEX IF NOT EXISTS idx_ific_event_log_file ON ific_event_log (filename, filetype);
CREATE INDEX IF NOT EXISTS idx_ific_event_log_event_time ON ific_event_log (event, event_timestamp);
`

// InitializeSchema creates the sequence and table in the correct order.
func InitializeSchema(db *sql.DB) error {
	_, err := db.Exec(schemaSequenceSQL)
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("failed to execute sequence setup: %w", err)
	}
	_, err = db.Exec(schemaTableSQL)
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("failed to execute table/index setup: %w", err)
	}
	return nil
}

// LogFileEvent inserts a new event record into the log.
func LogFileEvent(ctx context.Context, db *sql.DB, filename, filetype, event, sourceURL, outputPath, message string, sizeBytes int64, duration *time.Duration) error {
	query := `
        INSERT INTO ific_event_log (filename, filetype, event, event_timestamp, source_url, output_path, message, size_bytes, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
    `
	var durationMs sql.NullInt64
	if duration != nil {
		durationMs = sql.NullInt64{Int64: duration.Milliseconds(), Valid: true}
	}
	var size sql.NullInt64
	if sizeBytes > 0 {
		size = sql.NullInt64{Int64: sizeBytes, Valid: true}
	}

	_, err := db.ExecContext(ctx, query,
		filename,
		filetype,
		event,
		time.Now().UTC(),
		sql.NullString{String: sourceURL, Valid: sourceURL != ""},
		sql.NullString{String: outputPath, Valid: outputPath != ""},
		sql.NullString{String: message, Valid: message != ""},
		size,
		durationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to log event '%s' for '%s': %w", event, filename, err)
	}
	return nil
}

// Recorder adapts the event log to the pipeline's recorder hook. Logging
// failures are reported and dropped; history must never break a run.
type Recorder struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// FileEvent records one pipeline event.
func (r *Recorder) FileEvent(ctx context.Context, filename, filetype, event, sourceURL, outputPath, message string, sizeBytes int64, duration time.Duration) {
	var d *time.Duration
	if duration > 0 {
		d = &duration
	}
	if err := LogFileEvent(ctx, r.DB, filename, filetype, event, sourceURL, outputPath, message, sizeBytes, d); err != nil {
		r.Logger.Warn("Failed to record event.", "event", event, "filename", filename, "error", err)
	}
}

// DisplayFileHistory queries and prints the event log.
func DisplayFileHistory(ctx context.Context, db *sql.DB, filetypeFilter, eventFilter string, limit int) error {
	query := `
        SELECT filename, filetype, event, event_timestamp, message, size_bytes, duration_ms, source_url, output_path
        FROM ific_event_log
    `
	conditions := []string{}
	args := []any{}
	argCounter := 1

	if filetypeFilter != "" {
		conditions = append(conditions, fmt.Sprintf("filetype = $%d", argCounter))
		args = append(args, filetypeFilter)
		argCounter++
	}
	if eventFilter != "" {
		conditions = append(conditions, fmt.Sprintf("event = $%d", argCounter))
		args = append(args, eventFilter)
		argCounter++
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY event_timestamp DESC, log_id DESC LIMIT $%d", argCounter)
	args = append(args, limit)

	fmt.Printf("--- Event Log History (Limit %d) ---\n", limit)
	fmt.Printf("%-45s | %-8s | %-15s | %-25s | %-12s | %-10s | %s\n",
		"Filename", "Type", "Event", "Timestamp (UTC)", "SizeBytes", "DurationMS", "Details")
	fmt.Println(strings.Repeat("-", 150))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query event log: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var filename, filetype, event string
		var timestamp time.Time
		var message, sourceURL, outputPath sql.NullString
		var sizeBytes, durationMs sql.NullInt64
		if err := rows.Scan(&filename, &filetype, &event, &timestamp, &message, &sizeBytes, &durationMs, &sourceURL, &outputPath); err != nil {
			return fmt.Errorf("failed to scan event log row: %w", err)
		}

		sizeStr := ""
		if sizeBytes.Valid {
			sizeStr = fmt.Sprintf("%d", sizeBytes.Int64)
		}
		durationStr := ""
		if durationMs.Valid {
			durationStr = fmt.Sprintf("%d", durationMs.Int64)
		}
		details := message.String
		if sourceURL.Valid && sourceURL.String != "" {
			details += fmt.Sprintf(" (Source: %s)", filepath.Base(sourceURL.String))
		}
		if outputPath.Valid && outputPath.String != "" {
			details += fmt.Sprintf(" (Output: %s)", filepath.Base(outputPath.String))
		}

		fmt.Printf("%-45s | %-8s | %-15s | %-25s | %-12s | %-10s | %s\n",
			filename, filetype, event, timestamp.Format(time.RFC3339), sizeStr, durationStr, details)
		count++
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating event log rows: %w", err)
	}
	fmt.Printf("Displayed %d records.\n", count)
	return nil
}
