package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EventCount is one aggregation row of the event log.
type EventCount struct {
	FileType   string
	Event      string
	Count      int64
	TotalBytes int64
}

// SummarizeEvents aggregates the event log by file type and event,
// including the total bytes moved where recorded.
func SummarizeEvents(ctx context.Context, db *sql.DB) ([]EventCount, error) {
	query := `
        SELECT filetype, event, COUNT(*) AS n, COALESCE(SUM(size_bytes), 0) AS total_bytes
        FROM ific_event_log
        GROUP BY filetype, event
        ORDER BY filetype, event;
    `
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query event summary: %w", err)
	}
	defer rows.Close()

	var out []EventCount
	var scanErrs error
	for rows.Next() {
		var ec EventCount
		if err := rows.Scan(&ec.FileType, &ec.Event, &ec.Count, &ec.TotalBytes); err != nil {
			scanErrs = errors.Join(scanErrs, fmt.Errorf("scan event summary row: %w", err))
			continue
		}
		out = append(out, ec)
	}
	if err := rows.Err(); err != nil {
		scanErrs = errors.Join(scanErrs, fmt.Errorf("iterate event summary: %w", err))
	}
	return out, scanErrs
}

// FailureRow is one recorded per-record failure.
type FailureRow struct {
	Filename  string
	FileType  string
	Timestamp time.Time
	Message   string
}

// RecentFailures returns the most recent error events, newest first.
func RecentFailures(ctx context.Context, db *sql.DB, limit int) ([]FailureRow, error) {
	query := `
        SELECT filename, filetype, event_timestamp, COALESCE(message, '')
        FROM ific_event_log
        WHERE event = ?
        ORDER BY event_timestamp DESC, log_id DESC
        LIMIT ?;
    `
	rows, err := db.QueryContext(ctx, query, EventError, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent failures: %w", err)
	}
	defer rows.Close()

	var out []FailureRow
	for rows.Next() {
		var fr FailureRow
		if err := rows.Scan(&fr.Filename, &fr.FileType, &fr.Timestamp, &fr.Message); err != nil {
			return out, fmt.Errorf("scan failure row: %w", err)
		}
		out = append(out, fr)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("iterate recent failures: %w", err)
	}
	return out, nil
}

// EventRow is one raw event log record, used for exports.
type EventRow struct {
	Filename   string
	FileType   string
	Event      string
	Timestamp  time.Time
	SourceURL  string
	OutputPath string
	Message    string
	SizeBytes  int64
	DurationMS int64
}

// AllEvents returns the full event log ordered oldest first.
func AllEvents(ctx context.Context, db *sql.DB) ([]EventRow, error) {
	query := `
        SELECT filename, filetype, event, event_timestamp,
               COALESCE(source_url, ''), COALESCE(output_path, ''), COALESCE(message, ''),
               COALESCE(size_bytes, 0), COALESCE(duration_ms, 0)
        FROM ific_event_log
        ORDER BY event_timestamp ASC, log_id ASC;
    `
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all events: %w", err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var er EventRow
		if err := rows.Scan(&er.Filename, &er.FileType, &er.Event, &er.Timestamp,
			&er.SourceURL, &er.OutputPath, &er.Message, &er.SizeBytes, &er.DurationMS); err != nil {
			return out, fmt.Errorf("scan event row: %w", err)
		}
		out = append(out, er)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("iterate all events: %w", err)
	}
	return out, nil
}
