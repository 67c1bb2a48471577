// Package report aggregates the event log into run statistics and can
// export the full log to Parquet for downstream analysis.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/spacefreq/ificsync/internal/db"
)

// PrintSummary queries the event log and prints aggregate counts plus the
// most recent per-record failures.
func PrintSummary(ctx context.Context, dbConn *sql.DB, logger *slog.Logger, failureLimit int) error {
	counts, err := db.SummarizeEvents(ctx, dbConn)
	if err != nil {
		return fmt.Errorf("summarize events: %w", err)
	}

	fmt.Println("--- Event Log Summary ---")
	fmt.Printf("%-10s | %-15s | %-8s | %s\n", "Type", "Event", "Count", "Total Bytes")
	fmt.Println(strings.Repeat("-", 60))
	for _, c := range counts {
		fmt.Printf("%-10s | %-15s | %-8d | %d\n", c.FileType, c.Event, c.Count, c.TotalBytes)
	}
	if len(counts) == 0 {
		fmt.Println("(no events recorded yet)")
	}

	failures, err := db.RecentFailures(ctx, dbConn, failureLimit)
	if err != nil {
		return fmt.Errorf("recent failures: %w", err)
	}
	if len(failures) > 0 {
		fmt.Printf("\n--- Recent Failures (Limit %d) ---\n", failureLimit)
		fmt.Printf("%-45s | %-10s | %-25s | %s\n", "Filename", "Type", "Timestamp (UTC)", "Reason")
		fmt.Println(strings.Repeat("-", 120))
		for _, f := range failures {
			fmt.Printf("%-45s | %-10s | %-25s | %s\n",
				f.Filename, f.FileType, f.Timestamp.Format(time.RFC3339), f.Message)
		}
	}

	logger.Info("Report printed.", slog.Int("aggregate_rows", len(counts)), slog.Int("failures_shown", len(failures)))
	return nil
}

// eventRecord is the Parquet row layout for one event log entry.
type eventRecord struct {
	Filename    string `parquet:"name=filename, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	FileType    string `parquet:"name=filetype, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Event       string `parquet:"name=event, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TimestampMS int64  `parquet:"name=event_timestamp_ms, type=INT64"`
	SourceURL   string `parquet:"name=source_url, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	OutputPath  string `parquet:"name=output_path, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Message     string `parquet:"name=message, type=BYTE_ARRAY, convertedtype=UTF8"`
	SizeBytes   int64  `parquet:"name=size_bytes, type=INT64"`
	DurationMS  int64  `parquet:"name=duration_ms, type=INT64"`
}

// ExportParquet writes the full event log to a snappy-compressed Parquet
// file at outPath.
func ExportParquet(ctx context.Context, dbConn *sql.DB, logger *slog.Logger, outPath string) error {
	events, err := db.AllEvents(ctx, dbConn)
	if err != nil {
		return fmt.Errorf("load events for export: %w", err)
	}

	fw, err := local.NewLocalFileWriter(outPath)
	if err != nil {
		return fmt.Errorf("create parquet file %s: %w", outPath, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(eventRecord), 2)
	if err != nil {
		fw.Close()
		return fmt.Errorf("init parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, ev := range events {
		rec := eventRecord{
			Filename:    ev.Filename,
			FileType:    ev.FileType,
			Event:       ev.Event,
			TimestampMS: ev.Timestamp.UnixMilli(),
			SourceURL:   ev.SourceURL,
			OutputPath:  ev.OutputPath,
			Message:     ev.Message,
			SizeBytes:   ev.SizeBytes,
			DurationMS:  ev.DurationMS,
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			fw.Close()
			return fmt.Errorf("write parquet row: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finalize parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}

	logger.Info("Event log exported to Parquet.",
		slog.String("path", outPath), slog.Int("rows", len(events)))
	return nil
}
