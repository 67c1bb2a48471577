// Package pipeline wires the catalog, inventory, download, and extraction
// stages into one run. Stages hand each other plain slices of records and
// outcomes; extraction starts only after every download has reached a
// terminal state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spacefreq/ificsync/internal/catalog"
	"github.com/spacefreq/ificsync/internal/db"
	"github.com/spacefreq/ificsync/internal/downloader"
	"github.com/spacefreq/ificsync/internal/extractor"
	"github.com/spacefreq/ificsync/internal/inventory"
)

// ConfirmFunc is the gate asked once per run before any download is
// scheduled. It receives the records that would be fetched. Returning false
// aborts the run cleanly.
type ConfirmFunc func(missing []catalog.Record) (bool, error)

// Fetcher runs the download stage. *downloader.Scheduler is the plain
// implementation; the interactive surface wraps it with a progress view.
type Fetcher interface {
	Fetch(ctx context.Context, records []catalog.Record) []downloader.Outcome
}

// EventRecorder receives observational history events. Implementations must
// tolerate being called from the pipeline goroutine only.
type EventRecorder interface {
	FileEvent(ctx context.Context, filename, filetype, event, sourceURL, outputPath, message string, sizeBytes int64, duration time.Duration)
}

// Summary reports the per-run counts shown to the user.
type Summary struct {
	CatalogEntries     int
	AlreadyLocal       int
	Downloaded         int
	DownloadFailures   int
	Extracted          int
	AlreadyExtracted   int
	ExtractionFailures int
}

// Result carries everything a run produced.
type Result struct {
	Summary     Summary
	Downloads   []downloader.Outcome
	Extractions []extractor.Outcome
	Aborted     bool // confirmation declined; nothing was downloaded
}

// Pipeline owns the four stages and runs them in order.
type Pipeline struct {
	Catalog     *catalog.Builder
	Downloads   Fetcher
	Engine      *extractor.Engine
	DownloadDir string
	Logger      *slog.Logger
	Confirm     ConfirmFunc   // nil means proceed without asking
	Events      EventRecorder // nil disables history recording
}

// Run executes catalog -> inventory -> download -> extract for the given
// date range. Catalog-level failures abort the run; per-record download and
// extraction failures are isolated and reported in the summary. Re-running
// over an unchanged remote catalog downloads and extracts nothing.
func (p *Pipeline) Run(ctx context.Context, start, end time.Time) (*Result, error) {
	res := &Result{}

	// Stage 1: catalog.
	records, err := p.Catalog.Build(ctx, start, end)
	if err != nil {
		return nil, err
	}
	res.Summary.CatalogEntries = len(records)
	for _, rec := range records {
		p.record(ctx, rec.Name, db.FileTypeArchive, db.EventDiscovered, rec.URL, "", "", 0, 0)
	}
	if len(records) == 0 {
		p.Logger.Info("No archives published in the requested range.")
		return res, nil
	}

	// Stage 2: inventory.
	inv, err := inventory.Snapshot(p.DownloadDir)
	if err != nil {
		return nil, err
	}
	missing := inv.Missing(records)
	res.Summary.AlreadyLocal = len(records) - len(missing)
	p.Logger.Info("Inventory resolved.",
		slog.Int("catalog", len(records)),
		slog.Int("already_local", res.Summary.AlreadyLocal),
		slog.Int("missing", len(missing)))
	for _, rec := range records {
		if inv.Has(rec.Name) {
			p.record(ctx, rec.Name, db.FileTypeArchive, db.EventSkipDownload, rec.URL, "", "already present", 0, 0)
		}
	}

	// Stage 3: confirmation gate, then the bounded download pool.
	if len(missing) > 0 {
		if p.Confirm != nil {
			ok, err := p.Confirm(missing)
			if err != nil {
				return nil, fmt.Errorf("confirmation gate: %w", err)
			}
			if !ok {
				p.Logger.Info("Run aborted before download.")
				res.Aborted = true
				return res, nil
			}
		}

		for _, rec := range missing {
			p.record(ctx, rec.Name, db.FileTypeArchive, db.EventDownloadStart, rec.URL, "", "", 0, 0)
		}
		res.Downloads = p.Downloads.Fetch(ctx, missing)
		for _, out := range res.Downloads {
			switch out.Status {
			case downloader.StatusSuccess:
				res.Summary.Downloaded++
				p.record(ctx, out.Record.Name, db.FileTypeArchive, db.EventDownloadEnd,
					out.Record.URL, out.Path, "", out.Bytes, out.Duration)
			case downloader.StatusFailed:
				res.Summary.DownloadFailures++
				p.record(ctx, out.Record.Name, db.FileTypeArchive, db.EventError,
					out.Record.URL, "", out.Err.Error(), 0, out.Duration)
			}
		}
	}

	// Stage 4: extraction, strictly after every download is terminal.
	// Already-local records short-circuit straight to this stage; failed
	// downloads are never attempted.
	archivePaths := p.extractable(records, res.Downloads, inv)
	res.Extractions = p.Engine.ExtractAll(ctx, archivePaths)
	for _, out := range res.Extractions {
		switch out.Status {
		case extractor.StatusExtracted:
			res.Summary.Extracted++
			p.record(ctx, out.Archive, db.FileTypeArchive, db.EventExtractEnd,
				"", "", fmt.Sprintf("files extracted: %d", len(out.Files)), 0, out.Duration)
			for _, f := range out.Files {
				p.record(ctx, filepath.Base(f), db.FileTypeDatabase, db.EventExtractEnd, "", f, "", 0, 0)
			}
		case extractor.StatusAlreadyExtracted:
			res.Summary.AlreadyExtracted++
			p.record(ctx, out.Archive, db.FileTypeArchive, db.EventSkipExtract, "", "", "already extracted", 0, 0)
		case extractor.StatusFailed:
			res.Summary.ExtractionFailures++
			p.record(ctx, out.Archive, db.FileTypeArchive, db.EventError, "", "", out.Err.Error(), 0, out.Duration)
		}
	}

	p.Logger.Info("Run complete.",
		slog.Int("catalog_entries", res.Summary.CatalogEntries),
		slog.Int("already_local", res.Summary.AlreadyLocal),
		slog.Int("downloaded", res.Summary.Downloaded),
		slog.Int("download_failures", res.Summary.DownloadFailures),
		slog.Int("extracted", res.Summary.Extracted),
		slog.Int("already_extracted", res.Summary.AlreadyExtracted),
		slog.Int("extraction_failures", res.Summary.ExtractionFailures))
	return res, nil
}

// extractable returns the local archive paths eligible for extraction, in
// catalog order: records already local at snapshot time plus this run's
// successful downloads.
func (p *Pipeline) extractable(records []catalog.Record, downloads []downloader.Outcome, inv *inventory.Inventory) []string {
	downloadedPath := make(map[string]string, len(downloads))
	for _, out := range downloads {
		if out.Status == downloader.StatusSuccess {
			downloadedPath[out.Record.Name] = out.Path
		}
	}

	paths := make([]string, 0, len(records))
	for _, rec := range records {
		switch {
		case inv.Has(rec.Name):
			paths = append(paths, filepath.Join(p.DownloadDir, rec.Name))
		case downloadedPath[rec.Name] != "":
			paths = append(paths, downloadedPath[rec.Name])
		}
	}
	return paths
}

func (p *Pipeline) record(ctx context.Context, filename, filetype, event, sourceURL, outputPath, message string, bytes int64, d time.Duration) {
	if p.Events != nil {
		p.Events.FileEvent(ctx, filename, filetype, event, sourceURL, outputPath, message, bytes, d)
	}
}
