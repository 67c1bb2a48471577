// Package extractor unpacks downloaded archives into the extraction
// directory. Extraction is idempotent: outputs that already exist are never
// rewritten, and a fully extracted archive is reported as such with zero
// filesystem writes.
package extractor

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Status is the terminal state of one extraction attempt.
type Status string

const (
	StatusExtracted        Status = "extracted"
	StatusAlreadyExtracted Status = "already_extracted"
	StatusFailed           Status = "failed"
)

// Outcome records the terminal result of extracting one archive.
type Outcome struct {
	Archive  string   // archive filename
	Files    []string // paths written this run, in member order
	Status   Status
	Duration time.Duration
	Err      error // reason when Status is StatusFailed
}

// Engine extracts database members from downloaded archives.
type Engine struct {
	ExtractDir  string
	DatabaseExt string // member extension to extract, e.g. ".mdb"
	Logger      *slog.Logger
}

// ExtractAll processes archives sequentially, one terminal outcome per
// archive. A corrupt archive fails alone; the rest still get processed.
func (e *Engine) ExtractAll(ctx context.Context, archivePaths []string) []Outcome {
	outcomes := make([]Outcome, 0, len(archivePaths))
	for _, p := range archivePaths {
		select {
		case <-ctx.Done():
			outcomes = append(outcomes, Outcome{
				Archive: filepath.Base(p),
				Status:  StatusFailed,
				Err:     fmt.Errorf("not extracted: %w", ctx.Err()),
			})
			continue
		default:
		}
		outcomes = append(outcomes, e.extract(p))
	}
	return outcomes
}

// extract unpacks the database members of one archive. If every expected
// output already exists the archive is reported AlreadyExtracted and no
// write is performed. Pre-existing outputs are never modified.
func (e *Engine) extract(archivePath string) Outcome {
	name := filepath.Base(archivePath)
	l := e.Logger.With(slog.String("archive", name))
	start := time.Now()

	fail := func(err error) Outcome {
		l.Error("Extraction failed.", "error", err)
		return Outcome{Archive: name, Status: StatusFailed, Duration: time.Since(start), Err: err}
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fail(fmt.Errorf("open archive %s: %w", name, err))
	}
	defer zr.Close()

	var members []*zip.File
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() && strings.EqualFold(filepath.Ext(f.Name), e.DatabaseExt) {
			members = append(members, f)
		}
	}
	if len(members) == 0 {
		return fail(fmt.Errorf("archive %s has no %s member", name, e.DatabaseExt))
	}

	// Already-extracted check against the destination directory.
	pending := make([]*zip.File, 0, len(members))
	for _, f := range members {
		outPath := filepath.Join(e.ExtractDir, filepath.Base(f.Name))
		if _, statErr := os.Stat(outPath); statErr == nil {
			l.Debug("Member already extracted, skipping.", slog.String("member", filepath.Base(f.Name)))
			continue
		}
		pending = append(pending, f)
	}
	if len(pending) == 0 {
		l.Info("Archive already fully extracted.")
		return Outcome{Archive: name, Status: StatusAlreadyExtracted, Duration: time.Since(start)}
	}

	if err := os.MkdirAll(e.ExtractDir, 0o755); err != nil {
		return fail(fmt.Errorf("create extract directory %s: %w", e.ExtractDir, err))
	}

	written := make([]string, 0, len(pending))
	for _, f := range pending {
		outPath := filepath.Join(e.ExtractDir, filepath.Base(f.Name))
		if err := extractMember(f, outPath); err != nil {
			return fail(fmt.Errorf("extract %s from %s: %w", filepath.Base(f.Name), name, err))
		}
		written = append(written, outPath)
	}

	duration := time.Since(start)
	l.Info("Archive extracted.",
		slog.Int("files", len(written)),
		slog.Duration("duration", duration.Round(time.Millisecond)))
	return Outcome{Archive: name, Files: written, Status: StatusExtracted, Duration: duration}
}

func extractMember(f *zip.File, outPath string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open member stream: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		rc.Close()
		return fmt.Errorf("create output file: %w", err)
	}

	_, copyErr := io.Copy(out, rc)
	closeErr := errors.Join(out.Close(), rc.Close())
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(outPath) // drop the partial file
		return err
	}
	return nil
}
