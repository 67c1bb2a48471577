// Package downloader fetches missing archives concurrently with a bounded
// worker pool. Each record gets exactly one terminal outcome; a failure on
// one record never aborts its siblings.
package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spacefreq/ificsync/internal/catalog"
	"github.com/spacefreq/ificsync/internal/util"
)

// Status is the terminal state of one download attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Outcome records the terminal result of one archive download. Failed
// outcomes are not retried within a run.
type Outcome struct {
	Record   catalog.Record
	Status   Status
	Path     string // absolute path of the saved archive on success
	Bytes    int64  // bytes written on success
	Duration time.Duration
	Err      error // reason when Status is StatusFailed
}

// Progress is an observational event emitted as each download starts and
// reaches its terminal state.
type Progress struct {
	Name     string
	Terminal bool
	Status   Status
	Bytes    int64
	Err      error
}

// Scheduler runs archive downloads over a fixed-size worker pool.
type Scheduler struct {
	Client     *http.Client
	Workers    int
	Dir        string // download directory
	Logger     *slog.Logger
	OnProgress func(Progress) // optional; called from worker goroutines
}

// Fetch downloads every record and returns one outcome per record. At most
// s.Workers transfers are in flight at any moment. The input is assumed to
// be deduplicated by name, so no two workers ever write the same file. If
// ctx is already cancelled nothing is scheduled; once a transfer has
// started it runs to its own completion or failure.
func (s *Scheduler) Fetch(ctx context.Context, records []catalog.Record) []Outcome {
	if len(records) == 0 {
		return nil
	}

	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(records) {
		workers = len(records)
	}

	jobs := make(chan catalog.Record)
	results := make(chan Outcome, len(records))
	var wg sync.WaitGroup

	s.Logger.Info("Starting download pool.",
		slog.Int("entries", len(records)), slog.Int("workers", workers))

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for rec := range jobs {
				results <- s.download(ctx, workerID, rec)
			}
		}(i)
	}

	// Feed the pool. Records left unscheduled after cancellation still get
	// a terminal Failed outcome so the caller sees every entry accounted
	// for.
feed:
	for i, rec := range records {
		select {
		case <-ctx.Done():
			s.Logger.Warn("Download scheduling cancelled.", "error", ctx.Err())
			for _, rest := range records[i:] {
				results <- Outcome{
					Record: rest,
					Status: StatusFailed,
					Err:    fmt.Errorf("not scheduled: %w", ctx.Err()),
				}
			}
			break feed
		case jobs <- rec:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	outcomes := make([]Outcome, 0, len(records))
	failures := 0
	for out := range results {
		if out.Status == StatusFailed {
			failures++
		}
		outcomes = append(outcomes, out)
	}

	s.Logger.Info("Download pool finished.",
		slog.Int("succeeded", len(outcomes)-failures), slog.Int("failed", failures))
	return outcomes
}

// download fetches one archive and writes it to the download directory.
func (s *Scheduler) download(ctx context.Context, workerID int, rec catalog.Record) Outcome {
	l := s.Logger.With(
		slog.String("archive", rec.Name),
		slog.String("url", rec.URL),
		slog.Int("worker", workerID),
	)
	start := time.Now()
	s.notify(Progress{Name: rec.Name})

	fail := func(err error) Outcome {
		l.Error("Download failed.", "error", err,
			slog.Duration("duration", time.Since(start).Round(time.Millisecond)))
		s.notify(Progress{Name: rec.Name, Terminal: true, Status: StatusFailed, Err: err})
		return Outcome{Record: rec, Status: StatusFailed, Duration: time.Since(start), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rec.URL, nil)
	if err != nil {
		return fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", util.RandomUserAgent())
	req.Header.Set("Accept", "application/zip,application/octet-stream,*/*")

	data, contentLength, err := util.FetchBytes(s.Client, req)
	if err != nil {
		return fail(fmt.Errorf("download http failed: %w", err))
	}
	if contentLength >= 0 && contentLength != int64(len(data)) {
		return fail(fmt.Errorf("incomplete body: got %d bytes, want %d", len(data), contentLength))
	}

	outPath, err := filepath.Abs(filepath.Join(s.Dir, rec.Name))
	if err != nil {
		return fail(fmt.Errorf("resolve output path: %w", err))
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fail(fmt.Errorf("create download directory: %w", err))
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fail(fmt.Errorf("save archive %s: %w", outPath, err))
	}

	duration := time.Since(start)
	l.Info("Download complete.",
		slog.Int("bytes", len(data)),
		slog.Duration("duration", duration.Round(time.Millisecond)))
	s.notify(Progress{Name: rec.Name, Terminal: true, Status: StatusSuccess, Bytes: int64(len(data))})

	return Outcome{
		Record:   rec,
		Status:   StatusSuccess,
		Path:     outPath,
		Bytes:    int64(len(data)),
		Duration: duration,
	}
}

func (s *Scheduler) notify(p Progress) {
	if s.OnProgress != nil {
		s.OnProgress(p)
	}
}
