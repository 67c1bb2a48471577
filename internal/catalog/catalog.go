// Package catalog builds the list of circular archives published for a date
// range by scraping the per-year listing pages.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sort"
	"time"

	"golang.org/x/net/html"

	"github.com/spacefreq/ificsync/internal/util"
)

// Record identifies one remote archive discovered on a listing page.
// Immutable after creation.
type Record struct {
	Date time.Time // publication date (UTC calendar date)
	Name string    // archive filename, unique within a catalog
	URL  string    // absolute download URL
}

// PageFetcher retrieves the raw content of a listing page. The catalog
// treats it as opaque: content or error.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) ([]byte, error)
}

// HTTPPageFetcher fetches listing pages over HTTP.
type HTTPPageFetcher struct {
	Client *http.Client
}

func (f *HTTPPageFetcher) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", util.RandomUserAgent())

	body, _, err := util.FetchBytes(f.Client, req)
	return body, err
}

// Builder produces date-ordered, deduplicated catalogs of archive records.
type Builder struct {
	URLTemplate string   // one listing page per year, %s is the two-digit year
	FormatTags  []string // accepted archive naming tags
	Fetcher     PageFetcher
	Logger      *slog.Logger
}

// Build returns every archive record published between start and end
// (inclusive), ordered by publication date with ties broken by discovery
// order. It fails with ErrInvalidRange before any I/O when start is after
// end, and with ErrCatalogUnavailable when no listing page in the range
// could be fetched and parsed. A single year page that is missing (e.g. not
// yet published) is tolerated and logged.
func (b *Builder) Build(ctx context.Context, start, end time.Time) ([]Record, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			start.Format("02.01.2006"), end.Format("02.01.2006"))
	}

	var (
		records   []Record
		seenNames = make(map[string]bool)
		pageErrs  error
		pagesRead int
	)

	for year := start.Year(); year <= end.Year(); year++ {
		select {
		case <-ctx.Done():
			return nil, errors.Join(pageErrs, ctx.Err())
		default:
		}

		pageURL := fmt.Sprintf(b.URLTemplate, util.YearSuffix(year))
		l := b.Logger.With(slog.Int("year", year), slog.String("page_url", pageURL))

		body, err := b.Fetcher.FetchPage(ctx, pageURL)
		if err != nil {
			l.Warn("Skip: listing page not available.", "error", err)
			pageErrs = errors.Join(pageErrs, fmt.Errorf("listing page %s: %w", pageURL, err))
			continue
		}

		root, err := html.Parse(bytes.NewReader(body))
		if err != nil {
			l.Warn("Skip: parse HTML failed.", "error", err)
			pageErrs = errors.Join(pageErrs, fmt.Errorf("parse listing %s: %w", pageURL, err))
			continue
		}
		pagesRead++

		base, err := url.Parse(pageURL)
		if err != nil {
			pageErrs = errors.Join(pageErrs, fmt.Errorf("parse base %s: %w", pageURL, err))
			continue
		}

		rows := parseListingRows(root, b.FormatTags)
		added := 0
		for _, row := range rows {
			pubDate, err := util.ParseCircularDate(row.date)
			if err != nil {
				l.Debug("Row date unparseable, skipping row.", "date", row.date)
				continue
			}
			if pubDate.Before(start) || pubDate.After(end) {
				continue
			}
			abs, err := base.Parse(row.href)
			if err != nil {
				l.Warn("Failed to resolve archive link.", "link", row.href, "error", err)
				continue
			}
			name := path.Base(abs.Path)
			if name == "" || name == "." || seenNames[name] {
				continue
			}
			seenNames[name] = true
			records = append(records, Record{Date: pubDate, Name: name, URL: abs.String()})
			added++
		}
		l.Debug("Listing page scanned.", slog.Int("rows", len(rows)), slog.Int("in_range", added))
	}

	if pagesRead == 0 {
		return nil, errors.Join(ErrCatalogUnavailable, pageErrs)
	}

	// Ascending by publication date; discovery order breaks ties.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	b.Logger.Info("Catalog built.",
		slog.Int("records", len(records)),
		slog.Int("pages_read", pagesRead),
		slog.String("start", start.Format("02.01.2006")),
		slog.String("end", end.Format("02.01.2006")))
	return records, nil
}
