package catalog_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacefreq/ificsync/internal/catalog"
)

// stubFetcher serves canned listing pages keyed by URL.
type stubFetcher struct {
	pages map[string]string
	calls []string
}

func (f *stubFetcher) FetchPage(_ context.Context, pageURL string) ([]byte, error) {
	f.calls = append(f.calls, pageURL)
	body, ok := f.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("fetch %s: status 404", pageURL)
	}
	return []byte(body), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBuilder(f catalog.PageFetcher) *catalog.Builder {
	return &catalog.Builder{
		URLTemplate: "https://listings.example.int/wic/demowic%s.html",
		FormatTags:  []string{"converted-to-v9.1", "ific10"},
		Fetcher:     f,
		Logger:      discardLogger(),
	}
}

func date(d string) time.Time {
	t, err := time.ParseInLocation("02.01.2006", d, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func listingPage(rows ...string) string {
	page := "<html><body><table>"
	for _, r := range rows {
		page += r
	}
	return page + "</table></body></html>"
}

func row(dateText, href string) string {
	return fmt.Sprintf(`<tr><td>%s</td><td><a href="%s">zip</a></td></tr>`, dateText, href)
}

func TestBuild_InvalidRangeBeforeAnyFetch(t *testing.T) {
	f := &stubFetcher{}
	b := newBuilder(f)

	_, err := b.Build(context.Background(), date("02.01.2025"), date("01.01.2025"))

	require.ErrorIs(t, err, catalog.ErrInvalidRange)
	assert.Empty(t, f.calls, "an invalid range must fail before any page fetch")
}

func TestBuild_FiltersByDateRangeAndTag(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{
		"https://listings.example.int/wic/demowic25.html": listingPage(
			row("07.01.2025", "ific3001/converted-to-v9.1/ific3001.zip"),
			row("21.01.2025", "ific3002/converted-to-v9.1/ific3002.zip"),
			// tag does not match any accepted format
			row("21.01.2025", "ific3002/legacy-v5/ific3002_old.zip"),
			// outside the requested range
			row("18.03.2025", "ific3006/converted-to-v9.1/ific3006.zip"),
			// no date in the row text
			`<tr><td>pending</td><td><a href="ific9999/ific10/ific9999.zip">zip</a></td></tr>`,
		),
	}}
	b := newBuilder(f)

	records, err := b.Build(context.Background(), date("01.01.2025"), date("31.01.2025"))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "ific3001.zip", records[0].Name)
	assert.Equal(t, "ific3002.zip", records[1].Name)
	assert.Equal(t, date("07.01.2025"), records[0].Date)
	assert.Equal(t, "https://listings.example.int/wic/ific3001/converted-to-v9.1/ific3001.zip", records[0].URL)
}

func TestBuild_RangeBoundariesAreInclusive(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{
		"https://listings.example.int/wic/demowic25.html": listingPage(
			row("01.01.2025", "a/ific10/first.zip"),
			row("31.01.2025", "a/ific10/last.zip"),
		),
	}}
	b := newBuilder(f)

	records, err := b.Build(context.Background(), date("01.01.2025"), date("31.01.2025"))
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestBuild_SpansYearsAndSortsByDate(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{
		"https://listings.example.int/wic/demowic24.html": listingPage(
			row("17.12.2024", "b/ific10/ific2998.zip"),
			row("03.12.2024", "b/ific10/ific2997.zip"),
		),
		"https://listings.example.int/wic/demowic25.html": listingPage(
			row("07.01.2025", "b/ific10/ific3001.zip"),
		),
	}}
	b := newBuilder(f)

	records, err := b.Build(context.Background(), date("01.12.2024"), date("31.01.2025"))
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "ific2997.zip", records[0].Name)
	assert.Equal(t, "ific2998.zip", records[1].Name)
	assert.Equal(t, "ific3001.zip", records[2].Name)
	assert.Len(t, f.calls, 2, "one listing page per year in the range")
}

func TestBuild_DeduplicatesByArchiveName(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{
		"https://listings.example.int/wic/demowic25.html": listingPage(
			row("07.01.2025", "b/ific10/ific3001.zip"),
			row("07.01.2025", "b/ific10/ific3001.zip"),
		),
	}}
	b := newBuilder(f)

	records, err := b.Build(context.Background(), date("01.01.2025"), date("31.01.2025"))
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestBuild_ToleratesOneMissingYearPage(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{
		// 2024 page intentionally absent; 2025 still readable.
		"https://listings.example.int/wic/demowic25.html": listingPage(
			row("07.01.2025", "b/ific10/ific3001.zip"),
		),
	}}
	b := newBuilder(f)

	records, err := b.Build(context.Background(), date("01.12.2024"), date("31.01.2025"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ific3001.zip", records[0].Name)
}

func TestBuild_UnavailableWhenNoPageReadable(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{}}
	b := newBuilder(f)

	_, err := b.Build(context.Background(), date("01.12.2024"), date("31.01.2025"))
	require.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
}

func TestBuild_EmptyRangeIsNotAnError(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{
		"https://listings.example.int/wic/demowic25.html": listingPage(
			row("18.03.2025", "b/ific10/ific3006.zip"),
		),
	}}
	b := newBuilder(f)

	records, err := b.Build(context.Background(), date("01.01.2025"), date("31.01.2025"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestBuild_ResolvesAbsoluteLinksUnchanged(t *testing.T) {
	f := &stubFetcher{pages: map[string]string{
		"https://listings.example.int/wic/demowic25.html": listingPage(
			row("07.01.2025", "https://cdn.example.int/archives/ific10/ific3001.zip"),
		),
	}}
	b := newBuilder(f)

	records, err := b.Build(context.Background(), date("01.01.2025"), date("31.01.2025"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "https://cdn.example.int/archives/ific10/ific3001.zip", records[0].URL)
}
