package config

import "time"

// DefaultListingURLTemplate is the per-year circular listing page. The %s is
// the two-digit year suffix, e.g. "24" for 2024.
const DefaultListingURLTemplate = "https://www.itu.int/sns/wic/demowic%s.html"

// DefaultFormatTags are the archive naming tags recognised on listing pages.
// Only anchors whose href contains one of these are treated as circular
// archives.
var DefaultFormatTags = []string{
	"converted-to-v9.1",
	"converted-to-v10",
	"ific10",
}

const (
	// DefaultWorkers bounds concurrent downloads.
	DefaultWorkers = 5

	// DefaultHTTPTimeout bounds each network call so a stalled transfer
	// cannot hold a worker slot indefinitely.
	DefaultHTTPTimeout = 2 * time.Minute

	// DefaultDatabaseExt selects which archive members get extracted.
	DefaultDatabaseExt = ".mdb"
)

// Config holds application settings.
type Config struct {
	DownloadDir        string
	ExtractDir         string
	DBPath             string
	Workers            int
	HTTPTimeout        time.Duration
	ListingURLTemplate string
	FormatTags         []string
	DatabaseExt        string
}
