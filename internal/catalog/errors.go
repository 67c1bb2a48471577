package catalog

import "errors"

var (
	// ErrInvalidRange is returned before any I/O when start is after end.
	ErrInvalidRange = errors.New("catalog: start date is after end date")

	// ErrCatalogUnavailable is returned when no listing page in the
	// requested range could be fetched and parsed. It is fatal for the
	// run; no partial catalog is produced.
	ErrCatalogUnavailable = errors.New("catalog: remote listing unavailable")
)
