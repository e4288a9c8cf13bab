package feed

import "errors"

// Sentinel errors for feed ingestion.
var (
	// ErrSourceUnavailable means the feed could not be fetched or is not a
	// results sheet. The run is aborted; there are no retries.
	ErrSourceUnavailable = errors.New("source unavailable")

	ErrMissingColumn     = errors.New("missing column")
	ErrUnsupportedFormat = errors.New("unsupported feed format")
)
