package feed

import (
	"net/http"
	"time"

	"github.com/okian/damdice/pkg/logger"
)

// Option applies a configuration option to a SheetSource.
type Option func(*SheetSource)

// WithFormat selects the export format, FormatCSV or FormatXLSX.
func WithFormat(f Format) Option {
	return func(s *SheetSource) {
		if f != "" {
			s.format = f
		}
	}
}

// WithTimeout bounds a single download.
func WithTimeout(d time.Duration) Option {
	return func(s *SheetSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(s *SheetSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SheetSource) {
		if l != nil {
			s.logger = l
		}
	}
}
