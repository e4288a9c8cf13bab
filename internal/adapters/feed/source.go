// Package feed downloads the results spreadsheet export and decodes it into
// raw submissions.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/okian/damdice/internal/domain/model"
	"github.com/okian/damdice/pkg/logger"
	"github.com/okian/damdice/pkg/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	// maxFeedBytes caps a download; a season of submissions is a few hundred KB.
	maxFeedBytes = 32 << 20
)

// Snapshot is one download of the feed.
type Snapshot struct {
	Raw         []byte
	Digest      string
	Format      Format
	Legacy      bool
	Submissions []model.Submission
	FetchedAt   time.Time
}

// Source yields feed snapshots.
type Source interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// SheetSource downloads a spreadsheet export with a single HTTP GET.
type SheetSource struct {
	url     string
	format  Format
	timeout time.Duration
	client  *http.Client
	logger  logger.Logger
}

// NewSheetSource creates a source for the export at url.
func NewSheetSource(url string, opts ...Option) *SheetSource {
	s := &SheetSource{
		url:     url,
		format:  FormatCSV,
		timeout: defaultTimeout,
		client:  http.DefaultClient,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the download location.
func (s *SheetSource) URL() string { return s.url }

// Fetch downloads and decodes the feed. Every failure wraps
// ErrSourceUnavailable.
func (s *SheetSource) Fetch(ctx context.Context) (Snapshot, error) {
	log := s.logger.With(logger.String("url", s.url))
	start := time.Now()
	snap, err := s.fetch(ctx)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordFeedFetch("error", latency)
		log.Error(ctx, "feed fetch failed", logger.Float64("latency_ms", latency), logger.Error(err))
		return Snapshot{}, err
	}
	metrics.RecordFeedFetch("ok", latency)
	metrics.UpdateFeedBytes(len(snap.Raw))
	metrics.RecordRowsIngested(len(snap.Submissions))
	log.Debug(ctx, "feed fetched",
		logger.Float64("latency_ms", latency),
		logger.String("digest", snap.Digest),
		logger.Int("bytes", len(snap.Raw)),
		logger.Int("rows", len(snap.Submissions)),
		logger.Bool("legacy", snap.Legacy),
	)
	return snap, nil
}

func (s *SheetSource) fetch(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("%w: %s returned %s", ErrSourceUnavailable, s.url, resp.Status)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: reading body: %w", ErrSourceUnavailable, err)
	}
	if len(raw) > maxFeedBytes {
		return Snapshot{}, fmt.Errorf("%w: feed larger than %d bytes", ErrSourceUnavailable, maxFeedBytes)
	}

	snap, err := Decode(raw, s.format)
	if err != nil {
		return Snapshot{}, err
	}
	snap.FetchedAt = time.Now()
	return snap, nil
}

// Decode parses a raw export. Every failure wraps ErrSourceUnavailable.
func Decode(raw []byte, format Format) (Snapshot, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSV(bytes.NewReader(raw))
	case FormatXLSX:
		records, err = readXLSX(bytes.NewReader(raw))
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	subs, legacy, err := submissions(records)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return Snapshot{
		Raw:         raw,
		Digest:      Digest(raw),
		Format:      format,
		Legacy:      legacy,
		Submissions: subs,
	}, nil
}

// Digest fingerprints a raw export so unchanged feeds can be detected.
func Digest(raw []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(raw))
}
