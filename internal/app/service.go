// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/damdice/internal/adapters/feed"
	"github.com/okian/damdice/internal/domain/model"
	"github.com/okian/damdice/internal/domain/pipeline"
	"github.com/okian/damdice/internal/domain/ranking"
	"github.com/okian/damdice/pkg/logger"
	"github.com/okian/damdice/pkg/metrics"
)

// ErrNotStarted is returned by Results before Start or after Stop.
var ErrNotStarted = errors.New("service not started")

const (
	defaultCacheTTL = time.Minute
	flightKey       = "feed"
)

// Service fetches the feed and serves derived results. Results are cached
// for the TTL; concurrent recomputes share one fetch.
type Service struct {
	mu sync.RWMutex

	source feed.Source
	group  singleflight.Group

	// Configuration
	cacheTTL  time.Duration
	yearAware bool
	baseline  int
	capScore  int
	now       func() time.Time

	// State
	started   bool
	current   *pipeline.Results
	fetchedAt time.Time
	lastErr   error
	lastErrAt time.Time
	runs      int
	reused    int

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCacheTTL sets how long results are served before the feed is re-read.
// Zero recomputes on every call.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithYearAwareRaces keys races by day, month and year.
func WithYearAwareRaces(on bool) Option {
	return func(s *Service) {
		s.yearAware = on
	}
}

// WithScoring sets the Bobaas baseline and cap.
func WithScoring(baseline, capScore int) Option {
	return func(s *Service) {
		if baseline > 0 && capScore > 0 {
			s.baseline = baseline
			s.capScore = capScore
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service reading from source.
func New(source feed.Source, opts ...Option) *Service {
	s := &Service{
		source:   source,
		cacheTTL: defaultCacheTTL,
		baseline: ranking.DefaultBaseline,
		capScore: ranking.DefaultCap,
		now:      time.Now,
		logger:   nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start marks the service ready and warms the cache. A failed warm-up is
// logged, not returned; pages report the feed error until it recovers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting results service",
		logger.Duration("cacheTTL", s.cacheTTL),
		logger.Bool("yearAwareRaces", s.yearAware),
		logger.Int("scoreBaseline", s.baseline),
		logger.Int("scoreCap", s.capScore),
	)

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn(ctx, "initial feed load failed", logger.Error(err))
	}
	return nil
}

// Stop drops cached results.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.current = nil
	s.logger.Info(context.Background(), "results service stopped")
}

// Results returns the latest derived tables, re-reading the feed when the
// cached results are older than the TTL.
func (s *Service) Results(ctx context.Context) (pipeline.Results, error) {
	s.mu.RLock()
	started, cur, fetchedAt := s.started, s.current, s.fetchedAt
	s.mu.RUnlock()

	if !started {
		return pipeline.Results{}, ErrNotStarted
	}
	if cur != nil && s.cacheTTL > 0 && s.now().Sub(fetchedAt) < s.cacheTTL {
		metrics.RecordCacheLookup("hit")
		return *cur, nil
	}
	metrics.RecordCacheLookup("miss")
	return s.Refresh(ctx)
}

// Refresh re-reads the feed regardless of the TTL. Callers that overlap
// share one fetch and one result.
func (s *Service) Refresh(ctx context.Context) (pipeline.Results, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return pipeline.Results{}, ErrNotStarted
	}

	v, err, shared := s.group.Do(flightKey, func() (any, error) {
		return s.recompute(context.WithoutCancel(ctx))
	})
	if shared {
		metrics.RecordCacheLookup("shared")
	}
	if err != nil {
		return pipeline.Results{}, err
	}
	return v.(pipeline.Results), nil
}

func (s *Service) recompute(ctx context.Context) (pipeline.Results, error) {
	snap, err := s.source.Fetch(ctx)
	if err != nil {
		s.fail(err)
		return pipeline.Results{}, err
	}

	s.mu.RLock()
	prev := s.current
	s.mu.RUnlock()

	if prev != nil && prev.FeedDigest == snap.Digest {
		metrics.RecordCacheLookup("unchanged")
		s.logger.Debug(ctx, "feed unchanged, reusing results", logger.String("digest", snap.Digest))
		s.store(prev, true)
		return *prev, nil
	}

	start := time.Now()
	res, err := pipeline.Transform(ctx, snap.Submissions, pipeline.Options{
		YearAwareRaces: s.yearAware,
		Baseline:       s.baseline,
		Cap:            s.capScore,
		FeedDigest:     snap.Digest,
		Now:            s.now,
		Logger:         s.logger.Named("pipeline"),
	})
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordPipelineRun("error", latency)
		s.logger.Error(ctx, "results pipeline failed", logger.String("digest", snap.Digest), logger.Error(err))
		s.fail(err)
		return pipeline.Results{}, err
	}

	metrics.RecordPipelineRun("ok", latency)
	metrics.UpdatePipelineLastRun(res.GeneratedAt.Unix())
	for _, rej := range res.Rejected {
		metrics.RecordRowRejected(rej.Kind)
	}
	for i := 0; i < res.Duplicates; i++ {
		metrics.RecordDuplicateSubmission()
	}
	for category, st := range res.Summary() {
		metrics.UpdateCategoryCounts(string(category), st.Records, st.Races, st.Paddlers)
	}

	s.store(&res, false)
	return res, nil
}

func (s *Service) store(res *pipeline.Results, reused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = res
	s.fetchedAt = s.now()
	s.lastErr = nil
	if reused {
		s.reused++
	} else {
		s.runs++
	}
}

func (s *Service) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	s.lastErrAt = s.now()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"cacheTTL":       s.cacheTTL.String(),
		"yearAwareRaces": s.yearAware,
		"scoreBaseline":  s.baseline,
		"scoreCap":       s.capScore,
		"runs":           s.runs,
		"reusedRuns":     s.reused,
	}
	if s.lastErr != nil {
		stats["lastError"] = s.lastErr.Error()
		stats["lastErrorAt"] = s.lastErrAt
	}

	if s.current != nil {
		rejected := s.current.Rejected
		if rejected == nil {
			rejected = []model.Rejection{}
		}
		stats["runId"] = s.current.RunID
		stats["feedDigest"] = s.current.FeedDigest
		stats["generatedAt"] = s.current.GeneratedAt
		stats["fetchedAt"] = s.fetchedAt
		stats["categories"] = s.current.Summary()
		stats["rejected"] = rejected
		stats["duplicates"] = s.current.Duplicates
	}

	return stats
}
