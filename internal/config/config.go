// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config with defaults; Load layers file and env on top.
// - Every loaded Config is validated before it is returned.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Google Sheets export endpoint; the sheet id sits between d/ and /export.
const sheetsExportBase = "https://docs.google.com/spreadsheets/d/"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// SheetID and GID identify the season's spreadsheet tab. Both change every season.
	SheetID string `koanf:"sheet_id" validate:"required_without=FeedURL"`
	GID     string `koanf:"gid"`

	// FeedURL overrides SheetID/GID with an explicit export location.
	FeedURL string `koanf:"feed_url" validate:"omitempty,url"`

	// FeedFormat is the export format requested from the spreadsheet: csv or xlsx.
	FeedFormat string `koanf:"feed_format" validate:"oneof=csv xlsx"`

	// FetchTimeoutMS bounds a single feed download.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms" validate:"gt=0"`

	// CacheTTLMS is how long derived tables are served before the feed is re-read.
	// Zero recomputes on every request.
	CacheTTLMS int `koanf:"cache_ttl_ms" validate:"gte=0"`

	// YearAwareRaces keys races by day, month and year instead of the
	// legacy day/month label, which collides across seasons.
	YearAwareRaces bool `koanf:"year_aware_races"`

	// ScoreBaseline and ScoreCap parametrise the Bobaas total:
	// baseline - sum(max(0, cap - score)).
	ScoreBaseline int `koanf:"score_baseline" validate:"gt=0"`
	ScoreCap      int `koanf:"score_cap" validate:"gt=0"`

	// RefreshRPS and RefreshBurst rate limit forced refreshes of the feed.
	RefreshRPS   float64 `koanf:"refresh_rps" validate:"gt=0"`
	RefreshBurst int     `koanf:"refresh_burst" validate:"gte=1"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		FeedFormat:     "csv",
		FetchTimeoutMS: 15_000,
		CacheTTLMS:     60_000,
		ScoreBaseline:  225,
		ScoreCap:       15,
		RefreshRPS:     0.2,
		RefreshBurst:   1,
	}
}

// FeedLocation returns the URL the ingestor downloads.
func (c *Config) FeedLocation() string {
	if c.FeedURL != "" {
		return c.FeedURL
	}
	q := url.Values{}
	q.Set("format", c.FeedFormat)
	if c.GID != "" {
		q.Set("gid", c.GID)
	}
	return fmt.Sprintf("%s%s/export?%s", sheetsExportBase, url.PathEscape(c.SheetID), q.Encode())
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// CacheTTL returns CacheTTLMS as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMS) * time.Millisecond
}
