package samplefeed

import "time"

// Config holds configuration for the generated feed.
type Config struct {
	Seed      int64     // Random seed; equal seeds give equal feeds
	Races     int       // Number of weekly races
	FirstRace time.Time // Date of the first race
	Legacy    bool      // Omit the doubles column
	BadRows   bool      // Append one malformed time and one unknown doubles answer
	Examples  bool      // Append the example paddlers at 02/22/2026 10:10:10
}

// Paddler is a competitor in the generated feed.
type Paddler struct {
	Name     string
	Surname  string
	Category string
	Base     time.Duration // typical finishing time
}

// Default configuration values.
const (
	DefaultRaces = 6
	DefaultSeed  = 2026
	// RaceStart is the time of day submissions start arriving.
	RaceStart = 17*time.Hour + 30*time.Minute
)

// DefaultConfig returns a feed of six weekly races from early February 2026.
func DefaultConfig() Config {
	return Config{
		Seed:      DefaultSeed,
		Races:     DefaultRaces,
		FirstRace: time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC).Add(RaceStart),
		Examples:  true,
	}
}
