package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds raised while cleaning submissions.
var (
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrMalformedDuration  = errors.New("malformed duration")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownDoublesFlag = errors.New("unknown doubles flag")
)

// Kind returns a stable, metric friendly name for a sentinel error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedTimestamp):
		return "malformed_timestamp"
	case errors.Is(err, ErrMalformedDuration):
		return "malformed_duration"
	case errors.Is(err, ErrUnknownCategory):
		return "unknown_category"
	case errors.Is(err, ErrUnknownDoublesFlag):
		return "unknown_doubles_flag"
	default:
		return "unknown"
	}
}

// RowError ties a parse failure to the feed row that caused it.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Rejection records a row that was skipped rather than failing the run.
type Rejection struct {
	Row     int    `json:"row"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewRejection builds a Rejection from a row error.
func NewRejection(row int, err error) Rejection {
	return Rejection{Row: row, Kind: Kind(err), Message: err.Error()}
}
