// Package timing parses submission timestamps and race times and formats
// race times for display.
package timing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/damdice/internal/domain/model"
)

// TimestampLayout is the form timestamp written by the spreadsheet,
// MM/DD/YYYY HH:MM:SS. Month, day and hour may be unpadded.
const TimestampLayout = "1/2/2006 15:04:05"

// ParseTimestamp parses a form timestamp. There is no lenient fallback.
func ParseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(TimestampLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", model.ErrMalformedTimestamp, s)
	}
	return ts, nil
}

// ParseDuration parses a submitted race time of the form H:MM:SS or HH:MM:SS.
func ParseDuration(s string) (time.Duration, error) {
	bad := fmt.Errorf("%w: %q, want HH:MM:SS", model.ErrMalformedDuration, s)

	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, bad
	}
	h, ok := digits(parts[0], 1, 2)
	if !ok {
		return 0, bad
	}
	m, ok := digits(parts[1], 2, 2)
	if !ok || m >= 60 {
		return 0, bad
	}
	sec, ok := digits(parts[2], 2, 2)
	if !ok || sec >= 60 {
		return 0, bad
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

// digits parses an unsigned decimal of minLen..maxLen ASCII digits.
func digits(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// ParseDoubles maps the doubles answer to 1 or 0. Anything but Yes or No,
// including an empty cell, is an error.
func ParseDoubles(s string) (int, error) {
	switch strings.TrimSpace(s) {
	case "Yes":
		return 1, nil
	case "No":
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %q, want Yes or No", model.ErrUnknownDoublesFlag, s)
	}
}

// FormatDuration renders d as H:MM:SS. Times beyond a day keep counting
// hours; there is never a day prefix.
func FormatDuration(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	d = d.Round(time.Second)
	h := int64(d / time.Hour)
	m := int64(d/time.Minute) % 60
	s := int64(d/time.Second) % 60
	out := fmt.Sprintf("%d:%02d:%02d", h, m, s)
	if neg {
		return "-" + out
	}
	return out
}
