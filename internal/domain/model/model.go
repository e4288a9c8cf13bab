// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Category is the race distance a paddler entered.
type Category string

// The two distances raced at every dam dice.
const (
	FiveKm Category = "5 km"
	TenKm  Category = "10 km"
)

// Categories lists every category in display order: the long dice first.
func Categories() []Category {
	return []Category{TenKm, FiveKm}
}

// ParseCategory maps the submitted distance onto a Category.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.TrimSpace(s)); c {
	case FiveKm, TenKm:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

// Submission is one raw row of the spreadsheet feed.
type Submission struct {
	Row        int    // spreadsheet row; the header is row 1
	Timestamp  string // MM/DD/YYYY HH:MM:SS
	Name       string
	Surname    string
	Category   string // "5 km" or "10 km"
	Duration   string // HH:MM:SS
	Doubles    string // "Yes" or "No"
	HasDoubles bool   // false for the legacy sheet layout without the doubles column
}

// RaceDate identifies one dam dice. In legacy mode the year is ignored so
// the same day and month in two seasons collide.
type RaceDate struct {
	Year      int
	Month     time.Month
	Day       int
	YearAware bool
}

// NewRaceDate derives a race date from a submission timestamp.
func NewRaceDate(ts time.Time, yearAware bool) RaceDate {
	return RaceDate{Year: ts.Year(), Month: ts.Month(), Day: ts.Day(), YearAware: yearAware}
}

// Label renders dd/mm, or dd/mm/yyyy when year aware.
func (d RaceDate) Label() string {
	if d.YearAware {
		return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
	}
	return fmt.Sprintf("%02d/%02d", d.Day, int(d.Month))
}

// Key is the grouping key; two dates with equal keys are the same race.
func (d RaceDate) Key() string {
	return d.Label()
}

// Compare orders race dates. Legacy dates sort like their dd/mm label,
// year-aware dates sort chronologically.
func (d RaceDate) Compare(o RaceDate) int {
	if d.YearAware || o.YearAware {
		if c := cmpInt(d.Year, o.Year); c != 0 {
			return c
		}
		if c := cmpInt(int(d.Month), int(o.Month)); c != 0 {
			return c
		}
		return cmpInt(d.Day, o.Day)
	}
	if c := cmpInt(d.Day, o.Day); c != 0 {
		return c
	}
	return cmpInt(int(d.Month), int(o.Month))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Paddler is the composite identity of a competitor. Names are compared
// exactly as submitted.
type Paddler struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

// Compare orders paddlers by name, then surname.
func (p Paddler) Compare(o Paddler) int {
	if c := strings.Compare(p.Name, o.Name); c != 0 {
		return c
	}
	return strings.Compare(p.Surname, o.Surname)
}

// RaceRecord is a cleaned submission. Rank and Score are zero until ranked.
type RaceRecord struct {
	Row      int
	Paddler  Paddler
	Race     RaceDate
	Category Category
	Duration time.Duration
	Doubles  int // 1 when raced in a doubles boat
	Rank     int
	Score    int
}
