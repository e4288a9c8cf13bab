// Package table pivots race records into wide per-paddler tables.
//
// Tables are values: every function returns a new Table and never mutates
// its input, so derived tables are always recomputed from records.
package table

import (
	"encoding/json"
	"slices"
	"strconv"
	"time"

	"github.com/okian/damdice/internal/domain/model"
	"github.com/okian/damdice/internal/domain/ranking"
	"github.com/okian/damdice/internal/domain/timing"
)

// Kind says what a cell holds.
type Kind int

const (
	Missing Kind = iota
	Duration
	Number
)

// Value is one cell. A paddler who did not race has a Missing cell, never a
// zero.
type Value struct {
	Kind     Kind
	Duration time.Duration
	Number   int
}

// DurationValue wraps a race time.
func DurationValue(d time.Duration) Value { return Value{Kind: Duration, Duration: d} }

// NumberValue wraps a rank, score or count.
func NumberValue(n int) Value { return Value{Kind: Number, Number: n} }

// Present reports whether the cell holds a value.
func (v Value) Present() bool { return v.Kind != Missing }

// String renders race times as H:MM:SS, numbers in decimal and missing
// cells as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case Duration:
		return timing.FormatDuration(v.Duration)
	case Number:
		return strconv.Itoa(v.Number)
	default:
		return ""
	}
}

// MarshalJSON emits race times as display strings, numbers as numbers and
// missing cells as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case Duration:
		return json.Marshal(v.String())
	case Number:
		return json.Marshal(v.Number)
	default:
		return []byte("null"), nil
	}
}

// Row is one paddler's line.
type Row struct {
	Paddler model.Paddler `json:"paddler"`
	Cells   []Value       `json:"cells"`
}

// Table is a wide view: one row per paddler, one column per race, plus any
// derived columns appended after the races.
type Table struct {
	Category model.Category   `json:"category"`
	Races    []model.RaceDate `json:"-"`
	Columns  []string         `json:"columns"`
	Rows     []Row            `json:"rows"`
}

// Field selects the per-record value placed in the cells.
type Field func(model.RaceRecord) Value

// ByDuration fills cells with race times.
func ByDuration(r model.RaceRecord) Value { return DurationValue(r.Duration) }

// ByScore fills cells with Bobaas scores.
func ByScore(r model.RaceRecord) Value { return NumberValue(r.Score) }

// Pivot builds a wide table from one category's records. Rows are sorted by
// paddler, race columns by date. When a paddler has several records for one
// race the first one in input order fills the cell.
func Pivot(category model.Category, records []model.RaceRecord, field Field) Table {
	var races []model.RaceDate
	raceIdx := map[string]int{}
	var paddlers []model.Paddler
	seen := map[model.Paddler]bool{}

	for _, r := range records {
		if _, ok := raceIdx[r.Race.Key()]; !ok {
			raceIdx[r.Race.Key()] = len(races)
			races = append(races, r.Race)
		}
		if !seen[r.Paddler] {
			seen[r.Paddler] = true
			paddlers = append(paddlers, r.Paddler)
		}
	}
	slices.SortFunc(races, func(a, b model.RaceDate) int { return a.Compare(b) })
	slices.SortFunc(paddlers, func(a, b model.Paddler) int { return a.Compare(b) })

	col := make(map[string]int, len(races))
	columns := make([]string, len(races))
	for i, rd := range races {
		col[rd.Key()] = i
		columns[i] = rd.Label()
	}
	rowIdx := make(map[model.Paddler]int, len(paddlers))
	rows := make([]Row, len(paddlers))
	for i, p := range paddlers {
		rowIdx[p] = i
		rows[i] = Row{Paddler: p, Cells: make([]Value, len(races))}
	}

	for _, r := range records {
		cell := &rows[rowIdx[r.Paddler]].Cells[col[r.Race.Key()]]
		if !cell.Present() {
			*cell = field(r)
		}
	}

	return Table{Category: category, Races: races, Columns: columns, Rows: rows}
}

// Entry is one non-missing cell of a race column.
type Entry struct {
	Paddler model.Paddler
	Race    model.RaceDate
	Value   Value
}

// Unpivot lists the non-missing race cells row by row. Derived columns are
// not included.
func Unpivot(t Table) []Entry {
	var out []Entry
	for _, row := range t.Rows {
		for i, race := range t.Races {
			if v := row.Cells[i]; v.Present() {
				out = append(out, Entry{Paddler: row.Paddler, Race: race, Value: v})
			}
		}
	}
	return out
}

// WithColumn returns a copy of t with a derived column computed from each
// row's race cells.
func WithColumn(t Table, name string, derive func(raceCells []Value) Value) Table {
	out := Table{
		Category: t.Category,
		Races:    slices.Clone(t.Races),
		Columns:  append(slices.Clone(t.Columns), name),
		Rows:     make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		cells := slices.Clone(row.Cells)
		out.Rows[i] = Row{Paddler: row.Paddler, Cells: append(cells, derive(row.Cells[:len(t.Races)]))}
	}
	return out
}

// WithCount appends the number of races each paddler attended.
func WithCount(t Table, name string) Table {
	return WithColumn(t, name, func(cells []Value) Value {
		n := 0
		for _, c := range cells {
			if c.Present() {
				n++
			}
		}
		return NumberValue(n)
	})
}

// WithTotal appends the Bobaas total of each paddler's score cells.
func WithTotal(t Table, name string, baseline, capScore int) Table {
	return WithColumn(t, name, func(cells []Value) Value {
		var scores []int
		for _, c := range cells {
			if c.Kind == Number {
				scores = append(scores, c.Number)
			}
		}
		return NumberValue(ranking.Total(scores, baseline, capScore))
	})
}

// Strings renders every cell for display.
func (t Table) Strings() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		line := make([]string, 0, len(row.Cells)+2)
		line = append(line, row.Paddler.Name, row.Paddler.Surname)
		for _, c := range row.Cells {
			line = append(line, c.String())
		}
		out[i] = line
	}
	return out
}

// Header is the display header matching Strings.
func (t Table) Header() []string {
	return append([]string{"Name", "Surname"}, t.Columns...)
}
