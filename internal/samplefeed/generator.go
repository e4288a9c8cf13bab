// Package samplefeed generates a realistic results spreadsheet export for
// local runs and end-to-end tests.
package samplefeed

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/damdice/internal/adapters/feed"
	"github.com/okian/damdice/internal/domain/timing"
)

// Constants for attendance and time generation.
const (
	attendancePercent = 70
	doublesPercent    = 15
	spreadSeconds     = 240
	submitWindow      = 90 * time.Minute
	daysBetweenRaces  = 7
)

// examples are appended as one extra race at 02/22/2026 10:10:10.
var examples = []Paddler{
	{Name: "Joa", Surname: "Theron", Category: "5 km", Base: 30 * time.Minute},
	{Name: "Josh", Surname: "Glyn-Cuthbert", Category: "10 km", Base: 48 * time.Minute},
	{Name: "Stefan", Surname: "Erlank", Category: "10 km", Base: 51 * time.Minute},
	{Name: "Conrad", Surname: "Kriel", Category: "10 km", Base: 53 * time.Minute},
	{Name: "Barry", Surname: "Muller", Category: "5 km", Base: 42 * time.Minute},
	{Name: "Tayla", Surname: "Isaac", Category: "10 km", Base: 62 * time.Minute},
}

var exampleTimestamp = time.Date(2026, time.February, 22, 10, 10, 10, 0, time.UTC)

// Regulars is the weekly field.
var Regulars = []Paddler{
	{Name: "Anri", Surname: "Botha", Category: "10 km", Base: 47 * time.Minute},
	{Name: "Pieter", Surname: "Nel", Category: "10 km", Base: 50 * time.Minute},
	{Name: "Lize", Surname: "van Wyk", Category: "10 km", Base: 55 * time.Minute},
	{Name: "Hannes", Surname: "du Plessis", Category: "10 km", Base: 58 * time.Minute},
	{Name: "Mia", Surname: "Steyn", Category: "5 km", Base: 29 * time.Minute},
	{Name: "Ruan", Surname: "Visser", Category: "5 km", Base: 27 * time.Minute},
	{Name: "Karla", Surname: "Smit", Category: "5 km", Base: 33 * time.Minute},
	{Name: "Dawid", Surname: "Fourie", Category: "5 km", Base: 36 * time.Minute},
}

// Header returns the column headers for the layout.
func Header(legacy bool) []string {
	if legacy {
		return []string{feed.ColTimestamp, feed.ColName, feed.ColSurname, feed.ColCategory, feed.ColDuration}
	}
	return []string{feed.ColTimestamp, feed.ColDoubles, feed.ColName, feed.ColSurname, feed.ColCategory, feed.ColDuration}
}

// Rows generates the data rows, header excluded.
func Rows(cfg Config) [][]string {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic sample data
	var rows [][]string

	for race := 0; race < cfg.Races; race++ {
		day := cfg.FirstRace.AddDate(0, 0, race*daysBetweenRaces)
		for _, p := range Regulars {
			if rng.Intn(100) >= attendancePercent {
				continue
			}
			ts := day.Add(time.Duration(rng.Int63n(int64(submitWindow))))
			d := p.Base + time.Duration(rng.Intn(2*spreadSeconds)-spreadSeconds)*time.Second
			rows = append(rows, row(cfg.Legacy, ts, doubles(rng), p, timing.FormatDuration(d)))
		}
	}

	if cfg.Examples {
		for _, p := range examples {
			rows = append(rows, row(cfg.Legacy, exampleTimestamp, "No", p, timing.FormatDuration(p.Base)))
		}
	}

	if cfg.BadRows && cfg.Races > 0 {
		ts := cfg.FirstRace.Add(time.Hour)
		late := Paddler{Name: "Late", Surname: "Entry", Category: "10 km"}
		rows = append(rows, row(cfg.Legacy, ts, "No", late, "1:2"))
		if !cfg.Legacy {
			unsure := Paddler{Name: "Unsure", Surname: "Entry", Category: "5 km"}
			rows = append(rows, row(false, ts, "Maybe", unsure, "00:31:00"))
		}
	}
	return rows
}

func doubles(rng *rand.Rand) string {
	if rng.Intn(100) < doublesPercent {
		return "Yes"
	}
	return "No"
}

func row(legacy bool, ts time.Time, doubles string, p Paddler, duration string) []string {
	stamp := ts.Format("01/02/2006 15:04:05")
	if legacy {
		return []string{stamp, p.Name, p.Surname, p.Category, duration}
	}
	return []string{stamp, doubles, p.Name, p.Surname, p.Category, duration}
}

// CSV renders the feed as the spreadsheet's CSV export.
func CSV(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header(cfg.Legacy)); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if err := w.WriteAll(Rows(cfg)); err != nil {
		return nil, fmt.Errorf("writing rows: %w", err)
	}
	return buf.Bytes(), nil
}

// XLSX renders the feed as the spreadsheet's Excel export.
func XLSX(cfg Config) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	all := append([][]string{Header(cfg.Legacy)}, Rows(cfg)...)
	for i, r := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Render produces the feed in the requested format.
func Render(cfg Config, format feed.Format) ([]byte, error) {
	switch format {
	case feed.FormatCSV, "":
		return CSV(cfg)
	case feed.FormatXLSX:
		return XLSX(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", feed.ErrUnsupportedFormat, format)
	}
}
