package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/okian/damdice/internal/domain/model"
)

// Format is the spreadsheet export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Column headers written by the submission form.
const (
	ColTimestamp = "Timestamp"
	ColDoubles   = "Did you do doubles?"
	ColName      = "Name"
	ColSurname   = "Surname"
	ColCategory  = "Did you do short or long dice?"
	ColDuration  = "Please submit your time"
)

var requiredColumns = []string{ColTimestamp, ColName, ColSurname, ColCategory, ColDuration}

// readCSV reads every record. A UTF-8 BOM is dropped and every record must
// have as many fields as the header.
func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	cr.FieldsPerRecord = 0
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return records, nil
}

// readXLSX reads the first worksheet. Spreadsheet exports drop trailing empty
// cells, so short rows are padded to the header width.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return rows, nil
	}
	width := len(rows[0])
	for i, row := range rows {
		switch {
		case len(row) > width:
			return nil, fmt.Errorf("sheet %q row %d: %d cells, header has %d", sheets[0], i+1, len(row), width)
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	return rows, nil
}

// submissions maps records onto Submissions by header name. The doubles
// column is optional; without it the feed is the legacy layout. Row is the
// spreadsheet row number, the header being row 1, so blank rows still count.
func submissions(records [][]string) ([]model.Submission, bool, error) {
	if len(records) == 0 {
		return nil, false, fmt.Errorf("%w: feed is empty", ErrMissingColumn)
	}

	idx := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		idx[normalizeHeader(h)] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, false, fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
	}
	doublesCol, hasDoubles := idx[ColDoubles]

	out := make([]model.Submission, 0, len(records)-1)
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		s := model.Submission{
			Row:        i + 2,
			Timestamp:  rec[idx[ColTimestamp]],
			Name:       rec[idx[ColName]],
			Surname:    rec[idx[ColSurname]],
			Category:   rec[idx[ColCategory]],
			Duration:   rec[idx[ColDuration]],
			HasDoubles: hasDoubles,
		}
		if hasDoubles {
			s.Doubles = rec[doublesCol]
		}
		out = append(out, s)
	}
	return out, !hasDoubles, nil
}

func normalizeHeader(h string) string {
	return norm.NFC.String(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
