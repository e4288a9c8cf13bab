package api

import (
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/okian/damdice/internal/domain/pages"
	"github.com/okian/damdice/internal/domain/pipeline"
	"github.com/okian/damdice/internal/domain/table"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves every results table as one workbook.
type ExportHandler struct {
	deps Dependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps Dependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /export.xlsx requests.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	res, err := h.deps.Results(r.Context())
	if err != nil {
		writeResultsError(w, err)
		return
	}

	f, err := Workbook(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export_failed", err)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="damdice-results.xlsx"`)
	if err := f.Write(w); err != nil {
		// Headers are gone; the client sees a truncated download.
		return
	}
}

// Workbook lays out one sheet per page and category, in page order.
func Workbook(res pipeline.Results) (*excelize.File, error) {
	f := excelize.NewFile()
	first := true
	for _, p := range pages.All() {
		view, _ := pages.Layout(p, res)
		for _, sec := range view.Sections {
			name := p.Label() + " " + string(sec.Table.Category)
			if first {
				if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
					_ = f.Close()
					return nil, fmt.Errorf("naming sheet %q: %w", name, err)
				}
				first = false
			} else if _, err := f.NewSheet(name); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("adding sheet %q: %w", name, err)
			}
			if err := writeSheet(f, name, sec.Table); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, t table.Table) error {
	header := t.Header()
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("sheet %q header: %w", sheet, err)
	}
	for i, row := range t.Rows {
		cells := make([]any, 0, len(row.Cells)+2)
		cells = append(cells, row.Paddler.Name, row.Paddler.Surname)
		for _, c := range row.Cells {
			switch c.Kind {
			case table.Number:
				cells = append(cells, c.Number)
			case table.Duration:
				cells = append(cells, c.String())
			default:
				cells = append(cells, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
