package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/damdice/internal/domain/model"
	"github.com/okian/damdice/internal/domain/pages"
)

// TablesHandler serves page views as JSON.
type TablesHandler struct {
	deps Dependencies
}

// NewTablesHandler creates a new tables handler.
func NewTablesHandler(deps Dependencies) *TablesHandler {
	return &TablesHandler{deps: deps}
}

type tablesResponse struct {
	pages.View
	RunID       string            `json:"runId"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Rejected    []model.Rejection `json:"rejected"`
}

// HandleGetTables handles GET /api/tables/{page} requests. Duration cells
// are H:MM:SS strings, ranks and scores are numbers, missing cells are null.
func (h *TablesHandler) HandleGetTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	slug := strings.TrimPrefix(r.URL.Path, "/api/tables/")
	if slug == "" || strings.Contains(slug, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	page, ok := pages.ParsePage(slug)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", ErrUnknownPage)
		return
	}

	res, err := h.deps.Results(r.Context())
	if err != nil {
		writeResultsError(w, err)
		return
	}

	etag := `"` + res.FeedDigest + "-" + string(page) + `"`
	if res.FeedDigest != "" {
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	view, _ := pages.Layout(page, res)
	rejected := res.Rejected
	if rejected == nil {
		rejected = []model.Rejection{}
	}
	writeJSON(w, http.StatusOK, tablesResponse{
		View:        view,
		RunID:       res.RunID,
		GeneratedAt: res.GeneratedAt,
		Rejected:    rejected,
	})
}
