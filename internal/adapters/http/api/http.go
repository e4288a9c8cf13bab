// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/okian/damdice/internal/adapters/feed"
	service "github.com/okian/damdice/internal/app"
	"github.com/okian/damdice/internal/domain/model"
	"github.com/okian/damdice/internal/domain/pipeline"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Results returns the latest derived tables, possibly cached.
	Results(ctx context.Context) (pipeline.Results, error)
	// Refresh re-reads the feed regardless of the cache.
	Refresh(ctx context.Context) (pipeline.Results, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	tablesHandler  *TablesHandler
	refreshHandler *RefreshHandler
	exportHandler  *ExportHandler
}

// NewServer creates a new API server with all handlers. Forced refreshes
// are limited to refreshRPS per second with the given burst.
func NewServer(deps Dependencies, statsProvider StatsProvider, refreshRPS float64, refreshBurst int) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		tablesHandler:  NewTablesHandler(deps),
		refreshHandler: NewRefreshHandler(deps, rate.NewLimiter(rate.Limit(refreshRPS), refreshBurst)),
		exportHandler:  NewExportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/refresh", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))
	mux.HandleFunc("/export.xlsx", MetricsMiddleware(s.exportHandler.HandleExport, "export"))
	mux.HandleFunc("/api/tables/", MetricsMiddleware(s.tablesHandler.HandleGetTables, "tables"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeResultsError translates a failed run into a response. A feed that
// cannot be read or holds a structurally broken row is an upstream fault.
func writeResultsError(w http.ResponseWriter, err error) {
	var rowErr *model.RowError
	switch {
	case errors.Is(err, feed.ErrSourceUnavailable):
		writeError(w, http.StatusBadGateway, "source_unavailable", err)
	case errors.As(err, &rowErr):
		writeError(w, http.StatusBadGateway, model.Kind(rowErr.Err), err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
