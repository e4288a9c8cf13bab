// Package site renders the results pages as HTML.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/okian/damdice/internal/adapters/feed"
	"github.com/okian/damdice/internal/adapters/http/api"
	service "github.com/okian/damdice/internal/app"
	"github.com/okian/damdice/internal/domain/model"
	"github.com/okian/damdice/internal/domain/pages"
	"github.com/okian/damdice/internal/domain/pipeline"
)

// Error constants
var (
	ErrRender = errors.New("site render failed")
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html")) //nolint:gochecknoglobals // parsed once

// Dependencies is what the pages read from.
type Dependencies interface {
	Results(ctx context.Context) (pipeline.Results, error)
}

// Register attaches the result pages and their assets to mux.
func Register(_ context.Context, mux *http.ServeMux, deps Dependencies) {
	if mux == nil {
		panic("mux is nil")
	}
	h := NewHandler(deps)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
	mux.HandleFunc("/", api.MetricsMiddleware(h.ServeHTTP, "site"))
}

// FS returns an http.FileSystem for the embedded assets.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return http.FS(staticFS)
	}
	return http.FS(sub)
}

// Handler serves the Main, Yster and Bobaas pages.
type Handler struct {
	deps Dependencies
}

// NewHandler creates a new page handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{deps: deps}
}

type navLink struct {
	Label  string
	Path   string
	Active bool
}

type section struct {
	Caption string
	Header  []string
	Rows    [][]string
}

type pageData struct {
	Title       string
	Nav         []navLink
	Sections    []section
	Rejected    []model.Rejection
	RunID       string
	GeneratedAt string
	Status      int
	Error       string
}

// ServeHTTP renders the page named by the request path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	page, ok := pageFor(r.URL.Path)
	if !ok {
		h.renderError(w, "", http.StatusNotFound, "There is no page at "+r.URL.Path+".")
		return
	}

	res, err := h.deps.Results(r.Context())
	if err != nil {
		status, msg := describe(err)
		h.renderError(w, page, status, msg)
		return
	}

	view, _ := pages.Layout(page, res)
	data := pageData{
		Title:       view.Title,
		Nav:         nav(page),
		Rejected:    res.Rejected,
		RunID:       res.RunID,
		GeneratedAt: res.GeneratedAt.Format(time.RFC1123),
	}
	for _, s := range view.Sections {
		data.Sections = append(data.Sections, section{
			Caption: s.Caption,
			Header:  s.Table.Header(),
			Rows:    s.Table.Strings(),
		})
	}
	h.render(w, "page.html", http.StatusOK, data)
}

// pageFor accepts exactly "/" and the page paths.
func pageFor(path string) (pages.Page, bool) {
	for _, p := range pages.All() {
		if p.Path() == path {
			return p, true
		}
	}
	return "", false
}

func nav(current pages.Page) []navLink {
	links := make([]navLink, 0, len(pages.All()))
	for _, p := range pages.All() {
		links = append(links, navLink{Label: p.Label(), Path: p.Path(), Active: p == current})
	}
	return links
}

// describe maps a failed run onto a status and a reader facing message.
func describe(err error) (int, string) {
	var rowErr *model.RowError
	switch {
	case errors.Is(err, feed.ErrSourceUnavailable):
		return http.StatusBadGateway, "The results sheet could not be read. Try again shortly."
	case errors.As(err, &rowErr):
		return http.StatusBadGateway, fmt.Sprintf("The results sheet has a broken entry at row %d: %v.", rowErr.Row, rowErr.Err)
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "Results are not available yet."
	default:
		return http.StatusInternalServerError, "Something went wrong computing the results."
	}
}

func (h *Handler) renderError(w http.ResponseWriter, page pages.Page, status int, msg string) {
	title := http.StatusText(status)
	if page != "" {
		title = page.Title()
	}
	h.render(w, "error.html", status, pageData{
		Title:  title,
		Nav:    nav(page),
		Status: status,
		Error:  msg,
	})
}

func (h *Handler) render(w http.ResponseWriter, name string, status int, data pageData) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, fmt.Errorf("%w: %w", ErrRender, err).Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
