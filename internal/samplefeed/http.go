package samplefeed

import (
	"net/http"
	"strconv"

	"github.com/okian/damdice/internal/adapters/feed"
	"github.com/okian/damdice/pkg/logger"
)

// Handler serves the generated feed like a spreadsheet export endpoint.
// The format query parameter selects csv (default) or xlsx; races and seed
// override the configured values for one request.
func Handler(cfg Config, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		c := cfg
		q := r.URL.Query()
		if v, err := strconv.Atoi(q.Get("races")); err == nil && v >= 0 {
			c.Races = v
		}
		if v, err := strconv.ParseInt(q.Get("seed"), 10, 64); err == nil {
			c.Seed = v
		}
		format := feed.Format(q.Get("format"))

		body, err := Render(c, format)
		if err != nil {
			log.Warn(r.Context(), "sample feed request rejected", logger.String("format", string(format)), logger.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if format == feed.FormatXLSX {
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		} else {
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		}
		_, _ = w.Write(body)
		log.Debug(r.Context(), "served sample feed",
			logger.String("format", string(format)),
			logger.Int("races", c.Races),
			logger.Int("bytes", len(body)),
		)
	})
}
