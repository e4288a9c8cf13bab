package api

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RefreshHandler forces a feed re-read.
type RefreshHandler struct {
	deps    Dependencies
	limiter *rate.Limiter
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps Dependencies, limiter *rate.Limiter) *RefreshHandler {
	return &RefreshHandler{deps: deps, limiter: limiter}
}

type refreshResponse struct {
	Status     string `json:"status"`
	RunID      string `json:"runId"`
	FeedDigest string `json:"feedDigest"`
	Rejected   int    `json:"rejected"`
}

// HandleRefresh handles POST /refresh requests.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate_limited", ErrRateLimited)
		return
	}
	res, err := h.deps.Refresh(r.Context())
	if err != nil {
		writeResultsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Status:     "refreshed",
		RunID:      res.RunID,
		FeedDigest: res.FeedDigest,
		Rejected:   len(res.Rejected),
	})
}
