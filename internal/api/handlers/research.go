package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/internal/marketdata"
	"github.com/dmarks/debasement/internal/research"
	"github.com/dmarks/debasement/pkg/logger"
)

// ResearchHandler serves research frames and series.
type ResearchHandler struct {
	service   *research.Service
	snapshots *research.SnapshotStore
	fetcher   *marketdata.Fetcher
	logger    *logger.Logger
}

// NewResearchHandler creates a research handler.
func NewResearchHandler(
	service *research.Service,
	snapshots *research.SnapshotStore,
	fetcher *marketdata.Fetcher,
	log *logger.Logger,
) *ResearchHandler {
	return &ResearchHandler{
		service:   service,
		snapshots: snapshots,
		fetcher:   fetcher,
		logger:    log,
	}
}

// GetFrame assembles and returns the research frame for a window.
// GET /api/research/frame?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ResearchHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	frame, err := h.service.ResearchFrame(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, contracts.ErrDataUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "Research data unavailable")
			return
		}
		h.logger.WithError(err).Error("Failed to build research frame")
		respondError(w, http.StatusInternalServerError, "Failed to build research frame")
		return
	}

	respondJSON(w, http.StatusOK, frame)
}

// GetSeries returns one column of the research frame as a series.
// GET /api/research/series/{name}?from=&to=
func (h *ResearchHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	from, to, err := parseWindow(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	frame, err := h.service.ResearchFrame(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "Research data unavailable")
		return
	}

	series, ok := frame.Column(name)
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown series: "+name)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":      name,
		"synthetic": frame.Synthetic,
		"series":    series,
	})
}

// GetStatus reports adapter counters and snapshot freshness.
// GET /api/status
func (h *ResearchHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"fetcher": h.fetcher.Status(),
	}
	if snap, ok := h.snapshots.Get(); ok {
		status["snapshot_updated_at"] = snap.UpdatedAt
		status["snapshot_synthetic"] = snap.Frame.Synthetic
	}
	respondJSON(w, http.StatusOK, status)
}

// ClearCache drops the fetch cache.
// POST /api/cache/clear
func (h *ResearchHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.fetcher.ClearCache()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
