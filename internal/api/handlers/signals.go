package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/internal/research"
	"github.com/dmarks/debasement/internal/signals"
	"github.com/dmarks/debasement/pkg/logger"
)

// SignalsHandler serves debasement signal readings.
type SignalsHandler struct {
	service   *research.Service
	detector  *signals.Detector
	snapshots *research.SnapshotStore
	logger    *logger.Logger
}

// NewSignalsHandler creates a signals handler.
func NewSignalsHandler(
	service *research.Service,
	detector *signals.Detector,
	snapshots *research.SnapshotStore,
	log *logger.Logger,
) *SignalsHandler {
	return &SignalsHandler{
		service:   service,
		detector:  detector,
		snapshots: snapshots,
		logger:    log,
	}
}

// composite returns the latest composite signal, preferring the snapshot
// written by the refresh job and computing live when none exists yet.
func (h *SignalsHandler) composite(r *http.Request) (contracts.CompositeSignal, bool, error) {
	if snap, ok := h.snapshots.Get(); ok {
		return snap.Composite, snap.Frame.Synthetic, nil
	}

	now := time.Now().UTC()
	frame, err := h.service.ResearchFrame(r.Context(), now.AddDate(-defaultLookbackYears, 0, 0), now)
	if err != nil {
		return contracts.CompositeSignal{}, false, err
	}
	return h.detector.Detect(frame.AlignedFrame), frame.Synthetic, nil
}

// GetComposite returns the current composite signal.
// GET /api/signals
func (h *SignalsHandler) GetComposite(w http.ResponseWriter, r *http.Request) {
	composite, synthetic, err := h.composite(r)
	if err != nil {
		if errors.Is(err, contracts.ErrDataUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "Signal data unavailable")
			return
		}
		h.logger.WithError(err).Error("Failed to compute signals")
		respondError(w, http.StatusInternalServerError, "Failed to compute signals")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"composite": composite,
		"synthetic": synthetic,
	})
}

// GetRecommendations returns plain-language guidance for the current reading.
// GET /api/signals/recommendations
func (h *SignalsHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	composite, synthetic, err := h.composite(r)
	if err != nil {
		if errors.Is(err, contracts.ErrDataUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "Signal data unavailable")
			return
		}
		h.logger.WithError(err).Error("Failed to compute signals")
		respondError(w, http.StatusInternalServerError, "Failed to compute signals")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"level":           composite.Level,
		"direction":       composite.Direction,
		"synthetic":       synthetic,
		"recommendations": signals.Recommendations(composite),
	})
}
