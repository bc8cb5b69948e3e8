package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/internal/research"
	"github.com/dmarks/debasement/pkg/logger"
)

// ReturnsArchiver persists asset results. Nil when archiving is off.
type ReturnsArchiver interface {
	SaveReturns(ctx context.Context, result contracts.ReturnsResult) error
}

// ReturnsHandler serves real-returns analyses.
type ReturnsHandler struct {
	service  *research.Service
	archiver ReturnsArchiver
	logger   *logger.Logger
}

// NewReturnsHandler creates a returns handler. archiver may be nil.
func NewReturnsHandler(service *research.Service, archiver ReturnsArchiver, log *logger.Logger) *ReturnsHandler {
	return &ReturnsHandler{
		service:  service,
		archiver: archiver,
		logger:   log,
	}
}

// AnalyzeRequest is the body for POST /api/returns/analyze.
type AnalyzeRequest struct {
	Symbols []string `json:"symbols"`
	From    string   `json:"from,omitempty"` // YYYY-MM-DD
	To      string   `json:"to,omitempty"`
}

// AnalyzeResponse bundles results with a cross-asset summary.
type AnalyzeResponse struct {
	Analysis *research.Analysis        `json:"analysis"`
	Summary  research.Summary          `json:"summary"`
	Top      []contracts.ReturnsResult `json:"top"`
}

// Analyze runs the real-returns engine for the requested symbols.
// POST /api/returns/analyze
func (h *ReturnsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		respondError(w, http.StatusBadRequest, "symbols is required")
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(-defaultLookbackYears, 0, 0)
	to := now
	var err error
	if req.From != "" {
		if from, err = time.Parse("2006-01-02", req.From); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid from date")
			return
		}
	}
	if req.To != "" {
		if to, err = time.Parse("2006-01-02", req.To); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid to date")
			return
		}
	}

	analysis, err := h.service.AnalyzeAssets(r.Context(), req.Symbols, from, to)
	if err != nil {
		if errors.Is(err, contracts.ErrDataUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "No symbol could be analyzed")
			return
		}
		h.logger.WithError(err).Error("Asset analysis failed")
		respondError(w, http.StatusInternalServerError, "Asset analysis failed")
		return
	}

	if h.archiver != nil {
		for _, result := range analysis.Results {
			if err := h.archiver.SaveReturns(r.Context(), result); err != nil {
				h.logger.WithError(err).Warn("Result archive failed")
			}
		}
	}

	respondJSON(w, http.StatusOK, AnalyzeResponse{
		Analysis: analysis,
		Summary:  research.Summarize(analysis.Results),
		Top:      research.TopPerformers(analysis.Results, 5),
	})
}
