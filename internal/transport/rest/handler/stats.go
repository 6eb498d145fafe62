package handler

import (
	"net/http"

	"lingocache/internal/model"
	"lingocache/internal/similarity"
)

// StatsSource reports aggregated telemetry
type StatsSource interface {
	Snapshot() model.TelemetrySnapshot
}

// ScorerStats reports similarity cache counters
type ScorerStats interface {
	Stats() similarity.CacheStats
}

// StatsResponse is the body of GET /v1/stats
type StatsResponse struct {
	Telemetry       model.TelemetrySnapshot `json:"telemetry"`
	SimilarityCache similarity.CacheStats   `json:"similarityCache"`
	Provider        string                  `json:"provider,omitempty"`
	Backend         string                  `json:"backend,omitempty"`
}

// StatsHandler handles GET /v1/stats
type StatsHandler struct {
	telemetry StatsSource
	scorer    ScorerStats
	provider  string
	backend   string
}

// NewStatsHandler creates a new stats handler. scorer may be nil.
func NewStatsHandler(telemetry StatsSource, scorer ScorerStats, provider, backend string) *StatsHandler {
	return &StatsHandler{telemetry: telemetry, scorer: scorer, provider: provider, backend: backend}
}

// Get handles GET /v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Telemetry: h.telemetry.Snapshot(),
		Provider:  h.provider,
		Backend:   h.backend,
	}
	if h.scorer != nil {
		resp.SimilarityCache = h.scorer.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}
