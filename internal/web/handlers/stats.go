package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/shot02/face-identifier/internal/identify"
)

// StatsHandler reports collection size and effective matching settings.
type StatsHandler struct {
	store     Store
	opts      identify.Options
	startedAt time.Time
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(store Store, opts identify.Options) *StatsHandler {
	return &StatsHandler{
		store:     store,
		opts:      opts,
		startedAt: time.Now(),
	}
}

// StatsResponse summarizes the running service.
type StatsResponse struct {
	Records          int     `json:"records"`
	MatchThreshold   float64 `json:"match_threshold"`
	MinConfidence    float64 `json:"min_confidence"`
	HashBits         int     `json:"hash_bits"`
	HammingThreshold int     `json:"hamming_threshold"`
	FilterCutover    int     `json:"filter_cutover"`
	UptimeSeconds    int64   `json:"uptime_seconds"`
}

// Get handles GET /api/v1/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.All(r.Context())
	if err != nil {
		log.Printf("Failed to load records for stats: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load records")
		return
	}

	respondJSON(w, http.StatusOK, StatsResponse{
		Records:          len(records),
		MatchThreshold:   h.opts.MatchThreshold,
		MinConfidence:    h.opts.MinConfidence,
		HashBits:         h.opts.HashBits,
		HammingThreshold: h.opts.HammingThreshold,
		FilterCutover:    h.opts.FilterCutover,
		UptimeSeconds:    int64(time.Since(h.startedAt).Seconds()),
	})
}
