package api

import (
	"maps"
	"net/http"
)

// StatsProvider exposes the counters behind GET /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler merges service statistics with the server's own limits.
type StatsHandler struct {
	statsProvider StatsProvider
	server        *Server
}

// NewStatsHandler creates a stats handler without server limits.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := map[string]interface{}{}
	if h.statsProvider != nil {
		maps.Copy(stats, h.statsProvider.GetStats())
	}
	if s := h.server; s != nil {
		stats["premiumEnabled"] = s.premiumEnabled()
		stats["uploadEnabled"] = s.uploader != nil
		stats["maxUploadBytes"] = s.maxUploadBytes
		stats["maxBatchImages"] = s.maxBatchImages
	}
	writeJSON(w, http.StatusOK, stats)
}
