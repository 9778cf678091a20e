package api

import (
	"net/http"
	"strings"

	"github.com/okian/platecheck/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler answers GET /healthz. Clients get a JSON readiness summary;
// Prometheus scrapers, recognized by their Accept header or by
// ?format=prometheus, get the exposition of the service registry.
type HealthHandler struct {
	stats   StatsProvider
	scraper http.Handler
}

// NewHealthHandler returns a handler reporting on stats.
func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{
		stats:   stats,
		scraper: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type healthResponse struct {
	Status         string `json:"status"`
	Started        bool   `json:"started"`
	VisionProvider string `json:"vision_provider"`
	OCRProvider    string `json:"ocr_provider"`
	QueueLength    int    `json:"queue_length"`
}

// HandleHealth reports 503 until the batch workers run.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if wantsExposition(r) {
		h.scraper.ServeHTTP(w, r)
		return
	}

	var stats map[string]interface{}
	if h.stats != nil {
		stats = h.stats.GetStats()
	}
	resp := healthResponse{Status: "ok"}
	resp.Started, _ = stats["started"].(bool)
	resp.VisionProvider, _ = stats["visionProvider"].(string)
	resp.OCRProvider, _ = stats["ocrProvider"].(string)
	resp.QueueLength, _ = stats["queueLength"].(int)

	status := http.StatusOK
	if !resp.Started {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func wantsExposition(r *http.Request) bool {
	if r.URL.Query().Get("format") == "prometheus" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/plain") || strings.Contains(accept, "application/openmetrics-text")
}
