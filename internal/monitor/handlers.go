package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthPingTimeout = 2 * time.Second

const (
	statusOK        = "ok"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// healthResponse is the wire form of GET /health.
type healthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Dependencies map[string]string `json:"dependencies"`
	Errors       []string          `json:"errors,omitempty"`
}

// handleHealth reports dependency health: a short-deadline Redis ping and a
// non-blocking probe of the producer input channel. 503 only when a
// dependency is down; saturation alone degrades but stays 200.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	resp := healthResponse{
		Status:       statusOK,
		Timestamp:    time.Now().UTC(),
		Dependencies: make(map[string]string),
	}

	if err := s.kv.Ping(ctx); err != nil {
		resp.Status = statusUnhealthy
		resp.Dependencies["kv"] = statusUnhealthy
		resp.Errors = append(resp.Errors, "redis: "+err.Error())
	} else {
		resp.Dependencies["kv"] = statusOK
	}

	switch {
	case s.bus == nil:
		resp.Status = statusUnhealthy
		resp.Dependencies["bus"] = statusUnhealthy
		resp.Errors = append(resp.Errors, "kafka: producer not initialized")
	case s.bus.InputSaturated():
		if resp.Status == statusOK {
			resp.Status = statusDegraded
		}
		resp.Dependencies["bus"] = statusDegraded
	default:
		resp.Dependencies["bus"] = statusOK
	}

	statusCode := http.StatusOK
	if resp.Status == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Errorf("Failed to encode health response: %v", err)
	}
}

// handleMetrics syncs the atomic counters into the gauges and delegates to
// the Prometheus handler over the crawler's private registry.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.stats.Sync()
	promhttp.HandlerFor(s.stats.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
