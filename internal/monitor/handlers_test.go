package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sneakyhydra/sneakdex/crawler/internal/metrics"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeBus struct{ saturated bool }

func (f fakeBus) InputSaturated() bool { return f.saturated }

func newTestServer(kv kvPinger, bus busProbe) *Server {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return &Server{
		log:   log,
		stats: metrics.New(),
		kv:    kv,
		bus:   bus,
	}
}

func getHealth(t *testing.T, s *Server) (int, healthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestHealthOK(t *testing.T) {
	code, resp := getHealth(t, newTestServer(fakePinger{}, fakeBus{}))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, statusOK, resp.Status)
	assert.Equal(t, statusOK, resp.Dependencies["kv"])
	assert.Equal(t, statusOK, resp.Dependencies["bus"])
	assert.Empty(t, resp.Errors)
}

func TestHealthKVDown(t *testing.T) {
	code, resp := getHealth(t, newTestServer(fakePinger{err: errors.New("connection refused")}, fakeBus{}))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, statusUnhealthy, resp.Status)
	assert.Equal(t, statusUnhealthy, resp.Dependencies["kv"])
	assert.NotEmpty(t, resp.Errors)
}

func TestHealthBusMissing(t *testing.T) {
	code, resp := getHealth(t, newTestServer(fakePinger{}, nil))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, statusUnhealthy, resp.Status)
	assert.Equal(t, statusUnhealthy, resp.Dependencies["bus"])
}

func TestHealthBusSaturatedDegrades(t *testing.T) {
	code, resp := getHealth(t, newTestServer(fakePinger{}, fakeBus{saturated: true}))

	assert.Equal(t, http.StatusOK, code, "degraded stays 200")
	assert.Equal(t, statusDegraded, resp.Status)
	assert.Equal(t, statusDegraded, resp.Dependencies["bus"])
	assert.Equal(t, statusOK, resp.Dependencies["kv"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(fakePinger{}, fakeBus{})
	s.stats.IncrementPagesProcessed()

	rec := httptest.NewRecorder()
	s.handleMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pages_processed_total 1")
}
