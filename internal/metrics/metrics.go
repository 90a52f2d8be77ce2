// Package metrics collects crawler statistics as lock-free atomic counters
// and mirrors them into Prometheus gauges for scraping.
//
// The counters track page outcomes (processed, successful, failed, non-HTML
// skipped, aborted), Kafka delivery results, Redis operation results and the
// number of in-flight pages. Gauges live on a private registry so that
// constructing Metrics more than once in a process (tests) cannot collide.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds counters for crawler performance statistics.
type Metrics struct {
	PagesProcessed  int64 // pages whose HTML body was extracted
	PagesSuccessful int64 // pages published downstream
	PagesFailed     int64 // pages that failed to fetch or process
	PagesSkipped    int64 // pages rejected at the content-type gate
	PagesAborted    int64 // requests aborted before a response, or bodies dropped at the page cap
	KafkaSuccessful int64 // messages acknowledged by the bus
	KafkaFailed     int64 // messages rejected permanently (e.g. too large)
	KafkaErrored    int64 // messages failed at the transport level
	RedisSuccessful int64 // Redis operations that completed
	RedisFailed     int64 // Redis operations that returned a miss/failure
	RedisErrored    int64 // Redis operations that errored (connection issues)
	InflightPages   int64 // accepted requests without a terminal hook yet

	startTime time.Time

	registry *prometheus.Registry
	gauges   map[string]prometheus.Gauge
}

// New creates a Metrics instance and registers its gauges on a fresh
// registry.
func New() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
		registry:  prometheus.NewRegistry(),
		gauges:    make(map[string]prometheus.Gauge),
	}

	for name, help := range map[string]string{
		"pages_processed_total":       "Total number of pages processed",
		"pages_successful_total":      "Total number of pages successfully processed",
		"pages_failed_total":          "Total number of pages failed",
		"pages_nonhtml_skipped_total": "Pages skipped because the response was not HTML",
		"pages_aborted_total":         "Requests aborted before completion",
		"kafka_successful_total":      "Successful Kafka messages sent",
		"kafka_failed_total":          "Permanently failed Kafka messages",
		"kafka_errored_total":         "Errored Kafka messages",
		"redis_successful_total":      "Successful Redis operations",
		"redis_failed_total":          "Failed Redis operations",
		"redis_errored_total":         "Errored Redis operations",
		"inflight_pages":              "Pages currently in flight",
		"crawler_uptime_seconds":      "Crawler uptime in seconds",
	} {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		m.registry.MustRegister(g)
		m.gauges[name] = g
	}

	return m
}

// Registry exposes the private Prometheus registry for the monitor server.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Uptime returns the time elapsed since the Metrics instance was created.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// GetStats returns a snapshot of crawler metrics in map form.
func (m *Metrics) GetStats() map[string]any {
	return map[string]any{
		"pages_processed":       atomic.LoadInt64(&m.PagesProcessed),
		"pages_successful":      atomic.LoadInt64(&m.PagesSuccessful),
		"pages_failed":          atomic.LoadInt64(&m.PagesFailed),
		"pages_nonhtml_skipped": atomic.LoadInt64(&m.PagesSkipped),
		"pages_aborted":         atomic.LoadInt64(&m.PagesAborted),
		"kafka_successful":      atomic.LoadInt64(&m.KafkaSuccessful),
		"kafka_failed":          atomic.LoadInt64(&m.KafkaFailed),
		"kafka_errored":         atomic.LoadInt64(&m.KafkaErrored),
		"redis_successful":      atomic.LoadInt64(&m.RedisSuccessful),
		"redis_failed":          atomic.LoadInt64(&m.RedisFailed),
		"redis_errored":         atomic.LoadInt64(&m.RedisErrored),
		"inflight_pages":        atomic.LoadInt64(&m.InflightPages),
		"uptime_seconds":        m.Uptime().Seconds(),
	}
}

// Sync copies the atomic counters into the Prometheus gauges. Called before
// serving /metrics and periodically in the background.
func (m *Metrics) Sync() {
	m.gauges["pages_processed_total"].Set(float64(atomic.LoadInt64(&m.PagesProcessed)))
	m.gauges["pages_successful_total"].Set(float64(atomic.LoadInt64(&m.PagesSuccessful)))
	m.gauges["pages_failed_total"].Set(float64(atomic.LoadInt64(&m.PagesFailed)))
	m.gauges["pages_nonhtml_skipped_total"].Set(float64(atomic.LoadInt64(&m.PagesSkipped)))
	m.gauges["pages_aborted_total"].Set(float64(atomic.LoadInt64(&m.PagesAborted)))
	m.gauges["kafka_successful_total"].Set(float64(atomic.LoadInt64(&m.KafkaSuccessful)))
	m.gauges["kafka_failed_total"].Set(float64(atomic.LoadInt64(&m.KafkaFailed)))
	m.gauges["kafka_errored_total"].Set(float64(atomic.LoadInt64(&m.KafkaErrored)))
	m.gauges["redis_successful_total"].Set(float64(atomic.LoadInt64(&m.RedisSuccessful)))
	m.gauges["redis_failed_total"].Set(float64(atomic.LoadInt64(&m.RedisFailed)))
	m.gauges["redis_errored_total"].Set(float64(atomic.LoadInt64(&m.RedisErrored)))
	m.gauges["inflight_pages"].Set(float64(atomic.LoadInt64(&m.InflightPages)))
	m.gauges["crawler_uptime_seconds"].Set(m.Uptime().Seconds())
}
