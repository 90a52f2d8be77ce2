// Package monitor exposes the crawler's operational surface: GET /health for
// orchestrators and load balancers, GET /metrics for Prometheus scrapers.
// The server runs alongside the crawler and shuts down on the same signal.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sneakyhydra/sneakdex/crawler/internal/crawler"
	"github.com/sneakyhydra/sneakdex/crawler/internal/metrics"
)

const metricsSyncInterval = 5 * time.Second

// kvPinger is the slice of the queue manager the health check needs.
type kvPinger interface {
	Ping(ctx context.Context) error
}

// busProbe is the slice of the publisher the health check needs.
type busProbe interface {
	InputSaturated() bool
}

// Server is the monitor HTTP server bound to one crawler instance.
type Server struct {
	port       int
	httpServer *http.Server

	log   *logrus.Logger
	stats *metrics.Metrics
	kv    kvPinger
	bus   busProbe

	shutdown  <-chan struct{}
	trackTask func()
	taskDone  func()
}

// New builds the monitor server for a crawler.
func New(c *crawler.Crawler) *Server {
	var bus busProbe
	if p := c.Publisher(); p != nil {
		bus = p
	}
	return &Server{
		port:      c.Cfg().MonitorPort,
		log:       c.Log(),
		stats:     c.Stats(),
		kv:        c.Queue(),
		bus:       bus,
		shutdown:  c.ShutdownChan(),
		trackTask: c.TrackTask,
		taskDone:  c.TaskDone,
	}
}

// Start launches the HTTP server, the periodic metrics sync and the
// shutdown watcher.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(metricsSyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.stats.Sync()
			case <-s.shutdown:
				s.stats.Sync() // final sync
				return
			}
		}
	}()

	s.trackTask()
	go func() {
		defer s.taskDone()
		s.log.Infof("Monitor server starting on port %d", s.port)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Errorf("Monitor server error: %v", err)
		}
	}()

	go func() {
		<-s.shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.Errorf("Monitor server shutdown error: %v", err)
		} else {
			s.log.Info("Monitor server shut down gracefully")
		}
	}()
}
