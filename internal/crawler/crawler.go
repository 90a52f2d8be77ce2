// Package crawler ties the frontier, the fetcher and the publisher together:
// it seeds the queue, feeds URLs into the colly collector, reacts to fetch
// outcomes and owns the lifecycle of every long-running task.
package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"

	"github.com/sneakyhydra/sneakdex/crawler/internal/config"
	"github.com/sneakyhydra/sneakdex/crawler/internal/metrics"
	"github.com/sneakyhydra/sneakdex/crawler/internal/publisher"
	"github.com/sneakyhydra/sneakdex/crawler/internal/queue"
	"github.com/sneakyhydra/sneakdex/crawler/internal/validator"
)

const shutdownWait = 10 * time.Second

// Crawler is the main service instance. All dependencies are explicit; the
// cancellation context and the shutdown channel created here are the single
// authoritative signals every task observes.
type Crawler struct {
	cfg   *config.Config
	log   *logrus.Logger
	stats *metrics.Metrics

	queue     *queue.Manager
	publisher *publisher.Publisher
	validator *validator.URLValidator
	collector *colly.Collector

	ctx          context.Context
	cancel       context.CancelFunc
	shutdown     chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup

	feederDone chan struct{}
}

// New constructs the crawler: Redis-backed queue manager, async Kafka
// publisher, URL validator and the colly collector.
func New(cfg *config.Config, log *logrus.Logger) (*Crawler, error) {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Crawler{
		cfg:        cfg,
		log:        log,
		stats:      metrics.New(),
		ctx:        ctx,
		cancel:     cancel,
		shutdown:   make(chan struct{}),
		feederDone: make(chan struct{}),
	}

	qm, err := queue.New(ctx, queue.Options{
		Addr:       cfg.RedisAddr(),
		Password:   cfg.RedisPassword,
		DB:         cfg.RedisDB,
		Timeout:    cfg.RedisTimeout,
		RetryMax:   cfg.RedisRetryMax,
		CrawlDepth: cfg.CrawlDepth,
	}, log, c.stats)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("redis initialization failed: %w", err)
	}
	c.queue = qm
	log.Info("Redis queue manager initialized")

	pub, err := publisher.New(publisher.Options{
		Brokers:        cfg.Brokers(),
		Topic:          cfg.KafkaTopic,
		RetryMax:       cfg.KafkaRetryMax,
		MaxContentSize: cfg.MaxContentSize,
		RequestTimeout: cfg.RequestTimeout,
		EnableDebug:    cfg.EnableDebug,
	}, log, c.stats)
	if err != nil {
		cancel()
		qm.Close()
		return nil, fmt.Errorf("kafka initialization failed: %w", err)
	}
	c.publisher = pub
	log.Info("Kafka publisher initialized")

	c.validator = validator.New(validator.Options{
		Whitelist:   cfg.WhitelistDomains(),
		Blacklist:   cfg.BlacklistDomains(),
		DNSCacheTTL: 10 * time.Minute,
	}, log)

	c.collector = c.newCollector()

	return c, nil
}

// Start seeds the queue, launches all background tasks and blocks until the
// feeder exits and the collector drains.
func (c *Crawler) Start() error {
	c.logConfiguration()

	c.queue.PreloadLocalCaches(c.ctx)
	c.seedStartURLs()

	c.publisher.StartHandlers(c.ctx, &c.wg, c.shutdown, c.queue)
	c.logMetricsPeriodically()

	c.wg.Add(1)
	go c.runFeeder()

	c.log.Info("Crawler started; blocking until all crawling activities are complete")

	<-c.feederDone
	c.collector.Wait()

	stats := c.stats.GetStats()
	c.log.WithFields(logrus.Fields{
		"pages_processed":  stats["pages_processed"],
		"pages_successful": stats["pages_successful"],
		"pages_failed":     stats["pages_failed"],
		"duration_seconds": stats["uptime_seconds"],
	}).Info("Crawling process completed")

	return nil
}

// Shutdown stops every background task exactly once: signal, cancel, flush
// the publisher, wait for tasks with a bounded deadline, close Redis.
func (c *Crawler) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.log.Info("Initiating crawler shutdown...")
		close(c.shutdown)
		c.cancel()

		// Closing the producer flushes in-flight records and closes the
		// success/error streams the handler goroutines drain.
		if err := c.publisher.Close(); err != nil {
			c.log.Errorf("Failed to close Kafka publisher: %v", err)
		} else {
			c.log.Info("Kafka publisher closed")
		}

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			c.log.Info("All background goroutines finished")
		case <-time.After(shutdownWait):
			c.log.Warn("Timeout waiting for background goroutines; some might still be running")
		}

		if err := c.queue.Close(); err != nil {
			c.log.Errorf("Failed to close Redis client: %v", err)
		} else {
			c.log.Info("Redis client closed")
		}

		c.log.Info("Crawler shutdown complete")
	})
}

// Accessors used by the monitor server.

func (c *Crawler) Cfg() *config.Config             { return c.cfg }
func (c *Crawler) Log() *logrus.Logger             { return c.log }
func (c *Crawler) Stats() *metrics.Metrics         { return c.stats }
func (c *Crawler) Queue() *queue.Manager           { return c.queue }
func (c *Crawler) Publisher() *publisher.Publisher { return c.publisher }
func (c *Crawler) ShutdownChan() <-chan struct{}   { return c.shutdown }
func (c *Crawler) TrackTask()                      { c.wg.Add(1) }
func (c *Crawler) TaskDone()                       { c.wg.Done() }

// logConfiguration emits one structured entry with the effective settings.
func (c *Crawler) logConfiguration() {
	cfg := c.cfg
	c.log.WithFields(logrus.Fields{
		"kafka": map[string]any{
			"kafka_brokers":   cfg.KafkaBrokers,
			"kafka_topic":     cfg.KafkaTopic,
			"kafka_retry_max": cfg.KafkaRetryMax,
		},
		"redis": map[string]any{
			"redis_host":      cfg.RedisHost,
			"redis_port":      cfg.RedisPort,
			"redis_db":        cfg.RedisDB,
			"redis_timeout":   cfg.RedisTimeout.String(),
			"redis_retry_max": cfg.RedisRetryMax,
		},
		"crawling_behavior": map[string]any{
			"start_urls":    cfg.StartURLs,
			"max_pages":     cfg.MaxPages,
			"crawl_depth":   cfg.CrawlDepth,
			"url_whitelist": cfg.URLWhitelist,
			"url_blacklist": cfg.URLBlacklist,
		},
		"performance_and_limits": map[string]any{
			"max_concurrency":  cfg.MaxConcurrency,
			"request_timeout":  cfg.RequestTimeout.String(),
			"request_delay":    cfg.RequestDelay.String(),
			"max_content_size": cfg.MaxContentSize,
		},
		"application_settings": map[string]any{
			"log_level":    cfg.LogLevel,
			"user_agent":   cfg.UserAgent,
			"enable_debug": cfg.EnableDebug,
			"monitor_port": cfg.MonitorPort,
		},
	}).Info("Crawler configuration")
}

// seedStartURLs validates the configured seeds and enqueues the new ones at
// depth zero.
func (c *Crawler) seedStartURLs() {
	for _, raw := range c.cfg.StartURLList() {
		normalized, ok := c.validator.IsValidURL(raw)
		if !ok {
			c.log.Warnf("Skipping invalid start URL: %s", raw)
			continue
		}

		seen, err := c.queue.IsURLSeen(c.ctx, normalized)
		if err != nil {
			c.log.WithFields(logrus.Fields{"url": normalized, "error": err}).Error("Failed to check start URL status, skipping")
			continue
		}
		if seen {
			c.log.WithFields(logrus.Fields{"url": normalized}).Info("Start URL already visited or pending, skipping")
			continue
		}

		if err := c.queue.AddToPending(c.ctx, queue.Item{URL: normalized, Depth: 0}); err != nil {
			c.log.WithFields(logrus.Fields{"url": normalized, "error": err}).Error("Failed to enqueue start URL")
			continue
		}
		c.log.WithFields(logrus.Fields{"url": normalized}).Info("Added start URL to pending queue")
	}
}

// logMetricsPeriodically emits a metrics snapshot every 10 seconds.
func (c *Crawler) logMetricsPeriodically() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats := c.stats.GetStats()
				uptime := stats["uptime_seconds"].(float64)
				pagesPerSecond := float64(0)
				if uptime > 0 {
					pagesPerSecond = float64(stats["pages_processed"].(int64)) / uptime
				}

				fields := logrus.Fields{
					"pages_processed":  stats["pages_processed"],
					"pages_successful": stats["pages_successful"],
					"pages_failed":     stats["pages_failed"],
					"kafka_successful": stats["kafka_successful"],
					"kafka_failed":     stats["kafka_failed"],
					"kafka_errored":    stats["kafka_errored"],
					"redis_successful": stats["redis_successful"],
					"redis_errored":    stats["redis_errored"],
					"inflight_pages":   stats["inflight_pages"],
					"uptime_seconds":   fmt.Sprintf("%.2f", uptime),
					"pages_per_second": fmt.Sprintf("%.2f", pagesPerSecond),
				}
				if queueStats, err := c.queue.GetQueueStats(c.ctx); err == nil {
					fields["queue_depths"] = queueStats
				}
				c.log.WithFields(fields).Info("Crawler metrics")
			case <-c.shutdown:
				c.log.Info("Stopping periodic metrics logging")
				return
			}
		}
	}()
}
