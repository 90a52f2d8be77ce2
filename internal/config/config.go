// Package config loads and validates the crawler configuration from
// environment variables. Every tunable of the service is declared here;
// components receive the resulting Config by reference and never read the
// environment themselves.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the crawler configuration loaded from environment variables.
type Config struct {
	// Kafka - message bus settings for handing crawled content to the parser
	KafkaBrokers  string `envconfig:"KAFKA_BROKERS" default:"kafka:9092"`
	KafkaTopic    string `envconfig:"KAFKA_TOPIC_HTML" default:"raw-html"`
	KafkaRetryMax int    `envconfig:"KAFKA_RETRY_MAX" default:"3"`

	// Redis - shared queue and dedup state
	RedisHost     string        `envconfig:"REDIS_HOST" default:"redis"`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	RedisTimeout  time.Duration `envconfig:"REDIS_TIMEOUT" default:"60s"`
	RedisRetryMax int           `envconfig:"REDIS_RETRY_MAX" default:"3"`

	// Crawling behavior
	StartURLs    string `envconfig:"START_URLS" default:"https://en.wikipedia.org/wiki/Special:Random,https://simple.wikipedia.org/wiki/Special:Random,https://news.ycombinator.com,https://www.reuters.com/news/archive/worldNews,https://www.bbc.com/news,https://github.com/trending,https://stackoverflow.com/questions,https://dev.to,https://developer.mozilla.org/en-US/docs/Web,https://arxiv.org/list/cs/new,https://eng.uber.com,https://netflixtechblog.com,https://blog.cloudflare.com"`
	CrawlDepth   int    `envconfig:"CRAWL_DEPTH" default:"3"`
	MaxPages     int64  `envconfig:"MAX_PAGES" default:"10000"`
	URLWhitelist string `envconfig:"URL_WHITELIST" default:""`
	URLBlacklist string `envconfig:"URL_BLACKLIST" default:""`

	// Performance and limits
	MaxConcurrency int           `envconfig:"MAX_CONCURRENCY" default:"50"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	RequestDelay   time.Duration `envconfig:"REQUEST_DELAY" default:"100ms"`
	MaxContentSize int           `envconfig:"MAX_CONTENT_SIZE" default:"2621440"` // 2.5MB

	// Application settings
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	UserAgent   string `envconfig:"USER_AGENT" default:"SneakdexCrawler/1.0"`
	EnableDebug bool   `envconfig:"ENABLE_DEBUG" default:"false"`
	MonitorPort int    `envconfig:"MONITOR_PORT" default:"8080"`
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Brokers returns the Kafka broker list.
func (c *Config) Brokers() []string {
	return splitTrimmed(c.KafkaBrokers)
}

// StartURLList returns the configured seed URLs.
func (c *Config) StartURLList() []string {
	return splitTrimmed(c.StartURLs)
}

// WhitelistDomains returns the whitelist rules, empty slice when unset.
func (c *Config) WhitelistDomains() []string {
	return splitTrimmed(c.URLWhitelist)
}

// BlacklistDomains returns the blacklist rules, empty slice when unset.
func (c *Config) BlacklistDomains() []string {
	return splitTrimmed(c.URLBlacklist)
}

// RedisAddr returns the host:port form used by the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func splitTrimmed(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
