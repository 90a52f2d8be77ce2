package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sneakyhydra/sneakdex/crawler/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "kafka:9092", cfg.KafkaBrokers)
	assert.Equal(t, "raw-html", cfg.KafkaTopic)
	assert.Equal(t, 3, cfg.KafkaRetryMax)
	assert.Equal(t, "redis", cfg.RedisHost)
	assert.Equal(t, 6379, cfg.RedisPort)
	assert.Equal(t, 60*time.Second, cfg.RedisTimeout)
	assert.Equal(t, 3, cfg.CrawlDepth)
	assert.Equal(t, int64(10000), cfg.MaxPages)
	assert.Equal(t, 50, cfg.MaxConcurrency)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.RequestDelay)
	assert.Equal(t, 2621440, cfg.MaxContentSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "SneakdexCrawler/1.0", cfg.UserAgent)
	assert.False(t, cfg.EnableDebug)
	assert.Equal(t, 8080, cfg.MonitorPort)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "b1:9092,b2:9092")
	t.Setenv("CRAWL_DEPTH", "5")
	t.Setenv("URL_BLACKLIST", "evil.test, ads.test")
	t.Setenv("MONITOR_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Brokers())
	assert.Equal(t, 5, cfg.CrawlDepth)
	assert.Equal(t, []string{"evil.test", "ads.test"}, cfg.BlacklistDomains())
	assert.Equal(t, 9090, cfg.MonitorPort)
}

func TestListAccessorsEmpty(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.WhitelistDomains())
	assert.Empty(t, cfg.BlacklistDomains())
	assert.NotEmpty(t, cfg.StartURLList())
}

func TestRedisAddr(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", cfg.RedisAddr())
}

func TestValidateRejections(t *testing.T) {
	base := func() *config.Config {
		cfg, err := config.Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty brokers", func(c *config.Config) { c.KafkaBrokers = "" }},
		{"empty topic", func(c *config.Config) { c.KafkaTopic = "" }},
		{"zero kafka retries", func(c *config.Config) { c.KafkaRetryMax = 0 }},
		{"bad redis port", func(c *config.Config) { c.RedisPort = 70000 }},
		{"negative redis db", func(c *config.Config) { c.RedisDB = -1 }},
		{"zero redis timeout", func(c *config.Config) { c.RedisTimeout = 0 }},
		{"no seeds", func(c *config.Config) { c.StartURLs = "" }},
		{"zero depth", func(c *config.Config) { c.CrawlDepth = 0 }},
		{"zero max pages", func(c *config.Config) { c.MaxPages = 0 }},
		{"max pages over cap", func(c *config.Config) { c.MaxPages = 1000001 }},
		{"zero concurrency", func(c *config.Config) { c.MaxConcurrency = 0 }},
		{"concurrency over cap", func(c *config.Config) { c.MaxConcurrency = 1001 }},
		{"zero request timeout", func(c *config.Config) { c.RequestTimeout = 0 }},
		{"negative delay", func(c *config.Config) { c.RequestDelay = -1 }},
		{"zero content size", func(c *config.Config) { c.MaxContentSize = 0 }},
		{"empty log level", func(c *config.Config) { c.LogLevel = "" }},
		{"empty user agent", func(c *config.Config) { c.UserAgent = "" }},
		{"bad monitor port", func(c *config.Config) { c.MonitorPort = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
