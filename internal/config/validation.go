package config

import "fmt"

// Validate checks every configuration group and returns the first violation.
func (c *Config) Validate() error {
	if err := c.validateKafka(); err != nil {
		return err
	}
	if err := c.validateRedis(); err != nil {
		return err
	}
	if err := c.validateCrawling(); err != nil {
		return err
	}
	if err := c.validatePerformance(); err != nil {
		return err
	}
	return c.validateApplication()
}

func (c *Config) validateKafka() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka_brokers must be set")
	}
	if c.KafkaTopic == "" {
		return fmt.Errorf("kafka_topic must be set")
	}
	if c.KafkaRetryMax <= 0 {
		return fmt.Errorf("kafka_retry_max must be positive")
	}
	return nil
}

func (c *Config) validateRedis() error {
	if c.RedisHost == "" {
		return fmt.Errorf("redis_host must be set")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("redis_port must be between 1 and 65535")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("redis_db must be non-negative")
	}
	if c.RedisTimeout <= 0 {
		return fmt.Errorf("redis_timeout must be positive")
	}
	if c.RedisRetryMax <= 0 {
		return fmt.Errorf("redis_retry_max must be positive")
	}
	return nil
}

func (c *Config) validateCrawling() error {
	if c.StartURLs == "" {
		return fmt.Errorf("start_urls must be set")
	}
	if c.CrawlDepth < 1 {
		return fmt.Errorf("crawl_depth must be at least 1")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max_pages must be positive")
	}
	if c.MaxPages > 1000000 {
		return fmt.Errorf("max_pages must not exceed 1,000,000")
	}
	return nil
}

func (c *Config) validatePerformance() error {
	if c.MaxConcurrency < 1 || c.MaxConcurrency > 1000 {
		return fmt.Errorf("max_concurrency must be between 1 and 1000")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("request_delay must be non-negative")
	}
	if c.MaxContentSize <= 0 {
		return fmt.Errorf("max_content_size must be positive")
	}
	return nil
}

func (c *Config) validateApplication() error {
	if c.LogLevel == "" {
		return fmt.Errorf("log_level must be set")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user_agent must be set")
	}
	if c.MonitorPort <= 0 || c.MonitorPort > 65535 {
		return fmt.Errorf("monitor_port must be between 1 and 65535")
	}
	return nil
}
