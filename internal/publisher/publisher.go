// Package publisher wraps the asynchronous Kafka producer that hands crawled
// HTML to the parser service. Callers offer records with a bounded wait;
// delivery results come back on the success and error streams, where the
// error handler applies the single-retry requeue policy.
package publisher

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/sneakyhydra/sneakdex/crawler/internal/crawlerrors"
	"github.com/sneakyhydra/sneakdex/crawler/internal/metrics"
	"github.com/sneakyhydra/sneakdex/crawler/internal/queue"
)

const (
	// inputOfferWait bounds how long Publish blocks on a full input
	// channel before reporting backpressure to the caller.
	inputOfferWait = 100 * time.Millisecond

	flushBytes     = 1 << 20
	flushMessages  = 100
	flushFrequency = 100 * time.Millisecond

	metadataRefresh = 10 * time.Minute
)

// Options configures a Publisher.
type Options struct {
	Brokers        []string
	Topic          string
	RetryMax       int
	MaxContentSize int
	RequestTimeout time.Duration
	EnableDebug    bool
}

// Publisher is the async producer plus the bookkeeping its stream handlers
// need.
type Publisher struct {
	producer sarama.AsyncProducer
	opts     Options
	log      *logrus.Logger
	stats    *metrics.Metrics
}

// New builds the sarama async producer with retries on initial connection.
func New(opts Options, log *logrus.Logger, stats *metrics.Metrics) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Flush.Bytes = flushBytes
	cfg.Producer.Flush.Messages = flushMessages
	cfg.Producer.Flush.Frequency = flushFrequency
	cfg.Producer.MaxMessageBytes = opts.MaxContentSize
	cfg.Producer.Retry.Max = opts.RetryMax
	cfg.Producer.Retry.Backoff = 100 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Timeout = opts.RequestTimeout
	cfg.Net.DialTimeout = opts.RequestTimeout
	cfg.Metadata.RefreshFrequency = metadataRefresh

	var lastErr error
	for attempt := 1; attempt <= opts.RetryMax; attempt++ {
		producer, err := sarama.NewAsyncProducer(opts.Brokers, cfg)
		if err == nil {
			log.Info("Kafka producer initialized")
			return &Publisher{producer: producer, opts: opts, log: log, stats: stats}, nil
		}
		lastErr = err
		log.Warnf("Kafka producer initialization attempt %d/%d failed: %v", attempt, opts.RetryMax, err)
		if attempt < opts.RetryMax {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			time.Sleep(backoff)
		}
	}

	return nil, fmt.Errorf("failed to create kafka producer after %d attempts on %s: %w",
		opts.RetryMax, strings.Join(opts.Brokers, ","), lastErr)
}

// Publish offers one page to the producer. Oversized content is rejected
// synchronously as permanent; a full input channel after the bounded wait is
// reported as retriable so the caller can requeue.
func (p *Publisher) Publish(item queue.Item, html []byte) error {
	if len(html) > p.opts.MaxContentSize {
		p.stats.IncrementKafkaFailed()
		return crawlerrors.New(item.URL, "kafka_publish",
			fmt.Errorf("content size %d exceeds limit %d", len(html), p.opts.MaxContentSize), false)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.opts.Topic,
		Key:       sarama.StringEncoder(item.URL),
		Value:     sarama.ByteEncoder(html),
		Timestamp: time.Now(),
		Metadata:  item,
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-time.After(inputOfferWait):
		return crawlerrors.New(item.URL, "kafka_publish",
			fmt.Errorf("producer input channel full after %v", inputOfferWait), true)
	}
}

// InputSaturated reports whether the producer input channel is full; the
// health handler downgrades the bus dependency to degraded on saturation.
func (p *Publisher) InputSaturated() bool {
	in := p.producer.Input()
	return cap(in) > 0 && len(in) == cap(in)
}

// Close flushes in-flight records and closes the success and error streams,
// letting the stream handlers drain and exit.
func (p *Publisher) Close() error {
	return p.producer.Close()
}
