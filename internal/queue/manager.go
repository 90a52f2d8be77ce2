package queue

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sneakyhydra/sneakdex/crawler/internal/metrics"
)

// Options configures a Manager.
type Options struct {
	Addr       string
	Password   string
	DB         int
	Timeout    time.Duration
	RetryMax   int
	CrawlDepth int
}

// Manager owns the crawl frontier state in Redis. All methods are safe for
// concurrent use; every frontier operation runs its Redis calls under a
// bounded deadline with exponential-backoff retries. Ping is a single call on
// the caller's context.
type Manager struct {
	client *redis.Client
	log    *logrus.Logger
	stats  *metrics.Metrics

	crawlDepth int
	timeout    time.Duration
	retryMax   int

	// Local caches. seen maps url -> bool (true: visited or pending in
	// Redis, false: confirmed new at lookup time). pending mirrors the
	// URLs this instance believes are enqueued. Both may only be stale in
	// the negative direction; the SAdd on enqueue is the authority.
	seen     sync.Map
	pending  sync.Map
	requeued sync.Map
}

// New connects to Redis, verifies the connection with retries and returns a
// Manager.
func New(ctx context.Context, opts Options, log *logrus.Logger, stats *metrics.Metrics) (*Manager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
		MaxRetries:   opts.RetryMax,
	})

	m := &Manager{
		client:     client,
		log:        log,
		stats:      stats,
		crawlDepth: opts.CrawlDepth,
		timeout:    opts.Timeout,
		retryMax:   opts.RetryMax,
	}

	if err := m.withRetry(ctx, "ping", func(c context.Context) error {
		return client.Ping(c).Err()
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to redis on %s: %w", opts.Addr, err)
	}
	log.Info("Redis connection established")

	return m, nil
}

// Ping checks Redis connectivity; used by the monitor health handler.
func (m *Manager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (m *Manager) Close() error {
	return m.client.Close()
}

// AddToPending enqueues an item unless it is already pending or seen. The
// mirror set is written first; only a fresh set member gets a list entry, so
// concurrent producers across instances cannot double-enqueue a URL.
func (m *Manager) AddToPending(ctx context.Context, item Item) error {
	if item.Depth < 0 || item.Depth > m.crawlDepth {
		return fmt.Errorf("depth %d outside queue range [0,%d]", item.Depth, m.crawlDepth)
	}

	if _, ok := m.pending.Load(item.URL); ok {
		return nil
	}
	if v, ok := m.seen.Load(item.URL); ok && v.(bool) {
		return nil
	}

	var added int64
	if err := m.withRetry(ctx, "sadd pending_urls_set", func(c context.Context) error {
		n, err := m.client.SAdd(c, pendingSetKey, item.URL).Result()
		added = n
		return err
	}); err != nil {
		m.stats.IncrementRedisErrored()
		return fmt.Errorf("failed to reserve %q in pending set: %w", item.URL, err)
	}

	if added == 0 {
		// Another worker got here first; remember it locally.
		m.pending.Store(item.URL, struct{}{})
		return nil
	}

	payload, err := item.Encode()
	if err != nil {
		m.revertPendingReservation(ctx, item.URL)
		return err
	}

	if err := m.withRetry(ctx, "rpush pending bucket", func(c context.Context) error {
		return m.client.RPush(c, bucketKey(item.Depth), payload).Err()
	}); err != nil {
		m.stats.IncrementRedisErrored()
		m.revertPendingReservation(ctx, item.URL)
		return fmt.Errorf("failed to enqueue %q at depth %d: %w", item.URL, item.Depth, err)
	}

	m.pending.Store(item.URL, struct{}{})
	m.stats.IncrementRedisSuccessful()
	m.log.WithFields(logrus.Fields{"url": item.URL, "depth": item.Depth}).Debug("URL added to pending queue")
	return nil
}

// revertPendingReservation undoes a set-add whose list append never landed,
// preserving the set/list mirror invariant. Best effort.
func (m *Manager) revertPendingReservation(ctx context.Context, url string) {
	if err := m.withRetry(ctx, "srem pending_urls_set", func(c context.Context) error {
		return m.client.SRem(c, pendingSetKey, url).Err()
	}); err != nil {
		m.stats.IncrementRedisErrored()
		m.log.WithFields(logrus.Fields{"url": url, "error": err}).Error("Failed to revert pending set reservation")
	}
	m.pending.Delete(url)
}

// RemoveFromPending pops the next item in breadth-first order: bucket d+1 is
// consulted only after every bucket <= d came up empty. Returns (nil, nil)
// when all buckets are empty.
func (m *Manager) RemoveFromPending(ctx context.Context) (*Item, error) {
	for depth := 0; depth <= m.crawlDepth; depth++ {
		var payload string
		err := m.withRetry(ctx, "lpop pending bucket", func(c context.Context) error {
			val, err := m.client.LPop(c, bucketKey(depth)).Result()
			payload = val
			return err
		})
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			m.stats.IncrementRedisErrored()
			return nil, fmt.Errorf("failed to pop from depth %d: %w", depth, err)
		}

		item, err := DecodeItem([]byte(payload))
		if err != nil {
			// A corrupt entry must not wedge the bucket; drop it and pop the
			// same bucket again so breadth-first order still holds.
			m.stats.IncrementRedisFailed()
			m.log.WithFields(logrus.Fields{"depth": depth, "error": err}).Error("Dropping undecodable queue entry")
			depth--
			continue
		}

		if err := m.withRetry(ctx, "srem pending_urls_set", func(c context.Context) error {
			return m.client.SRem(c, pendingSetKey, item.URL).Err()
		}); err != nil {
			m.stats.IncrementRedisErrored()
			m.log.WithFields(logrus.Fields{"url": item.URL, "error": err}).Error("Failed to remove popped URL from pending set")
		}

		m.pending.Delete(item.URL)
		m.stats.IncrementRedisSuccessful()
		return &item, nil
	}

	return nil, nil
}

// IsURLSeen reports whether a URL is already visited or pending. The local
// cache answers first; on a miss one pipelined Redis read checks the visited
// key and the pending set, and the outcome (positive or negative) is cached.
func (m *Manager) IsURLSeen(ctx context.Context, url string) (bool, error) {
	if v, ok := m.seen.Load(url); ok {
		return v.(bool), nil
	}

	var existsCmd *redis.IntCmd
	var memberCmd *redis.BoolCmd
	err := m.withRetry(ctx, "seen pipeline", func(c context.Context) error {
		pipe := m.client.Pipeline()
		existsCmd = pipe.Exists(c, visitedKey(url))
		memberCmd = pipe.SIsMember(c, pendingSetKey, url)
		_, err := pipe.Exec(c)
		return err
	})
	if err != nil {
		m.stats.IncrementRedisErrored()
		return false, fmt.Errorf("failed to check seen state for %q: %w", url, err)
	}

	seen := existsCmd.Val() > 0 || memberCmd.Val()
	m.seen.Store(url, seen)
	m.stats.IncrementRedisSuccessful()
	return seen, nil
}

// MarkVisited records the terminal state for a URL with the visited TTL.
// Every outcome ends here: success, permanent failure, non-HTML content,
// fetch initiation failure.
func (m *Manager) MarkVisited(ctx context.Context, url string) error {
	if err := m.withRetry(ctx, "set visited", func(c context.Context) error {
		return m.client.Set(c, visitedKey(url), 1, visitedTTL).Err()
	}); err != nil {
		m.stats.IncrementRedisErrored()
		return fmt.Errorf("failed to mark %q visited: %w", url, err)
	}

	m.seen.Store(url, true)
	m.pending.Delete(url)
	m.stats.IncrementRedisSuccessful()
	return nil
}

// AddToRequeued records that a URL has consumed its single automatic retry.
func (m *Manager) AddToRequeued(ctx context.Context, url string) error {
	if err := m.withRetry(ctx, "sadd requeued", func(c context.Context) error {
		return m.client.SAdd(c, requeuedSetKey, url).Err()
	}); err != nil {
		m.stats.IncrementRedisErrored()
		return fmt.Errorf("failed to add %q to requeued set: %w", url, err)
	}
	m.requeued.Store(url, struct{}{})
	return nil
}

// RemoveFromRequeued clears a URL's retry marker once it reaches a terminal
// state.
func (m *Manager) RemoveFromRequeued(ctx context.Context, url string) error {
	if err := m.withRetry(ctx, "srem requeued", func(c context.Context) error {
		return m.client.SRem(c, requeuedSetKey, url).Err()
	}); err != nil {
		m.stats.IncrementRedisErrored()
		return fmt.Errorf("failed to remove %q from requeued set: %w", url, err)
	}
	m.requeued.Delete(url)
	return nil
}

// IsRequeued reports whether a URL already used its automatic retry.
func (m *Manager) IsRequeued(ctx context.Context, url string) (bool, error) {
	if _, ok := m.requeued.Load(url); ok {
		return true, nil
	}

	var member bool
	err := m.withRetry(ctx, "sismember requeued", func(c context.Context) error {
		v, err := m.client.SIsMember(c, requeuedSetKey, url).Result()
		member = v
		return err
	})
	if err != nil {
		m.stats.IncrementRedisErrored()
		return false, fmt.Errorf("failed to check requeued state for %q: %w", url, err)
	}
	if member {
		m.requeued.Store(url, struct{}{})
	}
	return member, nil
}

// withRetry runs one Redis operation with a per-attempt deadline and
// exponential backoff starting at 100ms. redis.Nil is a result, not a
// failure, and is returned immediately.
func (m *Manager) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= m.retryMax; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil || errors.Is(err, redis.Nil) {
			return err
		}

		lastErr = err
		m.log.Warnf("Redis %s attempt %d/%d failed: %v", op, attempt, m.retryMax, err)

		if attempt < m.retryMax {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 100 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", m.retryMax, lastErr)
}
