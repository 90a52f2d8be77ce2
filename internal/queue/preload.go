package queue

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// PreloadLocalCaches warms the local caches from Redis at startup: a sample
// of visited keys, a sample of the pending set, and the full requeued set.
// Failures here only cost extra round trips later, so errors are logged and
// swallowed.
func (m *Manager) PreloadLocalCaches(ctx context.Context) {
	visited := m.preloadVisited(ctx)
	pending := m.preloadPending(ctx)
	requeued := m.preloadRequeued(ctx)

	m.log.WithFields(logrus.Fields{
		"visited":  visited,
		"pending":  pending,
		"requeued": requeued,
	}).Info("Local caches preloaded from Redis")
}

func (m *Manager) preloadVisited(ctx context.Context) int {
	loaded := 0
	var cursor uint64
	for loaded < visitedPreloadLimit {
		var keys []string
		err := m.withRetry(ctx, "scan visited", func(c context.Context) error {
			k, next, err := m.client.Scan(c, cursor, visitedKeyPrefix+"*", 1000).Result()
			keys = k
			cursor = next
			return err
		})
		if err != nil {
			m.stats.IncrementRedisErrored()
			m.log.WithError(err).Warn("Failed to preload visited keys")
			return loaded
		}
		for _, key := range keys {
			m.seen.Store(strings.TrimPrefix(key, visitedKeyPrefix), true)
			loaded++
			if loaded >= visitedPreloadLimit {
				break
			}
		}
		if cursor == 0 {
			break
		}
	}
	return loaded
}

func (m *Manager) preloadPending(ctx context.Context) int {
	var urls []string
	err := m.withRetry(ctx, "srandmember pending_urls_set", func(c context.Context) error {
		v, err := m.client.SRandMemberN(c, pendingSetKey, pendingPreloadLimit).Result()
		urls = v
		return err
	})
	if err != nil {
		m.stats.IncrementRedisErrored()
		m.log.WithError(err).Warn("Failed to preload pending set sample")
		return 0
	}
	for _, url := range urls {
		m.pending.Store(url, struct{}{})
	}
	return len(urls)
}

func (m *Manager) preloadRequeued(ctx context.Context) int {
	var urls []string
	err := m.withRetry(ctx, "smembers requeued", func(c context.Context) error {
		v, err := m.client.SMembers(c, requeuedSetKey).Result()
		urls = v
		return err
	})
	if err != nil {
		m.stats.IncrementRedisErrored()
		m.log.WithError(err).Warn("Failed to preload requeued set")
		return 0
	}
	for _, url := range urls {
		m.requeued.Store(url, struct{}{})
	}
	return len(urls)
}
