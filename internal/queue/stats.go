package queue

import "context"

// GetQueueStats returns the length of every depth bucket for observability.
func (m *Manager) GetQueueStats(ctx context.Context) (map[int]int64, error) {
	lengths := make(map[int]int64, m.crawlDepth+1)
	for depth := 0; depth <= m.crawlDepth; depth++ {
		var n int64
		err := m.withRetry(ctx, "llen pending bucket", func(c context.Context) error {
			v, err := m.client.LLen(c, bucketKey(depth)).Result()
			n = v
			return err
		})
		if err != nil {
			m.stats.IncrementRedisErrored()
			return nil, err
		}
		lengths[depth] = n
	}
	return lengths, nil
}

// CleanupEmptyQueues deletes depth bucket keys whose length is zero. Purely
// maintenance; pending entries are never touched.
func (m *Manager) CleanupEmptyQueues(ctx context.Context) error {
	lengths, err := m.GetQueueStats(ctx)
	if err != nil {
		return err
	}
	for depth, n := range lengths {
		if n != 0 {
			continue
		}
		if err := m.withRetry(ctx, "del empty bucket", func(c context.Context) error {
			return m.client.Del(c, bucketKey(depth)).Err()
		}); err != nil {
			m.stats.IncrementRedisErrored()
			return err
		}
	}
	return nil
}
