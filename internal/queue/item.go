// Package queue implements the persistent crawl frontier: a depth-bucketed
// FIFO queue in Redis with a mirror set for O(1) dedup, per-URL visited
// markers with a TTL, and the requeued set backing the single-retry policy.
// The Redis state is shared across crawler instances; local caches only
// reduce round trips.
package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	pendingBucketPrefix = "crawler:pending_urls:depth_"
	pendingSetKey       = "crawler:pending_urls_set"
	visitedKeyPrefix    = "crawler:visited:"
	requeuedSetKey      = "crawler:requeued_urls"

	// visitedTTL bounds memory and permits long-term re-crawl of stale pages.
	visitedTTL = 24 * time.Hour

	// Preload sample sizes for the local caches at startup.
	visitedPreloadLimit = 10000
	pendingPreloadLimit = 5000
)

// Item is one unit of crawl work: a canonical URL and its distance from the
// seed that discovered it.
type Item struct {
	URL   string `json:"url"`
	Depth int    `json:"depth"`
}

// Encode serializes an Item for storage in a pending bucket.
func (i Item) Encode() ([]byte, error) {
	data, err := json.Marshal(i)
	if err != nil {
		return nil, fmt.Errorf("failed to encode queue item %q: %w", i.URL, err)
	}
	return data, nil
}

// DecodeItem parses a serialized Item popped from a pending bucket.
func DecodeItem(data []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return Item{}, fmt.Errorf("failed to decode queue item: %w", err)
	}
	return item, nil
}

func bucketKey(depth int) string {
	return fmt.Sprintf("%s%d", pendingBucketPrefix, depth)
}

func visitedKey(url string) string {
	return visitedKeyPrefix + url
}
