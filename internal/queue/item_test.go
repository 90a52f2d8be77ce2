package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemRoundTrip(t *testing.T) {
	item := Item{URL: "https://example.com/page", Depth: 2}

	data, err := item.Encode()
	require.NoError(t, err)

	decoded, err := DecodeItem(data)
	require.NoError(t, err)
	assert.Equal(t, item, decoded)
}

func TestItemWireFormat(t *testing.T) {
	data, err := Item{URL: "https://a.test", Depth: 0}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://a.test","depth":0}`, string(data))
}

func TestDecodeItemRejectsGarbage(t *testing.T) {
	_, err := DecodeItem([]byte("not json"))
	assert.Error(t, err)
}

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "crawler:pending_urls:depth_0", bucketKey(0))
	assert.Equal(t, "crawler:pending_urls:depth_3", bucketKey(3))
	assert.Equal(t, "crawler:visited:https://a.test", visitedKey("https://a.test"))
	assert.Equal(t, "crawler:pending_urls_set", pendingSetKey)
	assert.Equal(t, "crawler:requeued_urls", requeuedSetKey)
}
