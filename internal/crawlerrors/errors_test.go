package crawlerrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sneakyhydra/sneakdex/crawler/internal/crawlerrors"
)

func TestIsRetriableMessage(t *testing.T) {
	tests := []struct {
		msg       string
		retriable bool
	}{
		{"dial tcp: i/o timeout", true},
		{"kafka: request timeout while waiting for response", true},
		{"dial tcp 10.0.0.1:9092: connect: connection refused", true},
		{"lookup kafka: no such host", true},
		{"message was too large", false},
		{"kafka server: Message contents does not match its CRC", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.retriable, crawlerrors.IsRetriableMessage(tt.msg), "msg=%q", tt.msg)
	}
}

func TestIsRetriable(t *testing.T) {
	assert.False(t, crawlerrors.IsRetriable(nil))
	assert.True(t, crawlerrors.IsRetriable(errors.New("read: connection refused")))
	assert.False(t, crawlerrors.IsRetriable(errors.New("unexpected EOF")))
}

func TestCrawlErrorWrapping(t *testing.T) {
	cause := errors.New("boom")
	err := crawlerrors.New("https://a.test", "kafka_publish", cause, true)

	assert.True(t, err.Retry)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "kafka_publish")
	assert.Contains(t, err.Error(), "https://a.test")

	var crawlErr *crawlerrors.CrawlError
	wrapped := fmt.Errorf("publish failed: %w", err)
	assert.True(t, errors.As(wrapped, &crawlErr))
	assert.True(t, crawlErr.Retry)
}
