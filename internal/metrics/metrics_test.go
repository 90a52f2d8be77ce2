package metrics_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sneakyhydra/sneakdex/crawler/internal/metrics"
)

func TestCountersAndSnapshot(t *testing.T) {
	m := metrics.New()

	m.IncrementPagesProcessed()
	m.IncrementPagesProcessed()
	m.IncrementPagesSuccessful()
	m.IncrementPagesFailed()
	m.IncrementPagesSkipped()
	m.IncrementKafkaSuccessful()
	m.IncrementKafkaErrored()
	m.IncrementRedisSuccessful()

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["pages_processed"])
	assert.Equal(t, int64(1), stats["pages_successful"])
	assert.Equal(t, int64(1), stats["pages_failed"])
	assert.Equal(t, int64(1), stats["pages_nonhtml_skipped"])
	assert.Equal(t, int64(0), stats["pages_aborted"])
	assert.Equal(t, int64(1), stats["kafka_successful"])
	assert.Equal(t, int64(1), stats["kafka_errored"])
	assert.Equal(t, int64(1), stats["redis_successful"])
	assert.GreaterOrEqual(t, stats["uptime_seconds"].(float64), 0.0)
}

func TestInflightBalance(t *testing.T) {
	m := metrics.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementInflightPages()
			m.DecrementInflightPages()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(0), m.GetInflightPages(), "in-flight must balance at quiescence")
}

func TestConservation(t *testing.T) {
	m := metrics.New()

	// 3 successes, 1 failure, 1 non-HTML skip, 1 abort
	for i := 0; i < 4; i++ {
		m.IncrementPagesProcessed()
	}
	for i := 0; i < 3; i++ {
		m.IncrementPagesSuccessful()
	}
	m.IncrementPagesFailed()
	m.IncrementPagesSkipped()
	m.IncrementPagesAborted()

	stats := m.GetStats()
	processed := stats["pages_processed"].(int64)
	successful := stats["pages_successful"].(int64)
	failed := stats["pages_failed"].(int64)
	assert.Equal(t, processed, successful+failed)
}

func TestSyncAndPrivateRegistry(t *testing.T) {
	// Two instances in one process must not collide on registration.
	m1 := metrics.New()
	m2 := metrics.New()

	m1.IncrementPagesProcessed()
	m1.Sync()
	m2.Sync()

	families, err := m1.Registry().Gather()
	assert.NoError(t, err)

	found := false
	for _, mf := range families {
		if mf.GetName() == "pages_processed_total" {
			found = true
			assert.Equal(t, float64(1), mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found, "pages_processed_total gauge must be registered")
}
