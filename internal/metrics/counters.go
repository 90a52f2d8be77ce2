package metrics

import "sync/atomic"

func (m *Metrics) IncrementPagesProcessed()  { atomic.AddInt64(&m.PagesProcessed, 1) }
func (m *Metrics) IncrementPagesSuccessful() { atomic.AddInt64(&m.PagesSuccessful, 1) }
func (m *Metrics) IncrementPagesFailed()     { atomic.AddInt64(&m.PagesFailed, 1) }
func (m *Metrics) IncrementPagesSkipped()    { atomic.AddInt64(&m.PagesSkipped, 1) }
func (m *Metrics) IncrementPagesAborted()    { atomic.AddInt64(&m.PagesAborted, 1) }
func (m *Metrics) IncrementKafkaSuccessful() { atomic.AddInt64(&m.KafkaSuccessful, 1) }
func (m *Metrics) IncrementKafkaFailed()     { atomic.AddInt64(&m.KafkaFailed, 1) }
func (m *Metrics) IncrementKafkaErrored()    { atomic.AddInt64(&m.KafkaErrored, 1) }
func (m *Metrics) IncrementRedisSuccessful() { atomic.AddInt64(&m.RedisSuccessful, 1) }
func (m *Metrics) IncrementRedisFailed()     { atomic.AddInt64(&m.RedisFailed, 1) }
func (m *Metrics) IncrementRedisErrored()    { atomic.AddInt64(&m.RedisErrored, 1) }

func (m *Metrics) IncrementInflightPages() { atomic.AddInt64(&m.InflightPages, 1) }
func (m *Metrics) DecrementInflightPages() { atomic.AddInt64(&m.InflightPages, -1) }

func (m *Metrics) GetInflightPages() int64  { return atomic.LoadInt64(&m.InflightPages) }
func (m *Metrics) GetPagesProcessed() int64 { return atomic.LoadInt64(&m.PagesProcessed) }
