package cache

import (
	"sync/atomic"
	"time"
)

// stats общие счетчики для реализаций CacheRepo
type stats struct {
	metrics CacheMetrics

	latencySum   int64 // в наносекундах
	latencyCount int64
	maxLatency   int64
}

func (s *stats) hit()  { atomic.AddInt64(&s.metrics.TotalRequests, 1); atomic.AddInt64(&s.metrics.CacheHits, 1) }
func (s *stats) cold() { atomic.AddInt64(&s.metrics.TotalRequests, 1); atomic.AddInt64(&s.metrics.ColdHits, 1) }
func (s *stats) miss() { atomic.AddInt64(&s.metrics.TotalRequests, 1); atomic.AddInt64(&s.metrics.CacheMisses, 1) }

// recordLatency записывает latency операции.
func (s *stats) recordLatency(start time.Time) {
	latency := time.Since(start).Nanoseconds()
	atomic.AddInt64(&s.latencySum, latency)
	atomic.AddInt64(&s.latencyCount, 1)

	for {
		current := atomic.LoadInt64(&s.maxLatency)
		if latency <= current || atomic.CompareAndSwapInt64(&s.maxLatency, current, latency) {
			break
		}
	}
}

// snapshot возвращает копию метрик с вычисленными полями
func (s *stats) snapshot() *CacheMetrics {
	m := CacheMetrics{
		TotalRequests: atomic.LoadInt64(&s.metrics.TotalRequests),
		CacheHits:     atomic.LoadInt64(&s.metrics.CacheHits),
		ColdHits:      atomic.LoadInt64(&s.metrics.ColdHits),
		CacheMisses:   atomic.LoadInt64(&s.metrics.CacheMisses),
		LastUpdate:    time.Now(),
	}
	if m.TotalRequests > 0 {
		m.HitRatio = float64(m.CacheHits+m.ColdHits) / float64(m.TotalRequests)
	}
	if count := atomic.LoadInt64(&s.latencyCount); count > 0 {
		m.AvgLatencyMs = float64(atomic.LoadInt64(&s.latencySum)) / float64(count) / 1e6
	}
	m.MaxLatencyMs = float64(atomic.LoadInt64(&s.maxLatency)) / 1e6
	return &m
}
