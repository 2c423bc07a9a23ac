package metrics

import (
	"github.com/go-redis/redis/v8"
)

// RecordCacheLookup records a session cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	m.safeExecute("RecordCacheLookup", func() {
		result := "miss"
		if hit {
			result = "hit"
		}
		m.CacheRequestsTotal.WithLabelValues(result).Inc()
	})
}

// RecordCacheError records a failed cache operation
func (m *Metrics) RecordCacheError(operation string) {
	m.safeExecute("RecordCacheError", func() {
		m.CacheErrorsTotal.WithLabelValues(operation).Inc()
	})
}

// UpdateCachePoolStats updates redis connection pool metrics
func (m *Metrics) UpdateCachePoolStats(stats *redis.PoolStats) {
	m.safeExecute("UpdateCachePoolStats", func() {
		if stats == nil {
			return
		}
		m.CachePoolConnections.WithLabelValues("total").Set(float64(stats.TotalConns))
		m.CachePoolConnections.WithLabelValues("idle").Set(float64(stats.IdleConns))
		m.CachePoolConnections.WithLabelValues("stale").Set(float64(stats.StaleConns))
		m.CachePoolTimeouts.Set(float64(stats.Timeouts))
	})
}
