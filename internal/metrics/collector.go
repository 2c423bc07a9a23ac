package metrics

import (
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PoolStatter is implemented by *redis.Client.
type PoolStatter interface {
	PoolStats() *redis.PoolStats
}

// PoolStatsCollector periodically copies redis pool stats into the metrics
type PoolStatsCollector struct {
	source  PoolStatter
	metrics *Metrics
	logger  *zap.Logger
	ticker  *time.Ticker
	done    chan bool
}

// NewPoolStatsCollector creates a new collector
func NewPoolStatsCollector(source PoolStatter, metrics *Metrics, logger *zap.Logger, interval time.Duration) *PoolStatsCollector {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PoolStatsCollector{
		source:  source,
		metrics: metrics,
		logger:  logger,
		ticker:  time.NewTicker(interval),
		done:    make(chan bool),
	}
}

// Start begins collecting metrics
func (c *PoolStatsCollector) Start() {
	go func() {
		c.collect()

		for {
			select {
			case <-c.ticker.C:
				c.collect()
			case <-c.done:
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *PoolStatsCollector) Stop() {
	c.ticker.Stop()
	c.done <- true
}

func (c *PoolStatsCollector) collect() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic in pool stats collection",
				zap.Any("panic", r),
			)
		}
	}()

	c.metrics.UpdateCachePoolStats(c.source.PoolStats())
}
