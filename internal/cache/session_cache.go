// Package cache keeps recently loaded session snapshots so repeated page
// loads do not each trigger a workflow engine run.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"change-intake-service/internal/domain"
	"change-intake-service/internal/metrics"
)

const keyPrefix = "change-intake:session:"

// SessionCache stores session snapshots by session id. Implementations
// never fail the caller: errors are logged and treated as a miss.
type SessionCache interface {
	Get(ctx context.Context, sessionID string) (*domain.SessionSnapshot, bool)
	Set(ctx context.Context, snapshot *domain.SessionSnapshot)
	Invalidate(ctx context.Context, sessionID string)
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

type redisSessionCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRedisSessionCache creates a redis backed cache
func NewRedisSessionCache(client redis.Cmdable, ttl time.Duration, logger *zap.Logger, m *metrics.Metrics) SessionCache {
	return &redisSessionCache{
		client:  client,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

func (c *redisSessionCache) Get(ctx context.Context, sessionID string) (*domain.SessionSnapshot, bool) {
	data, err := c.client.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.RecordCacheLookup(false)
		return nil, false
	}
	if err != nil {
		c.metrics.RecordCacheError("get")
		c.metrics.RecordCacheLookup(false)
		c.logger.Warn("Session cache read failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, false
	}

	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		c.metrics.RecordCacheError("decode")
		c.metrics.RecordCacheLookup(false)
		c.logger.Warn("Dropping undecodable cached session",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		c.Invalidate(ctx, sessionID)
		return nil, false
	}

	c.metrics.RecordCacheLookup(true)
	return &snapshot, true
}

func (c *redisSessionCache) Set(ctx context.Context, snapshot *domain.SessionSnapshot) {
	if snapshot == nil || snapshot.SessionID == "" {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		c.metrics.RecordCacheError("encode")
		c.logger.Warn("Failed to encode session for cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key(snapshot.SessionID), data, c.ttl).Err(); err != nil {
		c.metrics.RecordCacheError("set")
		c.logger.Warn("Session cache write failed",
			zap.String("session_id", snapshot.SessionID),
			zap.Error(err),
		)
	}
}

func (c *redisSessionCache) Invalidate(ctx context.Context, sessionID string) {
	if err := c.client.Del(ctx, key(sessionID)).Err(); err != nil {
		c.metrics.RecordCacheError("delete")
		c.logger.Warn("Session cache invalidation failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemorySessionCache is an in-process cache used when redis is not
// configured. Entries are stored encoded so callers never share state.
type MemorySessionCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

// NewMemorySessionCache creates an in-process cache
func NewMemorySessionCache(ttl time.Duration, m *metrics.Metrics) *MemorySessionCache {
	return &MemorySessionCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		metrics: m,
	}
}

func (c *MemorySessionCache) Get(ctx context.Context, sessionID string) (*domain.SessionSnapshot, bool) {
	c.mu.Lock()
	entry, ok := c.entries[sessionID]
	if ok && !c.now().Before(entry.expiresAt) {
		delete(c.entries, sessionID)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		c.metrics.RecordCacheLookup(false)
		return nil, false
	}

	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(entry.data, &snapshot); err != nil {
		c.metrics.RecordCacheLookup(false)
		return nil, false
	}
	c.metrics.RecordCacheLookup(true)
	return &snapshot, true
}

func (c *MemorySessionCache) Set(ctx context.Context, snapshot *domain.SessionSnapshot) {
	if snapshot == nil || snapshot.SessionID == "" {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		c.metrics.RecordCacheError("encode")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snapshot.SessionID] = memoryEntry{data: data, expiresAt: c.now().Add(c.ttl)}
}

func (c *MemorySessionCache) Invalidate(ctx context.Context, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
}

// Len returns the number of stored entries, expired ones included.
func (c *MemorySessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// NoOpSessionCache never stores anything.
type NoOpSessionCache struct{}

func (NoOpSessionCache) Get(ctx context.Context, sessionID string) (*domain.SessionSnapshot, bool) {
	return nil, false
}

func (NoOpSessionCache) Set(ctx context.Context, snapshot *domain.SessionSnapshot) {}

func (NoOpSessionCache) Invalidate(ctx context.Context, sessionID string) {}
