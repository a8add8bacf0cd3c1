package application

import (
	"sync"
	"time"

	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
)

type cacheEntry struct {
	result   *domain.StrategyResult
	storedAt time.Time
}

// ResultCache 策略结果的短 TTL 内存缓存
// 读取时惰性过期；条目数超过 maxEntries 时在写入时清理已过期条目。
type ResultCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewResultCache 创建结果缓存，maxEntries <= 0 表示不做清理
func NewResultCache(ttl time.Duration, maxEntries int, now func() time.Time) *ResultCache {
	if now == nil {
		now = time.Now
	}
	return &ResultCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        now,
	}
}

// Get 返回未过期结果的副本，调用方修改副本不影响缓存
func (c *ResultCache) Get(key string) (*domain.StrategyResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.result.Clone(), true
}

// Set 写入结果的副本，并发写同一个键时后写者覆盖
func (c *ResultCache) Set(key string, result *domain.StrategyResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = cacheEntry{result: result.Clone(), storedAt: now}
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.purgeExpiredLocked(now)
	}
}

// Len 当前条目数（含尚未清理的过期条目）
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ResultCache) purgeExpiredLocked(now time.Time) {
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
}
