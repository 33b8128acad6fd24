package cache

import (
	"context"
	"sync"
	"time"
)

// Cache 服务层使用的统一缓存接口，值统一为字符串（JSON 编解码由调用方负责）
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEX(ctx context.Context, key, val string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// TTLFetcher 可选能力：返回剩余 TTL，LayeredCache 回填 L1 时使用
type TTLFetcher interface {
	RemainingTTL(ctx context.Context, key string) (time.Duration, bool)
}

type item struct {
	val string
	exp time.Time
}

func (it item) expired(now time.Time) bool { return !it.exp.IsZero() && now.After(it.exp) }

// SimpleCache 进程内 L1，带 TTL；过期项在读取或 Sweep 时清理
type SimpleCache struct {
	mu   sync.RWMutex
	data map[string]item
	ttl  time.Duration
}

// New ttl 为 SetEX 传 0 时使用的默认过期时间
func New(ttl time.Duration) *SimpleCache {
	return &SimpleCache{data: make(map[string]item), ttl: ttl}
}

func (c *SimpleCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	it, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return "", nil
	}
	if now := time.Now(); it.expired(now) {
		c.mu.Lock()
		if cur, ok := c.data[key]; ok && cur.expired(now) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return "", nil
	}
	return it.val, nil
}

func (c *SimpleCache) SetEX(_ context.Context, key, val string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.data[key] = item{val: val, exp: exp}
	c.mu.Unlock()
	return nil
}

func (c *SimpleCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *SimpleCache) RemainingTTL(_ context.Context, key string) (time.Duration, bool) {
	c.mu.RLock()
	it, ok := c.data[key]
	c.mu.RUnlock()
	if !ok || it.exp.IsZero() {
		return 0, false
	}
	d := time.Until(it.exp)
	return d, d > 0
}

// Sweep 清理过期项，返回清理数量
func (c *SimpleCache) Sweep() int {
	now := time.Now()
	n := 0
	c.mu.Lock()
	for k, it := range c.data {
		if it.expired(now) {
			delete(c.data, k)
			n++
		}
	}
	c.mu.Unlock()
	return n
}

func (c *SimpleCache) Flush() {
	c.mu.Lock()
	c.data = make(map[string]item)
	c.mu.Unlock()
}

func (c *SimpleCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// NewSimpleAdapter 兼容旧调用方式
func NewSimpleAdapter(c *SimpleCache) Cache { return c }
