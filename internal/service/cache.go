package service

import (
	"context"
	"encoding/json"
	"time"

	"go-canteenadmin/internal/metrics"
	"go-canteenadmin/internal/pkg/cache"
)

const (
	keyCategories = "canteen:categories"
	keyTemplates  = "canteen:menu_templates"
	keyMenuPrefix = "canteen:menu:"

	ttlCategories = 5 * time.Minute
	ttlTemplates  = 5 * time.Minute
	ttlMenu       = 60 * time.Second

	invalidateBatch = 200
)

func menuKey(date string, meal string) string { return keyMenuPrefix + date + ":" + meal }

// cached 读穿缓存；缓存不可用或反序列化失败都退回 load，不影响结果
func cached[T any](ctx context.Context, c cache.Cache, name, key string, ttl time.Duration, load func() (T, bool, error)) (T, error) {
	var zero T
	if c != nil {
		if s, _ := c.Get(ctx, key); s != "" {
			var v T
			if json.Unmarshal([]byte(s), &v) == nil {
				metrics.CacheRequests.WithLabelValues(name, "hit").Inc()
				return v, nil
			}
		}
		metrics.CacheRequests.WithLabelValues(name, "miss").Inc()
	}
	v, store, err := load()
	if err != nil {
		return zero, err
	}
	if c != nil && store {
		if b, err := json.Marshal(v); err == nil {
			_ = c.SetEX(ctx, key, string(b), ttl)
		}
	}
	return v, nil
}

func invalidate(ctx context.Context, c cache.Cache, keys ...string) {
	if c != nil && len(keys) > 0 {
		_ = c.Del(ctx, keys...)
	}
}
