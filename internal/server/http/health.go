package http

import (
	"context"
	"sync"
	"time"

	"go-canteenadmin/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Pinger 外部依赖的连通性探测
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 适配普通函数
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// DBPinger gorm 连接池探测
func DBPinger(db *gorm.DB) Pinger {
	return PingFunc(func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

// Dependency 一个被探测的依赖；Required=false 时失败只记录不降级
type Dependency struct {
	Name     string
	Pinger   Pinger
	Timeout  time.Duration
	Required bool
	Up       prometheus.Gauge
}

type DepResult struct {
	Dep        string  `json:"dep"`
	Up         bool    `json:"up"`
	Error      string  `json:"error,omitempty"`
	DurationMs float64 `json:"duration_ms"`
}

type Readiness struct {
	Status string      `json:"status"`
	Time   string      `json:"time"`
	Detail []DepResult `json:"detail"`
}

// HealthChecker 聚合健康检查（liveness / readiness），readiness 结果短暂缓存
type HealthChecker struct {
	deps []Dependency

	cacheMu     sync.Mutex
	cacheResult *Readiness
	cacheExpiry time.Time
	cacheTTL    time.Duration
}

func NewHealthChecker(deps ...Dependency) *HealthChecker {
	kept := make([]Dependency, 0, len(deps))
	for _, d := range deps {
		if d.Pinger == nil {
			continue
		}
		if d.Timeout <= 0 {
			d.Timeout = 300 * time.Millisecond
		}
		kept = append(kept, d)
	}
	return &HealthChecker{deps: kept, cacheTTL: 2 * time.Second}
}

// Liveness 仅表示进程活着，不依赖外部组件
func (h *HealthChecker) Liveness() map[string]interface{} {
	return map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}
}

func (h *HealthChecker) Invalidate() {
	h.cacheMu.Lock()
	h.cacheExpiry = time.Time{}
	h.cacheMu.Unlock()
}

// Readiness 并发探测全部依赖；任一 Required 依赖失败返回 503
func (h *HealthChecker) Readiness(ctx context.Context) (*Readiness, int) {
	h.cacheMu.Lock()
	if time.Now().Before(h.cacheExpiry) && h.cacheResult != nil {
		res := h.cacheResult
		h.cacheMu.Unlock()
		return res, statusCode(res)
	}
	h.cacheMu.Unlock()

	results := make([]DepResult, len(h.deps))
	var wg sync.WaitGroup
	for i, d := range h.deps {
		wg.Add(1)
		go func(i int, d Dependency) {
			defer wg.Done()
			start := time.Now()
			ctx2, cancel := context.WithTimeout(ctx, d.Timeout)
			err := d.Pinger.Ping(ctx2)
			cancel()
			dur := time.Since(start)
			r := DepResult{Dep: d.Name, Up: err == nil, DurationMs: float64(dur.Microseconds()) / 1000.0}
			if err != nil {
				r.Error = err.Error()
			}
			metrics.DependencyCheckDuration.WithLabelValues(d.Name).Observe(dur.Seconds())
			if d.Up != nil {
				if r.Up {
					d.Up.Set(1)
				} else {
					d.Up.Set(0)
				}
			}
			results[i] = r
		}(i, d)
	}
	wg.Wait()

	res := &Readiness{Status: "ok", Time: time.Now().Format(time.RFC3339), Detail: results}
	for i, r := range results {
		if !r.Up && h.deps[i].Required {
			res.Status = "degraded"
		}
	}
	h.cacheMu.Lock()
	h.cacheResult = res
	h.cacheExpiry = time.Now().Add(h.cacheTTL)
	h.cacheMu.Unlock()
	return res, statusCode(res)
}

func statusCode(r *Readiness) int {
	if r.Status != "ok" {
		return 503
	}
	return 200
}
