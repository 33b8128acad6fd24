package admin

import (
	"go-canteenadmin/internal/pkg/cache"
	"go-canteenadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type CacheHandler struct{ d Dependencies }

func NewCacheHandler(d Dependencies) *CacheHandler { return &CacheHandler{d: d} }

// Metrics 非分层缓存（未启用 Redis）时返回空对象
func (h *CacheHandler) Metrics(c *gin.Context) {
	data := gin.H{"layered": gin.H{}}
	if lc, ok := h.d.Cache.(*cache.LayeredCache); ok && lc != nil {
		data["layered"] = lc.SnapshotMetrics()
	}
	if sc, ok := h.d.Cache.(*cache.SimpleCache); ok && sc != nil {
		data["entries"] = sc.Len()
	}
	response.Success(c, data)
}

func (h *CacheHandler) Reset(c *gin.Context) {
	if lc, ok := h.d.Cache.(*cache.LayeredCache); ok && lc != nil {
		lc.ResetMetrics()
	}
	response.Success(c, gin.H{})
}
