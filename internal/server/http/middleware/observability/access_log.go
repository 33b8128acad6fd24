package observability

import (
	"time"

	"go-canteenadmin/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessLog 请求结束后输出一条访问日志；trace_id / user_id 来自请求 context
func AccessLog(l *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		lg := l.WithContext(c.Request.Context())
		if status >= 500 {
			lg.Warn("http_access", fields...)
			return
		}
		lg.Info("http_access", fields...)
	}
}
