package http

import (
	"context"
	nethttp "net/http"
	"time"

	"go-canteenadmin/internal/config"
	"go-canteenadmin/internal/logging"
	"go-canteenadmin/internal/security/jwt"
	handlerset "go-canteenadmin/internal/server/http/handler"
	"go-canteenadmin/internal/server/http/middleware"
	obs "go-canteenadmin/internal/server/http/middleware/observability"
	sec "go-canteenadmin/internal/server/http/middleware/security"
	"go-canteenadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 仅负责分组与中间件装配，具体业务放在 handler 层
func NewRouter(cfg *config.Config, logger *logging.Logger, jwtm *jwt.Manager, h *handlerset.HandlerSet, hc *HealthChecker, oplogQ obs.Enqueuer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORS(cfg.HTTP.AllowedOrigins), obs.TraceMiddleware(), obs.Metrics(), obs.AccessLog(logger))

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) { c.JSON(nethttp.StatusOK, hc.Liveness()) })
	r.GET("/readyz", func(c *gin.Context) {
		if c.Query("refresh") == "1" {
			hc.Invalidate()
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		res, code := hc.Readiness(ctx)
		c.JSON(code, res)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 小程序只读接口，无需登录
	client := r.Group("/api/client")
	{
		client.GET("/dishes/available", h.Dish.Available)
		client.GET("/menus/by-date", h.Menu.PublishedByDate)
	}

	// 管理端：认证 + 操作日志
	adminGrp := r.Group("/api/admin", sec.Auth(jwtm, logger), obs.OperationLog(oplogQ))
	{
		dishes := adminGrp.Group("/dishes")
		{
			dishes.GET("", h.Dish.List)
			dishes.GET("/available", h.Dish.Available)
			dishes.GET("/:id", h.Dish.Detail)
			dishes.POST("", h.Dish.Create)
			dishes.PUT("/:id", h.Dish.Update)
			dishes.PUT("/:id/status", h.Dish.ChangeStatus)
			dishes.DELETE("/:id", h.Dish.Delete)
		}
		adminGrp.GET("/categories", h.Dish.Categories)
		adminGrp.GET("/departments", h.User.Departments)
		adminGrp.GET("/users", h.User.List)
		adminGrp.GET("/logs", h.Log.List)

		menus := adminGrp.Group("/menus")
		{
			menus.GET("/by-date", h.Menu.ByDate)
			menus.POST("/draft", h.Menu.SaveDraft)
			menus.GET("/history", h.Menu.History)
			menus.GET("/history/export", h.Menu.Export)
			menus.GET("/templates", h.Menu.Templates)
			menus.POST("/:id/publish", h.Menu.Publish)
			menus.POST("/:id/archive", h.Menu.Archive)
			menus.DELETE("/:id", h.Menu.Delete)
		}
		cacheGrp := adminGrp.Group("/cache")
		{
			cacheGrp.GET("/metrics", h.Cache.Metrics)
			cacheGrp.POST("/reset", h.Cache.Reset)
		}
	}

	if cfg.HTTP.Debug {
		r.GET("/debug/kafka/peek", sec.Auth(jwtm, logger), h.Debug.Peek)
	}

	// 统一 404
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, nethttp.StatusNotFound, "不存在")
	})
	return r
}
