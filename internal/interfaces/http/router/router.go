// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mss-report-engine/internal/config"
	"mss-report-engine/internal/interfaces/http/handler"
	"mss-report-engine/internal/interfaces/http/middleware"
)

// Handlers 路由依赖的处理器集合
type Handlers struct {
	Health  *handler.HealthHandler
	Report  *handler.ReportHandler
	Catalog *handler.CatalogHandler
	Job     *handler.JobHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers Handlers
	limiter  middleware.RateLimiter
}

// New 创建新的路由器。limiter 可为 nil（限流关闭或无 Redis）。
func New(cfg *config.Config, handlers Handlers, limiter middleware.RateLimiter) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		limiter:  limiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	// 系统端点
	r.engine.GET("/health", r.handlers.Health.Health)
	r.engine.GET("/ready", r.handlers.Health.Ready)
	r.engine.GET("/live", r.handlers.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:   r.cfg.Security.RateLimit.Enabled,
		PerMinute: r.cfg.Security.RateLimit.PerMinute,
	}, r.limiter)

	v1 := r.engine.Group("/v1")
	{
		reports := v1.Group("/reports")
		{
			reports.POST("/generate", rateLimit, r.handlers.Report.Generate)
			reports.PUT("/:job_id/slides", rateLimit, r.handlers.Report.Rewrite)
		}

		v1.GET("/templates", r.handlers.Catalog.ListTemplates)
		v1.POST("/templates/reload", r.handlers.Catalog.ReloadTemplates)
		v1.GET("/inputs", r.handlers.Catalog.ListInputs)

		if r.handlers.Job != nil {
			v1.GET("/jobs", r.handlers.Job.ListJobs)
			v1.GET("/jobs/:id", r.handlers.Job.GetJob)
		}
	}
}
