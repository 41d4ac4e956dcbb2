// Package main 报告生成服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mss-report-engine/internal/application/report"
	"mss-report-engine/internal/config"
	"mss-report-engine/internal/domain/repository"
	"mss-report-engine/internal/infrastructure/catalog"
	"mss-report-engine/internal/infrastructure/llm"
	"mss-report-engine/internal/infrastructure/persistence/postgres"
	redisinfra "mss-report-engine/internal/infrastructure/persistence/redis"
	"mss-report-engine/internal/infrastructure/slidespec"
	"mss-report-engine/internal/interfaces/http/handler"
	"mss-report-engine/internal/interfaces/http/middleware"
	"mss-report-engine/internal/interfaces/http/router"
	"mss-report-engine/internal/render"
	"mss-report-engine/pkg/logger"
	"mss-report-engine/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting report-svc",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	// 初始化追踪
	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 数据库与缓存都是可选依赖：任务审计与限流降级，生成功能不受影响
	var pgClient *postgres.Client
	var jobRepo repository.ReportJobRepository
	if cfg.Database.Postgres.Host != "" {
		pgClient, err = postgres.NewClient(&cfg.Database.Postgres)
		if err != nil {
			log.Warn("postgres unavailable, job auditing disabled", "error", err)
		} else {
			defer pgClient.Close()
			if err := pgClient.AutoMigrate(); err != nil {
				log.Error("failed to migrate database", "error", err)
				os.Exit(1)
			}
			jobRepo = postgres.NewReportJobRepository(pgClient)
		}
	}

	var redisClient *redisinfra.Client
	var limiter middleware.RateLimiter
	if cfg.Cache.Redis.Host != "" {
		redisClient, err = redisinfra.NewClient(&cfg.Cache.Redis)
		if err != nil {
			log.Warn("redis unavailable, rate limiting disabled", "error", err)
		} else {
			defer redisClient.Close()
			limiter = redisinfra.NewRateLimiter(redisClient)
		}
	}

	// 组装报告流水线
	templateRepo := catalog.NewTemplateRepo(cfg.Report.TemplatesDir)
	inputRepo := catalog.NewInputRepo(cfg.Report.InputsDir)
	specStore := slidespec.NewStore(cfg.Report.SlideSpecsDir)
	renderer := render.NewRenderer(cfg.Report.ChartFontPath, cfg.App.Name)

	var generator report.ContentGenerator
	if cfg.LLM.Enabled {
		generator = report.NewGenerator(llm.NewEinoFactory(cfg), &cfg.LLM)
	}

	svc := report.NewService(
		templateRepo, inputRepo, specStore, jobRepo,
		generator, renderer, &cfg.Report, cfg.LLM.Enabled,
	)

	handlers := router.Handlers{
		Health:  handler.NewHealthHandler(pgClient, redisClient),
		Report:  handler.NewReportHandler(svc),
		Catalog: handler.NewCatalogHandler(templateRepo, inputRepo),
	}
	if jobRepo != nil {
		handlers.Job = handler.NewJobHandler(jobRepo)
	}

	r := router.New(cfg, handlers, limiter)

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
