// ZhiBan 住院医师值班排班服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zhiban/zhiban/internal/config"
	"github.com/zhiban/zhiban/internal/database"
	"github.com/zhiban/zhiban/internal/handler"
	"github.com/zhiban/zhiban/internal/metrics"
	"github.com/zhiban/zhiban/internal/middleware"
	"github.com/zhiban/zhiban/internal/repository"
	"github.com/zhiban/zhiban/internal/security"
	"github.com/zhiban/zhiban/pkg/engine"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/scheduler/optimizer"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	// 打印版本信息
	fmt.Printf("ZhiBan 值班排班引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 数据库连接（可选, 未启用时排班结果不落库、花名册接口不可用）
	var db *database.DB
	var scheduleRepo repository.ScheduleRepositoryInterface
	var residentRepo repository.ResidentRepositoryInterface
	if os.Getenv("DB_ENABLED") == "true" {
		db, err = database.New(&cfg.Database)
		if err != nil {
			logger.Error().Err(err).Msg("数据库连接失败")
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(context.Background()); err != nil {
			logger.Error().Err(err).Msg("排班库表结构初始化失败")
			os.Exit(1)
		}
		scheduleRepo = repository.NewScheduleRepository(db)
		residentRepo = repository.NewResidentRepository(db)
		logger.Info().Str("database", cfg.Database.Name).Msg("数据库已连接")
	}

	// 创建排班引擎
	eng := engine.New(engineConfig(&cfg.Solver))

	// 创建处理器
	scheduleHandler := handler.NewScheduleHandler(eng, scheduleRepo)
	statsHandler := handler.NewStatsHandler()

	// 创建 HTTP 服务器
	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := db.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"degraded","service":"zhiban","database":"down"}`))
				return
			}
			metrics.SetDBConnections(db.Stats())
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"zhiban"}`))
	})

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "ZhiBan 值班排班引擎 API v1",
			"endpoints": {
				"schedule": {
					"generate": "POST /api/v1/schedule/generate",
					"validate": "POST /api/v1/schedule/validate"
				},
				"constraints": {
					"library": "GET /api/v1/constraints/library"
				},
				"residents": {
					"list": "GET /api/v1/residents",
					"create": "POST /api/v1/residents",
					"detail": "GET /api/v1/residents/detail?id="
				},
				"stats": {
					"fairness": "POST /api/v1/stats/fairness",
					"coverage": "POST /api/v1/stats/coverage"
				}
			}
		}`))
	})

	// 排班生成 API
	mux.HandleFunc("/api/v1/schedule/generate", scheduleHandler.Generate)

	// 排班审核 API
	mux.HandleFunc("/api/v1/schedule/validate", scheduleHandler.Validate)

	// 规则库 API - 返回后端支持的所有规则及参数定义
	mux.HandleFunc("/api/v1/constraints/library", handler.LibraryHandler)

	// 花名册维护 API（需要数据库）
	if residentRepo != nil {
		residentHandler := handler.NewResidentHandler(residentRepo)
		mux.HandleFunc("/api/v1/residents", residentHandler.Residents)
		mux.HandleFunc("/api/v1/residents/detail", residentHandler.Resident)
	}

	// ========================================
	// 统计分析 API
	// ========================================

	// 公平性分析 API
	mux.HandleFunc("/api/v1/stats/fairness", statsHandler.GetFairness)

	// 覆盖率分析 API
	mux.HandleFunc("/api/v1/stats/coverage", statsHandler.GetCoverage)

	// ========================================
	// 监控端点
	// ========================================

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	// 中间件执行顺序：recovery -> requestID -> securityHeaders -> (auth) -> logging -> handler
	var root http.Handler = middleware.LoggingMiddleware(mux)

	// API Key 认证（可选, 启动时生成一个引导密钥）
	if os.Getenv("API_AUTH_ENABLED") == "true" {
		keyManager := security.NewAPIKeyManager()
		bootKey, err := keyManager.GenerateKey("bootstrap", "启动密钥", []string{"schedule", "stats"}, nil)
		if err != nil {
			logger.Error().Err(err).Msg("生成引导密钥失败")
			os.Exit(1)
		}
		logger.Info().Str("api_key", bootKey.Key).Msg("API 认证已启用")

		root = middleware.AuthMiddleware(&middleware.AuthConfig{
			APIKeyManager:   keyManager,
			RateLimiter:     security.NewRateLimiter(cfg.API.RateLimit, time.Minute),
			SkipPaths:       []string{"/health", "/version", cfg.Metrics.Path},
			EnableRateLimit: true,
		})(root)
	}

	root = middleware.RecoveryMiddleware(middleware.RequestIDMiddleware(middleware.SecurityHeadersMiddleware(root)))

	port := fmt.Sprintf("%d", cfg.App.Port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.API.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Str("port", port).
			Str("version", Version).
			Str("url", fmt.Sprintf("http://localhost:%s", port)).
			Str("api_docs", fmt.Sprintf("http://localhost:%s/api/v1/", port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// engineConfig 由求解器配置构造引擎配置
func engineConfig(sc *config.SolverConfig) engine.Config {
	opt := optimizer.DefaultConfig()
	if sc.MaxIterations > 0 {
		opt.MaxIterations = sc.MaxIterations
	}
	if sc.NeighborhoodSize > 0 {
		opt.NeighborhoodSize = sc.NeighborhoodSize
	}
	if sc.ParallelWorkers > 0 {
		opt.ParallelWorkers = sc.ParallelWorkers
	}
	opt.Seed = sc.Seed

	return engine.Config{
		SolveTimeout:  sc.SolveTimeout,
		Optimizer:     opt,
		StrictPeriods: sc.StrictRotations,
	}
}
