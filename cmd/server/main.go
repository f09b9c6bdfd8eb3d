package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/SlpAus/contact-form-backend/api"
	"github.com/SlpAus/contact-form-backend/internal/platform/config"
	"github.com/SlpAus/contact-form-backend/internal/platform/database"
	"github.com/SlpAus/contact-form-backend/internal/platform/health"
	"github.com/SlpAus/contact-form-backend/internal/platform/httpx"
	"github.com/SlpAus/contact-form-backend/internal/platform/shutdown"
	"github.com/SlpAus/contact-form-backend/internal/platform/startup"
	"github.com/SlpAus/contact-form-backend/internal/submission"
	"github.com/SlpAus/contact-form-backend/internal/telemetry"
	"github.com/SlpAus/contact-form-backend/pkg/lifecycle"
	"github.com/SlpAus/contact-form-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("加载配置失败: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	ctx := context.Background()

	// 1. 数据库连接池（不连接数据库，可用性和建表交给后台的健康检查）
	db, err := startup.PrepareDatabase(cfg.Database)
	if err != nil {
		logger.Fatal("初始化数据库失败: %v", err)
	}

	// 2. 对象存储与指标输出
	uploader, err := startup.NewUploader(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("初始化对象存储失败: %v", err)
	}
	sink, closeSink, err := startup.NewSink(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatal("初始化指标输出失败: %v", err)
	}
	emitter := telemetry.NewEmitter(sink, cfg.Telemetry.Namespace, cfg.Telemetry.QueueSize, cfg.Telemetry.FlushTimeout)

	// 3. 后台服务
	gracefulMgr := lifecycle.NewManager("graceful")
	forcefulMgr := lifecycle.NewManager("forceful")
	if err := startTelemetry(emitter, gracefulMgr, forcefulMgr); err != nil {
		logger.Fatal("启动指标上报器失败: %v", err)
	}

	dbStatus := database.NewStatus()
	pinger := health.PingFunc(func(ctx context.Context) error { return database.Ping(ctx, db) })
	if err := gracefulMgr.Go("db-health", func(h *lifecycle.Handle) {
		health.StartChecker(h, pinger, dbStatus, cfg.Database.ProbeInterval, startup.MigrationHook(cfg.Database, db))
	}); err != nil {
		logger.Fatal("启动健康检查失败: %v", err)
	}

	var limiter *httpx.IPRateLimiter
	if cfg.Server.RateLimit.Enabled {
		limiter = httpx.NewIPRateLimiter(cfg.Server.RateLimit.PerSec, cfg.Server.RateLimit.Burst)
		if err := gracefulMgr.Go("rate-limit-cleanup", limiter.RunCleanup); err != nil {
			logger.Fatal("启动限流清理失败: %v", err)
		}
		logger.Info("联系表单限流已开启: %.2f/s, burst=%d", cfg.Server.RateLimit.PerSec, cfg.Server.RateLimit.Burst)
	}

	// 4. HTTP服务
	svc := submission.NewService(submission.NewRepository(db), uploader)
	router := api.NewRouter(api.Dependencies{
		Server:      cfg.Server,
		Submissions: submission.NewHandler(svc, emitter, cfg.Storage.MaxImageBytes),
		Metrics:     emitter,
		DBStatus:    dbStatus,
		Limiter:     limiter,
	})

	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Success("服务器已准备就绪，开始监听 %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	coordinator := shutdown.NewCoordinator(gracefulMgr, forcefulMgr)
	if cfg.Server.ShutdownTimeout > 0 {
		coordinator.HTTPTimeout = cfg.Server.ShutdownTimeout
	}
	coordinator.OnClose("数据库连接池", func() error { return database.Close(db) })
	if closeSink != nil {
		coordinator.OnClose("指标输出", closeSink)
	}
	coordinator.ListenForSignalsAndShutdown(server, serverErr)
}

// startTelemetry 启动指标上报器。它同时持有两个阶段的句柄：
// 第一阶段排空队列，第二阶段取消正在进行的写入。
func startTelemetry(emitter *telemetry.Emitter, graceful, forceful *lifecycle.Manager) error {
	gh, err := graceful.NewServiceHandle("telemetry")
	if err != nil {
		return err
	}
	fh, err := forceful.NewServiceHandle("telemetry")
	if err != nil {
		gh.Close()
		return err
	}
	go emitter.Run(gh, fh)
	return nil
}
