package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"onair/backend/config"
	"onair/backend/internal/api/handler"
	"onair/backend/internal/api/middleware"
	"onair/backend/internal/api/router"
	"onair/backend/internal/jobs"
	"onair/backend/internal/repository"
	"onair/backend/internal/service"
	"onair/backend/pkg/clock"
	"onair/backend/pkg/database"
	"onair/backend/pkg/jwt"
	applogger "onair/backend/pkg/logger"
	"onair/backend/pkg/rds"
	"onair/backend/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("timezone", cfg.Station.Timezone),
		zap.Int("horizon_weeks", cfg.Schedule.HorizonWeeks),
	)

	// 3. 电台时钟（全站统一时区，周日为每周第一天）
	loc, err := time.LoadLocation(cfg.Station.Timezone)
	if err != nil {
		logger.Fatal("加载电台时区失败", zap.Error(err))
	}
	clk := clock.New(loc)

	// 4. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 5. 连接 Redis（可选：失败时降级运行，黑名单与周缓存不可用）
	var (
		cache       service.WeekCache
		blacklist   service.TokenBlacklist
		mwBlacklist middleware.TokenBlacklist
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，黑名单与周视图缓存将不可用", zap.Error(err))
		rdb = nil
	} else {
		cache = rdb
		blacklist = rdb
		mwBlacklist = rdb
	}

	// 6. RDS 编码器（可选）
	var encoder rds.Encoder
	if cfg.RDS.Enabled {
		encoder = rds.NewEncoder(&cfg.RDS, logger)
		logger.Info("RDS 编码器已启用", zap.String("addr", cfg.RDS.Addr))
	}

	// 7. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, clk, cache, blacklist, encoder, logger)
	h := handler.NewHandler(svc)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, mwBlacklist, logger)

	// 9. 周期任务（导出重建 / 正在播出推送）
	runner, err := jobs.NewRunner(cfg, svc, logger)
	if err != nil {
		logger.Fatal("初始化周期任务失败", zap.Error(err))
	}
	runner.Start()

	// 10. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 11. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	runner.Stop()

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
