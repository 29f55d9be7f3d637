// Refrigerio 休息编排服务
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

	"github.com/paiban/refrigerio/internal/app"
	"github.com/paiban/refrigerio/internal/config"
	"github.com/paiban/refrigerio/internal/database"
	"github.com/paiban/refrigerio/internal/handler"
	"github.com/paiban/refrigerio/pkg/logger"
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

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
	})

	fmt.Printf("Refrigerio 休息编排服务 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	planner, err := app.Build(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化编排组件失败")
	}

	// 数据库可选，未启用时存储相关接口返回错误
	var (
		db    *database.DB
		store *handler.Store
	)
	if cfg.Database.Enabled {
		db, err = database.New(&cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("连接数据库失败")
		}
		defer db.Close()

		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("数据库迁移失败")
		}
		store = handler.NewStore(db)
	}

	plannerHandler := handler.NewPlannerHandler(handler.Options{
		Normalizer: planner.Normalizer,
		Engine:     planner.Engine,
		Scorer:     planner.Scorer,
		Driver:     planner.Driver,
		Generator:  cfg.Planner.Generator,
		Profiles:   planner.Profiles,
		Strategy:   cfg.Planner.Strategy,
		MaxBatch:   cfg.API.MaxBatch,
		Store:      store,
	})

	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}
	router := app.NewRouter(cfg, plannerHandler, pinger, handler.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.API.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("env", cfg.App.Env).
			Str("version", Version).
			Bool("database", db != nil).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.App.Port)).
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
		return
	}

	logger.Info().Msg("服务器已关闭")
}
