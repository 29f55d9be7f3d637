package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/paiban/refrigerio/internal/config"
	"github.com/paiban/refrigerio/internal/handler"
	"github.com/paiban/refrigerio/internal/metrics"
	"github.com/paiban/refrigerio/internal/middleware"
	"github.com/paiban/refrigerio/pkg/logger"
)

// NewRouter 组装路由和中间件。db 为 nil 时健康检查只报告服务状态
func NewRouter(cfg *config.Config, planner *handler.PlannerHandler, db handler.Pinger, info handler.BuildInfo) http.Handler {
	r := chi.NewRouter()

	// 中间件执行顺序：realIP -> requestID -> logging -> recovery -> headers -> cors -> rateLimit -> handler
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(*logger.Get()))
	r.Use(middleware.Recovery)
	r.Use(middleware.SecurityHeaders)
	if cfg.API.CORS.Enabled {
		r.Use(middleware.CORS(cfg.API.CORS.Origins))
	}
	r.Use(middleware.RateLimit(cfg.API.RateLimit, cfg.API.Burst))
	if cfg.API.Timeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.API.Timeout))
	}

	// ========================================
	// 系统端点
	// ========================================

	r.Get("/health", handler.HealthHandler(cfg.App.Name, db))
	r.Get("/version", handler.VersionHandler(info))
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// API v1 端点
	// ========================================

	r.Route("/api/v1", planner.Mount)
	return r
}
