package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/paiban/refrigerio/internal/constraints"
)

// Pinger 可做健康检查的依赖
type Pinger interface {
	Health(ctx context.Context) error
}

// BuildInfo 构建信息
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// HealthHandler 健康检查；db 为 nil 时只报告服务状态
func HealthHandler(service string, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{"status": "ok", "service": service}
		status := http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Health(ctx); err != nil {
				body["status"] = "degraded"
				body["database"] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				body["database"] = "ok"
			}
		}
		respondJSON(w, status, body)
	}
}

// VersionHandler 版本信息
func VersionHandler(info BuildInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, info)
	}
}

// RuleLibrary 返回编排规则及当前取值
func (h *PlannerHandler) RuleLibrary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, constraints.GetLibrary(h.engine.Config(), h.scorer.Config()))
}
