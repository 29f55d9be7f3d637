// Package metrics 提供Prometheus监控指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/paiban/refrigerio/pkg/placement"
	"github.com/paiban/refrigerio/pkg/simulation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "refrigerio"

// Registry 应用自有的注册表，不混入默认的全局指标
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// HTTP 指标
var (
	HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP请求总数",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP请求延迟",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"method", "path"})
)

// 编排指标
var (
	PlacementsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "placements_total",
		Help:      "单个班次编排次数，condition 为空表示完整编排",
	}, []string{"strategy", "condition"})

	PlacementDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "placement_duration_seconds",
		Help:      "单个班次编排耗时",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}, []string{"strategy"})

	BreaksPlacedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "breaks_placed_total",
		Help:      "已安排的休息次数",
	}, []string{"strategy"})
)

// 批量指标
var (
	BatchesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_total",
		Help:      "批量编排次数",
	}, []string{"strategy"})

	BatchDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "批量编排耗时",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"strategy"})

	BatchShiftsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_shifts_total",
		Help:      "批量中处理的班次数，按状态区分",
	}, []string{"strategy", "status"})

	CollisionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collisions_total",
		Help:      "落在高峰时段的休息次数",
	}, []string{"strategy"})

	LastEfficiency = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_batch_efficiency",
		Help:      "最近一次批量的整体效率(0-100)",
	}, []string{"strategy"})
)

// Handler 返回Prometheus格式的指标HTTP处理器
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRequestMetrics 记录请求指标
func RecordRequestMetrics(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Recorder 把编排和批量结果写入指标
type Recorder struct{}

// NewRecorder 创建记录器
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ObservePlacement 记录单个班次编排
func (r *Recorder) ObservePlacement(strategy string, result *placement.Result, elapsed time.Duration) {
	PlacementsTotal.WithLabelValues(strategy, string(result.Condition)).Inc()
	PlacementDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	BreaksPlacedTotal.WithLabelValues(strategy).Add(float64(len(result.Windows)))
}

// ObserveBatch 记录一次批量编排
func (r *Recorder) ObserveBatch(report *simulation.BatchReport) {
	BatchesTotal.WithLabelValues(report.Strategy).Inc()
	BatchDuration.WithLabelValues(report.Strategy).Observe(report.Duration.Seconds())
	for _, res := range report.Results {
		BatchShiftsTotal.WithLabelValues(report.Strategy, string(res.Status)).Inc()
	}
	CollisionsTotal.WithLabelValues(report.Strategy).Add(float64(report.Summary.Collisions))
	LastEfficiency.WithLabelValues(report.Strategy).Set(report.Summary.OverallEfficiency)
}

var (
	_ placement.Observer       = (*Recorder)(nil)
	_ simulation.BatchObserver = (*Recorder)(nil)
)
