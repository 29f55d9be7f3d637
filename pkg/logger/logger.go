// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// ContextKey 上下文键类型
type ContextKey string

// RequestIDKey 请求ID在上下文中的键
const RequestIDKey ContextKey = "request_id"

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器，只有第一次调用生效
func Init(cfg Config) {
	once.Do(func() {
		logger = New(cfg)
	})
}

// New 按配置创建独立的日志器
func New(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var output io.Writer
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "file":
		output = os.Stdout
		if cfg.FilePath != "" {
			if f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				output = f
			}
		}
	default:
		output = os.Stdout
	}

	if cfg.Format == "console" {
		timeFormat := cfg.TimeFormat
		if timeFormat == "" {
			timeFormat = time.RFC3339
		}
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: timeFormat,
		}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// parseLevel 解析日志级别
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	Init(DefaultConfig())
	return &logger
}

// WithContext 从上下文创建日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		l = l.With().Str("request_id", reqID).Logger()
	}

	return &l
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal 记录致命错误日志
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// PlannerLogger 休息编排专用日志器
type PlannerLogger struct {
	base *zerolog.Logger
}

// NewPlannerLogger 创建休息编排日志器，base 为空时使用全局日志器
func NewPlannerLogger(base *zerolog.Logger) *PlannerLogger {
	if base == nil {
		base = Get()
	}
	l := base.With().Str("component", "planner").Logger()
	return &PlannerLogger{base: &l}
}

// BatchStart 记录批量模拟开始
func (l *PlannerLogger) BatchStart(batchID, strategy string, shifts, workers int) {
	l.base.Info().
		Str("batch_id", batchID).
		Str("strategy", strategy).
		Int("shifts", shifts).
		Int("workers", workers).
		Msg("开始批量编排休息")
}

// ShiftSkipped 记录被跳过的班次
func (l *PlannerLogger) ShiftSkipped(recordID, code, reason string) {
	l.base.Warn().
		Str("record_id", recordID).
		Str("code", code).
		Str("reason", reason).
		Msg("班次被跳过")
}

// PartialPlacement 记录部分编排
func (l *PlannerLogger) PartialPlacement(shiftID string, placed, required int) {
	l.base.Warn().
		Str("shift_id", shiftID).
		Int("placed", placed).
		Int("required", required).
		Msg("休息窗口未能全部放置")
}

// BatchComplete 记录批量模拟完成
func (l *PlannerLogger) BatchComplete(batchID string, duration time.Duration, efficiency float64, skipped int) {
	l.base.Info().
		Str("batch_id", batchID).
		Dur("duration", duration).
		Float64("efficiency", efficiency).
		Int("skipped", skipped).
		Msg("批量编排完成")
}
