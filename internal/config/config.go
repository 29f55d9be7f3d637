// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/paiban/refrigerio/pkg/calendar"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/paiban/refrigerio/pkg/placement"
	"github.com/paiban/refrigerio/pkg/simulation"
	"github.com/paiban/refrigerio/pkg/stats"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Planner  PlannerConfig  `yaml:"planner"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name      string `yaml:"name" validate:"required"`
	Env       string `yaml:"env" validate:"oneof=development test production"`
	Port      int    `yaml:"port" validate:"gte=1,lte=65535"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format" validate:"oneof=console json"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `yaml:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit int           `yaml:"rate_limit" validate:"gte=0"` // 每秒请求数，0 为不限
	Burst     int           `yaml:"burst" validate:"gte=0"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxBatch  int           `yaml:"max_batch" validate:"gte=1"` // 单次请求最多班次数
	CORS      CORSConfig    `yaml:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// PlannerConfig 休息编排配置，可由规则文件覆盖
type PlannerConfig struct {
	RulesFile    string                      `yaml:"-"`
	ProfilesFile string                      `yaml:"profiles_file"` // 话务量CSV，为空时使用生成的演示曲线
	Strategy     string                      `yaml:"strategy" validate:"oneof=optimized distributed concentrated"`
	Placement    *placement.Config           `yaml:"placement" validate:"required"`
	Scoring      *stats.ScorerConfig         `yaml:"scoring" validate:"required"`
	Simulation   *simulation.Config          `yaml:"simulation" validate:"required"`
	Generator    *simulation.GeneratorConfig `yaml:"generator" validate:"required"`
	Holidays     HolidayConfig               `yaml:"holidays"`
}

// HolidayConfig 节假日：固定日期和 RRULE 规则
type HolidayConfig struct {
	Dates []string `yaml:"dates"`
	Rules []string `yaml:"rules"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

var validate = validator.New()

// Load 依次读取 .env、规则文件和环境变量
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	cfg.Planner.RulesFile = getEnv("PLANNER_RULES_FILE", "")
	if cfg.Planner.RulesFile != "" {
		if err := LoadRules(cfg.Planner.RulesFile, &cfg.Planner); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:      "refrigerio",
			Env:       "development",
			Port:      7012,
			LogLevel:  "info",
			LogFormat: "console",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "refrigerio",
			User:            "refrigerio",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		API: APIConfig{
			RateLimit: 100,
			Burst:     200,
			Timeout:   30 * time.Second,
			MaxBatch:  5000,
			CORS: CORSConfig{
				Enabled: true,
				Origins: []string{"*"},
			},
		},
		Planner: PlannerConfig{
			Strategy:   placement.StrategyOptimized,
			Placement:  placement.DefaultConfig(),
			Scoring:    stats.DefaultScorerConfig(),
			Simulation: simulation.DefaultConfig(),
			Generator:  simulation.DefaultGeneratorConfig(),
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// applyEnv 环境变量覆盖，未设置的保持原值
func applyEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Port = getEnvInt("APP_PORT", cfg.App.Port)
	cfg.App.LogLevel = getEnv("APP_LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.LogFormat = getEnv("APP_LOG_FORMAT", cfg.App.LogFormat)

	cfg.Database.Enabled = getEnvBool("DB_ENABLED", cfg.Database.Enabled)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)

	cfg.API.RateLimit = getEnvInt("API_RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.Burst = getEnvInt("API_RATE_BURST", cfg.API.Burst)
	cfg.API.Timeout = getEnvDuration("API_TIMEOUT", cfg.API.Timeout)
	cfg.API.MaxBatch = getEnvInt("API_MAX_BATCH", cfg.API.MaxBatch)
	cfg.API.CORS.Enabled = getEnvBool("API_CORS_ENABLED", cfg.API.CORS.Enabled)
	cfg.API.CORS.Origins = getEnvList("API_CORS_ORIGINS", cfg.API.CORS.Origins)

	p := &cfg.Planner
	p.Strategy = getEnv("PLANNER_STRATEGY", p.Strategy)
	p.ProfilesFile = getEnv("PLANNER_PROFILES_FILE", p.ProfilesFile)
	p.Simulation.Workers = getEnvInt("PLANNER_WORKERS", p.Simulation.Workers)
	p.Placement.LowLoadThreshold = getEnvFloat("PLANNER_LOW_LOAD_THRESHOLD", p.Placement.LowLoadThreshold)
	p.Placement.StepMinutes = getEnvInt("PLANNER_STEP_MINUTES", p.Placement.StepMinutes)
	p.Scoring.HighDemandRatio = getEnvFloat("PLANNER_HIGH_DEMAND_RATIO", p.Scoring.HighDemandRatio)
	p.Scoring.Unit = model.ScoreUnit(getEnv("PLANNER_SCORE_UNIT", string(p.Scoring.Unit)))
	p.Holidays.Dates = getEnvList("PLANNER_HOLIDAYS", p.Holidays.Dates)
	p.Generator.Seed = int64(getEnvInt("PLANNER_SEED", int(p.Generator.Seed)))

	cfg.Metrics.Enabled = getEnvBool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Path = getEnv("METRICS_PATH", cfg.Metrics.Path)
}

// LoadRules 读取 YAML 规则文件，覆盖 planner 中出现的字段
func LoadRules(path string, planner *PlannerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取规则文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, planner); err != nil {
		return fmt.Errorf("解析规则文件失败: %w", err)
	}
	return nil
}

// Validate 校验结构、编排规则和节假日
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if err := cfg.Planner.Placement.Validate(); err != nil {
		return fmt.Errorf("编排规则无效: %w", err)
	}
	if _, err := cfg.Calendar(); err != nil {
		return fmt.Errorf("节假日配置无效: %w", err)
	}
	return nil
}

// Calendar 由节假日配置创建日历
func (c *Config) Calendar() (*calendar.Calendar, error) {
	return calendar.NewCalendar(c.Planner.Holidays.Dates, c.Planner.Holidays.Rules)
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList 逗号分隔的列表
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
