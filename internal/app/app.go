// Package app 按配置组装休息编排的各个组件，服务端和命令行共用
package app

import (
	"fmt"

	"github.com/paiban/refrigerio/internal/config"
	"github.com/paiban/refrigerio/internal/metrics"
	"github.com/paiban/refrigerio/internal/source"
	"github.com/paiban/refrigerio/pkg/logger"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/paiban/refrigerio/pkg/normalizer"
	"github.com/paiban/refrigerio/pkg/placement"
	"github.com/paiban/refrigerio/pkg/simulation"
	"github.com/paiban/refrigerio/pkg/stats"
)

// DefaultSkills 演示曲线覆盖的技能组，空串为通用曲线
var DefaultSkills = []string{"", "ventas", "soporte"}

// AllDayTypes 全部日期类型
var AllDayTypes = []model.DayType{model.DayWeekday, model.DaySaturday, model.DaySunday, model.DayHoliday}

// Planner 组装好的编排组件
type Planner struct {
	Normalizer *normalizer.Normalizer
	Engine     *placement.Engine
	Scorer     *stats.Scorer
	Driver     *simulation.Driver
	Profiles   *model.ProfileSet
	Recorder   *metrics.Recorder // 未启用监控时为 nil
}

// Build 按配置组装编排组件。曲线来自 ProfilesFile，未配置时用生成器生成演示曲线
func Build(cfg *config.Config) (*Planner, error) {
	cal, err := cfg.Calendar()
	if err != nil {
		return nil, fmt.Errorf("解析节假日失败: %w", err)
	}

	p := &Planner{
		Normalizer: normalizer.New(cal),
		Scorer:     stats.NewScorer(cfg.Planner.Scoring),
	}
	if cfg.Metrics.Enabled {
		p.Recorder = metrics.NewRecorder()
		p.Engine = placement.NewEngine(cfg.Planner.Placement, p.Recorder)
	} else {
		p.Engine = placement.NewEngine(cfg.Planner.Placement, nil)
	}

	p.Driver = simulation.NewDriver(p.Normalizer, p.Engine, p.Scorer, cfg.Planner.Simulation).
		WithLogger(logger.NewPlannerLogger(logger.Get()))
	if p.Recorder != nil {
		p.Driver.WithObserver(p.Recorder)
	}

	p.Profiles, err = LoadProfiles(&cfg.Planner)
	if err != nil {
		return nil, err
	}
	dates, rules := cal.HolidayCount()
	logger.Info().
		Int("profiles", p.Profiles.Len()).
		Int("holiday_dates", dates).
		Int("holiday_rules", rules).
		Str("strategy", cfg.Planner.Strategy).
		Msg("编排组件已就绪")
	return p, nil
}

// LoadProfiles 读取话务量CSV，未配置文件时生成演示曲线
func LoadProfiles(cfg *config.PlannerConfig) (*model.ProfileSet, error) {
	if cfg.ProfilesFile != "" {
		set, err := source.ReadProfilesFile(cfg.ProfilesFile, 0)
		if err != nil {
			return nil, fmt.Errorf("读取话务量文件 %s 失败: %w", cfg.ProfilesFile, err)
		}
		return set, nil
	}
	return simulation.NewSeededGenerator(cfg.Generator).Profiles(AllDayTypes, DefaultSkills)
}
