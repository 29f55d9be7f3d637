package placement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
)

// Result 单个班次的编排结果
type Result struct {
	ShiftID   uuid.UUID           `json:"shift_id"`
	Strategy  string              `json:"strategy"`
	Windows   []model.BreakWindow `json:"windows"`
	Required  int                 `json:"required"`
	Condition errors.Code         `json:"condition,omitempty"` // SHIFT_TOO_SHORT / PARTIAL_PLACEMENT
	Message   string              `json:"message,omitempty"`
}

// Complete 是否安排了全部需要的休息
func (r *Result) Complete() bool {
	return r.Condition == ""
}

// Err 将异常状况转换为错误
func (r *Result) Err() error {
	if r.Condition == "" {
		return nil
	}
	return errors.New(r.Condition, r.Message).WithField("shift_id", r.ShiftID.String())
}

// PlaceBreaks 为班次安排休息窗口，相同输入总是得到相同输出
func PlaceBreaks(shift *model.Shift, profile *model.CallVolumeProfile, strategy Strategy, cfg *Config) *Result {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if strategy == nil {
		strategy = &OptimizedStrategy{}
	}

	result := &Result{
		ShiftID:  shift.ID,
		Strategy: strategy.Name(),
		Windows:  []model.BreakWindow{},
	}

	duration := shift.DurationMinutes()
	kinds := cfg.RequiredBreaks(duration)
	if len(kinds) == 0 {
		result.Condition = errors.CodeShiftTooShort
		result.Message = fmt.Sprintf("班次时长 %d 分钟，低于最短 %d 分钟", duration, cfg.MinShiftMinutes)
		return result
	}
	result.Required = len(kinds)

	plan := &Plan{
		Shift:   shift,
		Profile: profile,
		Config:  cfg,
		Window: model.TimeRange{
			Start: shift.Start.Add(cfg.OffsetFromStart),
			End:   shift.End.Add(-cfg.OffsetFromEnd),
		},
		Kinds: kinds,
	}
	if profile != nil {
		plan.peak = profile.MaxCallsDuring(shift.Range())
	}

	prevEnd := model.Clock(-1)
	for i := range kinds {
		candidates := candidateStarts(plan, i, prevEnd)
		if len(candidates) == 0 {
			break
		}
		start := strategy.Rank(plan, i, candidates)[0]
		w := model.BreakWindow{Kind: kinds[i], Start: start, End: start.Add(plan.Length(i))}
		plan.Placed = append(plan.Placed, w)
		prevEnd = w.End
	}

	result.Windows = append(result.Windows, plan.Placed...)
	if len(result.Windows) < result.Required {
		result.Condition = errors.CodePartialPlacement
		result.Message = fmt.Sprintf("允许区间 %s 只能放下 %d/%d 次休息", plan.Window, len(result.Windows), result.Required)
	}
	return result
}

// candidateStarts 第 i 次休息的可选开始时刻，对齐到以班次开始为原点的步长网格。
// 上界为后续休息预留空间；预留后无解时放弃预留，后续休息可能放不下。
func candidateStarts(plan *Plan, i int, prevEnd model.Clock) []model.Clock {
	cfg := plan.Config
	lo := plan.Window.Start
	if prevEnd >= 0 && prevEnd.Add(cfg.MinGap) > lo {
		lo = prevEnd.Add(cfg.MinGap)
	}
	lo = snapUp(plan.Shift.Start, lo, cfg.StepMinutes)

	last := len(plan.Kinds) - 1
	hi := plan.Window.End.Add(-plan.Length(last))
	for j := i; j < last; j++ {
		hi = hi.Add(-ceilStep(plan.Length(j)+cfg.MinGap, cfg.StepMinutes))
	}
	if hi < lo {
		hi = plan.Window.End.Add(-plan.Length(i))
	}

	var out []model.Clock
	for c := lo; c <= hi; c = c.Add(cfg.StepMinutes) {
		out = append(out, c)
	}
	return out
}

// snapUp 将 c 向上对齐到 origin + k*step
func snapUp(origin, c model.Clock, step int) model.Clock {
	if c <= origin {
		return origin
	}
	offset := int(c - origin)
	return origin.Add(ceilStep(offset, step))
}

func ceilStep(v, step int) int {
	return (v + step - 1) / step * step
}

// Observer 接收编排结果，用于指标和日志
type Observer interface {
	ObservePlacement(strategy string, result *Result, elapsed time.Duration)
}

// Engine 带固定规则和观察者的编排入口
type Engine struct {
	config   *Config
	observer Observer
}

// NewEngine 创建编排引擎
func NewEngine(cfg *Config, observer Observer) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Engine{config: cfg, observer: observer}
}

// Config 返回编排规则
func (e *Engine) Config() *Config {
	return e.config
}

// Place 按策略名称编排
func (e *Engine) Place(shift *model.Shift, profile *model.CallVolumeProfile, strategyName string) (*Result, error) {
	strategy, err := ParseStrategy(strategyName)
	if err != nil {
		return nil, err
	}
	return e.PlaceWith(shift, profile, strategy), nil
}

// PlaceWith 使用给定策略编排
func (e *Engine) PlaceWith(shift *model.Shift, profile *model.CallVolumeProfile, strategy Strategy) *Result {
	start := time.Now()
	result := PlaceBreaks(shift, profile, strategy, e.config)
	if e.observer != nil {
		e.observer.ObservePlacement(result.Strategy, result, time.Since(start))
	}
	return result
}
