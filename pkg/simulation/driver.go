// Package simulation 批量编排休息并汇总评分
package simulation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/logger"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/paiban/refrigerio/pkg/normalizer"
	"github.com/paiban/refrigerio/pkg/placement"
	"github.com/paiban/refrigerio/pkg/stats"
)

// Status 单个班次的处理结果
type Status string

const (
	StatusPlaced  Status = "placed"  // 全部休息已放置
	StatusPartial Status = "partial" // 只放置了部分休息
	StatusSkipped Status = "skipped" // 未参与汇总
)

// ShiftResult 单个班次的编排和评分
type ShiftResult struct {
	Index     int                    `json:"index"`
	RecordID  string                 `json:"record_id"`
	AgentName string                 `json:"agent_name,omitempty"`
	Status    Status                 `json:"status"`
	Code      errors.Code            `json:"code,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	Shift     *model.Shift           `json:"shift,omitempty"`
	Windows   []model.BreakWindow    `json:"windows,omitempty"`
	Required  int                    `json:"required,omitempty"`
	Score     *model.PlacementResult `json:"score,omitempty"`
	Baseline  *model.PlacementResult `json:"baseline,omitempty"` // 数据源中已有休息的评分
	Raw       *model.RawShiftRecord  `json:"raw,omitempty"`

	profile *model.CallVolumeProfile
}

// BatchReport 一次批量编排的结果
type BatchReport struct {
	BatchID  string         `json:"batch_id"`
	Strategy string         `json:"strategy"`
	Results  []ShiftResult  `json:"results"`
	Summary  stats.Summary  `json:"summary"`
	Baseline *stats.Summary `json:"baseline,omitempty"`
	Skipped  int            `json:"skipped"`
	Partial  int            `json:"partial"`
	Duration time.Duration  `json:"duration"`
}

// SkippedShifts 返回被跳过的班次
func (r *BatchReport) SkippedShifts() []ShiftResult {
	return r.filter(StatusSkipped)
}

// PartialShifts 返回部分编排的班次
func (r *BatchReport) PartialShifts() []ShiftResult {
	return r.filter(StatusPartial)
}

func (r *BatchReport) filter(status Status) []ShiftResult {
	var out []ShiftResult
	for _, res := range r.Results {
		if res.Status == status {
			out = append(out, res)
		}
	}
	return out
}

// Config 批量编排配置
type Config struct {
	Workers int `yaml:"workers" json:"workers" validate:"gte=1,lte=256"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{Workers: 4}
}

// BatchObserver 接收批量结果，用于指标
type BatchObserver interface {
	ObserveBatch(report *BatchReport)
}

// Driver 批量编排驱动器
type Driver struct {
	normalizer *normalizer.Normalizer
	engine     *placement.Engine
	scorer     *stats.Scorer
	workers    int
	logger     *logger.PlannerLogger
	observer   BatchObserver
}

// NewDriver 创建驱动器
func NewDriver(norm *normalizer.Normalizer, engine *placement.Engine, scorer *stats.Scorer, cfg *Config) *Driver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if norm == nil {
		norm = normalizer.New(nil)
	}
	if engine == nil {
		engine = placement.NewEngine(nil, nil)
	}
	if scorer == nil {
		scorer = stats.NewScorer(nil)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Driver{
		normalizer: norm,
		engine:     engine,
		scorer:     scorer,
		workers:    workers,
	}
}

// WithLogger 设置日志器
func (d *Driver) WithLogger(l *logger.PlannerLogger) *Driver {
	d.logger = l
	return d
}

// WithObserver 设置观察者
func (d *Driver) WithObserver(o BatchObserver) *Driver {
	d.observer = o
	return d
}

// RunBatch 对每条记录独立执行 规范化 -> 编排 -> 评分，结果按输入顺序返回。
// 单个班次失败只记为跳过；ctx 取消时返回错误，已完成的结果丢弃。
func (d *Driver) RunBatch(ctx context.Context, raws []model.RawShiftRecord, profiles *model.ProfileSet, strategy placement.Strategy) (*BatchReport, error) {
	if strategy == nil {
		return nil, errors.InvalidInput("strategy", "未指定策略")
	}

	start := time.Now()
	report := &BatchReport{
		BatchID:  uuid.New().String(),
		Strategy: strategy.Name(),
	}
	if d.logger != nil {
		d.logger.BatchStart(report.BatchID, report.Strategy, len(raws), d.workers)
	}

	results, err := d.process(ctx, raws, profiles, strategy)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCancelled, "批量编排已取消")
	}
	report.Results = results

	var scores, baselines []model.PlacementResult
	seen := make(map[*model.CallVolumeProfile]struct{})
	totalCalls := 0
	for _, res := range results {
		switch res.Status {
		case StatusSkipped:
			report.Skipped++
			if d.logger != nil {
				d.logger.ShiftSkipped(res.RecordID, string(res.Code), res.Reason)
			}
			continue
		case StatusPartial:
			report.Partial++
			if d.logger != nil {
				d.logger.PartialPlacement(res.Shift.ID.String(), len(res.Windows), res.Required)
			}
		}
		scores = append(scores, *res.Score)
		if res.Baseline != nil {
			baselines = append(baselines, *res.Baseline)
		}
		if _, ok := seen[res.profile]; !ok {
			seen[res.profile] = struct{}{}
			totalCalls += res.profile.TotalCalls()
		}
	}

	report.Summary = d.scorer.Aggregate(scores)
	report.Summary.TotalCalls = totalCalls
	if len(baselines) > 0 {
		baseline := d.scorer.Aggregate(baselines)
		baseline.TotalCalls = totalCalls
		report.Baseline = &baseline
	}
	report.Duration = time.Since(start)

	if d.logger != nil {
		d.logger.BatchComplete(report.BatchID, report.Duration, report.Summary.OverallEfficiency, report.Skipped)
	}
	if d.observer != nil {
		d.observer.ObserveBatch(report)
	}
	return report, nil
}

type job struct {
	index int
	raw   model.RawShiftRecord
}

// process 工作协程池，结果按下标收集
func (d *Driver) process(ctx context.Context, raws []model.RawShiftRecord, profiles *model.ProfileSet, strategy placement.Strategy) ([]ShiftResult, error) {
	results := make([]ShiftResult, len(raws))
	if len(raws) == 0 {
		return results, ctx.Err()
	}

	resultChan := make(chan ShiftResult, len(raws))
	jobChan := make(chan job, len(raws))

	workers := d.workers
	if workers > len(raws) {
		workers = len(raws)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
					resultChan <- d.processOne(j.index, j.raw, profiles, strategy)
				}
			}
		}()
	}

	for i, raw := range raws {
		jobChan <- job{index: i, raw: raw}
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for res := range resultChan {
		results[res.Index] = res
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// processOne 处理单条记录，不与其他班次共享状态
func (d *Driver) processOne(index int, raw model.RawShiftRecord, profiles *model.ProfileSet, strategy placement.Strategy) ShiftResult {
	res := ShiftResult{Index: index, AgentName: raw.AgentName}

	shift, rej := d.normalizer.Normalize(raw)
	if rej != nil {
		res.RecordID = rej.RecordID
		return skip(res, rej.Code, rej.Reason, &rej.Raw)
	}
	res.RecordID = shift.RecordID
	res.AgentName = shift.AgentName
	res.Shift = shift

	profile, err := profiles.Lookup(shift.DayType, shift.SkillGroup)
	if err != nil {
		snapshot := raw.Clone()
		return skip(res, errors.GetCode(err), err.Error(), &snapshot)
	}

	placed := d.engine.PlaceWith(shift, profile, strategy)
	res.Required = placed.Required
	if placed.Condition == errors.CodeShiftTooShort {
		snapshot := raw.Clone()
		return skip(res, placed.Condition, placed.Message, &snapshot)
	}

	score := d.scorer.Score(placed.Windows, profile)
	res.Windows = placed.Windows
	res.Score = &score
	res.profile = profile
	res.Status = StatusPlaced
	if placed.Condition == errors.CodePartialPlacement {
		res.Status = StatusPartial
		res.Code = placed.Condition
		res.Reason = placed.Message
	}

	if len(shift.ExistingBreaks) > 0 {
		baseline := d.scorer.Score(shift.ExistingBreaks, profile)
		res.Baseline = &baseline
	}
	return res
}

func skip(res ShiftResult, code errors.Code, reason string, raw *model.RawShiftRecord) ShiftResult {
	res.Status = StatusSkipped
	res.Code = code
	res.Reason = reason
	res.Raw = raw
	return res
}

// Comparison 多个策略的对比结果
type Comparison struct {
	Reports []*BatchReport `json:"reports"`
	Best    string         `json:"best"`
}

// Report 按策略名称取报告
func (c *Comparison) Report(strategy string) *BatchReport {
	for _, r := range c.Reports {
		if r.Strategy == strategy {
			return r
		}
	}
	return nil
}

// Compare 用多个策略分别运行同一批记录。
// 最优策略：整体效率最高，其次冲突最少，再按传入顺序
func (d *Driver) Compare(ctx context.Context, raws []model.RawShiftRecord, profiles *model.ProfileSet, strategies []placement.Strategy) (*Comparison, error) {
	if len(strategies) == 0 {
		strategies = placement.Strategies()
	}

	cmp := &Comparison{Reports: make([]*BatchReport, 0, len(strategies))}
	var best *BatchReport
	for _, s := range strategies {
		report, err := d.RunBatch(ctx, raws, profiles, s)
		if err != nil {
			return nil, err
		}
		cmp.Reports = append(cmp.Reports, report)
		if best == nil || better(report.Summary, best.Summary) {
			best = report
		}
	}
	cmp.Best = best.Strategy
	return cmp, nil
}

func better(a, b stats.Summary) bool {
	if a.OverallEfficiency != b.OverallEfficiency {
		return a.OverallEfficiency > b.OverallEfficiency
	}
	return a.Collisions < b.Collisions
}
