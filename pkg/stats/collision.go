// Package stats 提供休息编排的冲突评分
package stats

import (
	"math"

	"github.com/paiban/refrigerio/pkg/model"
)

// ScorerConfig 评分规则
type ScorerConfig struct {
	// HighDemandRatio 来电量达到峰值的该比例即为高峰时段
	HighDemandRatio float64         `yaml:"high_demand_ratio" json:"high_demand_ratio" validate:"gt=0,lte=1"`
	Unit            model.ScoreUnit `yaml:"unit" json:"unit" validate:"oneof=breaks minutes"`
}

// DefaultScorerConfig 默认评分规则：70% 峰值，按休息次数计
func DefaultScorerConfig() *ScorerConfig {
	return &ScorerConfig{
		HighDemandRatio: 0.70,
		Unit:            model.UnitBreaks,
	}
}

// Scorer 冲突评分器
type Scorer struct {
	config *ScorerConfig
}

// NewScorer 创建评分器
func NewScorer(cfg *ScorerConfig) *Scorer {
	if cfg == nil {
		cfg = DefaultScorerConfig()
	}
	return &Scorer{config: cfg}
}

// Config 返回评分规则
func (s *Scorer) Config() *ScorerConfig {
	return s.config
}

// HighDemandSlots 返回高峰时段的下标；峰值为0时没有高峰
func (s *Scorer) HighDemandSlots(profile *model.CallVolumeProfile) []int {
	if profile == nil {
		return nil
	}
	peak := profile.Peak()
	if peak == 0 {
		return nil
	}
	threshold := s.config.HighDemandRatio * float64(peak)
	var out []int
	for i, slot := range profile.Slots {
		if float64(slot.Calls) >= threshold {
			out = append(out, i)
		}
	}
	return out
}

// Score 评估一组休息窗口。没有休息时效率为100
func (s *Scorer) Score(windows []model.BreakWindow, profile *model.CallVolumeProfile) model.PlacementResult {
	result := model.PlacementResult{
		TotalBreaks: len(windows),
		Unit:        s.unit(),
	}

	var high []model.TimeRange
	if profile != nil {
		result.TotalCalls = profile.TotalCalls()
		result.PeakCalls = profile.Peak()
		for _, i := range s.HighDemandSlots(profile) {
			result.HighDemandSlots = append(result.HighDemandSlots, profile.Slots[i].Start)
			high = append(high, profile.SlotRange(i))
		}
	}

	for _, w := range windows {
		result.BreakMinutes += w.Duration()
		collided := false
		for _, r := range high {
			if overlap := r.Intersection(w.Range()); overlap > 0 {
				collided = true
				result.CollisionMinutes += overlap
			}
		}
		if collided {
			result.Collisions++
		}
	}

	if result.Unit == model.UnitMinutes {
		result.Efficiency = Efficiency(result.CollisionMinutes, result.BreakMinutes)
	} else {
		result.Efficiency = Efficiency(result.Collisions, result.TotalBreaks)
	}
	return result
}

func (s *Scorer) unit() model.ScoreUnit {
	if s.config.Unit == model.UnitMinutes {
		return model.UnitMinutes
	}
	return model.UnitBreaks
}

// Efficiency 100 × (1 − collisions / max(1, total))，限制在 [0, 100]
func Efficiency(collisions, total int) float64 {
	denominator := total
	if denominator < 1 {
		denominator = 1
	}
	e := 100 * (1 - float64(collisions)/float64(denominator))
	return math.Max(0, math.Min(100, e))
}

// Summary 一批评分结果的汇总
type Summary struct {
	Shifts            int             `json:"shifts"`
	TotalCalls        int             `json:"total_calls"`
	TotalBreaks       int             `json:"total_breaks"`
	BreakMinutes      int             `json:"break_minutes"`
	Collisions        int             `json:"collisions"`
	CollisionMinutes  int             `json:"collision_minutes"`
	MeanEfficiency    float64         `json:"mean_efficiency"`    // 各班次效率的平均值
	OverallEfficiency float64         `json:"overall_efficiency"` // 按总数计算的效率
	Unit              model.ScoreUnit `json:"unit"`
}

// Aggregate 汇总评分结果；空输入的效率为100
func (s *Scorer) Aggregate(results []model.PlacementResult) Summary {
	summary := Summary{Shifts: len(results), Unit: s.unit()}
	if len(results) == 0 {
		summary.MeanEfficiency = 100
		summary.OverallEfficiency = 100
		return summary
	}

	total := 0.0
	for _, r := range results {
		summary.TotalCalls += r.TotalCalls
		summary.TotalBreaks += r.TotalBreaks
		summary.BreakMinutes += r.BreakMinutes
		summary.Collisions += r.Collisions
		summary.CollisionMinutes += r.CollisionMinutes
		total += r.Efficiency
	}
	summary.MeanEfficiency = total / float64(len(results))

	if summary.Unit == model.UnitMinutes {
		summary.OverallEfficiency = Efficiency(summary.CollisionMinutes, summary.BreakMinutes)
	} else {
		summary.OverallEfficiency = Efficiency(summary.Collisions, summary.TotalBreaks)
	}
	return summary
}
