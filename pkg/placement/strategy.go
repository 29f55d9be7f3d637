package placement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
)

// 策略名称
const (
	StrategyOptimized    = "optimized"
	StrategyDistributed  = "distributed"
	StrategyConcentrated = "concentrated"
)

// Strategy 编排策略接口
type Strategy interface {
	// Name 返回策略名称
	Name() string

	// Rank 对第 i 次休息的候选开始时刻排序，越靠前越优先
	Rank(plan *Plan, i int, candidates []model.Clock) []model.Clock
}

// Plan 单个班次的编排上下文，由引擎构建后只读
type Plan struct {
	Shift   *model.Shift
	Profile *model.CallVolumeProfile
	Config  *Config

	// Window 允许放置休息的区间（扣除上下班缓冲）
	Window model.TimeRange
	Kinds  []model.BreakKind

	// Placed 已经确定的休息窗口
	Placed []model.BreakWindow

	peak int
}

// Length 第 i 次休息的时长
func (p *Plan) Length(i int) int {
	return p.Config.BreakLength(p.Kinds[i])
}

// Peak 班次覆盖时段内的最高来电量
func (p *Plan) Peak() int {
	return p.peak
}

// Load 候选窗口的负载，即重叠时段中的最高来电量
func (p *Plan) Load(start model.Clock, length int) int {
	if p.Profile == nil {
		return 0
	}
	return p.Profile.MaxCallsDuring(model.TimeRange{Start: start, End: start.Add(length)})
}

// HighLoad 负载是否达到低负载阈值以上
func (p *Plan) HighLoad(load int) bool {
	return p.peak > 0 && float64(load) >= p.Config.LowLoadThreshold*float64(p.peak)
}

// Segment 将允许区间等分后第 i 次休息对应的子区间
func (p *Plan) Segment(i int) model.TimeRange {
	n := len(p.Kinds)
	size := p.Window.Duration() / n
	start := p.Window.Start.Add(i * size)
	end := start.Add(size)
	if i == n-1 {
		end = p.Window.End
	}
	return model.TimeRange{Start: start, End: end}
}

// Strategies 返回全部内置策略
func Strategies() []Strategy {
	return []Strategy{
		&OptimizedStrategy{},
		&DistributedStrategy{},
		&ConcentratedStrategy{},
	}
}

// StrategyNames 返回全部内置策略名称
func StrategyNames() []string {
	names := make([]string, 0, 3)
	for _, s := range Strategies() {
		names = append(names, s.Name())
	}
	return names
}

// ParseStrategy 按名称获取策略
func ParseStrategy(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, s := range Strategies() {
		if s.Name() == key {
			return s, nil
		}
	}
	return nil, errors.InvalidInput("strategy",
		fmt.Sprintf("未知策略 '%s'，可选: %s", name, strings.Join(StrategyNames(), ", ")))
}

// rankBy 按 key 升序排序，key 相同时早者优先
func rankBy(candidates []model.Clock, key func(model.Clock) []int) []model.Clock {
	out := make([]model.Clock, len(candidates))
	copy(out, candidates)
	keys := make(map[model.Clock][]int, len(out))
	for _, c := range out {
		keys[c] = key(c)
	}
	sort.SliceStable(out, func(a, b int) bool {
		ka, kb := keys[out[a]], keys[out[b]]
		for i := range ka {
			if ka[i] != kb[i] {
				return ka[i] < kb[i]
			}
		}
		return out[a] < out[b]
	})
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func boolKey(b bool) int {
	if b {
		return 1
	}
	return 0
}
