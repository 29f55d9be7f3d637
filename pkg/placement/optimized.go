package placement

import "github.com/paiban/refrigerio/pkg/model"

// OptimizedStrategy 避开高峰：优先低于阈值的时段，其次本段内，再按负载和时间
type OptimizedStrategy struct{}

// Name 返回策略名称
func (s *OptimizedStrategy) Name() string {
	return StrategyOptimized
}

// Rank 排序键：(是否高负载, 是否在本段外, 负载)
func (s *OptimizedStrategy) Rank(plan *Plan, i int, candidates []model.Clock) []model.Clock {
	length := plan.Length(i)
	segment := plan.Segment(i)
	return rankBy(candidates, func(c model.Clock) []int {
		load := plan.Load(c, length)
		return []int{
			boolKey(plan.HighLoad(load)),
			boolKey(!segment.Contains(c)),
			load,
		}
	})
}
