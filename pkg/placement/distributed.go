package placement

import "github.com/paiban/refrigerio/pkg/model"

// DistributedStrategy 不看负载，把休息均匀铺在允许区间内
type DistributedStrategy struct{}

// Name 返回策略名称
func (s *DistributedStrategy) Name() string {
	return StrategyDistributed
}

// Rank 离等分点越近越优先
func (s *DistributedStrategy) Rank(plan *Plan, i int, candidates []model.Clock) []model.Clock {
	ideal := idealStart(plan, i)
	return rankBy(candidates, func(c model.Clock) []int {
		return []int{abs(int(c - ideal))}
	})
}

// idealStart 第 i 次休息的中心落在允许区间的第 i+1 个 n+1 等分点上
func idealStart(plan *Plan, i int) model.Clock {
	n := len(plan.Kinds)
	center := plan.Window.Start.Add((i + 1) * plan.Window.Duration() / (n + 1))
	return center.Add(-plan.Length(i) / 2)
}
