package placement

import "github.com/paiban/refrigerio/pkg/model"

// ConcentratedStrategy 把休息集中到几个固定时段（上午、下午、晚上）
type ConcentratedStrategy struct{}

// Name 返回策略名称
func (s *ConcentratedStrategy) Name() string {
	return StrategyConcentrated
}

// Rank 离最近的未占用固定时段越近越优先；允许区间内没有固定时段时按均匀分布排序
func (s *ConcentratedStrategy) Rank(plan *Plan, i int, candidates []model.Clock) []model.Clock {
	var anchors []model.Clock
	for _, a := range plan.Config.anchors() {
		if plan.Window.Contains(a) && !claimed(plan.Placed, a) {
			anchors = append(anchors, a)
		}
	}
	if len(anchors) == 0 {
		return (&DistributedStrategy{}).Rank(plan, i, candidates)
	}

	return rankBy(candidates, func(c model.Clock) []int {
		best := -1
		for _, a := range anchors {
			if d := abs(int(c - a)); best < 0 || d < best {
				best = d
			}
		}
		return []int{best}
	})
}

// claimed 固定时段已落在某个已放置的休息内
func claimed(placed []model.BreakWindow, anchor model.Clock) bool {
	for _, w := range placed {
		if w.Start <= anchor && anchor <= w.End {
			return true
		}
	}
	return false
}
