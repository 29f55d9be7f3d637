package model

// ScoreUnit 冲突计数单位
type ScoreUnit string

const (
	UnitBreaks  ScoreUnit = "breaks"  // 按休息次数
	UnitMinutes ScoreUnit = "minutes" // 按休息分钟数
)

// PlacementResult 休息编排的冲突评分，由休息窗口和曲线推导，不作为事实来源保存
type PlacementResult struct {
	TotalCalls       int       `json:"total_calls"`
	TotalBreaks      int       `json:"total_breaks"`
	BreakMinutes     int       `json:"break_minutes"`
	Collisions       int       `json:"collisions"`        // 落在高峰时段的休息次数
	CollisionMinutes int       `json:"collision_minutes"` // 与高峰时段重叠的分钟数
	Efficiency       float64   `json:"efficiency"`        // 0-100
	Unit             ScoreUnit `json:"unit"`
	PeakCalls        int       `json:"peak_calls"`
	HighDemandSlots  []Clock   `json:"high_demand_slots,omitempty"`
}
