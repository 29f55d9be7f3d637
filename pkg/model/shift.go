package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/paiban/refrigerio/pkg/errors"
)

// Shift 一名坐席在某一天的班次，只由规范化器创建
type Shift struct {
	ID             uuid.UUID     `json:"id"`
	RecordID       string        `json:"record_id,omitempty"`
	AgentName      string        `json:"agent_name"`
	SkillGroup     string        `json:"skill_group,omitempty"`
	Date           time.Time     `json:"date"`
	Start          Clock         `json:"start"`
	End            Clock         `json:"end"`
	DayType        DayType       `json:"day_type"`
	Schedule       string        `json:"schedule,omitempty"` // 原始排班描述
	ExistingBreaks []BreakWindow `json:"existing_breaks,omitempty"`
}

// Range 返回班次区间
func (s *Shift) Range() TimeRange {
	return TimeRange{Start: s.Start, End: s.End}
}

// DurationMinutes 返回班次时长（分钟）
func (s *Shift) DurationMinutes() int {
	return int(s.End - s.Start)
}

// DurationHours 返回班次时长（小时）
func (s *Shift) DurationHours() float64 {
	return float64(s.DurationMinutes()) / 60.0
}

// DateString 返回 YYYY-MM-DD
func (s *Shift) DateString() string {
	return s.Date.Format("2006-01-02")
}

// BreakKind 休息类型
type BreakKind string

const (
	BreakPrimary      BreakKind = "primary"      // 第一次休息
	BreakCompensatory BreakKind = "compensatory" // 第二次休息
	BreakAdditional   BreakKind = "additional"   // 额外休息
)

// ModificationReason 手工调整原因
type ModificationReason string

const (
	ReasonScheduleAdjustment ModificationReason = "schedule_adjustment"
	ReasonEmergency          ModificationReason = "emergency"
	ReasonAgentRequest       ModificationReason = "agent_request"
	ReasonOther              ModificationReason = "other"
)

// Valid 是否属于固定的原因集合
func (r ModificationReason) Valid() bool {
	switch r {
	case ReasonScheduleAdjustment, ReasonEmergency, ReasonAgentRequest, ReasonOther:
		return true
	}
	return false
}

// BreakWindow 分配给班次的一次休息
type BreakWindow struct {
	Kind   BreakKind          `json:"kind"`
	Start  Clock              `json:"start"`
	End    Clock              `json:"end"`
	Reason ModificationReason `json:"reason,omitempty"` // 仅在手工调整后设置
	Note   string             `json:"note,omitempty"`
}

// Range 返回休息区间
func (b BreakWindow) Range() TimeRange {
	return TimeRange{Start: b.Start, End: b.End}
}

// Duration 返回休息时长（分钟）
func (b BreakWindow) Duration() int {
	return int(b.End - b.Start)
}

// Modified 是否被手工调整过
func (b BreakWindow) Modified() bool {
	return b.Reason != ""
}

// SameSlot 判断是否为同一个窗口（类型和时间一致）
func (b BreakWindow) SameSlot(other BreakWindow) bool {
	return b.Kind == other.Kind && b.Start == other.Start && b.End == other.End
}

// RawBreak 数据源中已有的休息
type RawBreak struct {
	Kind  string `json:"kind,omitempty"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// RawShiftRecord 数据源中的原始班次记录，字段都可能缺失
type RawShiftRecord struct {
	ID         string     `json:"id,omitempty"`
	AgentName  string     `json:"agent_name"`
	Date       string     `json:"date"`
	StartTime  string     `json:"start_time,omitempty"`
	EndTime    string     `json:"end_time,omitempty"`
	Schedule   string     `json:"schedule,omitempty"`
	SkillGroup string     `json:"skill_group,omitempty"`
	Breaks     []RawBreak `json:"breaks,omitempty"`
}

// Clone 深拷贝原始记录
func (r RawShiftRecord) Clone() RawShiftRecord {
	c := r
	if r.Breaks != nil {
		c.Breaks = make([]RawBreak, len(r.Breaks))
		copy(c.Breaks, r.Breaks)
	}
	return c
}

// Rejection 被拒绝的原始记录及原因
type Rejection struct {
	RecordID string         `json:"record_id"`
	Code     errors.Code    `json:"code"`
	Reason   string         `json:"reason"`
	Raw      RawShiftRecord `json:"raw"`
}

// Error 实现 error 接口
func (r *Rejection) Error() string {
	return string(r.Code) + ": " + r.Reason
}
