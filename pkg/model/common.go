// Package model 定义休息编排引擎的核心数据模型
package model

import (
	"fmt"
	"time"
)

// MinutesPerDay 一天的分钟数，也是 Clock 的上界（24:00）
const MinutesPerDay = 24 * 60

// Clock 一天内的时刻，单位为自零点起的分钟数
type Clock int

// NewClock 由小时和分钟创建时刻
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ClockOf 取 time.Time 的时刻部分
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

// Hour 小时
func (c Clock) Hour() int {
	return int(c) / 60
}

// Minute 分钟
func (c Clock) Minute() int {
	return int(c) % 60
}

// Add 增加分钟数
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// Valid 是否落在 [00:00, 24:00] 内
func (c Clock) Valid() bool {
	return c >= 0 && c <= MinutesPerDay
}

// On 将时刻放到指定日期上
func (c Clock) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, date.Location())
}

// String 返回 HH:MM
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalText 以 HH:MM 序列化
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText 严格解析 HH:MM（小时可为一位），24:00 表示一天结束
func (c *Clock) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "24:00" {
		*c = MinutesPerDay
		return nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return fmt.Errorf("时刻 '%s' 格式无效，应为 HH:MM", s)
	}
	*c = ClockOf(t)
	return nil
}

// TimeRange 同一天内的半开时间区间 [Start, End)
type TimeRange struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// Duration 返回区间长度（分钟）
func (tr TimeRange) Duration() int {
	return int(tr.End - tr.Start)
}

// Overlaps 检查两个区间是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start < other.End && other.Start < tr.End
}

// Contains 检查区间是否包含某个时刻
func (tr TimeRange) Contains(c Clock) bool {
	return c >= tr.Start && c < tr.End
}

// ContainsRange 检查区间是否完全包含另一个区间
func (tr TimeRange) ContainsRange(other TimeRange) bool {
	return other.Start >= tr.Start && other.End <= tr.End
}

// Intersection 返回两个区间重叠部分的长度（分钟）
func (tr TimeRange) Intersection(other TimeRange) int {
	start, end := tr.Start, tr.End
	if other.Start > start {
		start = other.Start
	}
	if other.End < end {
		end = other.End
	}
	if end <= start {
		return 0
	}
	return int(end - start)
}

// String 返回 HH:MM-HH:MM
func (tr TimeRange) String() string {
	return tr.Start.String() + "-" + tr.End.String()
}

// DayType 日期类型，用于选择话务量曲线
type DayType string

const (
	DayWeekday  DayType = "Hábil"   // 工作日
	DaySaturday DayType = "Sábado"  // 周六
	DaySunday   DayType = "Domingo" // 周日
	DayHoliday  DayType = "Feriado" // 节假日
)

// ParseDayType 解析日期类型，同时接受西语标签和英文别名
func ParseDayType(s string) (DayType, bool) {
	switch s {
	case string(DayWeekday), "Habil", "habil", "hábil", "weekday":
		return DayWeekday, true
	case string(DaySaturday), "Sabado", "sabado", "sábado", "saturday":
		return DaySaturday, true
	case string(DaySunday), "domingo", "sunday":
		return DaySunday, true
	case string(DayHoliday), "feriado", "holiday":
		return DayHoliday, true
	}
	return "", false
}
