package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/paiban/refrigerio/pkg/model"
	"github.com/teambition/rrule-go"
)

// ruleEpoch 未指定 DTSTART 的节假日规则从这一天开始展开
var ruleEpoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// Calendar 带节假日的日历，创建后只读
type Calendar struct {
	dates map[string]struct{}
	rules []*rrule.RRule
}

// NewCalendar 由固定日期（YYYY-MM-DD）和 RRULE 规则创建日历
func NewCalendar(dates []string, rules []string) (*Calendar, error) {
	c := &Calendar{dates: make(map[string]struct{}, len(dates))}
	for _, d := range dates {
		t, err := ParseCalendarDate(d)
		if err != nil {
			return nil, err
		}
		c.dates[t.Format(DateLayout)] = struct{}{}
	}
	for _, r := range rules {
		parsed, err := ParseHolidayRule(r)
		if err != nil {
			return nil, err
		}
		c.rules = append(c.rules, parsed)
	}
	return c, nil
}

// ParseHolidayRule 解析节假日 RRULE，例如 "FREQ=YEARLY;BYMONTH=5;BYMONTHDAY=1"
func ParseHolidayRule(rule string) (*rrule.RRule, error) {
	opt, err := rrule.StrToROption(strings.TrimSpace(rule))
	if err != nil {
		return nil, fmt.Errorf("节假日规则 '%s' 无效: %w", rule, err)
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = ruleEpoch
	}
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("节假日规则 '%s' 无效: %w", rule, err)
	}
	return r, nil
}

// IsHoliday 判断日期是否为节假日
func (c *Calendar) IsHoliday(t time.Time) bool {
	if c == nil {
		return false
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if _, ok := c.dates[day.Format(DateLayout)]; ok {
		return true
	}
	end := day.Add(24*time.Hour - time.Second)
	for _, r := range c.rules {
		if len(r.Between(day, end, true)) > 0 {
			return true
		}
	}
	return false
}

// ClassifyDate 节假日优先，其余按星期几分类
func (c *Calendar) ClassifyDate(t time.Time) model.DayType {
	if c.IsHoliday(t) {
		return model.DayHoliday
	}
	return ClassifyDate(t)
}

// Classify 分类日期字符串；无法解析时归为节假日
func (c *Calendar) Classify(s string) model.DayType {
	t, err := ParseCalendarDate(s)
	if err != nil {
		return model.DayHoliday
	}
	return c.ClassifyDate(t)
}

// HolidayCount 返回固定节假日和规则数量
func (c *Calendar) HolidayCount() (dates, rules int) {
	if c == nil {
		return 0, 0
	}
	return len(c.dates), len(c.rules)
}
