// Package placement 休息窗口编排引擎
package placement

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/paiban/refrigerio/pkg/calendar"
	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
)

// Config 编排规则，时长单位均为分钟
type Config struct {
	// 班次时长阈值
	MinShiftMinutes             int `yaml:"min_shift_minutes" json:"min_shift_minutes" validate:"gte=0,lte=1440"`
	SecondBreakAfterMinutes     int `yaml:"second_break_after_minutes" json:"second_break_after_minutes" validate:"gtefield=MinShiftMinutes,lte=1440"`
	AdditionalBreakAfterMinutes int `yaml:"additional_break_after_minutes" json:"additional_break_after_minutes" validate:"gtefield=SecondBreakAfterMinutes,lte=1440"`

	// 每类休息的固定时长
	FirstBreakLength      int `yaml:"first_break_length" json:"first_break_length" validate:"gte=1,lte=120"`
	SecondBreakLength     int `yaml:"second_break_length" json:"second_break_length" validate:"gte=1,lte=120"`
	AdditionalBreakLength int `yaml:"additional_break_length" json:"additional_break_length" validate:"gte=1,lte=120"`
	AdditionalBreaks      int `yaml:"additional_breaks" json:"additional_breaks" validate:"gte=0,lte=4"`

	// 间隔约束
	OffsetFromStart int `yaml:"offset_from_start" json:"offset_from_start" validate:"gte=0,lte=480"`
	OffsetFromEnd   int `yaml:"offset_from_end" json:"offset_from_end" validate:"gte=0,lte=480"`
	MinGap          int `yaml:"min_gap" json:"min_gap" validate:"gte=0,lte=480"`
	StepMinutes     int `yaml:"step_minutes" json:"step_minutes" validate:"gte=1,lte=60"`

	// LowLoadThreshold 低负载阈值，相对班次内峰值
	LowLoadThreshold float64 `yaml:"low_load_threshold" json:"low_load_threshold" validate:"gt=0,lte=1"`

	// ConcentratedSlots 集中策略使用的固定时段
	ConcentratedSlots []string `yaml:"concentrated_slots" json:"concentrated_slots" validate:"dive,required"`
}

// DefaultConfig 默认编排规则
func DefaultConfig() *Config {
	return &Config{
		MinShiftMinutes:             240,
		SecondBreakAfterMinutes:     360,
		AdditionalBreakAfterMinutes: 480,
		FirstBreakLength:            15,
		SecondBreakLength:           15,
		AdditionalBreakLength:       10,
		AdditionalBreaks:            0,
		OffsetFromStart:             60,
		OffsetFromEnd:               60,
		MinGap:                      60,
		StepMinutes:                 15,
		LowLoadThreshold:            0.70,
		ConcentratedSlots:           []string{"10:30", "15:30", "19:00"},
	}
}

var validate = validator.New()

// Validate 检查规则取值
func (c *Config) Validate() error {
	ve := &errors.ValidationErrors{}

	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				ve.Add(fe.Field(), fmt.Sprintf("不满足 %s=%s", fe.Tag(), fe.Param()))
			}
		} else {
			return errors.Wrap(err, errors.CodeValidationFail, "编排规则无效")
		}
	}

	for i, slot := range c.ConcentratedSlots {
		if _, err := calendar.ParseClock(slot); err != nil {
			ve.Add(fmt.Sprintf("ConcentratedSlots[%d]", i), err.Error())
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// RequiredBreaks 按班次时长返回需要安排的休息类型，按时间先后排列
func (c *Config) RequiredBreaks(durationMinutes int) []model.BreakKind {
	if durationMinutes < c.MinShiftMinutes {
		return nil
	}
	kinds := []model.BreakKind{model.BreakPrimary}
	if durationMinutes >= c.SecondBreakAfterMinutes {
		kinds = append(kinds, model.BreakCompensatory)
	}
	if c.AdditionalBreaks > 0 && durationMinutes >= c.AdditionalBreakAfterMinutes {
		for i := 0; i < c.AdditionalBreaks; i++ {
			kinds = append(kinds, model.BreakAdditional)
		}
	}
	return kinds
}

// BreakLength 返回某类休息的时长
func (c *Config) BreakLength(kind model.BreakKind) int {
	switch kind {
	case model.BreakPrimary:
		return c.FirstBreakLength
	case model.BreakCompensatory:
		return c.SecondBreakLength
	default:
		return c.AdditionalBreakLength
	}
}

// anchors 解析集中策略的固定时段，无效项跳过
func (c *Config) anchors() []model.Clock {
	out := make([]model.Clock, 0, len(c.ConcentratedSlots))
	for _, s := range c.ConcentratedSlots {
		if clock, err := calendar.ParseClock(s); err == nil {
			out = append(out, clock)
		}
	}
	return out
}
