// Package constraints 休息编排规则库
package constraints

import (
	"strconv"
	"strings"

	"github.com/paiban/refrigerio/pkg/placement"
	"github.com/paiban/refrigerio/pkg/stats"
)

// RuleParam 规则参数定义
type RuleParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, array
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Current     string `json:"current"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// RuleDefinition 规则定义
type RuleDefinition struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Type        string      `json:"type"`     // hard 硬约束, soft 软约束
	Category    string      `json:"category"` // 分类
	Description string      `json:"description"`
	Params      []RuleParam `json:"params"`
}

// LibraryResponse 规则库响应
type LibraryResponse struct {
	Strategies []string         `json:"strategies"`
	Library    []RuleDefinition `json:"library"`
}

// GetLibrary 返回规则库，Current 为当前生效的取值
func GetLibrary(cfg *placement.Config, scoring *stats.ScorerConfig) *LibraryResponse {
	def := placement.DefaultConfig()
	defScoring := stats.DefaultScorerConfig()
	if cfg == nil {
		cfg = def
	}
	if scoring == nil {
		scoring = defScoring
	}

	return &LibraryResponse{
		Strategies: placement.StrategyNames(),
		Library: []RuleDefinition{
			// =====================================================
			// 休息次数
			// =====================================================
			{
				Name:        "break_count",
				DisplayName: "休息次数",
				Type:        "hard",
				Category:    "休息次数",
				Description: "按班次时长决定休息次数：不足最短时长不安排，达到第二次休息时长安排两次。",
				Params: []RuleParam{
					intParam("min_shift_minutes", "最短班次(分钟)", def.MinShiftMinutes, cfg.MinShiftMinutes, "0", "1440"),
					intParam("second_break_after_minutes", "第二次休息起始时长(分钟)", def.SecondBreakAfterMinutes, cfg.SecondBreakAfterMinutes, "0", "1440"),
					intParam("additional_break_after_minutes", "额外休息起始时长(分钟)", def.AdditionalBreakAfterMinutes, cfg.AdditionalBreakAfterMinutes, "0", "1440"),
					intParam("additional_breaks", "额外休息次数", def.AdditionalBreaks, cfg.AdditionalBreaks, "0", "4"),
				},
			},
			{
				Name:        "break_length",
				DisplayName: "休息时长",
				Type:        "hard",
				Category:    "休息次数",
				Description: "每类休息的固定时长。",
				Params: []RuleParam{
					intParam("first_break_length", "第一次休息(分钟)", def.FirstBreakLength, cfg.FirstBreakLength, "1", "120"),
					intParam("second_break_length", "第二次休息(分钟)", def.SecondBreakLength, cfg.SecondBreakLength, "1", "120"),
					intParam("additional_break_length", "额外休息(分钟)", def.AdditionalBreakLength, cfg.AdditionalBreakLength, "1", "120"),
				},
			},

			// =====================================================
			// 位置约束
			// =====================================================
			{
				Name:        "shift_margins",
				DisplayName: "上下班间隔",
				Type:        "hard",
				Category:    "位置约束",
				Description: "休息不能紧贴上班或下班。",
				Params: []RuleParam{
					intParam("offset_from_start", "距上班最少(分钟)", def.OffsetFromStart, cfg.OffsetFromStart, "0", "480"),
					intParam("offset_from_end", "距下班最少(分钟)", def.OffsetFromEnd, cfg.OffsetFromEnd, "0", "480"),
				},
			},
			{
				Name:        "min_gap",
				DisplayName: "休息最小间隔",
				Type:        "hard",
				Category:    "位置约束",
				Description: "同一班次两次休息之间的最小间隔，休息之间不得重叠。",
				Params: []RuleParam{
					intParam("min_gap", "最小间隔(分钟)", def.MinGap, cfg.MinGap, "0", "480"),
				},
			},
			{
				Name:        "time_grid",
				DisplayName: "时间网格",
				Type:        "hard",
				Category:    "位置约束",
				Description: "自动编排的开始时间对齐到网格，手工调整不受此限制。",
				Params: []RuleParam{
					intParam("step_minutes", "网格步长(分钟)", def.StepMinutes, cfg.StepMinutes, "1", "60"),
				},
			},

			// =====================================================
			// 策略参数
			// =====================================================
			{
				Name:        "low_load",
				DisplayName: "低负载时段",
				Type:        "soft",
				Category:    "策略参数",
				Description: "optimized 策略优先选择来电量低于班次内峰值该比例的时段。",
				Params: []RuleParam{
					floatParam("low_load_threshold", "低负载阈值", def.LowLoadThreshold, cfg.LowLoadThreshold, "0", "1"),
				},
			},
			{
				Name:        "concentrated_slots",
				DisplayName: "集中休息时段",
				Type:        "soft",
				Category:    "策略参数",
				Description: "concentrated 策略把休息放在最接近这些固定时刻的位置。",
				Params: []RuleParam{
					{
						Name:        "concentrated_slots",
						Type:        "array",
						Description: "固定时刻(HH:MM)",
						Default:     strings.Join(def.ConcentratedSlots, ","),
						Current:     strings.Join(cfg.ConcentratedSlots, ","),
					},
				},
			},

			// =====================================================
			// 评分
			// =====================================================
			{
				Name:        "high_demand",
				DisplayName: "高峰时段",
				Type:        "soft",
				Category:    "评分",
				Description: "来电量达到曲线峰值该比例的时段为高峰，休息与高峰重叠计为冲突。",
				Params: []RuleParam{
					floatParam("high_demand_ratio", "高峰比例", defScoring.HighDemandRatio, scoring.HighDemandRatio, "0", "1"),
					{
						Name:        "unit",
						Type:        "string",
						Description: "冲突计数单位(breaks/minutes)",
						Default:     string(defScoring.Unit),
						Current:     string(scoring.Unit),
					},
				},
			},
		},
	}
}

func intParam(name, desc string, def, current int, min, max string) RuleParam {
	return RuleParam{
		Name:        name,
		Type:        "int",
		Description: desc,
		Default:     strconv.Itoa(def),
		Current:     strconv.Itoa(current),
		Min:         min,
		Max:         max,
	}
}

func floatParam(name, desc string, def, current float64, min, max string) RuleParam {
	return RuleParam{
		Name:        name,
		Type:        "float",
		Description: desc,
		Default:     strconv.FormatFloat(def, 'f', -1, 64),
		Current:     strconv.FormatFloat(current, 'f', -1, 64),
		Min:         min,
		Max:         max,
	}
}
