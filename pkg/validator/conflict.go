// Package validator 提供休息窗口验证和手工调整
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/paiban/refrigerio/pkg/placement"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictInvalid     ConflictType = "invalid"      // 开始不早于结束
	ConflictOutside     ConflictType = "outside"      // 超出班次
	ConflictOverlap     ConflictType = "overlap"      // 与其他休息重叠
	ConflictMargin      ConflictType = "margin"       // 距上下班太近
	ConflictGap         ConflictType = "gap"          // 两次休息间隔不足
	ConflictMissingKind ConflictType = "missing_kind" // 缺少应有的休息
)

// 严重程度
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType      `json:"type"`
	Severity string            `json:"severity"` // error/warning
	ShiftID  uuid.UUID         `json:"shift_id"`
	Date     string            `json:"date"`
	Message  string            `json:"message"`
	Windows  []model.TimeRange `json:"windows,omitempty"` // 相关的休息窗口
}

// ConflictDetector 冲突检测器
type ConflictDetector struct {
	config *DetectorConfig
}

// DetectorConfig 检测器配置，单位为分钟
type DetectorConfig struct {
	OffsetFromStart int  // 距上班最短时间
	OffsetFromEnd   int  // 距下班最短时间
	MinGap          int  // 两次休息最短间隔
	CheckMargins    bool // 是否检查上下班缓冲和间隔
	CheckRequired   bool // 是否检查休息次数
	rules           *placement.Config
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return DetectorConfigFrom(placement.DefaultConfig())
}

// DetectorConfigFrom 由编排规则生成检测配置
func DetectorConfigFrom(cfg *placement.Config) *DetectorConfig {
	return &DetectorConfig{
		OffsetFromStart: cfg.OffsetFromStart,
		OffsetFromEnd:   cfg.OffsetFromEnd,
		MinGap:          cfg.MinGap,
		CheckMargins:    true,
		CheckRequired:   true,
		rules:           cfg,
	}
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

// Detect 检测一个班次的全部休息窗口
func (d *ConflictDetector) Detect(shift *model.Shift, windows []model.BreakWindow) []Conflict {
	var conflicts []Conflict
	shiftRange := shift.Range()

	for _, w := range windows {
		if w.Start >= w.End {
			conflicts = append(conflicts, d.conflict(shift, ConflictInvalid, SeverityError,
				fmt.Sprintf("休息 %s 开始时间不早于结束时间", w.Range()), w))
			continue
		}
		if !shiftRange.ContainsRange(w.Range()) {
			conflicts = append(conflicts, d.conflict(shift, ConflictOutside, SeverityError,
				fmt.Sprintf("休息 %s 超出班次 %s", w.Range(), shiftRange), w))
			continue
		}
		if d.config.CheckMargins {
			if int(w.Start-shift.Start) < d.config.OffsetFromStart {
				conflicts = append(conflicts, d.conflict(shift, ConflictMargin, SeverityWarning,
					fmt.Sprintf("休息 %s 距上班不足 %d 分钟", w.Range(), d.config.OffsetFromStart), w))
			}
			if int(shift.End-w.End) < d.config.OffsetFromEnd {
				conflicts = append(conflicts, d.conflict(shift, ConflictMargin, SeverityWarning,
					fmt.Sprintf("休息 %s 距下班不足 %d 分钟", w.Range(), d.config.OffsetFromEnd), w))
			}
		}
	}

	sorted := sortByStart(windows)
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Range().Overlaps(cur.Range()) {
			conflicts = append(conflicts, d.conflict(shift, ConflictOverlap, SeverityError,
				fmt.Sprintf("休息 %s 与 %s 重叠", prev.Range(), cur.Range()), prev, cur))
			continue
		}
		if d.config.CheckMargins && int(cur.Start-prev.End) < d.config.MinGap {
			conflicts = append(conflicts, d.conflict(shift, ConflictGap, SeverityWarning,
				fmt.Sprintf("休息 %s 与 %s 间隔不足 %d 分钟", prev.Range(), cur.Range(), d.config.MinGap), prev, cur))
		}
	}

	if d.config.CheckRequired && d.config.rules != nil {
		required := len(d.config.rules.RequiredBreaks(shift.DurationMinutes()))
		if len(windows) < required {
			conflicts = append(conflicts, d.conflict(shift, ConflictMissingKind, SeverityWarning,
				fmt.Sprintf("班次 %s 应有 %d 次休息，实际 %d 次", shiftRange, required, len(windows))))
		}
	}

	return conflicts
}

// HasErrors 是否存在错误级别的冲突
func HasErrors(conflicts []Conflict) bool {
	for _, c := range conflicts {
		if c.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (d *ConflictDetector) conflict(shift *model.Shift, t ConflictType, severity, msg string, windows ...model.BreakWindow) Conflict {
	c := Conflict{
		Type:     t,
		Severity: severity,
		ShiftID:  shift.ID,
		Date:     shift.DateString(),
		Message:  msg,
	}
	for _, w := range windows {
		c.Windows = append(c.Windows, w.Range())
	}
	return c
}

func sortByStart(windows []model.BreakWindow) []model.BreakWindow {
	sorted := make([]model.BreakWindow, len(windows))
	copy(sorted, windows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}
