package validator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
)

// OverrideRequest 手工调整一次休息
type OverrideRequest struct {
	ShiftID  uuid.UUID                `json:"shift_id"`
	Shift    *model.Shift             `json:"shift"`
	Windows  []model.BreakWindow      `json:"windows,omitempty"` // 班次当前的全部休息；为空时使用班次已有休息
	Target   model.BreakWindow        `json:"target"`
	NewRange model.TimeRange          `json:"new_range"`
	Reason   model.ModificationReason `json:"reason"`
	Note     string                   `json:"note,omitempty"`
}

// ApplyOverride 校验并返回调整后的休息窗口，时间原样采用
func ApplyOverride(req OverrideRequest) (model.BreakWindow, error) {
	if !req.Reason.Valid() {
		return model.BreakWindow{}, errors.InvalidOverride(fmt.Sprintf("调整原因 '%s' 无效", req.Reason))
	}
	if req.Shift == nil {
		return model.BreakWindow{}, errors.InvalidOverride("缺少班次")
	}
	if req.ShiftID != uuid.Nil && req.ShiftID != req.Shift.ID {
		return model.BreakWindow{}, errors.InvalidOverride(
			fmt.Sprintf("班次 %s 与请求 %s 不一致", req.Shift.ID, req.ShiftID))
	}

	windows := req.Windows
	if windows == nil {
		windows = req.Shift.ExistingBreaks
	}
	target := indexOf(windows, req.Target)
	if target < 0 {
		return model.BreakWindow{}, errors.InvalidOverride(
			fmt.Sprintf("班次中没有休息 %s", req.Target.Range()))
	}

	r := req.NewRange
	if r.Start >= r.End {
		return model.BreakWindow{}, errors.InvalidOverride(fmt.Sprintf("新时间 %s 开始不早于结束", r))
	}
	if !req.Shift.Range().ContainsRange(r) {
		return model.BreakWindow{}, errors.InvalidOverride(
			fmt.Sprintf("新时间 %s 超出班次 %s", r, req.Shift.Range()))
	}
	for i, w := range windows {
		if i != target && w.Range().Overlaps(r) {
			return model.BreakWindow{}, errors.OverlapViolation(fmt.Sprintf("%s 与 %s", r, w.Range()))
		}
	}

	return model.BreakWindow{
		Kind:   req.Target.Kind,
		Start:  r.Start,
		End:    r.End,
		Reason: req.Reason,
		Note:   req.Note,
	}, nil
}

// ReplaceWindow 返回替换后的新切片，不修改原切片
func ReplaceWindow(windows []model.BreakWindow, target, updated model.BreakWindow) []model.BreakWindow {
	out := make([]model.BreakWindow, len(windows))
	copy(out, windows)
	if i := indexOf(out, target); i >= 0 {
		out[i] = updated
	}
	return out
}

func indexOf(windows []model.BreakWindow, target model.BreakWindow) int {
	for i, w := range windows {
		if w.SameSlot(target) {
			return i
		}
	}
	return -1
}
