package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/paiban/refrigerio/internal/repository"
	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/logger"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/paiban/refrigerio/pkg/placement"
	"github.com/paiban/refrigerio/pkg/validator"
)

// NormalizeRequest 规范化请求
type NormalizeRequest struct {
	Shifts []model.RawShiftRecord `json:"shifts" validate:"required"`
}

// NormalizeResponse 规范化响应
type NormalizeResponse struct {
	Shifts     []*model.Shift     `json:"shifts"`
	Rejections []*model.Rejection `json:"rejections"`
}

// Normalize 规范化原始班次记录，不合格记录列在 rejections 中
func (h *PlannerHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.checkBatch(len(req.Shifts)); err != nil {
		respondError(w, r, err)
		return
	}

	shifts, rejections := h.normalizer.NormalizeAll(req.Shifts)
	if shifts == nil {
		shifts = []*model.Shift{}
	}
	if rejections == nil {
		rejections = []*model.Rejection{}
	}
	respondJSON(w, http.StatusOK, NormalizeResponse{Shifts: shifts, Rejections: rejections})
}

// PlaceRequest 单个班次编排请求
type PlaceRequest struct {
	Shift    model.RawShiftRecord     `json:"shift"`
	Profile  *model.CallVolumeProfile `json:"profile,omitempty"`
	Strategy string                   `json:"strategy,omitempty" validate:"omitempty,oneof=optimized distributed concentrated"`
}

// PlaceResponse 单个班次编排响应
type PlaceResponse struct {
	Shift     *model.Shift           `json:"shift"`
	Result    *placement.Result      `json:"result"`
	Score     model.PlacementResult  `json:"score"`
	Baseline  *model.PlacementResult `json:"baseline,omitempty"` // 已有休息的评分
	Conflicts []validator.Conflict   `json:"conflicts,omitempty"`
}

// Place 为单个班次安排休息
func (h *PlannerHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	strategy, appErr := h.strategyOrDefault(req.Strategy)
	if appErr != nil {
		respondError(w, r, appErr)
		return
	}
	shift, profile, appErr := h.resolve(req.Shift, req.Profile)
	if appErr != nil {
		respondError(w, r, appErr)
		return
	}

	result := h.engine.PlaceWith(shift, profile, strategy)
	resp := PlaceResponse{
		Shift:     shift,
		Result:    result,
		Score:     h.scorer.Score(result.Windows, profile),
		Conflicts: h.detector.Detect(shift, result.Windows),
	}
	if len(shift.ExistingBreaks) > 0 {
		baseline := h.scorer.Score(shift.ExistingBreaks, profile)
		resp.Baseline = &baseline
	}
	if !result.Complete() {
		logger.WithContext(r.Context()).Info().
			Str("shift_id", shift.ID.String()).
			Str("condition", string(result.Condition)).
			Msg(result.Message)
	}
	respondJSON(w, http.StatusOK, resp)
}

// WindowsRequest 对给定休息窗口评分或校验
type WindowsRequest struct {
	Shift   model.RawShiftRecord     `json:"shift"`
	Windows []model.BreakWindow      `json:"windows"`
	Profile *model.CallVolumeProfile `json:"profile,omitempty"`
}

// Score 对休息窗口评分；未给出窗口时评估班次已有休息
func (h *PlannerHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req WindowsRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	shift, profile, appErr := h.resolve(req.Shift, req.Profile)
	if appErr != nil {
		respondError(w, r, appErr)
		return
	}

	windows := req.Windows
	if windows == nil {
		windows = shift.ExistingBreaks
	}
	respondJSON(w, http.StatusOK, h.scorer.Score(windows, profile))
}

// ValidateResponse 校验响应
type ValidateResponse struct {
	Valid     bool                 `json:"valid"`
	Conflicts []validator.Conflict `json:"conflicts"`
}

// Validate 检查休息窗口是否满足班次约束
func (h *PlannerHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req WindowsRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	shift, rej := h.normalizer.Normalize(req.Shift)
	if rej != nil {
		respondError(w, r, rejectionError(rej))
		return
	}

	windows := req.Windows
	if windows == nil {
		windows = shift.ExistingBreaks
	}
	conflicts := h.detector.Detect(shift, windows)
	if conflicts == nil {
		conflicts = []validator.Conflict{}
	}
	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:     !validator.HasErrors(conflicts),
		Conflicts: conflicts,
	})
}

// OverrideRequest 手工调整请求
type OverrideRequest struct {
	Shift    model.RawShiftRecord     `json:"shift"`
	Windows  []model.BreakWindow      `json:"windows,omitempty"`
	Target   model.BreakWindow        `json:"target"`
	NewRange model.TimeRange          `json:"new_range"`
	Reason   model.ModificationReason `json:"reason" validate:"required"`
	Note     string                   `json:"note,omitempty" validate:"max=500"`
	BreakID  *uuid.UUID               `json:"break_id,omitempty"` // 已保存的休息，提供时以库中休息为准校验并写回
}

// OverrideResponse 手工调整响应
type OverrideResponse struct {
	Window  model.BreakWindow   `json:"window"`
	Windows []model.BreakWindow `json:"windows"`
	Saved   bool                `json:"saved"`
}

// Override 手工调整一次休息，时间按请求原样采用
func (h *PlannerHandler) Override(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	shift, rej := h.normalizer.Normalize(req.Shift)
	if rej != nil {
		respondError(w, r, rejectionError(rej))
		return
	}

	var resp OverrideResponse
	if req.BreakID != nil {
		if h.store == nil {
			respondError(w, r, errors.New(errors.CodeDatabaseError, "未启用数据库，无法保存调整"))
			return
		}
		if err := h.store.InTx(r.Context(), func(tx *Store) error {
			saved, err := overrideStored(r.Context(), tx, shift, *req.BreakID, req)
			resp = saved
			return err
		}); err != nil {
			respondError(w, r, storeError(err, "保存调整失败"))
			return
		}
	} else {
		updated, err := validator.ApplyOverride(validator.OverrideRequest{
			Shift:    shift,
			Windows:  req.Windows,
			Target:   req.Target,
			NewRange: req.NewRange,
			Reason:   req.Reason,
			Note:     req.Note,
		})
		if err != nil {
			respondError(w, r, toAppError(err))
			return
		}
		windows := req.Windows
		if windows == nil {
			windows = shift.ExistingBreaks
		}
		resp = OverrideResponse{
			Window:  updated,
			Windows: validator.ReplaceWindow(windows, req.Target, updated),
		}
	}

	logger.WithContext(r.Context()).Info().
		Str("shift_id", shift.ID.String()).
		Str("reason", string(req.Reason)).
		Str("range", resp.Window.Range().String()).
		Bool("saved", resp.Saved).
		Msg("休息已手工调整")
	respondJSON(w, http.StatusOK, resp)
}

// overrideStored 对已保存的休息做调整：以库中同一策略下的休息为准校验，再写回
func overrideStored(ctx context.Context, tx *Store, shift *model.Shift, breakID uuid.UUID, req OverrideRequest) (OverrideResponse, error) {
	stored, err := tx.Breaks.ListByShift(ctx, shift.ID, "")
	if err != nil {
		return OverrideResponse{}, err
	}
	target, ok := repository.Find(stored, breakID)
	if !ok {
		return OverrideResponse{}, errors.InvalidOverride(
			fmt.Sprintf("休息 %s 不属于班次 %s", breakID, shift.ID))
	}
	if !target.Window.SameSlot(req.Target) {
		return OverrideResponse{}, errors.InvalidOverride(
			fmt.Sprintf("休息 %s 当前为 %s，与调整目标 %s 不一致", breakID, target.Window.Range(), req.Target.Range()))
	}

	var siblings []repository.StoredBreak
	for _, b := range stored {
		if b.Strategy == target.Strategy {
			siblings = append(siblings, b)
		}
	}
	windows := repository.Windows(siblings)

	updated, err := validator.ApplyOverride(validator.OverrideRequest{
		Shift:    shift,
		Windows:  windows,
		Target:   target.Window,
		NewRange: req.NewRange,
		Reason:   req.Reason,
		Note:     req.Note,
	})
	if err != nil {
		return OverrideResponse{}, err
	}
	if err := tx.Breaks.Update(ctx, shift.ID, breakID, updated); err != nil {
		return OverrideResponse{}, err
	}
	return OverrideResponse{
		Window:  updated,
		Windows: validator.ReplaceWindow(windows, target.Window, updated),
		Saved:   true,
	}, nil
}

// resolve 规范化班次并找到对应曲线
func (h *PlannerHandler) resolve(raw model.RawShiftRecord, profile *model.CallVolumeProfile) (*model.Shift, *model.CallVolumeProfile, *errors.AppError) {
	shift, rej := h.normalizer.Normalize(raw)
	if rej != nil {
		return nil, nil, rejectionError(rej)
	}
	if profile != nil {
		if err := profile.Validate(); err != nil {
			return nil, nil, toAppError(err)
		}
		return shift, profile, nil
	}
	set, appErr := h.profileSet(nil)
	if appErr != nil {
		return nil, nil, appErr
	}
	found, err := set.Lookup(shift.DayType, shift.SkillGroup)
	if err != nil {
		return nil, nil, toAppError(err)
	}
	return shift, found, nil
}
