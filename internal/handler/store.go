package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/paiban/refrigerio/internal/repository"
	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/logger"
	"github.com/paiban/refrigerio/pkg/model"
)

// ImportShiftsRequest 班次导入请求
type ImportShiftsRequest struct {
	Shifts []model.RawShiftRecord `json:"shifts" validate:"required"`
}

// ImportShiftsResponse 班次导入响应；rejections 中的记录同样已保存，编排时会被跳过
type ImportShiftsResponse struct {
	Saved      int                `json:"saved"`
	Rejections []*model.Rejection `json:"rejections"`
}

// ImportShifts 按记录ID保存原始班次，整批在一个事务中写入
func (h *PlannerHandler) ImportShifts(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, r, errors.New(errors.CodeDatabaseError, "未启用数据库"))
		return
	}
	var req ImportShiftsRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.checkBatch(len(req.Shifts)); err != nil {
		respondError(w, r, err)
		return
	}
	for i, rec := range req.Shifts {
		if strings.TrimSpace(rec.ID) == "" {
			respondError(w, r, errors.InvalidInput(fmt.Sprintf("shifts[%d].id", i), "保存的班次记录必须有ID"))
			return
		}
	}

	if err := h.store.InTx(r.Context(), func(tx *Store) error {
		return tx.Shifts.SaveAll(r.Context(), req.Shifts)
	}); err != nil {
		respondError(w, r, storeError(err, "保存班次失败"))
		return
	}

	_, rejections := h.normalizer.NormalizeAll(req.Shifts)
	if rejections == nil {
		rejections = []*model.Rejection{}
	}
	logger.WithContext(r.Context()).Info().
		Int("saved", len(req.Shifts)).
		Int("rejected", len(rejections)).
		Msg("班次已导入")
	respondJSON(w, http.StatusOK, ImportShiftsResponse{Saved: len(req.Shifts), Rejections: rejections})
}

// DeleteShift 删除班次记录及其已保存的休息
func (h *PlannerHandler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, r, errors.New(errors.CodeDatabaseError, "未启用数据库"))
		return
	}
	recordID := chi.URLParam(r, "recordID")

	var breaks int64
	if err := h.store.InTx(r.Context(), func(tx *Store) error {
		n, err := tx.Breaks.DeleteByRecord(r.Context(), recordID)
		if err != nil {
			return err
		}
		breaks = n
		return tx.Shifts.Delete(r.Context(), recordID)
	}); err != nil {
		respondError(w, r, storeError(err, "删除班次失败"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"record_id":      recordID,
		"deleted_breaks": breaks,
	})
}

// ListBreaksResponse 已保存的休息
type ListBreaksResponse struct {
	Breaks  []repository.StoredBreak `json:"breaks"`
	Windows []model.BreakWindow      `json:"windows"`
}

// ListBreaks 查询班次已保存的休息，可按 strategy 过滤
func (h *PlannerHandler) ListBreaks(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, r, errors.New(errors.CodeDatabaseError, "未启用数据库"))
		return
	}
	shiftID, err := uuid.Parse(chi.URLParam(r, "shiftID"))
	if err != nil {
		respondError(w, r, errors.InvalidInput("shift_id", "无效的班次ID"))
		return
	}

	stored, err := h.store.Breaks.ListByShift(r.Context(), shiftID, r.URL.Query().Get("strategy"))
	if err != nil {
		respondError(w, r, storeError(err, "查询休息失败"))
		return
	}
	if stored == nil {
		stored = []repository.StoredBreak{}
	}
	respondJSON(w, http.StatusOK, ListBreaksResponse{Breaks: stored, Windows: repository.Windows(stored)})
}

// ImportVolumeRequest 话务量导入请求
type ImportVolumeRequest struct {
	Records []model.VolumeRecord `json:"records" validate:"required,min=1"`
}

// ImportVolume 写入话务量记录，先按曲线规则校验，整批在一个事务中写入
func (h *PlannerHandler) ImportVolume(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, r, errors.New(errors.CodeDatabaseError, "未启用数据库"))
		return
	}
	var req ImportVolumeRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	set, err := model.BuildProfiles(req.Records, 0)
	if err != nil {
		respondError(w, r, toAppError(err))
		return
	}

	if err := h.store.InTx(r.Context(), func(tx *Store) error {
		return tx.Volume.Upsert(r.Context(), req.Records)
	}); err != nil {
		respondError(w, r, storeError(err, "保存话务量失败"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"saved":    len(req.Records),
		"profiles": set.Len(),
	})
}
