package handler

import (
	"net/http"
	"time"

	"github.com/paiban/refrigerio/internal/repository"
	"github.com/paiban/refrigerio/pkg/calendar"
	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/logger"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/paiban/refrigerio/pkg/placement"
	"github.com/paiban/refrigerio/pkg/simulation"
)

// SimulationRequest 批量编排请求
type SimulationRequest struct {
	Shifts     []model.RawShiftRecord     `json:"shifts" validate:"required"`
	Profiles   []*model.CallVolumeProfile `json:"profiles,omitempty"`
	Strategy   string                     `json:"strategy,omitempty" validate:"omitempty,oneof=optimized distributed concentrated"`
	Strategies []string                   `json:"strategies,omitempty" validate:"omitempty,dive,oneof=optimized distributed concentrated"`
}

// RunSimulation 用一个策略批量编排
func (h *PlannerHandler) RunSimulation(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.checkBatch(len(req.Shifts)); err != nil {
		respondError(w, r, err)
		return
	}
	strategy, appErr := h.strategyOrDefault(req.Strategy)
	if appErr != nil {
		respondError(w, r, appErr)
		return
	}
	profiles, appErr := h.profileSet(req.Profiles)
	if appErr != nil {
		respondError(w, r, appErr)
		return
	}

	report, err := h.driver.RunBatch(r.Context(), req.Shifts, profiles, strategy)
	if err != nil {
		respondError(w, r, toAppError(err))
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// CompareSimulation 用多个策略编排同一批班次并选出最佳策略
func (h *PlannerHandler) CompareSimulation(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.checkBatch(len(req.Shifts)); err != nil {
		respondError(w, r, err)
		return
	}
	var strategies []placement.Strategy
	for _, name := range req.Strategies {
		s, appErr := h.strategyOrDefault(name)
		if appErr != nil {
			respondError(w, r, appErr)
			return
		}
		strategies = append(strategies, s)
	}
	profiles, appErr := h.profileSet(req.Profiles)
	if appErr != nil {
		respondError(w, r, appErr)
		return
	}

	comparison, err := h.driver.Compare(r.Context(), req.Shifts, profiles, strategies)
	if err != nil {
		respondError(w, r, toAppError(err))
		return
	}
	respondJSON(w, http.StatusOK, comparison)
}

// StoredRequest 对数据库中的班次批量编排
type StoredRequest struct {
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	SkillGroup string `json:"skill_group,omitempty"`
	Strategy   string `json:"strategy,omitempty" validate:"omitempty,oneof=optimized distributed concentrated"`
	Save       bool   `json:"save"` // 保存编排结果
}

// StoredResponse 数据库批量编排响应
type StoredResponse struct {
	Report *simulation.BatchReport `json:"report"`
	Saved  int                     `json:"saved"`
}

// RunStored 读取数据库中的班次和话务量并批量编排
func (h *PlannerHandler) RunStored(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, r, errors.New(errors.CodeDatabaseError, "未启用数据库"))
		return
	}
	var req StoredRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.EndDate < req.StartDate {
		respondError(w, r, errors.InvalidInput("end_date", "结束日期早于开始日期"))
		return
	}
	strategy, appErr := h.strategyOrDefault(req.Strategy)
	if appErr != nil {
		respondError(w, r, appErr)
		return
	}

	ctx := r.Context()
	filter := repository.DefaultListFilter().
		WithDateRange(req.StartDate, req.EndDate).
		WithSkillGroup(req.SkillGroup).
		WithLimit(h.maxBatch)
	records, total, err := h.store.Shifts.List(ctx, filter)
	if err != nil {
		respondError(w, r, errors.Wrap(err, errors.CodeDatabaseError, "读取班次失败"))
		return
	}
	if total > len(records) {
		respondError(w, r, errors.InvalidInput("start_date",
			"日期范围内的班次超过单次上限，请缩小范围"))
		return
	}
	if appErr := h.checkBatch(len(records)); appErr != nil {
		respondError(w, r, appErr)
		return
	}

	profiles, err := h.store.Volume.Profiles(ctx, 0)
	if err != nil {
		respondError(w, r, toAppError(err))
		return
	}
	if profiles.Len() == 0 && h.profiles != nil {
		profiles = h.profiles
	}

	report, err := h.driver.RunBatch(ctx, records, profiles, strategy)
	if err != nil {
		respondError(w, r, toAppError(err))
		return
	}

	resp := StoredResponse{Report: report}
	if req.Save {
		// 整批在一个事务中保存，任一班次失败则全部回滚
		saved := 0
		if err := h.store.InTx(ctx, func(tx *Store) error {
			for _, res := range report.Results {
				if res.Status == simulation.StatusSkipped {
					continue
				}
				if err := tx.Breaks.Replace(ctx, res.Shift.ID, res.RecordID, report.BatchID, report.Strategy, res.Windows); err != nil {
					return err
				}
				saved++
			}
			return nil
		}); err != nil {
			respondError(w, r, storeError(err, "保存休息失败"))
			return
		}
		resp.Saved = saved
		logger.WithContext(ctx).Info().
			Str("batch_id", report.BatchID).
			Int("saved", resp.Saved).
			Msg("编排结果已保存")
	}
	respondJSON(w, http.StatusOK, resp)
}

// GenerateRequest 演示数据生成请求
type GenerateRequest struct {
	Seed   *int64   `json:"seed,omitempty"`
	Days   []string `json:"days,omitempty"`
	Skills []string `json:"skills,omitempty"`
	Date   string   `json:"date,omitempty"` // 同时生成该日期的班次
	Shifts int      `json:"shifts,omitempty" validate:"gte=0,lte=1000"`
}

// GenerateResponse 演示数据
type GenerateResponse struct {
	Seed     int64                      `json:"seed"`
	Profiles []*model.CallVolumeProfile `json:"profiles"`
	Shifts   []model.RawShiftRecord     `json:"shifts,omitempty"`
}

// GenerateProfiles 用固定种子生成演示话务量曲线和班次
func (h *PlannerHandler) GenerateProfiles(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cfg := *h.generator
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	days := []model.DayType{model.DayWeekday, model.DaySaturday, model.DaySunday, model.DayHoliday}
	if len(req.Days) > 0 {
		days = days[:0:0]
		for _, d := range req.Days {
			day, ok := model.ParseDayType(d)
			if !ok {
				respondError(w, r, errors.InvalidInput("days", "未知的日期类型 '"+d+"'"))
				return
			}
			days = append(days, day)
		}
	}
	skills := req.Skills
	if len(skills) == 0 {
		skills = []string{""}
	}

	gen := simulation.NewSeededGenerator(&cfg)
	set, err := gen.Profiles(days, skills)
	if err != nil {
		respondError(w, r, toAppError(err))
		return
	}
	resp := GenerateResponse{Seed: cfg.Seed, Profiles: set.Profiles()}

	if req.Shifts > 0 {
		date := time.Now()
		if req.Date != "" {
			d, err := calendar.ParseCalendarDate(req.Date)
			if err != nil {
				respondError(w, r, toAppError(err))
				return
			}
			date = d
		}
		resp.Shifts = gen.Shifts(date, req.Shifts)
	}
	respondJSON(w, http.StatusOK, resp)
}
