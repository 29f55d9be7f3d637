// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/paiban/refrigerio/internal/repository"
	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/logger"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/paiban/refrigerio/pkg/normalizer"
	"github.com/paiban/refrigerio/pkg/placement"
	"github.com/paiban/refrigerio/pkg/simulation"
	"github.com/paiban/refrigerio/pkg/stats"
	"github.com/paiban/refrigerio/pkg/validator"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 16 << 20

var validate = govalidator.New()

// Store 持久化依赖，未启用数据库时为 nil
type Store struct {
	db     repository.TxDB
	Shifts *repository.ShiftRecordRepository
	Volume *repository.VolumeRepository
	Breaks *repository.BreakRepository
}

// NewStore 基于数据库创建持久化依赖
func NewStore(db repository.TxDB) *Store {
	return &Store{
		db:     db,
		Shifts: repository.NewShiftRecordRepository(db),
		Volume: repository.NewVolumeRepository(db),
		Breaks: repository.NewBreakRepository(db),
	}
}

// InTx 在一个事务中执行 fn，传入的仓储绑定到该事务
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		return fn(&Store{
			db:     s.db,
			Shifts: s.Shifts.WithTx(tx),
			Volume: s.Volume.WithTx(tx),
			Breaks: s.Breaks.WithTx(tx),
		})
	})
}

// Options 处理器依赖
type Options struct {
	Normalizer *normalizer.Normalizer
	Engine     *placement.Engine
	Scorer     *stats.Scorer
	Driver     *simulation.Driver
	Generator  *simulation.GeneratorConfig
	Profiles   *model.ProfileSet // 请求未带曲线时使用
	Strategy   string            // 默认策略
	MaxBatch   int
	Store      *Store
}

// PlannerHandler 休息编排处理器
type PlannerHandler struct {
	normalizer *normalizer.Normalizer
	engine     *placement.Engine
	scorer     *stats.Scorer
	detector   *validator.ConflictDetector
	driver     *simulation.Driver
	generator  *simulation.GeneratorConfig
	profiles   *model.ProfileSet
	strategy   string
	maxBatch   int
	store      *Store
}

// NewPlannerHandler 创建处理器，缺省依赖使用默认配置
func NewPlannerHandler(opts Options) *PlannerHandler {
	h := &PlannerHandler{
		normalizer: opts.Normalizer,
		engine:     opts.Engine,
		scorer:     opts.Scorer,
		driver:     opts.Driver,
		generator:  opts.Generator,
		profiles:   opts.Profiles,
		strategy:   opts.Strategy,
		maxBatch:   opts.MaxBatch,
		store:      opts.Store,
	}
	if h.normalizer == nil {
		h.normalizer = normalizer.New(nil)
	}
	if h.engine == nil {
		h.engine = placement.NewEngine(nil, nil)
	}
	if h.scorer == nil {
		h.scorer = stats.NewScorer(nil)
	}
	if h.driver == nil {
		h.driver = simulation.NewDriver(h.normalizer, h.engine, h.scorer, nil)
	}
	if h.generator == nil {
		h.generator = simulation.DefaultGeneratorConfig()
	}
	if h.strategy == "" {
		h.strategy = placement.StrategyOptimized
	}
	if h.maxBatch <= 0 {
		h.maxBatch = 5000
	}
	h.detector = validator.NewConflictDetector(validator.DetectorConfigFrom(h.engine.Config()))
	return h
}

// Mount 注册 /api/v1 下的路由
func (h *PlannerHandler) Mount(r chi.Router) {
	r.Post("/shifts/normalize", h.Normalize)
	r.Post("/breaks/place", h.Place)
	r.Post("/breaks/score", h.Score)
	r.Post("/breaks/validate", h.Validate)
	r.Post("/breaks/override", h.Override)
	r.Post("/simulation/run", h.RunSimulation)
	r.Post("/simulation/compare", h.CompareSimulation)
	r.Post("/simulation/stored", h.RunStored)
	r.Post("/shifts", h.ImportShifts)
	r.Delete("/shifts/{recordID}", h.DeleteShift)
	r.Get("/breaks/{shiftID}", h.ListBreaks)
	r.Post("/volume", h.ImportVolume)
	r.Post("/profiles/generate", h.GenerateProfiles)
	r.Get("/rules/library", h.RuleLibrary)
}

// decode 解析并校验请求体
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) *errors.AppError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败").WithDetails(err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError 把校验错误转为 VALIDATION_FAILED
func validationError(err error) *errors.AppError {
	fieldErrs, ok := err.(govalidator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.CodeValidationFail, "请求校验失败")
	}
	ve := &errors.ValidationErrors{}
	for _, fe := range fieldErrs {
		ve.Add(fe.Namespace(), fmt.Sprintf("不满足 %s", strings.TrimSpace(fe.Tag()+" "+fe.Param())))
	}
	return ve.ToAppError()
}

// rejectionError 规范化失败转为错误响应
func rejectionError(rej *model.Rejection) *errors.AppError {
	return errors.New(rej.Code, rej.Reason).WithField("record_id", rej.RecordID)
}

// strategyOrDefault 解析策略名，为空时使用默认策略
func (h *PlannerHandler) strategyOrDefault(name string) (placement.Strategy, *errors.AppError) {
	if name == "" {
		name = h.strategy
	}
	s, err := placement.ParseStrategy(name)
	if err != nil {
		return nil, toAppError(err)
	}
	return s, nil
}

// profileSet 请求带曲线时使用请求的曲线，否则使用默认曲线
func (h *PlannerHandler) profileSet(profiles []*model.CallVolumeProfile) (*model.ProfileSet, *errors.AppError) {
	if len(profiles) == 0 {
		if h.profiles == nil {
			return nil, errors.New(errors.CodeProfileNotFound, "未配置话务量曲线")
		}
		return h.profiles, nil
	}
	set, err := model.NewProfileSet(profiles...)
	if err != nil {
		return nil, toAppError(err)
	}
	return set, nil
}

func (h *PlannerHandler) checkBatch(n int) *errors.AppError {
	if n == 0 {
		return errors.InvalidInput("shifts", "至少需要一个班次")
	}
	if n > h.maxBatch {
		return errors.InvalidInput("shifts", fmt.Sprintf("班次数 %d 超过上限 %d", n, h.maxBatch))
	}
	return nil
}

func toAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return errors.Wrap(err, errors.CodeInternal, "内部错误")
}

// storeError 仓储错误转为 DATABASE_ERROR，业务错误原样返回
func storeError(err error, msg string) *errors.AppError {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return errors.Wrap(err, errors.CodeDatabaseError, msg)
}

// respondJSON 发送JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 发送错误响应
func respondError(w http.ResponseWriter, r *http.Request, err *errors.AppError) {
	if err.HTTPStatus >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error().Err(err).Msg("请求处理失败")
	}
	body := map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
	}
	if err.Details != "" {
		body["details"] = err.Details
	}
	if len(err.Fields) > 0 {
		body["fields"] = err.Fields
	}
	respondJSON(w, err.HTTPStatus, body)
}
