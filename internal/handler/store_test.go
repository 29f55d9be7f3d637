package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/paiban/refrigerio/internal/database"
	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/paiban/refrigerio/pkg/normalizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var breakColumns = []string{
	"id", "shift_id", "record_id", "batch_id", "strategy", "kind", "start_min", "end_min", "reason", "note",
}

var shiftColumns = []string{
	"record_id", "agent_name", "work_date", "start_time", "end_time", "schedule", "skill_group", "breaks",
}

// newStoreRouter 带 sqlmock 数据库的路由
func newStoreRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	set, err := model.NewProfileSet(noonProfile())
	require.NoError(t, err)

	h := NewPlannerHandler(Options{
		Profiles: set,
		MaxBatch: 10,
		Store:    NewStore(&database.DB{DB: sqlDB}),
	})
	r := chi.NewRouter()
	r.Route("/api/v1", h.Mount)
	return r, mock
}

func nineHourID(t *testing.T) uuid.UUID {
	t.Helper()
	shift, rej := normalizer.New(nil).Normalize(nineHour)
	require.Nil(t, rej)
	return shift.ID
}

func TestOverride_Stored(t *testing.T) {
	shiftID := nineHourID(t)
	primaryID, compID, otherID := uuid.New(), uuid.New(), uuid.New()
	primary := model.BreakWindow{Kind: model.BreakPrimary, Start: model.NewClock(10, 0), End: model.NewClock(10, 15)}

	storedRows := func() *sqlmock.Rows {
		return sqlmock.NewRows(breakColumns).
			AddRow(otherID.String(), shiftID.String(), "A1", "b1", "distributed", "primary", 870, 885, "", "").
			AddRow(primaryID.String(), shiftID.String(), "A1", "b2", "optimized", "primary", 600, 615, "", "").
			AddRow(compID.String(), shiftID.String(), "A1", "b2", "optimized", "compensatory", 840, 855, "", "")
	}
	expectList := func(mock sqlmock.Sqlmock) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FROM break_windows")).
			WithArgs(shiftID.String()).
			WillReturnRows(storedRows())
	}

	t.Run("调整后写回", func(t *testing.T) {
		router, mock := newStoreRouter(t)
		expectList(mock)
		mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND shift_id = $2")).
			WithArgs(primaryID.String(), shiftID.String(), 665, 695, "agent_request", "cita", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		rec := post(t, router, "/api/v1/breaks/override", OverrideRequest{
			Shift:    nineHour,
			Target:   primary,
			NewRange: model.TimeRange{Start: model.NewClock(11, 5), End: model.NewClock(11, 35)},
			Reason:   model.ReasonAgentRequest,
			Note:     "cita",
			BreakID:  &primaryID,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp OverrideResponse
		decodeBody(t, rec, &resp)
		assert.True(t, resp.Saved)
		assert.Equal(t, model.NewClock(11, 5), resp.Window.Start)
		require.Len(t, resp.Windows, 2, "只包含同一策略下的休息")
		assert.Equal(t, resp.Window, resp.Windows[0])
		assert.Equal(t, model.NewClock(14, 0), resp.Windows[1].Start)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("与库中休息重叠", func(t *testing.T) {
		router, mock := newStoreRouter(t)
		expectList(mock)
		mock.ExpectRollback()

		// 请求只带目标窗口，库中 14:00 的休息仍参与校验
		rec := post(t, router, "/api/v1/breaks/override", OverrideRequest{
			Shift:    nineHour,
			Windows:  []model.BreakWindow{primary},
			Target:   primary,
			NewRange: model.TimeRange{Start: model.NewClock(14, 0), End: model.NewClock(14, 15)},
			Reason:   model.ReasonOther,
			BreakID:  &primaryID,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, errors.CodeOverlapViolation, errorCode(t, rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("休息不属于班次", func(t *testing.T) {
		router, mock := newStoreRouter(t)
		expectList(mock)
		mock.ExpectRollback()

		foreign := uuid.New()
		rec := post(t, router, "/api/v1/breaks/override", OverrideRequest{
			Shift:    nineHour,
			Target:   primary,
			NewRange: model.TimeRange{Start: model.NewClock(11, 0), End: model.NewClock(11, 15)},
			Reason:   model.ReasonOther,
			BreakID:  &foreign,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, errors.CodeInvalidOverride, errorCode(t, rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("目标与库中不一致", func(t *testing.T) {
		router, mock := newStoreRouter(t)
		expectList(mock)
		mock.ExpectRollback()

		rec := post(t, router, "/api/v1/breaks/override", OverrideRequest{
			Shift:    nineHour,
			Target:   model.BreakWindow{Kind: model.BreakPrimary, Start: model.NewClock(9, 0), End: model.NewClock(9, 15)},
			NewRange: model.TimeRange{Start: model.NewClock(11, 0), End: model.NewClock(11, 15)},
			Reason:   model.ReasonOther,
			BreakID:  &primaryID,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, errors.CodeInvalidOverride, errorCode(t, rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRunStored_Save(t *testing.T) {
	expectBatch := func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM shift_records")).
			WithArgs("2025-05-08", "2025-05-08").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery(regexp.QuoteMeta("FROM shift_records")).
			WithArgs("2025-05-08", "2025-05-08", 10, 0).
			WillReturnRows(sqlmock.NewRows(shiftColumns).
				AddRow("S1", "Ana", "2025-05-08", "", "", "08:00 a 17:00", "", []byte("[]")).
				AddRow("S2", "Luis", "2025-05-08", "09:00", "18:00", "", "", []byte("[]")))
		mock.ExpectQuery(regexp.QuoteMeta("FROM call_volume")).
			WillReturnRows(sqlmock.NewRows([]string{"day_type", "skill", "slot_start", "calls"}))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM break_windows")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO break_windows")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO break_windows")).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	req := StoredRequest{StartDate: "2025-05-08", EndDate: "2025-05-08", Save: true}

	t.Run("整批提交", func(t *testing.T) {
		router, mock := newStoreRouter(t)
		expectBatch(mock)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM break_windows")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO break_windows")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO break_windows")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		rec := post(t, router, "/api/v1/simulation/stored", req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp StoredResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, 2, resp.Saved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("第二个班次失败全部回滚", func(t *testing.T) {
		router, mock := newStoreRouter(t)
		expectBatch(mock)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM break_windows")).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		rec := post(t, router, "/api/v1/simulation/stored", req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, errors.CodeDatabaseError, errorCode(t, rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestImportShifts(t *testing.T) {
	t.Run("整批保存", func(t *testing.T) {
		router, mock := newStoreRouter(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shift_records")).
			WithArgs("A1", "Ana", "2025-05-08", "", "", "08:00 a 17:00", "", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shift_records")).
			WithArgs("A2", "Luis", "2025-05-08", "", "", "", "", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		rec := post(t, router, "/api/v1/shifts", ImportShiftsRequest{Shifts: []model.RawShiftRecord{
			nineHour,
			{ID: "A2", AgentName: "Luis", Date: "2025-05-08"},
		}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp ImportShiftsResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, 2, resp.Saved)
		require.Len(t, resp.Rejections, 1)
		assert.Equal(t, "A2", resp.Rejections[0].RecordID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("缺少ID", func(t *testing.T) {
		router, mock := newStoreRouter(t)
		rec := post(t, router, "/api/v1/shifts", ImportShiftsRequest{Shifts: []model.RawShiftRecord{
			{Date: "2025-05-08", Schedule: "08:00 a 17:00"},
		}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errors.CodeInvalidInput, errorCode(t, rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("写入失败回滚", func(t *testing.T) {
		router, mock := newStoreRouter(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shift_records")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shift_records")).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		rec := post(t, router, "/api/v1/shifts", ImportShiftsRequest{Shifts: []model.RawShiftRecord{
			nineHour,
			{ID: "A2", Date: "2025-05-08"},
		}})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, errors.CodeDatabaseError, errorCode(t, rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestImportVolume(t *testing.T) {
	router, mock := newStoreRouter(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO call_volume")).
		WithArgs("Hábil", "", 420, 40).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO call_volume")).
		WithArgs("Hábil", "", 450, 55).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec := post(t, router, "/api/v1/volume", ImportVolumeRequest{Records: []model.VolumeRecord{
		{DayType: model.DayWeekday, SlotStart: model.NewClock(7, 0), Calls: 40},
		{DayType: model.DayWeekday, SlotStart: model.NewClock(7, 30), Calls: 55},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"saved":2,"profiles":1}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())

	rec = post(t, router, "/api/v1/volume", ImportVolumeRequest{Records: []model.VolumeRecord{
		{DayType: model.DayWeekday, SlotStart: model.NewClock(7, 0), Calls: -1},
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeInvalidProfile, errorCode(t, rec))
}

func TestDeleteShift(t *testing.T) {
	t.Run("删除班次和休息", func(t *testing.T) {
		router, mock := newStoreRouter(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM break_windows WHERE record_id = $1")).
			WithArgs("A1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shift_records WHERE record_id = $1")).
			WithArgs("A1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/shifts/A1", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"record_id":"A1","deleted_breaks":2}`, rec.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("记录不存在", func(t *testing.T) {
		router, mock := newStoreRouter(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM break_windows")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shift_records")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/shifts/X9", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errors.CodeNotFound, errorCode(t, rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListBreaks(t *testing.T) {
	router, mock := newStoreRouter(t)
	shiftID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE shift_id = $1 AND strategy = $2")).
		WithArgs(shiftID.String(), "optimized").
		WillReturnRows(sqlmock.NewRows(breakColumns).
			AddRow(uuid.New().String(), shiftID.String(), "A1", "b1", "optimized", "primary", 600, 615, "", ""))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/breaks/"+shiftID.String()+"?strategy=optimized", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ListBreaksResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Breaks, 1)
	assert.Equal(t, shiftID, resp.Breaks[0].ShiftID)
	assert.Equal(t, model.NewClock(10, 0), resp.Windows[0].Start)
	assert.NoError(t, mock.ExpectationsWereMet())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/breaks/no-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreEndpoints_WithoutDatabase(t *testing.T) {
	router := newRouter(t)
	id := uuid.New()

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"导入班次", http.MethodPost, "/api/v1/shifts", `{"shifts":[]}`},
		{"导入话务量", http.MethodPost, "/api/v1/volume", `{"records":[]}`},
		{"删除班次", http.MethodDelete, "/api/v1/shifts/A1", nil},
		{"查询休息", http.MethodGet, "/api/v1/breaks/" + id.String(), nil},
		{"保存调整", http.MethodPost, "/api/v1/breaks/override", OverrideRequest{
			Shift:    nineHour,
			Target:   model.BreakWindow{Kind: model.BreakPrimary, Start: model.NewClock(10, 0), End: model.NewClock(10, 15)},
			NewRange: model.TimeRange{Start: model.NewClock(11, 0), End: model.NewClock(11, 15)},
			Reason:   model.ReasonOther,
			BreakID:  &id,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if tt.method == http.MethodPost {
				rec = post(t, router, tt.path, tt.body)
			} else {
				router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			}
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, errors.CodeDatabaseError, errorCode(t, rec))
		})
	}
}
