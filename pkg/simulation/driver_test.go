package simulation

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/paiban/refrigerio/pkg/placement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noonProfiles 工作日曲线，12:00-12:30 为高峰
func noonProfiles(t *testing.T) *model.ProfileSet {
	t.Helper()
	p := &model.CallVolumeProfile{DayType: model.DayWeekday, SlotMinutes: 30}
	for c := model.NewClock(7, 0); c < model.NewClock(22, 0); c = c.Add(30) {
		calls := 40
		if c == model.NewClock(12, 0) {
			calls = 200
		}
		p.Slots = append(p.Slots, model.TimeSlot{Start: c, Calls: calls})
	}
	set, err := model.NewProfileSet(p)
	require.NoError(t, err)
	return set
}

func sampleRecords() []model.RawShiftRecord {
	return []model.RawShiftRecord{
		{ID: "A1", AgentName: "Ana", Date: "2025-05-08", Schedule: "08:00 a 17:00"},
		{ID: "A2", AgentName: "Luis", Date: "2025-05-08"},                                 // 缺少时间
		{ID: "A3", AgentName: "Rosa", Date: "2025-05-08", StartTime: "09:00", EndTime: "11:00"}, // 太短
		{ID: "A4", AgentName: "Juan", Date: "2025-05-10", Schedule: "08:00 a 17:00"},      // 周六没有曲线
		{ID: "A5", AgentName: "Eva", Date: "2025-05-08", StartTime: "10:00", EndTime: "14:00",
			Breaks: []model.RawBreak{{Start: "12:00", End: "12:15"}}},
	}
}

func TestDriver_RunBatch(t *testing.T) {
	driver := NewDriver(nil, nil, nil, &Config{Workers: 3})

	report, err := driver.RunBatch(context.Background(), sampleRecords(), noonProfiles(t), &placement.OptimizedStrategy{})
	require.NoError(t, err)

	require.Len(t, report.Results, 5)
	for i, res := range report.Results {
		assert.Equal(t, i, res.Index, "结果按输入顺序")
	}

	assert.Equal(t, StatusPlaced, report.Results[0].Status)
	assert.Len(t, report.Results[0].Windows, 2)

	assert.Equal(t, StatusSkipped, report.Results[1].Status)
	assert.Equal(t, errors.CodeMissingTimeRange, report.Results[1].Code)
	require.NotNil(t, report.Results[1].Raw)
	assert.Equal(t, "Luis", report.Results[1].Raw.AgentName)

	assert.Equal(t, errors.CodeShiftTooShort, report.Results[2].Code)
	assert.Equal(t, errors.CodeProfileNotFound, report.Results[3].Code)

	assert.Equal(t, StatusPlaced, report.Results[4].Status)
	require.NotNil(t, report.Results[4].Baseline)
	assert.Equal(t, 1, report.Results[4].Baseline.Collisions, "现有休息落在高峰")

	assert.Equal(t, 3, report.Skipped)
	assert.Len(t, report.SkippedShifts(), 3)
	assert.Equal(t, 2, report.Summary.Shifts)
	assert.Equal(t, 3, report.Summary.TotalBreaks)
	assert.Equal(t, 0, report.Summary.Collisions)
	assert.Equal(t, 100.0, report.Summary.OverallEfficiency)

	// 同一条曲线只计一次来电量
	profile, _ := noonProfiles(t).Lookup(model.DayWeekday, "")
	assert.Equal(t, profile.TotalCalls(), report.Summary.TotalCalls)

	require.NotNil(t, report.Baseline)
	assert.Equal(t, 1, report.Baseline.Collisions)
	assert.NotEmpty(t, report.BatchID)
}

func TestDriver_RunBatch_Partial(t *testing.T) {
	cfg := placement.DefaultConfig()
	cfg.OffsetFromStart = 150
	cfg.OffsetFromEnd = 150

	driver := NewDriver(nil, placement.NewEngine(cfg, nil), nil, nil)
	records := []model.RawShiftRecord{{ID: "P1", Date: "2025-05-08", Schedule: "08:00 a 14:00"}}

	report, err := driver.RunBatch(context.Background(), records, noonProfiles(t), &placement.DistributedStrategy{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Partial)
	require.Len(t, report.PartialShifts(), 1)
	partial := report.PartialShifts()[0]
	assert.Equal(t, errors.CodePartialPlacement, partial.Code)
	assert.Equal(t, 2, partial.Required)
	assert.Len(t, partial.Windows, 1)
	assert.Equal(t, 1, report.Summary.Shifts, "部分编排仍参与汇总")
}

func TestDriver_RunBatch_Empty(t *testing.T) {
	report, err := NewDriver(nil, nil, nil, nil).RunBatch(context.Background(), nil, nil, &placement.OptimizedStrategy{})
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, 100.0, report.Summary.OverallEfficiency)
	assert.Nil(t, report.Baseline)
}

func TestDriver_RunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDriver(nil, nil, nil, nil).RunBatch(ctx, sampleRecords(), noonProfiles(t), &placement.OptimizedStrategy{})
	assert.True(t, errors.Is(err, errors.CodeCancelled))

	_, err = NewDriver(nil, nil, nil, nil).RunBatch(context.Background(), sampleRecords(), nil, nil)
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestDriver_Deterministic(t *testing.T) {
	gen := NewSeededGenerator(nil)
	profiles, err := gen.Profiles([]model.DayType{model.DayWeekday}, []string{"", "ventas", "soporte"})
	require.NoError(t, err)
	records := gen.Shifts(time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC), 40)

	one := NewDriver(nil, nil, nil, &Config{Workers: 1})
	many := NewDriver(nil, nil, nil, &Config{Workers: 8})

	a, err := one.RunBatch(context.Background(), records, profiles, &placement.OptimizedStrategy{})
	require.NoError(t, err)
	b, err := many.RunBatch(context.Background(), records, profiles, &placement.OptimizedStrategy{})
	require.NoError(t, err)

	assert.Equal(t, a.Summary, b.Summary)
	for i := range a.Results {
		assert.Equal(t, a.Results[i].Windows, b.Results[i].Windows)
		assert.Equal(t, a.Results[i].Status, b.Results[i].Status)
	}
}

func TestDriver_Compare(t *testing.T) {
	records := []model.RawShiftRecord{
		{ID: "C1", Date: "2025-05-08", Schedule: "09:00 a 15:00"},
		{ID: "C2", Date: "2025-05-08", Schedule: "10:00 a 15:00"},
	}

	driver := NewDriver(nil, nil, nil, nil)
	cmp, err := driver.Compare(context.Background(), records, noonProfiles(t), nil)
	require.NoError(t, err)

	require.Len(t, cmp.Reports, 3)
	assert.Equal(t, placement.StrategyOptimized, cmp.Best)
	assert.Equal(t, 100.0, cmp.Report(placement.StrategyOptimized).Summary.OverallEfficiency)
	assert.Nil(t, cmp.Report("random"))

	// 每次运行互不影响
	again, err := driver.Compare(context.Background(), records, noonProfiles(t), nil)
	require.NoError(t, err)
	for i := range cmp.Reports {
		assert.Equal(t, cmp.Reports[i].Summary, again.Reports[i].Summary)
	}
}

func TestWriteReport(t *testing.T) {
	report, err := NewDriver(nil, nil, nil, nil).RunBatch(context.Background(), sampleRecords(), noonProfiles(t), &placement.OptimizedStrategy{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, report))
	out := buf.String()
	assert.Contains(t, out, "optimized")
	assert.Contains(t, out, "A2")
	assert.Contains(t, out, string(errors.CodeMissingTimeRange))

	cmp := &Comparison{Reports: []*BatchReport{report}, Best: report.Strategy}
	buf.Reset()
	require.NoError(t, WriteComparison(&buf, cmp))
	assert.Contains(t, buf.String(), "*optimized")
}
