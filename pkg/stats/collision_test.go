package stats

import (
	"testing"

	"github.com/paiban/refrigerio/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noonProfile 08:00-17:00，12:00-12:30 为 200，其余 50
func noonProfile() *model.CallVolumeProfile {
	p := &model.CallVolumeProfile{DayType: model.DayWeekday, SlotMinutes: 30}
	for c := model.NewClock(8, 0); c < model.NewClock(17, 0); c = c.Add(30) {
		calls := 50
		if c == model.NewClock(12, 0) {
			calls = 200
		}
		p.Slots = append(p.Slots, model.TimeSlot{Start: c, Calls: calls})
	}
	return p
}

func window(start, end model.Clock) model.BreakWindow {
	return model.BreakWindow{Kind: model.BreakPrimary, Start: start, End: end}
}

func TestScorer_EmptyWindows(t *testing.T) {
	scorer := NewScorer(nil)

	for _, p := range []*model.CallVolumeProfile{noonProfile(), {SlotMinutes: 30}, nil} {
		result := scorer.Score(nil, p)
		assert.Equal(t, 100.0, result.Efficiency)
		assert.Zero(t, result.Collisions)
		assert.Zero(t, result.TotalBreaks)
	}
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(nil)
	profile := noonProfile()

	tests := []struct {
		name       string
		windows    []model.BreakWindow
		collisions int
		minutes    int
		efficiency float64
	}{
		{"全部避开高峰", []model.BreakWindow{
			window(model.NewClock(10, 0), model.NewClock(10, 15)),
			window(model.NewClock(15, 0), model.NewClock(15, 15)),
		}, 0, 0, 100},
		{"一次落在高峰", []model.BreakWindow{
			window(model.NewClock(10, 0), model.NewClock(10, 15)),
			window(model.NewClock(12, 15), model.NewClock(12, 30)),
		}, 1, 15, 50},
		{"部分重叠也算冲突", []model.BreakWindow{
			window(model.NewClock(11, 50), model.NewClock(12, 5)),
		}, 1, 5, 0},
		{"紧贴高峰结束不算冲突", []model.BreakWindow{
			window(model.NewClock(12, 30), model.NewClock(12, 45)),
		}, 0, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(tt.windows, profile)
			assert.Equal(t, tt.collisions, result.Collisions)
			assert.Equal(t, tt.minutes, result.CollisionMinutes)
			assert.InDelta(t, tt.efficiency, result.Efficiency, 0.001)
			assert.Equal(t, model.UnitBreaks, result.Unit)
			assert.Equal(t, 200, result.PeakCalls)
			assert.Equal(t, []model.Clock{model.NewClock(12, 0)}, result.HighDemandSlots)
			assert.Equal(t, profile.TotalCalls(), result.TotalCalls)
		})
	}
}

func TestScorer_MinutesUnit(t *testing.T) {
	scorer := NewScorer(&ScorerConfig{HighDemandRatio: 0.7, Unit: model.UnitMinutes})

	result := scorer.Score([]model.BreakWindow{
		window(model.NewClock(11, 50), model.NewClock(12, 5)),
		window(model.NewClock(15, 0), model.NewClock(15, 15)),
	}, noonProfile())

	assert.Equal(t, model.UnitMinutes, result.Unit)
	assert.Equal(t, 30, result.BreakMinutes)
	assert.Equal(t, 5, result.CollisionMinutes)
	assert.InDelta(t, 100*(1-5.0/30.0), result.Efficiency, 0.001)
}

func TestScorer_ZeroPeak(t *testing.T) {
	p := &model.CallVolumeProfile{DayType: model.DaySunday, SlotMinutes: 60}
	for h := 8; h < 18; h++ {
		p.Slots = append(p.Slots, model.TimeSlot{Start: model.NewClock(h, 0)})
	}

	scorer := NewScorer(nil)
	assert.Empty(t, scorer.HighDemandSlots(p))

	result := scorer.Score([]model.BreakWindow{window(model.NewClock(10, 0), model.NewClock(10, 15))}, p)
	assert.Zero(t, result.Collisions)
	assert.Equal(t, 100.0, result.Efficiency)
}

func TestScorer_Threshold(t *testing.T) {
	p := &model.CallVolumeProfile{DayType: model.DayWeekday, SlotMinutes: 60, Slots: []model.TimeSlot{
		{Start: model.NewClock(8, 0), Calls: 69},
		{Start: model.NewClock(9, 0), Calls: 70},
		{Start: model.NewClock(10, 0), Calls: 100},
	}}

	assert.Equal(t, []int{1, 2}, NewScorer(nil).HighDemandSlots(p))
	assert.Equal(t, []int{2}, NewScorer(&ScorerConfig{HighDemandRatio: 0.9}).HighDemandSlots(p))
}

func TestEfficiency(t *testing.T) {
	assert.Equal(t, 100.0, Efficiency(0, 0))
	assert.Equal(t, 0.0, Efficiency(3, 0))
	assert.Equal(t, 0.0, Efficiency(5, 2))
	assert.InDelta(t, 75.0, Efficiency(1, 4), 0.001)
}

func TestScorer_Aggregate(t *testing.T) {
	scorer := NewScorer(nil)

	empty := scorer.Aggregate(nil)
	assert.Equal(t, 100.0, empty.MeanEfficiency)
	assert.Equal(t, 100.0, empty.OverallEfficiency)
	assert.Zero(t, empty.Collisions)

	profile := noonProfile()
	results := []model.PlacementResult{
		scorer.Score([]model.BreakWindow{
			window(model.NewClock(10, 0), model.NewClock(10, 15)),
			window(model.NewClock(12, 0), model.NewClock(12, 15)),
		}, profile),
		scorer.Score([]model.BreakWindow{
			window(model.NewClock(9, 0), model.NewClock(9, 15)),
			window(model.NewClock(14, 0), model.NewClock(14, 15)),
		}, profile),
	}

	summary := scorer.Aggregate(results)
	require.Equal(t, 2, summary.Shifts)
	assert.Equal(t, 4, summary.TotalBreaks)
	assert.Equal(t, 60, summary.BreakMinutes)
	assert.Equal(t, 1, summary.Collisions)
	assert.InDelta(t, 75.0, summary.MeanEfficiency, 0.001)
	assert.InDelta(t, 75.0, summary.OverallEfficiency, 0.001)
	assert.Equal(t, 2*profile.TotalCalls(), summary.TotalCalls)
}
