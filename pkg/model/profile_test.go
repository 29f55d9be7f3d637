package model

import (
	"testing"

	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfile(calls ...int) *CallVolumeProfile {
	p := &CallVolumeProfile{DayType: DayWeekday, SlotMinutes: 30}
	for i, c := range calls {
		p.Slots = append(p.Slots, TimeSlot{Start: NewClock(8, 0).Add(i * 30), Calls: c})
	}
	return p
}

func TestCallVolumeProfile_Validate(t *testing.T) {
	require.NoError(t, testProfile(10, 20, 30).Validate())

	gap := testProfile(10, 20)
	gap.Slots[1].Start = NewClock(9, 30)
	assert.True(t, errors.Is(gap.Validate(), errors.CodeInvalidProfile))

	negative := testProfile(10, -1)
	assert.True(t, errors.Is(negative.Validate(), errors.CodeInvalidProfile))

	noSize := testProfile(10)
	noSize.SlotMinutes = 0
	assert.Error(t, noSize.Validate())

	late := &CallVolumeProfile{SlotMinutes: 30, Slots: []TimeSlot{{Start: NewClock(23, 45)}}}
	assert.Error(t, late.Validate())
}

func TestCallVolumeProfile_Metrics(t *testing.T) {
	p := testProfile(10, 40, 200, 20)

	assert.Equal(t, 200, p.Peak())
	assert.Equal(t, 270, p.TotalCalls())
	assert.Equal(t, TimeRange{Start: NewClock(8, 0), End: NewClock(10, 0)}, p.Coverage())
	assert.Equal(t, TimeRange{Start: NewClock(9, 0), End: NewClock(9, 30)}, p.SlotRange(2))

	// 08:15-08:45 跨越前两个时段
	r := TimeRange{Start: NewClock(8, 15), End: NewClock(8, 45)}
	assert.Equal(t, 40, p.MaxCallsDuring(r))
	assert.InDelta(t, 25.0, p.CallsDuring(r), 0.001)

	assert.Equal(t, 0, p.MaxCallsDuring(TimeRange{Start: NewClock(12, 0), End: NewClock(13, 0)}))
}

func TestProfileSet_Lookup(t *testing.T) {
	general := testProfile(10, 20)
	sales := testProfile(5, 5)
	sales.Skill = "ventas"

	set, err := NewProfileSet(general, sales)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	p, err := set.Lookup(DayWeekday, "ventas")
	require.NoError(t, err)
	assert.Same(t, sales, p)

	p, err = set.Lookup(DayWeekday, "soporte")
	require.NoError(t, err)
	assert.Same(t, general, p, "未知技能组退回通用曲线")

	_, err = set.Lookup(DaySunday, "")
	assert.True(t, errors.Is(err, errors.CodeProfileNotFound))

	var empty *ProfileSet
	_, err = empty.Lookup(DayWeekday, "")
	assert.Error(t, err)
}

func TestBuildProfiles(t *testing.T) {
	records := []VolumeRecord{
		{DayType: DayWeekday, SlotStart: NewClock(9, 0), Calls: 30},
		{DayType: DayWeekday, SlotStart: NewClock(8, 0), Calls: 10},
		{DayType: DayWeekday, SlotStart: NewClock(8, 30), Calls: 20},
		{DayType: DaySaturday, Skill: "soporte", SlotStart: NewClock(10, 0), Calls: 5},
		{DayType: DaySaturday, Skill: "soporte", SlotStart: NewClock(10, 15), Calls: 7},
	}

	set, err := BuildProfiles(records, 0)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	weekday, err := set.Lookup(DayWeekday, "")
	require.NoError(t, err)
	assert.Equal(t, 30, weekday.SlotMinutes)
	assert.Equal(t, NewClock(8, 0), weekday.Slots[0].Start)
	assert.Equal(t, 60, weekday.TotalCalls())

	saturday, err := set.Lookup(DaySaturday, "soporte")
	require.NoError(t, err)
	assert.Equal(t, 15, saturday.SlotMinutes)

	profiles := set.Profiles()
	assert.Equal(t, DayWeekday, profiles[0].DayType)
}

func TestBuildProfiles_RejectsGaps(t *testing.T) {
	records := []VolumeRecord{
		{DayType: DayWeekday, SlotStart: NewClock(8, 0), Calls: 10},
		{DayType: DayWeekday, SlotStart: NewClock(9, 0), Calls: 10},
	}

	_, err := BuildProfiles(records, 30)
	assert.True(t, errors.Is(err, errors.CodeInvalidProfile))
}
