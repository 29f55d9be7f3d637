package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadShifts(t *testing.T) {
	t.Run("数组", func(t *testing.T) {
		recs, err := ReadShifts(strings.NewReader(`[
			{"id": "A1", "agent_name": "Ana", "date": "2025-05-08", "schedule": "08:00 a 17:00"},
			{"id": "A2", "agent_name": "Luis", "date": "08/05/2025", "start_time": "9:00", "end_time": "15:00",
			 "breaks": [{"start": "11:00", "end": "11:15"}]}
		]`))
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "08:00 a 17:00", recs[0].Schedule)
		assert.Equal(t, "11:00", recs[1].Breaks[0].Start)
	})

	t.Run("对象", func(t *testing.T) {
		recs, err := ReadShifts(strings.NewReader(`{"shifts": [{"id": "B1", "date": "2025-05-10"}]}`))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "B1", recs[0].ID)
	})

	t.Run("空输入", func(t *testing.T) {
		recs, err := ReadShifts(strings.NewReader("  \n"))
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("格式错误", func(t *testing.T) {
		_, err := ReadShifts(strings.NewReader(`[{"id": 1`))
		assert.True(t, errors.Is(err, errors.CodeInvalidInput))
	})
}

func TestWriteShifts_ReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shifts.json")
	recs := []model.RawShiftRecord{
		{ID: "A1", AgentName: "Ana", Date: "2025-05-08", Schedule: "08:00 a 17:00", SkillGroup: "ventas"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteShifts(&buf, recs))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	got, err := ReadShiftsFile(path)
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	_, err = ReadShiftsFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReadVolume(t *testing.T) {
	csv := `day_type,skill,slot_start,calls
# 工作日
Hábil,,08:00,40
Hábil,,08:30,55
weekday,ventas,08:00,12
Sábado,,10:00,20
`
	records, err := ReadVolume(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, model.VolumeRecord{DayType: model.DayWeekday, SlotStart: model.NewClock(8, 30), Calls: 55}, records[1])
	assert.Equal(t, model.DayWeekday, records[2].DayType)
	assert.Equal(t, "ventas", records[2].Skill)
	assert.Equal(t, model.DaySaturday, records[3].DayType)

	set, err := model.BuildProfiles(records, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
}

func TestReadVolume_Invalid(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"日期类型未知", "Lunes,,08:00,10\n"},
		{"时段无效", "Hábil,,8 en punto,10\n"},
		{"来电量为负", "Hábil,,08:00,-3\n"},
		{"来电量不是数字", "Hábil,,08:00,muchas\n"},
		{"列数不对", "Hábil,08:00,10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadVolume(strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidProfile, errors.GetCode(err))
		})
	}
}

func TestWriteVolume_ReadProfilesFile(t *testing.T) {
	profile := &model.CallVolumeProfile{
		DayType:     model.DayWeekday,
		Skill:       "soporte",
		SlotMinutes: 30,
		Slots: []model.TimeSlot{
			{Start: model.NewClock(9, 0), Calls: 10},
			{Start: model.NewClock(9, 30), Calls: 25},
		},
	}

	path := filepath.Join(t.TempDir(), "volume.csv")
	var buf bytes.Buffer
	require.NoError(t, WriteVolume(&buf, []*model.CallVolumeProfile{profile}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	set, err := ReadProfilesFile(path, 30)
	require.NoError(t, err)
	got, err := set.Lookup(model.DayWeekday, "soporte")
	require.NoError(t, err)
	assert.Equal(t, profile.Slots, got.Slots)
	assert.Equal(t, 35, got.TotalCalls())
}
