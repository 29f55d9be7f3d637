package calendar

import (
	"testing"
	"time"

	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCalendarDate(t *testing.T) {
	got, err := ParseCalendarDate("2025-05-08")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"08/05/2025", "2025-5-8", "2025/05/08", "2025-02-30", " 2025-05-08", ""} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParseCalendarDate(bad)
			assert.True(t, errors.Is(err, errors.CodeInvalidDate))
		})
	}
}

func TestClassifyDayType(t *testing.T) {
	tests := []struct {
		date string
		want model.DayType
	}{
		{"2025-05-08", model.DayWeekday}, // 周四
		{"2025-05-10", model.DaySaturday},
		{"2025-05-11", model.DaySunday},
		{"2025-05-12", model.DayWeekday},
		{"no-es-fecha", model.DayHoliday},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDayType(tt.date))
		})
	}
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "Enero", MonthName(1))
	assert.Equal(t, "Mayo", MonthName(5))
	assert.Equal(t, "Diciembre", MonthName(12))
	assert.Equal(t, InvalidMonth, MonthName(0))
	assert.Equal(t, InvalidMonth, MonthName(13))
	assert.Equal(t, InvalidMonth, MonthName(-4))
}

func TestFormat(t *testing.T) {
	d := time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "08/05/2025", FormatDate(d))
	assert.Equal(t, "Jueves 8 de Mayo de 2025", FormatLongDate(d))
	assert.Equal(t, "Sábado", DayName(time.Saturday))
	assert.Equal(t, "07:05", FormatClock(model.NewClock(7, 5)))
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want model.Clock
	}{
		{"08:00", model.NewClock(8, 0)},
		{"8:00", model.NewClock(8, 0)},
		{"17:30:00", model.NewClock(17, 30)},
		{"08.15", model.NewClock(8, 15)},
		{"8:00 AM", model.NewClock(8, 0)},
		{"5:30 pm", model.NewClock(17, 30)},
		{"8:00 p. m.", model.NewClock(20, 0)},
		{"5PM", model.NewClock(17, 0)},
		{"15h04", model.NewClock(15, 4)},
		{"24:00", model.MinutesPerDay},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseClock("")
	assert.True(t, errors.Is(err, errors.CodeMissingTimeRange))

	_, err = ParseClock("25:00")
	assert.True(t, errors.Is(err, errors.CodeInvalidTimeRange))

	_, err = ParseClock("mañana")
	assert.Error(t, err)
}

func TestCalendar_Holidays(t *testing.T) {
	cal, err := NewCalendar(
		[]string{"2025-12-08"},
		[]string{"FREQ=YEARLY;BYMONTH=5;BYMONTHDAY=1", "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25"},
	)
	require.NoError(t, err)

	dates, rules := cal.HolidayCount()
	assert.Equal(t, 1, dates)
	assert.Equal(t, 2, rules)

	assert.Equal(t, model.DayHoliday, cal.Classify("2025-05-01"))
	assert.Equal(t, model.DayHoliday, cal.Classify("2031-05-01"))
	assert.Equal(t, model.DayHoliday, cal.Classify("2024-12-25"))
	assert.Equal(t, model.DayHoliday, cal.Classify("2025-12-08"))
	assert.Equal(t, model.DayWeekday, cal.Classify("2026-12-08"))
	assert.Equal(t, model.DayWeekday, cal.Classify("2025-05-08"))
	assert.Equal(t, model.DayHoliday, cal.Classify("08-05-2025"))
}

func TestCalendar_Invalid(t *testing.T) {
	_, err := NewCalendar([]string{"01/05/2025"}, nil)
	assert.True(t, errors.Is(err, errors.CodeInvalidDate))

	_, err = NewCalendar(nil, []string{"FREQ=SOMETIMES"})
	assert.Error(t, err)

	var nilCal *Calendar
	assert.False(t, nilCal.IsHoliday(time.Now()))
}
