// Package calendar 提供日期、时刻解析和日期类型分类
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
)

// DateLayout 唯一接受的日期格式
const DateLayout = "2006-01-02"

// InvalidMonth 月份越界时返回的标记
const InvalidMonth = "Mes inválido"

var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

var dayNames = [7]string{
	"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado",
}

// clockLayouts 可接受的时刻格式，按顺序尝试
var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"15.04",
	"3:04PM",
	"3.04PM",
	"3PM",
}

// ParseCalendarDate 解析 YYYY-MM-DD，不猜测其他格式
func ParseCalendarDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, errors.InvalidDate(s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errors.InvalidDate(s).WithDetails(err.Error())
	}
	return t, nil
}

// ClassifyDate 按星期几分类
func ClassifyDate(t time.Time) model.DayType {
	switch t.Weekday() {
	case time.Saturday:
		return model.DaySaturday
	case time.Sunday:
		return model.DaySunday
	default:
		return model.DayWeekday
	}
}

// ClassifyDayType 分类日期字符串；无法解析的日期按约定归为节假日
func ClassifyDayType(s string) model.DayType {
	t, err := ParseCalendarDate(s)
	if err != nil {
		return model.DayHoliday
	}
	return ClassifyDate(t)
}

// MonthName 返回月份名称（1-12）
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return InvalidMonth
	}
	return monthNames[month-1]
}

// DayName 返回星期名称
func DayName(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return dayNames[d]
}

// FormatDate 返回 DD/MM/YYYY
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatLongDate 返回 "Jueves 8 de Mayo de 2025"
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%s %d de %s de %d", DayName(t.Weekday()), t.Day(), MonthName(int(t.Month())), t.Year())
}

// ParseClock 解析时刻，接受 clockLayouts 中列出的格式以及 24:00
func ParseClock(s string) (model.Clock, error) {
	v := normalizeClock(s)
	if v == "" {
		return 0, errors.New(errors.CodeMissingTimeRange, "时刻为空")
	}
	if v == "24:00" || v == "24:00:00" {
		return model.MinutesPerDay, nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return model.ClockOf(t), nil
		}
	}
	return 0, errors.New(errors.CodeInvalidTimeRange, fmt.Sprintf("无法解析时刻 '%s'", s))
}

// FormatClock 返回 HH:MM
func FormatClock(c model.Clock) string {
	return c.String()
}

// normalizeClock 统一大小写和上下午写法，"8:00 a. m." -> "8:00AM"
func normalizeClock(s string) string {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.NewReplacer(".M.", "M", ". M.", "M", " ", "", "H", ":").Replace(v)
	v = strings.ReplaceAll(v, "A.M", "AM")
	v = strings.ReplaceAll(v, "P.M", "PM")
	return v
}
