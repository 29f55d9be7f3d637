// Package normalizer 将原始班次记录转换为已校验的班次
package normalizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/refrigerio/pkg/calendar"
	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
)

// shiftNamespace 无 UUID 的记录用它生成确定性 ID
var shiftNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("refrigerio/shift"))

// dateLayouts 可接受的日期格式，全部转换为 YYYY-MM-DD 后再解析
var dateLayouts = []string{
	calendar.DateLayout,
	time.RFC3339,
	"02/01/2006",
}

// scheduleRe 从排班描述中提取起止时刻
// "08:00 a 17:00"、"8:00-17:00"、"08.00 hasta 17.00"、"8:00 AM - 5:00 PM"
var scheduleRe = regexp.MustCompile(
	`(?i)(\d{1,2}(?:[:.h]\d{2})?(?:\s*[ap]\.?\s?m\.?)?)\s*(?:-|–|\ba\b|\bhasta\b|\bto\b)\s*(\d{1,2}(?:[:.h]\d{2})?(?:\s*[ap]\.?\s?m\.?)?)`)

var bareHourRe = regexp.MustCompile(`^\d{1,2}$`)

// Normalizer 班次规范化器
type Normalizer struct {
	calendar *calendar.Calendar
}

// New 创建规范化器，cal 为空时只按星期几分类
func New(cal *calendar.Calendar) *Normalizer {
	return &Normalizer{calendar: cal}
}

// Normalize 转换一条原始记录，返回班次或拒绝记录之一
func (n *Normalizer) Normalize(raw model.RawShiftRecord) (*model.Shift, *model.Rejection) {
	date, err := resolveDate(raw.Date)
	if err != nil {
		return nil, reject(raw, errors.CodeMissingDate, err.Error())
	}

	start, end, err := resolveTimeRange(raw)
	if err != nil {
		return nil, reject(raw, errors.GetCode(err), err.Error())
	}

	shift := &model.Shift{
		ID:         shiftID(raw),
		RecordID:   recordID(raw),
		AgentName:  strings.TrimSpace(raw.AgentName),
		SkillGroup: strings.TrimSpace(raw.SkillGroup),
		Date:       date,
		Start:      start,
		End:        end,
		DayType:    n.calendar.ClassifyDate(date),
		Schedule:   raw.Schedule,
	}

	breaks, err := resolveBreaks(raw.Breaks, shift.Range())
	if err != nil {
		return nil, reject(raw, errors.CodeInvalidTimeRange, err.Error())
	}
	shift.ExistingBreaks = breaks

	return shift, nil
}

// NormalizeAll 批量转换，保持输入顺序
func (n *Normalizer) NormalizeAll(raws []model.RawShiftRecord) ([]*model.Shift, []*model.Rejection) {
	shifts := make([]*model.Shift, 0, len(raws))
	var rejected []*model.Rejection
	for _, raw := range raws {
		shift, rej := n.Normalize(raw)
		if rej != nil {
			rejected = append(rejected, rej)
			continue
		}
		shifts = append(shifts, shift)
	}
	return shifts, rejected
}

// resolveDate 依次尝试 dateLayouts，再交给 ParseCalendarDate
func resolveDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, errors.New(errors.CodeMissingDate, "缺少日期")
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, v)
		if err != nil {
			continue
		}
		return calendar.ParseCalendarDate(t.Format(calendar.DateLayout))
	}
	return time.Time{}, errors.New(errors.CodeMissingDate, fmt.Sprintf("无法识别日期 '%s'", value))
}

// resolveTimeRange 优先使用独立的起止字段，其次解析排班描述
func resolveTimeRange(raw model.RawShiftRecord) (model.Clock, model.Clock, error) {
	start, end, ok := parsePair(raw.StartTime, raw.EndTime)
	if !ok {
		for _, m := range scheduleRe.FindAllStringSubmatch(raw.Schedule, -1) {
			if start, end, ok = parsePair(m[1], m[2]); ok {
				break
			}
		}
	}
	if !ok {
		return 0, 0, errors.New(errors.CodeMissingTimeRange, "缺少可解析的起止时间")
	}
	if start >= end {
		return 0, 0, errors.New(errors.CodeInvalidTimeRange,
			fmt.Sprintf("开始时间 %s 不早于结束时间 %s", start, end))
	}
	return start, end, nil
}

func parsePair(startText, endText string) (model.Clock, model.Clock, bool) {
	if strings.TrimSpace(startText) == "" || strings.TrimSpace(endText) == "" {
		return 0, 0, false
	}
	start, err := parseClock(startText)
	if err != nil {
		return 0, 0, false
	}
	end, err := parseClock(endText)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// parseClock 在 ParseClock 基础上接受只有小时的写法，如 "8"
func parseClock(s string) (model.Clock, error) {
	v := strings.TrimSpace(s)
	if bareHourRe.MatchString(v) {
		v += ":00"
	}
	return calendar.ParseClock(v)
}

// resolveBreaks 解析已有休息，要求落在班次内且互不重叠
func resolveBreaks(raws []model.RawBreak, shift model.TimeRange) ([]model.BreakWindow, error) {
	if len(raws) == 0 {
		return nil, nil
	}

	breaks := make([]model.BreakWindow, 0, len(raws))
	for i, rb := range raws {
		start, err := parseClock(rb.Start)
		if err != nil {
			return nil, fmt.Errorf("第%d次休息开始时间无效: %w", i+1, err)
		}
		end, err := parseClock(rb.End)
		if err != nil {
			return nil, fmt.Errorf("第%d次休息结束时间无效: %w", i+1, err)
		}
		w := model.BreakWindow{Kind: model.BreakKind(strings.ToLower(strings.TrimSpace(rb.Kind))), Start: start, End: end}
		if start >= end {
			return nil, fmt.Errorf("休息 %s 开始时间不早于结束时间", w.Range())
		}
		if !shift.ContainsRange(w.Range()) {
			return nil, fmt.Errorf("休息 %s 不在班次 %s 内", w.Range(), shift)
		}
		breaks = append(breaks, w)
	}

	sort.SliceStable(breaks, func(i, j int) bool { return breaks[i].Start < breaks[j].Start })
	for i := range breaks {
		if i > 0 && breaks[i].Range().Overlaps(breaks[i-1].Range()) {
			return nil, fmt.Errorf("休息 %s 与 %s 重叠", breaks[i-1].Range(), breaks[i].Range())
		}
		if breaks[i].Kind == "" {
			breaks[i].Kind = kindByOrder(i)
		}
	}
	return breaks, nil
}

func kindByOrder(i int) model.BreakKind {
	switch i {
	case 0:
		return model.BreakPrimary
	case 1:
		return model.BreakCompensatory
	default:
		return model.BreakAdditional
	}
}

func shiftID(raw model.RawShiftRecord) uuid.UUID {
	if id, err := uuid.Parse(strings.TrimSpace(raw.ID)); err == nil {
		return id
	}
	key := strings.Join([]string{raw.ID, raw.AgentName, raw.Date, raw.StartTime, raw.EndTime, raw.Schedule}, "|")
	return uuid.NewSHA1(shiftNamespace, []byte(key))
}

func recordID(raw model.RawShiftRecord) string {
	if id := strings.TrimSpace(raw.ID); id != "" {
		return id
	}
	return shiftID(raw).String()
}

func reject(raw model.RawShiftRecord, code errors.Code, reason string) *model.Rejection {
	return &model.Rejection{
		RecordID: recordID(raw),
		Code:     code,
		Reason:   reason,
		Raw:      raw.Clone(),
	}
}
