package model

import (
	"fmt"
	"sort"

	"github.com/paiban/refrigerio/pkg/errors"
)

// DefaultSlotMinutes 默认的话务量时段粒度
const DefaultSlotMinutes = 30

// TimeSlot 一个时段的预测来电量
type TimeSlot struct {
	Start Clock `json:"start"`
	Calls int   `json:"calls"`
}

// CallVolumeProfile 某日期类型、某技能组的分时段来电量
type CallVolumeProfile struct {
	DayType     DayType    `json:"day_type"`
	Skill       string     `json:"skill,omitempty"`
	SlotMinutes int        `json:"slot_minutes"`
	Slots       []TimeSlot `json:"slots"`
}

// Validate 检查时段连续、不重叠、来电量非负
func (p *CallVolumeProfile) Validate() error {
	if p.SlotMinutes <= 0 {
		return errors.New(errors.CodeInvalidProfile, "slot_minutes 必须大于0")
	}
	for i, slot := range p.Slots {
		if slot.Calls < 0 {
			return errors.New(errors.CodeInvalidProfile,
				fmt.Sprintf("时段 %s 来电量为负数: %d", slot.Start, slot.Calls))
		}
		if slot.Start < 0 || slot.Start.Add(p.SlotMinutes) > MinutesPerDay {
			return errors.New(errors.CodeInvalidProfile,
				fmt.Sprintf("时段 %s 超出一天范围", slot.Start))
		}
		if i > 0 && slot.Start != p.Slots[i-1].Start.Add(p.SlotMinutes) {
			return errors.New(errors.CodeInvalidProfile,
				fmt.Sprintf("时段 %s 与前一时段 %s 不连续", slot.Start, p.Slots[i-1].Start))
		}
	}
	return nil
}

// SlotRange 返回第 i 个时段的区间
func (p *CallVolumeProfile) SlotRange(i int) TimeRange {
	start := p.Slots[i].Start
	return TimeRange{Start: start, End: start.Add(p.SlotMinutes)}
}

// Coverage 返回曲线覆盖的营业时间
func (p *CallVolumeProfile) Coverage() TimeRange {
	if len(p.Slots) == 0 {
		return TimeRange{}
	}
	return TimeRange{Start: p.Slots[0].Start, End: p.SlotRange(len(p.Slots) - 1).End}
}

// Peak 返回全天最高来电量
func (p *CallVolumeProfile) Peak() int {
	peak := 0
	for _, slot := range p.Slots {
		if slot.Calls > peak {
			peak = slot.Calls
		}
	}
	return peak
}

// TotalCalls 返回全天来电总量
func (p *CallVolumeProfile) TotalCalls() int {
	total := 0
	for _, slot := range p.Slots {
		total += slot.Calls
	}
	return total
}

// MaxCallsDuring 返回与区间重叠的时段中的最高来电量
func (p *CallVolumeProfile) MaxCallsDuring(r TimeRange) int {
	peak := 0
	for i, slot := range p.Slots {
		if p.SlotRange(i).Overlaps(r) && slot.Calls > peak {
			peak = slot.Calls
		}
	}
	return peak
}

// CallsDuring 按重叠比例估算区间内的来电量
func (p *CallVolumeProfile) CallsDuring(r TimeRange) float64 {
	total := 0.0
	for i, slot := range p.Slots {
		overlap := p.SlotRange(i).Intersection(r)
		if overlap > 0 {
			total += float64(slot.Calls) * float64(overlap) / float64(p.SlotMinutes)
		}
	}
	return total
}

// VolumeRecord 话务量数据源中的一条记录
type VolumeRecord struct {
	DayType   DayType `json:"day_type"`
	Skill     string  `json:"skill,omitempty"`
	SlotStart Clock   `json:"slot_start"`
	Calls     int     `json:"calls"`
}

type profileKey struct {
	day   DayType
	skill string
}

// ProfileSet 按日期类型和技能组索引的话务量曲线集合
type ProfileSet struct {
	profiles map[profileKey]*CallVolumeProfile
}

// NewProfileSet 创建曲线集合
func NewProfileSet(profiles ...*CallVolumeProfile) (*ProfileSet, error) {
	set := &ProfileSet{profiles: make(map[profileKey]*CallVolumeProfile)}
	for _, p := range profiles {
		if err := set.Add(p); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Add 加入一条曲线，同键覆盖
func (s *ProfileSet) Add(p *CallVolumeProfile) error {
	if p == nil {
		return errors.New(errors.CodeInvalidProfile, "曲线为空")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.profiles[profileKey{day: p.DayType, skill: p.Skill}] = p
	return nil
}

// Lookup 查找曲线，先精确匹配技能组，再退回到该日期类型的通用曲线
func (s *ProfileSet) Lookup(day DayType, skill string) (*CallVolumeProfile, error) {
	if s == nil {
		return nil, errors.ProfileNotFound(string(day), skill)
	}
	if p, ok := s.profiles[profileKey{day: day, skill: skill}]; ok {
		return p, nil
	}
	if p, ok := s.profiles[profileKey{day: day}]; ok {
		return p, nil
	}
	return nil, errors.ProfileNotFound(string(day), skill)
}

// Len 返回曲线数量
func (s *ProfileSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.profiles)
}

// Profiles 按日期类型、技能组排序返回全部曲线
func (s *ProfileSet) Profiles() []*CallVolumeProfile {
	if s == nil {
		return nil
	}
	out := make([]*CallVolumeProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayType != out[j].DayType {
			return out[i].DayType < out[j].DayType
		}
		return out[i].Skill < out[j].Skill
	})
	return out
}

// BuildProfiles 由话务量记录构建曲线集合；slotMinutes 为0时按记录间隔推断
func BuildProfiles(records []VolumeRecord, slotMinutes int) (*ProfileSet, error) {
	grouped := make(map[profileKey][]VolumeRecord)
	var keys []profileKey
	for _, r := range records {
		k := profileKey{day: r.DayType, skill: r.Skill}
		if _, ok := grouped[k]; !ok {
			keys = append(keys, k)
		}
		grouped[k] = append(grouped[k], r)
	}

	set, _ := NewProfileSet()
	for _, k := range keys {
		recs := grouped[k]
		sort.Slice(recs, func(i, j int) bool { return recs[i].SlotStart < recs[j].SlotStart })

		size := slotMinutes
		if size <= 0 {
			size = inferSlotMinutes(recs)
		}

		profile := &CallVolumeProfile{DayType: k.day, Skill: k.skill, SlotMinutes: size}
		for _, r := range recs {
			profile.Slots = append(profile.Slots, TimeSlot{Start: r.SlotStart, Calls: r.Calls})
		}
		if err := set.Add(profile); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// inferSlotMinutes 取相邻记录的最小间隔
func inferSlotMinutes(recs []VolumeRecord) int {
	size := 0
	for i := 1; i < len(recs); i++ {
		gap := int(recs[i].SlotStart - recs[i-1].SlotStart)
		if gap > 0 && (size == 0 || gap < size) {
			size = gap
		}
	}
	if size == 0 {
		return DefaultSlotMinutes
	}
	return size
}
