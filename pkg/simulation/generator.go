package simulation

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/paiban/refrigerio/pkg/model"
)

// VolumeGenerator 生成演示用的话务量曲线和班次，不参与编排和评分
type VolumeGenerator interface {
	Profile(day model.DayType, skill string) *model.CallVolumeProfile
	Shifts(date time.Time, count int) []model.RawShiftRecord
}

// GeneratorConfig 演示数据参数
type GeneratorConfig struct {
	Seed        int64         `yaml:"seed" json:"seed"`
	OpenAt      model.Clock   `yaml:"open_at" json:"open_at"`
	CloseAt     model.Clock   `yaml:"close_at" json:"close_at"`
	SlotMinutes int           `yaml:"slot_minutes" json:"slot_minutes" validate:"gte=5,lte=120"`
	BaseCalls   int           `yaml:"base_calls" json:"base_calls" validate:"gte=0"`
	PeakCalls   int           `yaml:"peak_calls" json:"peak_calls" validate:"gtefield=BaseCalls"`
	Peaks       []model.Clock `yaml:"peaks" json:"peaks"`
	// PeakHourFactor 整体放大倍数，1.0 为正常
	PeakHourFactor float64 `yaml:"peak_hour_factor" json:"peak_hour_factor" validate:"gt=0"`
}

// DefaultGeneratorConfig 07:00-22:00，午间和傍晚两个高峰
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Seed:           1,
		OpenAt:         model.NewClock(7, 0),
		CloseAt:        model.NewClock(22, 0),
		SlotMinutes:    model.DefaultSlotMinutes,
		BaseCalls:      40,
		PeakCalls:      200,
		Peaks:          []model.Clock{model.NewClock(12, 0), model.NewClock(18, 30)},
		PeakHourFactor: 1.0,
	}
}

// dayFactors 各日期类型相对工作日的话务量
var dayFactors = map[model.DayType]float64{
	model.DayWeekday:  1.0,
	model.DaySaturday: 0.6,
	model.DaySunday:   0.4,
	model.DayHoliday:  0.3,
}

var agentNames = []string{
	"Ana Torres", "Luis Gómez", "María Pérez", "Jorge Ramírez", "Carmen Silva",
	"Diego Rojas", "Lucía Fernández", "Pedro Castillo", "Sofía Vargas", "Andrés Morales",
}

var skillGroups = []string{"", "ventas", "soporte"}

var shiftLengths = []int{3 * 60, 4 * 60, 5 * 60, 6 * 60, 8 * 60, 9 * 60}

// SeededGenerator 固定种子的生成器，相同种子输出相同数据。非并发安全
type SeededGenerator struct {
	config *GeneratorConfig
	rng    *rand.Rand
}

// NewSeededGenerator 创建生成器
func NewSeededGenerator(cfg *GeneratorConfig) *SeededGenerator {
	if cfg == nil {
		cfg = DefaultGeneratorConfig()
	}
	return &SeededGenerator{
		config: cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Profile 生成一条曲线：基础量叠加围绕高峰的钟形分布，再加 ±15% 抖动
func (g *SeededGenerator) Profile(day model.DayType, skill string) *model.CallVolumeProfile {
	cfg := g.config
	factor := dayFactors[day]
	if factor == 0 {
		factor = 1.0
	}
	factor *= cfg.PeakHourFactor

	p := &model.CallVolumeProfile{DayType: day, Skill: skill, SlotMinutes: cfg.SlotMinutes}
	for c := cfg.OpenAt; c.Add(cfg.SlotMinutes) <= cfg.CloseAt; c = c.Add(cfg.SlotMinutes) {
		center := c.Add(cfg.SlotMinutes / 2)
		calls := float64(cfg.BaseCalls)
		for _, peak := range cfg.Peaks {
			d := float64(center-peak) / 60.0
			calls += float64(cfg.PeakCalls-cfg.BaseCalls) * math.Exp(-d*d)
		}
		jitter := 1 + (g.rng.Float64()*0.3 - 0.15)
		p.Slots = append(p.Slots, model.TimeSlot{Start: c, Calls: int(math.Round(calls * factor * jitter))})
	}
	return p
}

// Profiles 为每个日期类型和技能组生成曲线
func (g *SeededGenerator) Profiles(days []model.DayType, skills []string) (*model.ProfileSet, error) {
	if len(skills) == 0 {
		skills = []string{""}
	}
	set, _ := model.NewProfileSet()
	for _, day := range days {
		for _, skill := range skills {
			if err := set.Add(g.Profile(day, skill)); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// Shifts 生成原始班次记录，一半使用排班描述，一半使用独立字段
func (g *SeededGenerator) Shifts(date time.Time, count int) []model.RawShiftRecord {
	cfg := g.config
	out := make([]model.RawShiftRecord, 0, count)
	for i := 0; i < count; i++ {
		length := shiftLengths[g.rng.Intn(len(shiftLengths))]
		latest := int(cfg.CloseAt) - length
		earliest := int(cfg.OpenAt)
		start := model.Clock(earliest)
		if latest > earliest {
			start = model.Clock(earliest + g.rng.Intn((latest-earliest)/30+1)*30)
		}
		end := start.Add(length)

		raw := model.RawShiftRecord{
			ID:         fmt.Sprintf("SIM-%04d", i+1),
			AgentName:  agentNames[g.rng.Intn(len(agentNames))],
			Date:       date.Format("2006-01-02"),
			SkillGroup: skillGroups[g.rng.Intn(len(skillGroups))],
		}
		if g.rng.Intn(2) == 0 {
			raw.Schedule = fmt.Sprintf("%s a %s", start, end)
		} else {
			raw.StartTime = start.String()
			raw.EndTime = end.String()
		}
		out = append(out, raw)
	}
	return out
}
