package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowScanner 按顺序填充 Scan 的目标
type rowScanner struct {
	values []interface{}
}

func (s rowScanner) Scan(dest ...interface{}) error {
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = s.values[i].(string)
		case *int:
			*p = s.values[i].(int)
		case *[]byte:
			*p = s.values[i].([]byte)
		case *uuid.UUID:
			*p = s.values[i].(uuid.UUID)
		}
	}
	return nil
}

func TestShiftConditions(t *testing.T) {
	t.Run("无过滤", func(t *testing.T) {
		w := shiftConditions(DefaultListFilter())
		assert.Equal(t, "TRUE", w.clause())
		assert.Empty(t, w.args)
		assert.Equal(t, 1, w.next())
	})

	t.Run("全部过滤", func(t *testing.T) {
		filter := DefaultListFilter().
			WithSkillGroup("ventas").
			WithDateRange("2025-05-01", "2025-05-31")
		filter.Search = "Ana"

		w := shiftConditions(filter)
		assert.Equal(t,
			"agent_name ILIKE $1 AND skill_group = $2 AND work_date >= $3 AND work_date <= $4",
			w.clause())
		assert.Equal(t, []interface{}{"%Ana%", "ventas", "2025-05-01", "2025-05-31"}, w.args)
		assert.Equal(t, 5, w.next())
	})
}

func TestListFilter_Builders(t *testing.T) {
	f := DefaultListFilter().WithLimit(50).WithOffset(100)
	assert.Equal(t, 50, f.Limit)
	assert.Equal(t, 100, f.Offset)
	assert.Equal(t, 500, DefaultListFilter().Limit)
}

func TestScanShiftRecord(t *testing.T) {
	rec, err := scanShiftRecord(rowScanner{values: []interface{}{
		"A1", "Ana", "2025-05-08", "", "", "08:00 a 17:00", "ventas",
		[]byte(`[{"start":"12:00","end":"12:15"}]`),
	}})
	require.NoError(t, err)

	assert.Equal(t, "A1", rec.ID)
	assert.Equal(t, "08:00 a 17:00", rec.Schedule)
	require.Len(t, rec.Breaks, 1)
	assert.Equal(t, "12:00", rec.Breaks[0].Start)

	_, err = scanShiftRecord(rowScanner{values: []interface{}{
		"A2", "", "", "", "", "", "", []byte(`{bad`),
	}})
	assert.Error(t, err)
}

func TestScanBreak(t *testing.T) {
	id, shiftID := uuid.New(), uuid.New()
	b, err := scanBreak(rowScanner{values: []interface{}{
		id, shiftID, "A1", "batch-1", "optimized",
		"primary", 660, 675, "emergency", "cita",
	}})
	require.NoError(t, err)

	assert.Equal(t, id, b.ID)
	assert.Equal(t, shiftID, b.ShiftID)
	assert.Equal(t, model.BreakWindow{
		Kind:   model.BreakPrimary,
		Start:  model.NewClock(11, 0),
		End:    model.NewClock(11, 15),
		Reason: model.ReasonEmergency,
		Note:   "cita",
	}, b.Window)
	assert.Equal(t, []model.BreakWindow{b.Window}, Windows([]StoredBreak{b}))
}
