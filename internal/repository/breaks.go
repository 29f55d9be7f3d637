package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
)

// StoredBreak 保存的一次休息
type StoredBreak struct {
	ID       uuid.UUID         `json:"id"`
	ShiftID  uuid.UUID         `json:"shift_id"`
	RecordID string            `json:"record_id"`
	BatchID  string            `json:"batch_id,omitempty"`
	Strategy string            `json:"strategy"`
	Window   model.BreakWindow `json:"window"`
}

// BreakRepository 休息窗口仓储
type BreakRepository struct {
	db DB
}

// NewBreakRepository 创建休息窗口仓储
func NewBreakRepository(db DB) *BreakRepository {
	return &BreakRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *BreakRepository) WithTx(tx DB) *BreakRepository {
	return &BreakRepository{db: tx}
}

// Replace 覆盖班次在某个策略下的全部休息。先删后插，调用方应在事务中执行
func (r *BreakRepository) Replace(ctx context.Context, shiftID uuid.UUID, recordID, batchID, strategy string, windows []model.BreakWindow) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM break_windows WHERE shift_id = $1 AND strategy = $2`, shiftID, strategy); err != nil {
		return fmt.Errorf("清除休息失败: %w", err)
	}

	query := `
		INSERT INTO break_windows (
			id, shift_id, record_id, batch_id, strategy, kind, start_min, end_min, reason, note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, w := range windows {
		_, err := r.db.ExecContext(ctx, query,
			uuid.New(), shiftID, recordID, batchID, strategy,
			string(w.Kind), int(w.Start), int(w.End), string(w.Reason), w.Note,
		)
		if err != nil {
			return fmt.Errorf("保存休息失败: %w", err)
		}
	}
	return nil
}

// ListByShift 查询班次在某个策略下的休息，strategy 为空时返回全部
func (r *BreakRepository) ListByShift(ctx context.Context, shiftID uuid.UUID, strategy string) ([]StoredBreak, error) {
	w := &where{}
	w.add("shift_id = $%d", shiftID)
	if strategy != "" {
		w.add("strategy = $%d", strategy)
	}
	query := fmt.Sprintf(`
		SELECT id, shift_id, record_id, batch_id, strategy, kind, start_min, end_min, reason, note
		FROM break_windows
		WHERE %s
		ORDER BY strategy, start_min
	`, w.clause())

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("查询休息失败: %w", err)
	}
	defer rows.Close()

	var out []StoredBreak
	for rows.Next() {
		b, err := scanBreak(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历结果失败: %w", err)
	}
	return out, nil
}

// Update 保存手工调整后的休息，休息必须属于该班次
func (r *BreakRepository) Update(ctx context.Context, shiftID, id uuid.UUID, updated model.BreakWindow) error {
	query := `
		UPDATE break_windows SET
			start_min = $3, end_min = $4, reason = $5, note = $6, updated_at = $7
		WHERE id = $1 AND shift_id = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		id, shiftID, int(updated.Start), int(updated.End), string(updated.Reason), updated.Note, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("更新休息失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("班次 %s 下没有休息 %s", shiftID, id))
	}
	return nil
}

// DeleteByRecord 删除某条班次记录的全部休息
func (r *BreakRepository) DeleteByRecord(ctx context.Context, recordID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM break_windows WHERE record_id = $1`, recordID)
	if err != nil {
		return 0, fmt.Errorf("删除休息失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// Find 在已保存的休息中按ID查找
func Find(stored []StoredBreak, id uuid.UUID) (StoredBreak, bool) {
	for _, b := range stored {
		if b.ID == id {
			return b, true
		}
	}
	return StoredBreak{}, false
}

// Windows 取出休息窗口
func Windows(stored []StoredBreak) []model.BreakWindow {
	out := make([]model.BreakWindow, len(stored))
	for i, b := range stored {
		out[i] = b.Window
	}
	return out
}

func scanBreak(s Scanner) (StoredBreak, error) {
	var b StoredBreak
	var kind, reason, note string
	var start, end int
	if err := s.Scan(
		&b.ID, &b.ShiftID, &b.RecordID, &b.BatchID, &b.Strategy,
		&kind, &start, &end, &reason, &note,
	); err != nil {
		return b, fmt.Errorf("扫描行失败: %w", err)
	}
	b.Window = model.BreakWindow{
		Kind:   model.BreakKind(kind),
		Start:  model.Clock(start),
		End:    model.Clock(end),
		Reason: model.ModificationReason(reason),
		Note:   note,
	}
	return b, nil
}
