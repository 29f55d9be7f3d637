package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
)

// ShiftRecordRepository 原始班次记录仓储。记录按原样保存，由规范化器负责解析
type ShiftRecordRepository struct {
	db DB
}

// NewShiftRecordRepository 创建班次记录仓储
func NewShiftRecordRepository(db DB) *ShiftRecordRepository {
	return &ShiftRecordRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *ShiftRecordRepository) WithTx(tx DB) *ShiftRecordRepository {
	return &ShiftRecordRepository{db: tx}
}

// Save 按记录ID插入或覆盖
func (r *ShiftRecordRepository) Save(ctx context.Context, rec *model.RawShiftRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("班次记录缺少ID")
	}
	breaks, err := json.Marshal(rec.Breaks)
	if err != nil {
		return fmt.Errorf("序列化已有休息失败: %w", err)
	}

	query := `
		INSERT INTO shift_records (
			record_id, agent_name, work_date, start_time, end_time, schedule, skill_group, breaks
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (record_id) DO UPDATE SET
			agent_name = EXCLUDED.agent_name, work_date = EXCLUDED.work_date,
			start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
			schedule = EXCLUDED.schedule, skill_group = EXCLUDED.skill_group,
			breaks = EXCLUDED.breaks
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.AgentName, rec.Date, rec.StartTime, rec.EndTime,
		rec.Schedule, rec.SkillGroup, breaks,
	)
	if err != nil {
		return fmt.Errorf("保存班次记录失败: %w", err)
	}
	return nil
}

// SaveAll 逐条保存，遇错即停。批量导入应在事务中执行
func (r *ShiftRecordRepository) SaveAll(ctx context.Context, recs []model.RawShiftRecord) error {
	for i := range recs {
		if err := r.Save(ctx, &recs[i]); err != nil {
			return err
		}
	}
	return nil
}

// List 查询班次记录，按日期、记录ID排序
func (r *ShiftRecordRepository) List(ctx context.Context, filter ListFilter) ([]model.RawShiftRecord, int, error) {
	w := shiftConditions(filter)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM shift_records WHERE %s", w.clause())
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT record_id, agent_name, work_date, start_time, end_time, schedule, skill_group, breaks
		FROM shift_records
		WHERE %s
		ORDER BY work_date ASC, record_id ASC
		LIMIT $%d OFFSET $%d
	`, w.clause(), w.next(), w.next()+1)
	args := append(w.args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var recs []model.RawShiftRecord
	for rows.Next() {
		rec, err := scanShiftRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("遍历结果失败: %w", err)
	}
	return recs, total, nil
}

// Delete 删除班次记录
func (r *ShiftRecordRepository) Delete(ctx context.Context, recordID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shift_records WHERE record_id = $1`, recordID)
	if err != nil {
		return fmt.Errorf("删除班次记录失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("班次记录 %s 不存在", recordID))
	}
	return nil
}

func shiftConditions(filter ListFilter) *where {
	w := &where{}
	if filter.Search != "" {
		w.add("agent_name ILIKE $%d", "%"+filter.Search+"%")
	}
	if filter.SkillGroup != "" {
		w.add("skill_group = $%d", filter.SkillGroup)
	}
	if filter.StartDate != "" {
		w.add("work_date >= $%d", filter.StartDate)
	}
	if filter.EndDate != "" {
		w.add("work_date <= $%d", filter.EndDate)
	}
	return w
}

func scanShiftRecord(s Scanner) (model.RawShiftRecord, error) {
	var rec model.RawShiftRecord
	var breaks []byte
	if err := s.Scan(
		&rec.ID, &rec.AgentName, &rec.Date, &rec.StartTime, &rec.EndTime,
		&rec.Schedule, &rec.SkillGroup, &breaks,
	); err != nil {
		return rec, fmt.Errorf("扫描行失败: %w", err)
	}
	if len(breaks) > 0 {
		if err := json.Unmarshal(breaks, &rec.Breaks); err != nil {
			return rec, fmt.Errorf("解析已有休息失败: %w", err)
		}
	}
	return rec, nil
}
