package repository

import (
	"context"
	"fmt"

	"github.com/paiban/refrigerio/pkg/model"
)

// VolumeRepository 话务量仓储
type VolumeRepository struct {
	db DB
}

// NewVolumeRepository 创建话务量仓储
func NewVolumeRepository(db DB) *VolumeRepository {
	return &VolumeRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *VolumeRepository) WithTx(tx DB) *VolumeRepository {
	return &VolumeRepository{db: tx}
}

// Upsert 写入话务量记录，同一时段覆盖
func (r *VolumeRepository) Upsert(ctx context.Context, records []model.VolumeRecord) error {
	query := `
		INSERT INTO call_volume (day_type, skill, slot_start, calls)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (day_type, skill, slot_start) DO UPDATE SET calls = EXCLUDED.calls
	`
	for _, rec := range records {
		if rec.Calls < 0 {
			return fmt.Errorf("话务量不能为负: %s %s %s", rec.DayType, rec.Skill, rec.SlotStart)
		}
		if _, err := r.db.ExecContext(ctx, query, string(rec.DayType), rec.Skill, int(rec.SlotStart), rec.Calls); err != nil {
			return fmt.Errorf("写入话务量失败: %w", err)
		}
	}
	return nil
}

// List 读取话务量记录；day 为空时读取全部
func (r *VolumeRepository) List(ctx context.Context, day model.DayType) ([]model.VolumeRecord, error) {
	query := `SELECT day_type, skill, slot_start, calls FROM call_volume`
	var args []interface{}
	if day != "" {
		query += ` WHERE day_type = $1`
		args = append(args, string(day))
	}
	query += ` ORDER BY day_type, skill, slot_start`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询话务量失败: %w", err)
	}
	defer rows.Close()

	var records []model.VolumeRecord
	for rows.Next() {
		var rec model.VolumeRecord
		var day string
		var start int
		if err := rows.Scan(&day, &rec.Skill, &start, &rec.Calls); err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		rec.DayType = model.DayType(day)
		rec.SlotStart = model.Clock(start)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历结果失败: %w", err)
	}
	return records, nil
}

// Profiles 读取全部记录并构建曲线集合
func (r *VolumeRepository) Profiles(ctx context.Context, slotMinutes int) (*model.ProfileSet, error) {
	records, err := r.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return model.BuildProfiles(records, slotMinutes)
}
