// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ListFilter 列表查询过滤器
type ListFilter struct {
	Search     string `json:"search,omitempty"` // 坐席姓名模糊匹配
	SkillGroup string `json:"skill_group,omitempty"`
	StartDate  string `json:"start_date,omitempty"` // YYYY-MM-DD，含
	EndDate    string `json:"end_date,omitempty"`   // YYYY-MM-DD，含
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
}

// DefaultListFilter 返回默认过滤器
func DefaultListFilter() ListFilter {
	return ListFilter{
		Offset: 0,
		Limit:  500,
	}
}

// WithLimit 设置限制
func (f ListFilter) WithLimit(limit int) ListFilter {
	f.Limit = limit
	return f
}

// WithOffset 设置偏移
func (f ListFilter) WithOffset(offset int) ListFilter {
	f.Offset = offset
	return f
}

// WithSkillGroup 设置技能组
func (f ListFilter) WithSkillGroup(skill string) ListFilter {
	f.SkillGroup = skill
	return f
}

// WithDateRange 设置日期范围
func (f ListFilter) WithDateRange(start, end string) ListFilter {
	f.StartDate = start
	f.EndDate = end
	return f
}

// DB 数据库接口
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxDB 支持事务的数据库，事务内的 *sql.Tx 同样满足 DB
type TxDB interface {
	DB
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Scanner 行扫描接口
type Scanner interface {
	Scan(dest ...interface{}) error
}

// where 按顺序拼接条件和参数，占位符从 $1 开始
type where struct {
	conditions []string
	args       []interface{}
}

func (w *where) add(format string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conditions = append(w.conditions, fmt.Sprintf(format, len(w.args)))
}

func (w *where) clause() string {
	if len(w.conditions) == 0 {
		return "TRUE"
	}
	return strings.Join(w.conditions, " AND ")
}

// next 下一个占位符序号
func (w *where) next() int {
	return len(w.args) + 1
}
