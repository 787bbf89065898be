// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DateRange 日期范围（含端点）
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains 检查日期是否在范围内（含端点）
func (r DateRange) Contains(d time.Time) bool {
	d = Midnight(d)
	return !d.Before(Midnight(r.Start)) && !d.After(Midnight(r.End))
}

// Days 返回范围内的全部日期（升序）
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := Midnight(r.Start); !d.After(Midnight(r.End)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// NumDays 返回范围内的天数
func (r DateRange) NumDays() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(Midnight(r.End).Sub(Midnight(r.Start)).Hours()/24) + 1
}

// Midnight 将时间截断到当日零点（UTC）
// 引擎内部所有日期统一表示为零点 UTC，保证可以直接比较
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date 构造日期（零点 UTC）
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween 计算两个日期相差的天数（b - a）
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)).Hours() / 24)
}
