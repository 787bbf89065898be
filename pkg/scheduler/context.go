// Package scheduler 承载值班排班的求解上下文与各阶段共享的查询逻辑
package scheduler

import (
	"time"

	"github.com/zhiban/zhiban/pkg/model"
)

// Context 一次排班求解的归一化输入
// 由 engine 层从原始请求构造, 各求解阶段只读
type Context struct {
	Roster model.Roster
	Block  model.DateRange
	// Days 区块内全部日期, 已归一到午夜
	Days []time.Time

	// Holidays 按午夜日期索引的节假日人工指定
	Holidays map[time.Time]model.Holiday
	// Hard/Soft 按住院医师姓名索引的约束窗口
	Hard map[string][]model.HardWindow
	Soft map[string][]model.SoftWindow

	Periods     model.PeriodSet
	Transitions []model.TransitionDay
	PrevTotals  map[string]model.PreviousTotals
	Weights     model.Weights

	// PGY4CallCap 四年级住院医师值班上限, nil 表示不限
	PGY4CallCap *int
	// InternCap 实习医师每周期值班上限, nil 表示不限
	InternCap *int
}

// NumDays 返回区块天数
func (c *Context) NumDays() int {
	return len(c.Days)
}

// IsHoliday 检查日期是否为节假日
func (c *Context) IsHoliday(d time.Time) bool {
	_, ok := c.Holidays[model.Midnight(d)]
	return ok
}

// HolidayOn 返回日期的节假日指定
func (c *Context) HolidayOn(d time.Time) (model.Holiday, bool) {
	h, ok := c.Holidays[model.Midnight(d)]
	return h, ok
}

// HolidayOffRoster 检查日期的节假日指定中是否含有花名册之外的名字
// 这样的日期按名单原样输出, 不参与求解与计分
func (c *Context) HolidayOffRoster(d time.Time) bool {
	h, ok := c.HolidayOn(d)
	if !ok {
		return false
	}
	return c.Roster.IndexOf(h.Call) < 0 || c.Roster.IndexOf(h.Backup) < 0
}

// HardBlocked 检查某住院医师在某日是否被硬约束排除(含缓冲日)
// 节假日不受硬约束限制, 由调用方在更高层处理
func (c *Context) HardBlocked(name string, d time.Time) bool {
	for _, w := range c.Hard[name] {
		if w.CoversWithBuffer(d) {
			return true
		}
	}
	return false
}

// HardCovered 检查某住院医师在某日是否落在硬约束窗口内(不含缓冲日)
// 实习与督导阶段只看窗口本身
func (c *Context) HardCovered(name string, d time.Time) bool {
	for _, w := range c.Hard[name] {
		if w.Covers(d) {
			return true
		}
	}
	return false
}

// SoftBlocked 检查某住院医师在某日是否有指定优先级的软约束
func (c *Context) SoftBlocked(name string, d time.Time, p model.SoftPriority) bool {
	for _, w := range c.Soft[name] {
		if w.Priority == p && w.Covers(d) {
			return true
		}
	}
	return false
}

// PrevTotalsOf 返回某住院医师的上区块累计计数, 缺省为零值
func (c *Context) PrevTotalsOf(name string) model.PreviousTotals {
	if c.PrevTotals == nil {
		return model.PreviousTotals{}
	}
	return c.PrevTotals[name]
}

// TransitionOn 返回衔接日记录
func (c *Context) TransitionOn(d time.Time) (model.TransitionDay, bool) {
	target := model.Midnight(d)
	for _, t := range c.Transitions {
		if model.Midnight(t.Date).Equal(target) {
			return t, true
		}
	}
	return model.TransitionDay{}, false
}

// DayIndex 返回日期在区块内的下标, 不在区块内时返回 -1
func (c *Context) DayIndex(d time.Time) int {
	target := model.Midnight(d)
	for i, day := range c.Days {
		if day.Equal(target) {
			return i
		}
	}
	return -1
}
