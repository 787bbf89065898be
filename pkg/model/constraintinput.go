// Package model 定义值班排班引擎的核心数据模型
package model

import "time"

// SoftPriority 软约束优先级
type SoftPriority string

const (
	// PriorityNonCall 免值请求：值班和备班都算违反（权重高）
	PriorityNonCall SoftPriority = "Non-call request"
	// PriorityRotationLecture 轮转/讲座：仅值班算违反（权重低）
	PriorityRotationLecture SoftPriority = "Rotation/Lecture"
)

// HardWindow 硬约束窗口（含端点的不可用区间）
// 窗口内以及窗口前一天（缓冲日）都不可排值班或备班，节假日除外
type HardWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Covers 检查日期是否落在窗口内
func (w HardWindow) Covers(d time.Time) bool {
	return DateRange{Start: w.Start, End: w.End}.Contains(d)
}

// CoversWithBuffer 检查日期是否落在窗口内或为缓冲日（窗口前一天）
func (w HardWindow) CoversWithBuffer(d time.Time) bool {
	return w.Covers(d) || Midnight(d).Equal(Midnight(w.Start).AddDate(0, 0, -1))
}

// SoftWindow 软约束窗口（可违反的偏好区间）
type SoftWindow struct {
	Start    time.Time    `json:"start"`
	End      time.Time    `json:"end"`
	Priority SoftPriority `json:"priority"`
}

// Covers 检查日期是否落在窗口内
func (w SoftWindow) Covers(d time.Time) bool {
	return DateRange{Start: w.Start, End: w.End}.Contains(d)
}

// Holiday 节假日人工指定
// 该日期的值班和备班直接钉死为指定的人，其余所有规则族对该日期全部失效
type Holiday struct {
	Date   time.Time `json:"date"`
	Call   string    `json:"call"`
	Backup string    `json:"backup"`
}

// TransitionDay 区块衔接日（上一区块最后几天的排班）
// 仅用于把间隔规则延伸过区块边界
type TransitionDay struct {
	Date   time.Time `json:"date"`
	Call   string    `json:"call"`
	Backup string    `json:"backup"`
}

// PreviousTotals 上一区块累计计数（跨区块公平性）
type PreviousTotals struct {
	CallWeekday    int `json:"call_weekday"`
	CallFriday     int `json:"call_friday"`
	CallSaturday   int `json:"call_saturday"`
	CallSunday     int `json:"call_sunday"`
	CallTotal      int `json:"call_total"`
	BackupWeekday  int `json:"backup_weekday"`
	BackupFriday   int `json:"backup_friday"`
	BackupSaturday int `json:"backup_saturday"`
	BackupSunday   int `json:"backup_sunday"`
	BackupTotal    int `json:"backup_total"`
}

// CallByCategory 返回某类别的值班累计数
func (p PreviousTotals) CallByCategory(c DayCategory) int {
	switch c {
	case CategoryFriday:
		return p.CallFriday
	case CategorySaturday:
		return p.CallSaturday
	case CategorySunday:
		return p.CallSunday
	default:
		return p.CallWeekday
	}
}

// BackupByCategory 返回某类别的备班累计数
func (p PreviousTotals) BackupByCategory(c DayCategory) int {
	switch c {
	case CategoryFriday:
		return p.BackupFriday
	case CategorySaturday:
		return p.BackupSaturday
	case CategorySunday:
		return p.BackupSunday
	default:
		return p.BackupWeekday
	}
}
