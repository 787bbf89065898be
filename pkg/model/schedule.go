// Package model 定义值班排班引擎的核心数据模型
package model

import "time"

// DayAssignment 单日排班记录
// Intern/Supervisor 为空串表示该日未分配（非致命缺口）
type DayAssignment struct {
	Date       time.Time `json:"date"`
	Call       string    `json:"call"`
	Backup     string    `json:"backup"`
	Intern     string    `json:"intern,omitempty"`
	Supervisor string    `json:"supervisor,omitempty"`
}

// Schedule 一个区块的完整排班
type Schedule struct {
	BaseModel
	Block DateRange       `json:"block"`
	Days  []DayAssignment `json:"days"`
}

// DayOn 返回指定日期的排班记录，不存在时返回 nil
func (s *Schedule) DayOn(d time.Time) *DayAssignment {
	d = Midnight(d)
	for i := range s.Days {
		if Midnight(s.Days[i].Date).Equal(d) {
			return &s.Days[i]
		}
	}
	return nil
}

// IsEmpty 检查排班是否为空（不可行时返回空排班）
func (s *Schedule) IsEmpty() bool {
	return len(s.Days) == 0
}

// GoldenWeekendCounts 黄金周末统计
// 提供了轮转周期时按周期名分组，否则为每人总数
type GoldenWeekendCounts struct {
	ByRotation map[string]map[string]int `json:"by_rotation,omitempty"`
	Flat       map[string]int            `json:"flat,omitempty"`
}

// Total 返回某住院医师的黄金周末总数
func (g GoldenWeekendCounts) Total(name string) int {
	if g.Flat != nil {
		return g.Flat[name]
	}
	total := 0
	for _, counts := range g.ByRotation {
		total += counts[name]
	}
	return total
}

// InternSummaryRow 实习医师公平性汇总行
type InternSummaryRow struct {
	Resident string `json:"resident"`
	Total    int    `json:"total"`
	Weekday  int    `json:"weekday"`
	Saturday int    `json:"saturday"`
}

// GapRole 缺口角色
type GapRole string

const (
	GapIntern     GapRole = "intern"
	GapSupervisor GapRole = "supervisor"
)

// CoverageGap 软性覆盖缺口（某日无可用人选，留空而非报错）
type CoverageGap struct {
	Date   time.Time `json:"date"`
	Role   GapRole   `json:"role"`
	Reason string    `json:"reason"`
}

// GenerationResult 一次排班生成的完整输出
type GenerationResult struct {
	Schedule       *Schedule                 `json:"schedule"`
	GoldenWeekends GoldenWeekendCounts       `json:"golden_weekends"`
	BackboneScore  *float64                  `json:"backbone_score,omitempty"` // 不可行时为 nil
	InternScore    *float64                  `json:"intern_score,omitempty"`
	InternSummary  []InternSummaryRow        `json:"intern_summary,omitempty"`
	Gaps           []CoverageGap             `json:"gaps,omitempty"`
	CarryTotals    map[string]PreviousTotals `json:"carry_totals,omitempty"`     // 供下一区块使用的累计计数
	CarryTransition []TransitionDay          `json:"carry_transition,omitempty"` // 供下一区块使用的衔接日
	Iterations     int                       `json:"iterations"` // 骨干求解的优化迭代次数
	Duration       time.Duration             `json:"duration"`
}
