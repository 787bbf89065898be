// Package stats 提供排班统计分析功能
package stats

import (
	"time"

	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	TotalDays int `json:"total_days"` // 区块总天数

	// 实习覆盖
	InternEligibleDays int     `json:"intern_eligible_days"` // 资深值班日数
	InternAssigned     int     `json:"intern_assigned"`      // 已分配实习的天数
	InternCoverage     float64 `json:"intern_coverage"`      // 实习覆盖率 (%)

	// 督导覆盖
	SupervisorDays     int     `json:"supervisor_days"`     // 需要督导的天数
	SupervisorAssigned int     `json:"supervisor_assigned"` // 已分配督导的天数
	SupervisorCoverage float64 `json:"supervisor_coverage"` // 督导覆盖率 (%)

	// 缺口明细
	Gaps []model.CoverageGap `json:"gaps,omitempty"`
}

// BuildCoverageMetrics 统计实习与督导两个软性角色的覆盖情况
func BuildCoverageMetrics(sc *scheduler.Context, days []model.DayAssignment, gaps []model.CoverageGap) *CoverageMetrics {
	m := &CoverageMetrics{TotalDays: len(days), Gaps: gaps}

	for _, da := range days {
		callIdx := sc.Roster.IndexOf(da.Call)
		if callIdx >= 0 && sc.Roster[callIdx].CanSupervise() {
			m.InternEligibleDays++
			if da.Intern != "" {
				m.InternAssigned++
			}
		}
		if callIdx >= 0 && sc.Roster[callIdx].PGY == 2 &&
			da.Date.Weekday() != time.Sunday && !sc.IsHoliday(da.Date) {
			m.SupervisorDays++
			if da.Supervisor != "" {
				m.SupervisorAssigned++
			}
		}
	}

	m.InternCoverage = percentage(m.InternAssigned, m.InternEligibleDays)
	m.SupervisorCoverage = percentage(m.SupervisorAssigned, m.SupervisorDays)
	return m
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 100.0
	}
	return float64(part) / float64(total) * 100.0
}
