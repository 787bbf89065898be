// Package validator 提供排班审计功能
package validator

import (
	"fmt"
	"time"

	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
)

// ViolationType 违规类型
type ViolationType string

const (
	ViolationDuplicateRole ViolationType = "duplicate_role" // 值班与备班同人
	ViolationEligibility   ViolationType = "eligibility"    // 年级不合资格
	ViolationPGYMismatch   ViolationType = "pgy_mismatch"   // 值班与备班年级不同
	ViolationHardWindow    ViolationType = "hard_window"    // 硬约束窗口内排班
	ViolationSpacing       ViolationType = "spacing"        // 任务间隔不足
	ViolationUnknownName   ViolationType = "unknown_name"   // 花名册外的人
	ViolationInternRun     ViolationType = "intern_run"     // 实习连续天数过多
	ViolationSupervisor    ViolationType = "supervisor"     // 督导不合规则
)

// Violation 违规信息
type Violation struct {
	Type     ViolationType `json:"type"`
	Severity string        `json:"severity"` // error/warning
	Resident string        `json:"resident"`
	Date     string        `json:"date"`
	Message  string        `json:"message"`
}

// Auditor 对生成完毕的排班做事后审计
// 求解器保证这些规则成立, 审计用于人工改动后的复核
type Auditor struct {
	sc *scheduler.Context
}

// NewAuditor 创建审计器
func NewAuditor(sc *scheduler.Context) *Auditor {
	return &Auditor{sc: sc}
}

// Audit 检查全部规则族, 返回发现的违规
func (a *Auditor) Audit(days []model.DayAssignment) []Violation {
	var out []Violation
	out = append(out, a.checkDayRules(days)...)
	out = append(out, a.checkSpacing(days)...)
	out = append(out, a.checkInternRuns(days)...)
	out = append(out, a.checkSupervisors(days)...)
	return out
}

// checkDayRules 单日规则: 角色不重复、年级资格、年级一致、硬约束窗口
// 节假日钉死的日期全部豁免
func (a *Auditor) checkDayRules(days []model.DayAssignment) []Violation {
	var out []Violation
	for _, da := range days {
		date := da.Date.Format("2006-01-02")

		if da.Call != "" && da.Call == da.Backup {
			out = append(out, Violation{
				Type: ViolationDuplicateRole, Severity: "error",
				Resident: da.Call, Date: date,
				Message: "值班与备班为同一人",
			})
		}
		if a.sc.IsHoliday(da.Date) {
			continue
		}

		for _, pair := range []struct {
			role string
			name string
		}{{"值班", da.Call}, {"备班", da.Backup}} {
			if pair.name == "" {
				continue
			}
			idx := a.sc.Roster.IndexOf(pair.name)
			if idx < 0 {
				out = append(out, Violation{
					Type: ViolationUnknownName, Severity: "error",
					Resident: pair.name, Date: date,
					Message: fmt.Sprintf("%s %s 不在花名册中", pair.role, pair.name),
				})
				continue
			}
			allowed := model.AllowedPGY(da.Date.Weekday())
			if !containsInt(allowed, a.sc.Roster[idx].PGY) {
				out = append(out, Violation{
					Type: ViolationEligibility, Severity: "error",
					Resident: pair.name, Date: date,
					Message: fmt.Sprintf("%s年级 %d 不允许在%s担任%s",
						pair.name, a.sc.Roster[idx].PGY, weekdayName(da.Date.Weekday()), pair.role),
				})
			}
			if a.sc.HardBlocked(pair.name, da.Date) {
				out = append(out, Violation{
					Type: ViolationHardWindow, Severity: "error",
					Resident: pair.name, Date: date,
					Message: fmt.Sprintf("%s 落在硬约束窗口或其缓冲日内", pair.name),
				})
			}
		}

		ci, bi := a.sc.Roster.IndexOf(da.Call), a.sc.Roster.IndexOf(da.Backup)
		if ci >= 0 && bi >= 0 && a.sc.Roster[ci].PGY != a.sc.Roster[bi].PGY {
			out = append(out, Violation{
				Type: ViolationPGYMismatch, Severity: "error",
				Resident: da.Call, Date: date,
				Message: "值班与备班年级不同",
			})
		}
	}
	return out
}

// spacing 间隔规则: 值班↔值班/值班↔备班 间隔 1-3 天禁止, 备班↔备班 间隔 1-2 天禁止
// 衔接日把间隔延伸到上一区块, 节假日端点豁免
func (a *Auditor) checkSpacing(days []model.DayAssignment) []Violation {
	type task struct {
		date time.Time
		call bool
	}
	tasks := make(map[string][]task)
	for _, t := range a.sc.Transitions {
		if t.Call != "" {
			tasks[t.Call] = append(tasks[t.Call], task{t.Date, true})
		}
		if t.Backup != "" {
			tasks[t.Backup] = append(tasks[t.Backup], task{t.Date, false})
		}
	}
	for _, da := range days {
		if a.sc.IsHoliday(da.Date) {
			continue
		}
		if da.Call != "" {
			tasks[da.Call] = append(tasks[da.Call], task{da.Date, true})
		}
		if da.Backup != "" {
			tasks[da.Backup] = append(tasks[da.Backup], task{da.Date, false})
		}
	}

	var out []Violation
	for name, ts := range tasks {
		for i := 0; i < len(ts); i++ {
			for j := i + 1; j < len(ts); j++ {
				gap := model.DaysBetween(ts[i].date, ts[j].date)
				if gap < 0 {
					gap = -gap
				}
				if gap <= 0 {
					continue
				}
				minGap := 3
				if !ts[i].call && !ts[j].call {
					minGap = 2
				}
				if gap <= minGap {
					out = append(out, Violation{
						Type: ViolationSpacing, Severity: "error",
						Resident: name, Date: ts[j].date.Format("2006-01-02"),
						Message: fmt.Sprintf("%s 两次任务仅间隔 %d 天", name, gap),
					})
				}
			}
		}
	}
	return out
}

// checkInternRuns 实习最多连续两个资格日
func (a *Auditor) checkInternRuns(days []model.DayAssignment) []Violation {
	var out []Violation
	run, last := 0, ""
	for _, da := range days {
		ci := a.sc.Roster.IndexOf(da.Call)
		if ci < 0 || !a.sc.Roster[ci].CanSupervise() {
			continue // 非资格日不断链也不延长
		}
		if da.Intern != "" && da.Intern == last {
			run++
			if run > 2 {
				out = append(out, Violation{
					Type: ViolationInternRun, Severity: "error",
					Resident: da.Intern, Date: da.Date.Format("2006-01-02"),
					Message: fmt.Sprintf("%s 连续第 %d 个资格日值班", da.Intern, run),
				})
			}
		} else {
			run = 1
		}
		last = da.Intern
	}
	return out
}

// checkSupervisors 督导规则: 只出现在二年级值班的非周日非节假日,
// 且不能是当天值班或前一天值班的人
func (a *Auditor) checkSupervisors(days []model.DayAssignment) []Violation {
	var out []Violation
	prevCall := ""
	if t, ok := a.sc.TransitionOn(a.sc.Block.Start.AddDate(0, 0, -1)); ok {
		prevCall = t.Call
	}
	for _, da := range days {
		date := da.Date.Format("2006-01-02")
		if da.Supervisor != "" {
			ci := a.sc.Roster.IndexOf(da.Call)
			switch {
			case da.Date.Weekday() == time.Sunday || a.sc.IsHoliday(da.Date):
				out = append(out, Violation{
					Type: ViolationSupervisor, Severity: "warning",
					Resident: da.Supervisor, Date: date,
					Message: "周日或节假日不应有督导",
				})
			case ci >= 0 && a.sc.Roster[ci].PGY != 2:
				out = append(out, Violation{
					Type: ViolationSupervisor, Severity: "warning",
					Resident: da.Supervisor, Date: date,
					Message: "非二年级值班日不应有督导",
				})
			case da.Supervisor == da.Call || da.Supervisor == prevCall:
				out = append(out, Violation{
					Type: ViolationSupervisor, Severity: "error",
					Resident: da.Supervisor, Date: date,
					Message: "督导不能是当天或前一天的值班",
				})
			}
		}
		prevCall = da.Call
	}
	return out
}

func weekdayName(wd time.Weekday) string {
	names := map[time.Weekday]string{
		time.Sunday: "周日", time.Monday: "周一", time.Tuesday: "周二",
		time.Wednesday: "周三", time.Thursday: "周四",
		time.Friday: "周五", time.Saturday: "周六",
	}
	return names[wd]
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
