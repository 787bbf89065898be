package stats

import (
	"testing"
	"time"

	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
)

func newTestContext() *scheduler.Context {
	start := model.Date(2026, time.January, 5)
	block := model.DateRange{Start: start, End: start.AddDate(0, 0, 6)}
	return &scheduler.Context{
		Roster: model.NewRoster(
			[]string{"Amy", "Beth", "Fred", "Gina", "Kate"},
			[]int{2, 2, 3, 3, 4},
		),
		Block:    block,
		Days:     block.Days(),
		Holidays: map[time.Time]model.Holiday{},
		Hard:     map[string][]model.HardWindow{},
		Soft:     map[string][]model.SoftWindow{},
		Periods:  model.PeriodSet{Block: block},
		Weights:  model.DefaultWeights(),
	}
}

// testDays 周一到周日的一周排班
func testDays(sc *scheduler.Context) []model.DayAssignment {
	calls := []string{"Fred", "Amy", "Beth", "Kate", "Amy", "Gina", "Beth"}
	backups := []string{"Gina", "Beth", "Amy", "Kate", "Beth", "Fred", "Amy"}
	days := make([]model.DayAssignment, 7)
	for d, day := range sc.Days {
		days[d] = model.DayAssignment{Date: day, Call: calls[d], Backup: backups[d]}
	}
	return days
}

func TestBlockTotals(t *testing.T) {
	sc := newTestContext()
	totals := BlockTotals(sc, testDays(sc))

	if got := totals["Amy"].CallWeekday; got != 1 {
		t.Errorf("Amy 周中值班 = %d, 期望 1", got)
	}
	if got := totals["Amy"].CallFriday; got != 1 {
		t.Errorf("Amy 周五值班 = %d, 期望 1", got)
	}
	if got := totals["Amy"].CallTotal; got != 2 {
		t.Errorf("Amy 值班总数 = %d, 期望 2", got)
	}
	if got := totals["Amy"].BackupTotal; got != 2 {
		t.Errorf("Amy 备班总数 = %d, 期望 2", got)
	}
	if got := totals["Gina"].CallSaturday; got != 1 {
		t.Errorf("Gina 周六值班 = %d, 期望 1", got)
	}
	if got := totals["Beth"].CallSunday; got != 1 {
		t.Errorf("Beth 周日值班 = %d, 期望 1", got)
	}
	if got := totals["Kate"].CallWeekday; got != 1 {
		t.Errorf("Kate 周四值班应计入周中, 实际 %d", got)
	}
}

func TestCarryTotalsAddsPrevious(t *testing.T) {
	sc := newTestContext()
	sc.PrevTotals = map[string]model.PreviousTotals{
		"Amy": {CallWeekday: 3, CallTotal: 5, BackupTotal: 2},
	}

	carry := CarryTotals(sc, testDays(sc))
	if got := carry["Amy"].CallWeekday; got != 4 {
		t.Errorf("Amy 累计周中值班 = %d, 期望 4", got)
	}
	if got := carry["Amy"].CallTotal; got != 7 {
		t.Errorf("Amy 累计值班总数 = %d, 期望 7", got)
	}
	if got := carry["Amy"].BackupTotal; got != 4 {
		t.Errorf("Amy 累计备班总数 = %d, 期望 4", got)
	}
	// 没有历史的人只有本区块计数
	if got := carry["Fred"].CallWeekday; got != 1 {
		t.Errorf("Fred 累计周中值班 = %d, 期望 1", got)
	}
}

func TestBuildFairnessReport(t *testing.T) {
	sc := newTestContext()
	report := BuildFairnessReport(sc, testDays(sc))

	if len(report.Residents) != 5 {
		t.Fatalf("统计行数 = %d, 期望 5", len(report.Residents))
	}
	// 行按年级再按姓名排序
	if report.Residents[0].Resident != "Amy" || report.Residents[0].PGY != 2 {
		t.Errorf("第一行 = %s (PGY%d), 期望 Amy (PGY2)", report.Residents[0].Resident, report.Residents[0].PGY)
	}

	// PGY2 周五值班: Amy 1, Beth 0 → 差 1
	found := false
	for _, s := range report.Spreads {
		if s.PGY == 2 && s.Category == model.CategoryFriday && s.Role == "call" {
			found = true
			if s.Spread != 1 {
				t.Errorf("PGY2 周五值班差 = %d, 期望 1", s.Spread)
			}
		}
	}
	if !found {
		t.Error("报告缺少 PGY2 周五值班的公平性行")
	}
}

func TestBuildCoverageMetrics(t *testing.T) {
	sc := newTestContext()
	days := testDays(sc)
	// 资深值班日: 周一 Fred, 周四 Kate, 周六 Gina
	days[0].Intern = "Ivy"
	days[3].Intern = "Joe"
	// 周六资格日留空
	// 督导日: PGY2 值班且非周日: 周二 周三 周五
	days[1].Supervisor = "Fred"
	days[2].Supervisor = "Gina"

	gaps := []model.CoverageGap{{Date: days[5].Date, Role: model.GapIntern, Reason: "测试"}}
	m := BuildCoverageMetrics(sc, days, gaps)

	if m.InternEligibleDays != 3 || m.InternAssigned != 2 {
		t.Errorf("实习覆盖 = %d/%d, 期望 2/3", m.InternAssigned, m.InternEligibleDays)
	}
	if m.SupervisorDays != 3 || m.SupervisorAssigned != 2 {
		t.Errorf("督导覆盖 = %d/%d, 期望 2/3", m.SupervisorAssigned, m.SupervisorDays)
	}
	if len(m.Gaps) != 1 {
		t.Errorf("缺口数 = %d, 期望 1", len(m.Gaps))
	}
}
