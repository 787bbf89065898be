package validator

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
			[]string{"Amy", "Beth", "Cara", "Dana", "Fred", "Gina", "Hank", "Iris", "Kate", "Liam", "Ivy"},
			[]int{2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 1},
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

// cleanWeek 满足全部规则的一周 (周一到周日)
func cleanWeek(sc *scheduler.Context) []model.DayAssignment {
	calls := []string{"Fred", "Amy", "Hank", "Kate", "Cara", "Gina", "Amy"}
	backups := []string{"Gina", "Beth", "Iris", "Liam", "Dana", "Fred", "Beth"}
	days := make([]model.DayAssignment, 7)
	for d, day := range sc.Days {
		days[d] = model.DayAssignment{Date: day, Call: calls[d], Backup: backups[d]}
	}
	return days
}

func countType(vs []Violation, t ViolationType) int {
	n := 0
	for _, v := range vs {
		if v.Type == t {
			n++
		}
	}
	return n
}

func TestAuditCleanSchedule(t *testing.T) {
	sc := newTestContext()
	if vs := NewAuditor(sc).Audit(cleanWeek(sc)); len(vs) != 0 {
		t.Errorf("合规排班不应有违规, 实际 %+v", vs)
	}
}

func TestAuditDuplicateRole(t *testing.T) {
	sc := newTestContext()
	days := cleanWeek(sc)
	days[1].Backup = days[1].Call
	vs := NewAuditor(sc).Audit(days)
	if countType(vs, ViolationDuplicateRole) != 1 {
		t.Errorf("应检出值班备班同人, 实际 %+v", vs)
	}
}

func TestAuditEligibility(t *testing.T) {
	sc := newTestContext()
	days := cleanWeek(sc)
	// 周日只允许二年级
	days[6].Call = "Fred"
	vs := NewAuditor(sc).Audit(days)
	if countType(vs, ViolationEligibility) == 0 {
		t.Errorf("应检出周日值班年级不合资格, 实际 %+v", vs)
	}
	if countType(vs, ViolationPGYMismatch) == 0 {
		t.Errorf("应检出值班备班年级不同, 实际 %+v", vs)
	}
}

func TestAuditUnknownName(t *testing.T) {
	sc := newTestContext()
	days := cleanWeek(sc)
	days[0].Call = "陌生人"
	vs := NewAuditor(sc).Audit(days)
	if countType(vs, ViolationUnknownName) != 1 {
		t.Errorf("应检出花名册外的人, 实际 %+v", vs)
	}
}

func TestAuditHolidayExempt(t *testing.T) {
	sc := newTestContext()
	sun := model.Date(2026, time.January, 11)
	sc.Holidays[sun] = model.Holiday{Date: sun, Call: "Ivy", Backup: "Kate"}
	days := cleanWeek(sc)
	days[6].Call = "Ivy" // 一年级, 非节假日时不合资格
	days[6].Backup = "Kate"

	vs := NewAuditor(sc).Audit(days)
	if len(vs) != 0 {
		t.Errorf("节假日钉死的日期应豁免全部规则, 实际 %+v", vs)
	}
}

func TestAuditHardWindowBuffer(t *testing.T) {
	sc := newTestContext()
	// Amy 周三被硬约束覆盖, 周二是缓冲日
	wed := model.Date(2026, time.January, 7)
	sc.Hard["Amy"] = []model.HardWindow{{Start: wed, End: wed}}

	days := cleanWeek(sc)
	vs := NewAuditor(sc).Audit(days)
	// cleanWeek 里 Amy 周二值班, 落在缓冲日
	if countType(vs, ViolationHardWindow) == 0 {
		t.Errorf("应检出缓冲日排班, 实际 %+v", vs)
	}
}

func TestAuditSpacing(t *testing.T) {
	sc := newTestContext()
	days := cleanWeek(sc)
	// Fred 周一值班后周三再值班, 间隔 2 天
	days[2].Call = "Fred"
	vs := NewAuditor(sc).Audit(days)
	if countType(vs, ViolationSpacing) == 0 {
		t.Errorf("应检出间隔不足, 实际 %+v", vs)
	}
}

func TestAuditSpacingAcrossTransition(t *testing.T) {
	sc := newTestContext()
	// 上一区块周日 Fred 值班, 本区块周一又值班, 间隔 1 天
	sc.Transitions = []model.TransitionDay{
		{Date: model.Date(2026, time.January, 4), Call: "Fred", Backup: "Hank"},
	}
	vs := NewAuditor(sc).Audit(cleanWeek(sc))
	if countType(vs, ViolationSpacing) == 0 {
		t.Errorf("应检出跨区块间隔不足, 实际 %+v", vs)
	}
}

func TestAuditBackupSpacingLooser(t *testing.T) {
	sc := newTestContext()
	days := cleanWeek(sc)
	// Dana 周二和周五备班: 间隔 3 天, 备班间隔只禁 1-2 天
	days[1].Backup = "Dana"
	vs := NewAuditor(sc).Audit(days)
	if len(vs) != 0 {
		t.Errorf("备班间隔 3 天合规, 实际 %+v", vs)
	}
}

func TestAuditInternRun(t *testing.T) {
	sc := newTestContext()
	days := cleanWeek(sc)
	// 资格日为资深值班日: 周一/周三/周四/周六, 取后三个连续资格日
	days[2].Intern = "Ivy"
	days[3].Intern = "Ivy"
	days[5].Intern = "Ivy"
	vs := NewAuditor(sc).Audit(days)
	if countType(vs, ViolationInternRun) != 1 {
		t.Errorf("连续第三个资格日应检出, 实际 %+v", vs)
	}
}

func TestAuditSupervisor(t *testing.T) {
	sc := newTestContext()
	days := cleanWeek(sc)
	// 周二 Amy 值班(二年级), 督导为周一的值班 Fred
	days[1].Supervisor = "Fred"
	vs := NewAuditor(sc).Audit(days)
	if countType(vs, ViolationSupervisor) != 1 {
		t.Errorf("前一天值班不能督导, 实际 %+v", vs)
	}

	days[1].Supervisor = "Liam"
	if vs := NewAuditor(sc).Audit(days); countType(vs, ViolationSupervisor) != 0 {
		t.Errorf("Liam 督导合规, 实际 %+v", vs)
	}
}
