package backbone

import (
	"context"
	"testing"
	"time"

	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
	"github.com/zhiban/zhiban/pkg/scheduler/optimizer"
)

// testRoster 双倍于最低配置的花名册, 留出硬约束窗口的余量
func testRoster() model.Roster {
	return model.NewRoster(
		[]string{"Amy", "Beth", "Cara", "Dana", "Erin", "Fred", "Gina", "Hank", "Iris", "Jack", "Kate", "Liam"},
		[]int{2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 4, 4},
	)
}

// newTestContext 以 2026-01-05 (周一) 为起点构造求解上下文
func newTestContext(roster model.Roster, nDays int) *scheduler.Context {
	start := model.Date(2026, time.January, 5)
	block := model.DateRange{Start: start, End: start.AddDate(0, 0, nDays-1)}
	return &scheduler.Context{
		Roster:   roster,
		Block:    block,
		Days:     block.Days(),
		Holidays: map[time.Time]model.Holiday{},
		Hard:     map[string][]model.HardWindow{},
		Soft:     map[string][]model.SoftWindow{},
		Periods:  model.PeriodSet{Block: block},
		Weights:  model.DefaultWeights(),
	}
}

func testOptConfig() *optimizer.Config {
	cfg := optimizer.DefaultConfig()
	cfg.MaxIterations = 300
	cfg.MaxTime = 10 * time.Second
	cfg.NeighborhoodSize = 10
	cfg.PlateauThreshold = 100
	cfg.Seed = 1
	return cfg
}

// verifyHardRules 校验骨架结果满足全部硬性规则族
func verifyHardRules(t *testing.T, sc *scheduler.Context, res *Result) {
	t.Helper()
	nDays := len(sc.Days)

	for d, day := range sc.Days {
		call := res.CallOn(d)
		backup := res.BackupOn(d)
		if call == backup {
			t.Errorf("%s 值班和备班为同一人", day.Format("01-02"))
		}
		if sc.IsHoliday(day) {
			continue
		}

		allowed := model.AllowedPGY(day.Weekday())
		callOK, backupOK := false, false
		for _, pgy := range allowed {
			if sc.Roster[call].PGY == pgy {
				callOK = true
			}
			if sc.Roster[backup].PGY == pgy {
				backupOK = true
			}
		}
		if !callOK || !backupOK {
			t.Errorf("%s (%s) 的年级资格不满足: call=PGY%d backup=PGY%d",
				day.Format("01-02"), day.Weekday(), sc.Roster[call].PGY, sc.Roster[backup].PGY)
		}
		if sc.Roster[call].PGY != sc.Roster[backup].PGY {
			t.Errorf("%s 值班与备班年级不一致", day.Format("01-02"))
		}
		if sc.HardBlocked(sc.Roster[call].Name, day) {
			t.Errorf("%s 值班 %s 落在硬约束窗口内", day.Format("01-02"), sc.Roster[call].Name)
		}
		if sc.HardBlocked(sc.Roster[backup].Name, day) {
			t.Errorf("%s 备班 %s 落在硬约束窗口内", day.Format("01-02"), sc.Roster[backup].Name)
		}
	}

	// 间隔规则
	for d1 := 0; d1 < nDays; d1++ {
		if sc.IsHoliday(sc.Days[d1]) {
			continue
		}
		for offset := 1; offset <= 3; offset++ {
			d2 := d1 + offset
			if d2 >= nDays || sc.IsHoliday(sc.Days[d2]) {
				continue
			}
			if res.CallOn(d1) == res.CallOn(d2) {
				t.Errorf("第 %d 和 %d 天值班为同一人, 间隔 %d 天", d1, d2, offset)
			}
			if res.CallOn(d1) == res.BackupOn(d2) {
				t.Errorf("第 %d 天值班后第 %d 天即备班", d1, offset)
			}
			if res.BackupOn(d1) == res.CallOn(d2) {
				t.Errorf("第 %d 天备班后第 %d 天即值班", d1, offset)
			}
			if offset <= 2 && res.BackupOn(d1) == res.BackupOn(d2) {
				t.Errorf("第 %d 和 %d 天备班为同一人, 间隔 %d 天", d1, d2, offset)
			}
		}
	}
}

func TestSolveSatisfiesHardRules(t *testing.T) {
	sc := newTestContext(testRoster(), 14)
	res, err := Solve(context.Background(), sc, testOptConfig())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	verifyHardRules(t, sc, res)
}

func TestSolveHardWindowExcluded(t *testing.T) {
	sc := newTestContext(testRoster(), 14)
	// Amy 在第二周周一到周四不可用
	win := model.HardWindow{
		Start: model.Date(2026, time.January, 12),
		End:   model.Date(2026, time.January, 15),
	}
	sc.Hard["Amy"] = []model.HardWindow{win}

	res, err := Solve(context.Background(), sc, testOptConfig())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	verifyHardRules(t, sc, res)

	for d, day := range sc.Days {
		if !win.CoversWithBuffer(day) {
			continue
		}
		if sc.Roster[res.CallOn(d)].Name == "Amy" || sc.Roster[res.BackupOn(d)].Name == "Amy" {
			t.Errorf("%s Amy 被排班, 落在硬约束窗口或缓冲日", day.Format("01-02"))
		}
	}
}

func TestSolveHolidayPinned(t *testing.T) {
	sc := newTestContext(testRoster(), 14)
	// 周六节假日钉死一名 PGY2 和一名 PGY4, 无视年级资格
	hday := model.Date(2026, time.January, 10)
	sc.Holidays[hday] = model.Holiday{Date: hday, Call: "Amy", Backup: "Kate"}

	res, err := Solve(context.Background(), sc, testOptConfig())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	verifyHardRules(t, sc, res)

	d := sc.DayIndex(hday)
	if got := sc.Roster[res.CallOn(d)].Name; got != "Amy" {
		t.Errorf("节假日值班 = %s, 期望钉死的 Amy", got)
	}
	if got := sc.Roster[res.BackupOn(d)].Name; got != "Kate" {
		t.Errorf("节假日备班 = %s, 期望钉死的 Kate", got)
	}
}

func TestSolveHolidayInsideHardWindow(t *testing.T) {
	sc := newTestContext(testRoster(), 14)
	// Amy 整周不可用, 但周六节假日钉死她: 节假日优先
	sc.Hard["Amy"] = []model.HardWindow{{
		Start: model.Date(2026, time.January, 5),
		End:   model.Date(2026, time.January, 11),
	}}
	hday := model.Date(2026, time.January, 10)
	sc.Holidays[hday] = model.Holiday{Date: hday, Call: "Amy", Backup: "Fred"}

	res, err := Solve(context.Background(), sc, testOptConfig())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	d := sc.DayIndex(hday)
	if got := sc.Roster[res.CallOn(d)].Name; got != "Amy" {
		t.Errorf("节假日值班 = %s, 钉死指定应覆盖硬约束窗口", got)
	}
}

func TestSolveInsufficientResidents(t *testing.T) {
	// 没有 PGY2, 周二/周五/周日无人可排
	roster := model.NewRoster(
		[]string{"Fred", "Gina", "Hank", "Iris", "Kate", "Liam"},
		[]int{3, 3, 3, 3, 4, 4},
	)
	sc := newTestContext(roster, 14)

	_, err := Solve(context.Background(), sc, testOptConfig())
	if err == nil {
		t.Fatal("缺少 PGY2 时应返回错误")
	}
	if !errors.Is(err, errors.CodeInsufficientResidents) {
		t.Errorf("错误码 = %v, 期望 INSUFFICIENT_RESIDENTS", errors.GetCode(err))
	}
}

func TestSolveTransitionSpacing(t *testing.T) {
	sc := newTestContext(testRoster(), 14)
	// Amy 在区块前一天值班, Fred 备班
	sc.Transitions = []model.TransitionDay{{
		Date:   model.Date(2026, time.January, 4),
		Call:   "Amy",
		Backup: "Fred",
	}}

	res, err := Solve(context.Background(), sc, testOptConfig())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	verifyHardRules(t, sc, res)

	// 间隔 1-3 天: Amy 不得值班或备班, Fred 不得值班
	for d := 0; d < 3; d++ {
		call := sc.Roster[res.CallOn(d)].Name
		backup := sc.Roster[res.BackupOn(d)].Name
		if call == "Amy" || backup == "Amy" {
			t.Errorf("第 %d 天 Amy 被排班, 违反跨区块间隔", d)
		}
		if call == "Fred" {
			t.Errorf("第 %d 天 Fred 值班, 违反跨区块间隔", d)
		}
	}
	// 间隔 1-2 天: Fred 不得备班
	for d := 0; d < 2; d++ {
		if sc.Roster[res.BackupOn(d)].Name == "Fred" {
			t.Errorf("第 %d 天 Fred 备班, 违反跨区块间隔", d)
		}
	}
}

func TestSolvePGY4CallCap(t *testing.T) {
	sc := newTestContext(testRoster(), 14)
	cap := 1
	sc.PGY4CallCap = &cap

	res, err := Solve(context.Background(), sc, testOptConfig())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	counts := map[string]int{}
	for d := range sc.Days {
		counts[sc.Roster[res.CallOn(d)].Name]++
	}
	for _, r := range sc.Roster.ByPGY(4) {
		name := sc.Roster[r].Name
		if counts[name] > cap {
			t.Errorf("%s 值班 %d 次, 超过上限 %d", name, counts[name], cap)
		}
	}
}

func TestObjectiveGoldenWeekends(t *testing.T) {
	sc := newTestContext(testRoster(), 14)
	res, err := Solve(context.Background(), sc, testOptConfig())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	obj := NewObjective(sc)
	counts := obj.GoldenWeekends(res.Assignment)
	if counts.Flat == nil {
		t.Fatal("未提供轮转周期时应返回按人总数")
	}
	// 手工核对每名 PGY2 的黄金周末数
	for _, r := range sc.Roster.ByPGY(2) {
		name := sc.Roster[r].Name
		want := 0
		for d, day := range sc.Days {
			if day.Weekday() != time.Friday {
				continue
			}
			golden := true
			for _, dd := range []int{d, d + 1, d + 2} {
				if dd >= len(sc.Days) {
					continue
				}
				if res.CallOn(dd) == r || res.BackupOn(dd) == r {
					golden = false
				}
			}
			if golden {
				want++
			}
		}
		if got := counts.Flat[name]; got != want {
			t.Errorf("%s 黄金周末数 = %d, 期望 %d", name, got, want)
		}
	}
}

func TestObjectiveOverlappingSoftWindows(t *testing.T) {
	sc := newTestContext(testRoster(), 7)
	day := model.Date(2026, time.January, 6)
	// Beth 同日既有免值请求又有轮转/讲座, 值班时两类惩罚叠加
	sc.Soft["Beth"] = []model.SoftWindow{
		{Start: day, End: day, Priority: model.PriorityNonCall},
		{Start: day, End: day, Priority: model.PriorityRotationLecture},
	}

	assign := make([]int, 14)
	for d := 0; d < 7; d++ {
		assign[7+d] = 2 // 备班全部 Cara
	}
	assign[1] = 1 // 周二 Beth 值班

	obj := NewObjective(sc)
	got := obj.softWindowScore(assign)
	want := sc.Weights.NonCallRequest + sc.Weights.RotationLecture
	if got != want {
		t.Errorf("软约束惩罚 = %v, 期望 %v", got, want)
	}
}

func TestSolveHolidayOffRosterPinned(t *testing.T) {
	sc := newTestContext(testRoster(), 7)
	sat := model.Date(2026, time.January, 10)
	sc.Holidays[sat] = model.Holiday{Date: sat, Call: "客座甲", Backup: "客座乙"}

	res, err := Solve(context.Background(), sc, testOptConfig())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	days := ExtractDays(sc, res)
	if days[5].Call != "客座甲" || days[5].Backup != "客座乙" {
		t.Errorf("节假日名单应原样输出, 实际 = %s/%s", days[5].Call, days[5].Backup)
	}
	for d, da := range days {
		if d == 5 {
			continue
		}
		if sc.Roster.IndexOf(da.Call) < 0 || sc.Roster.IndexOf(da.Backup) < 0 {
			t.Errorf("第 %d 天出现花名册外的人: %s/%s", d, da.Call, da.Backup)
		}
	}
}

func TestExtractDays(t *testing.T) {
	sc := newTestContext(testRoster(), 7)
	res, err := Solve(context.Background(), sc, testOptConfig())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}

	days := ExtractDays(sc, res)
	if len(days) != 7 {
		t.Fatalf("天数 = %d, 期望 7", len(days))
	}
	for d, da := range days {
		if !da.Date.Equal(sc.Days[d]) {
			t.Errorf("第 %d 天日期不匹配", d)
		}
		if da.Call == "" || da.Backup == "" || da.Call == da.Backup {
			t.Errorf("第 %d 天角色无效: call=%q backup=%q", d, da.Call, da.Backup)
		}
	}
}
