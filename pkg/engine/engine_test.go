package engine

import (
	"context"
	"testing"
	"time"

	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler/optimizer"
)

// fullRequest 覆盖三个求解阶段的两周请求
func fullRequest() *Request {
	return &Request{
		Residents: []string{
			"Amy", "Beth", "Cara", "Dana", "Erin",
			"Fred", "Gina", "Hank", "Iris", "Jack",
			"Kate", "Liam",
			"Ivy", "Joe",
		},
		PGYLevels: []int{2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 4, 4, 1, 1},
		StartDate: "2026-01-05",
		EndDate:   "2026-01-18",
	}
}

func testEngine() *Engine {
	return New(Config{
		Optimizer: &optimizer.Config{
			MaxIterations:    300,
			MaxTime:          10 * time.Second,
			InitialTemp:      50,
			CoolingRate:      0.97,
			TabuSize:         20,
			NeighborhoodSize: 8,
			ParallelWorkers:  1,
			StopOnPlateau:    true,
			PlateauThreshold: 80,
			Seed:             7,
		},
	})
}

func TestGenerateFullPipeline(t *testing.T) {
	res, err := testEngine().Generate(context.Background(), fullRequest())
	if err != nil {
		t.Fatalf("Generate 出错: %v", err)
	}

	days := res.Schedule.Days
	if len(days) != 14 {
		t.Fatalf("排班天数 = %d, 期望 14", len(days))
	}
	if res.BackboneScore == nil {
		t.Error("骨架分数不应为空")
	}

	roster := model.NewRoster(fullRequest().Residents, fullRequest().PGYLevels)
	for d, da := range days {
		if da.Call == "" || da.Backup == "" {
			t.Fatalf("第 %d 天值班/备班缺失", d)
		}
		if da.Call == da.Backup {
			t.Errorf("第 %d 天值班与备班为同一人 %s", d, da.Call)
		}
		ci, bi := roster.IndexOf(da.Call), roster.IndexOf(da.Backup)
		if ci < 0 || bi < 0 {
			t.Fatalf("第 %d 天出现花名册外的人", d)
		}
		allowed := model.AllowedPGY(da.Date.Weekday())
		if !containsInt(allowed, roster[ci].PGY) {
			t.Errorf("第 %d 天(%s)值班 %s 年级 %d 不合资格",
				d, da.Date.Weekday(), da.Call, roster[ci].PGY)
		}
		if roster[ci].PGY != roster[bi].PGY {
			t.Errorf("第 %d 天值班与备班年级不同", d)
		}
	}

	// 衔接信息供下一区块使用
	if len(res.CarryTransition) != 4 {
		t.Errorf("衔接日数 = %d, 期望 4", len(res.CarryTransition))
	}
	if len(res.CarryTotals) == 0 {
		t.Error("累计计数不应为空")
	}
	if got := res.CarryTotals["Amy"].CallTotal + res.CarryTotals["Amy"].BackupTotal; got == 0 {
		// 两周内每个二年级至少该有一次任务, 完全没有说明计数断链
		t.Log("Amy 两周内无任何任务, 检查公平性分布")
	}
}

func TestGenerateHolidayPinned(t *testing.T) {
	req := fullRequest()
	req.Holidays = []HolidayInput{{Date: "2026-01-10", Call: "Ivy", Backup: "Joe"}}

	res, err := testEngine().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate 出错: %v", err)
	}
	day := res.Schedule.Days[5] // 周六
	if day.Call != "Ivy" || day.Backup != "Joe" {
		t.Errorf("节假日排班 = %s/%s, 期望 Ivy/Joe", day.Call, day.Backup)
	}
}

func TestGenerateHolidayOffRosterNames(t *testing.T) {
	req := fullRequest()
	req.Holidays = []HolidayInput{{Date: "2026-01-10", Call: "客座甲", Backup: "客座乙"}}

	res, err := testEngine().Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate 出错: %v", err)
	}
	day := res.Schedule.Days[5] // 周六
	if day.Call != "客座甲" || day.Backup != "客座乙" {
		t.Errorf("节假日名单应原样输出, 实际 = %s/%s", day.Call, day.Backup)
	}

	// 其余日期不受影响, 仍全员来自花名册
	roster := model.NewRoster(req.Residents, req.PGYLevels)
	for d, da := range res.Schedule.Days {
		if d == 5 {
			continue
		}
		if roster.IndexOf(da.Call) < 0 || roster.IndexOf(da.Backup) < 0 {
			t.Errorf("第 %d 天出现花名册外的人: %s/%s", d, da.Call, da.Backup)
		}
	}
}

func TestGenerateInfeasibleEmptySchedule(t *testing.T) {
	req := fullRequest()
	// 去掉全部二年级后周日/周五无人可排
	req.Residents = []string{"Fred", "Gina", "Hank", "Kate"}
	req.PGYLevels = []int{3, 3, 3, 4}

	res, err := testEngine().Generate(context.Background(), req)
	if !errors.Is(err, errors.CodeInsufficientResidents) {
		t.Fatalf("错误码 = %v, 期望 INSUFFICIENT_RESIDENTS", err)
	}
	if res == nil {
		t.Fatal("不可行时仍应返回空结果")
	}
	if len(res.Schedule.Days) != 0 {
		t.Errorf("不可行时排班应为空, 实际 %d 天", len(res.Schedule.Days))
	}
	if res.BackboneScore != nil || res.InternScore != nil {
		t.Error("不可行时分数应为空")
	}
}

func TestGenerateInternAndSupervisor(t *testing.T) {
	res, err := testEngine().Generate(context.Background(), fullRequest())
	if err != nil {
		t.Fatalf("Generate 出错: %v", err)
	}

	roster := model.NewRoster(fullRequest().Residents, fullRequest().PGYLevels)
	internSeen, supSeen := 0, 0
	for d, da := range res.Schedule.Days {
		ci := roster.IndexOf(da.Call)
		if da.Intern != "" {
			internSeen++
			if !roster[ci].CanSupervise() {
				t.Errorf("第 %d 天值班非资深却排了实习", d)
			}
			if ii := roster.IndexOf(da.Intern); ii < 0 || roster[ii].PGY != 1 {
				t.Errorf("第 %d 天实习 %s 不是一年级", d, da.Intern)
			}
		}
		if da.Supervisor != "" {
			supSeen++
			if roster[ci].PGY != 2 {
				t.Errorf("第 %d 天值班非二年级却排了督导", d)
			}
			si := roster.IndexOf(da.Supervisor)
			if si < 0 || !roster[si].CanSupervise() {
				t.Errorf("第 %d 天督导 %s 不合资格", d, da.Supervisor)
			}
			if da.Supervisor == da.Call {
				t.Errorf("第 %d 天督导与值班为同一人", d)
			}
		}
	}
	if internSeen == 0 {
		t.Error("两周内应有实习排班")
	}
	if supSeen == 0 {
		t.Error("两周内应有督导排班")
	}
	if res.InternScore == nil {
		t.Error("实习分数不应为空")
	}
	if len(res.InternSummary) != 2 {
		t.Errorf("实习统计行数 = %d, 期望 2", len(res.InternSummary))
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	first, err := testEngine().Generate(context.Background(), fullRequest())
	if err != nil {
		t.Fatal(err)
	}
	second, err := testEngine().Generate(context.Background(), fullRequest())
	if err != nil {
		t.Fatal(err)
	}
	for d := range first.Schedule.Days {
		a, b := first.Schedule.Days[d], second.Schedule.Days[d]
		if a.Call != b.Call || a.Backup != b.Backup {
			t.Fatalf("第 %d 天两次结果不同: %s/%s vs %s/%s", d, a.Call, a.Backup, b.Call, b.Backup)
		}
	}
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
