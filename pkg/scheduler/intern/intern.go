// Package intern 在骨架固定后为资深值班日分配实习医师
//
// 资格日 = 值班为 PGY3/PGY4 的日期, 每个资格日恰好分配一名实习医师,
// 无人可用的日期留空并记录缺口
package intern

import (
	"context"
	"time"

	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
	"github.com/zhiban/zhiban/pkg/scheduler/csp"
	"github.com/zhiban/zhiban/pkg/scheduler/optimizer"
)

// 目标函数的固定相对权重
const (
	weightTotalFairness    = 5.0
	weightWeekdayFairness  = 3.0
	weightSaturdayFairness = 3.0
	weightSoftViolation    = 20.0
	weightConsecutive      = 2.0
)

// saturdayCap 每周期的周六分配上限
const saturdayCap = 2

// maxConsecutiveSlots 同一实习医师连续资格日上限
const maxConsecutiveSlots = 2

// Result 实习分配结果
type Result struct {
	Summary []model.InternSummaryRow
	Score   *float64
	Gaps    []model.CoverageGap
}

// slot 一个待分配的资格日
type slot struct {
	dayIdx int
	date   time.Time
}

// Assign 为排班补充实习列, 原地写入 days 并返回汇总
// 没有实习医师或没有资格日时实习列保持为空, 不视为错误
func Assign(ctx context.Context, sc *scheduler.Context, days []model.DayAssignment, optCfg *optimizer.Config) (*Result, error) {
	log := logger.Get()
	interns := sc.Roster.ByPGY(1)
	if len(interns) == 0 {
		return &Result{}, nil
	}

	slots, gaps := eligibleSlots(sc, days, interns)
	if len(slots) == 0 {
		log.Warn().Msg("没有资深值班日, 实习列留空")
		return &Result{Summary: emptySummary(sc, interns), Gaps: gaps}, nil
	}

	m, err := buildModel(sc, interns, slots)
	if err != nil {
		return nil, err
	}

	solver := csp.NewSolver(m)
	initial, err := solver.Solve(ctx)
	if err != nil {
		return nil, err
	}

	objective := newObjective(sc, interns, slots)
	vars := make([]csp.Var, len(slots))
	for i := range slots {
		vars[i] = csp.Var(i)
	}
	generator := optimizer.NewModelNeighborhood(m, [][]csp.Var{vars}, nil)

	ls := optimizer.NewLocalSearch(optCfg, objective, generator)
	optimized, optErr := ls.Optimize(ctx, initial)
	if optErr != nil && (optimized == nil || optimized.Assignment == nil) {
		return nil, optErr
	}

	for i, s := range slots {
		days[s.dayIdx].Intern = sc.Roster[interns[optimized.Assignment[i]]].Name
	}

	score := optimized.Score
	return &Result{
		Summary: buildSummary(sc, interns, days),
		Score:   &score,
		Gaps:    gaps,
	}, nil
}

// eligibleSlots 找出可分配的资格日, 全员硬约束冲突的日期记为缺口
func eligibleSlots(sc *scheduler.Context, days []model.DayAssignment, interns []int) ([]slot, []model.CoverageGap) {
	var slots []slot
	var gaps []model.CoverageGap

	for d := range days {
		callIdx := sc.Roster.IndexOf(days[d].Call)
		if callIdx < 0 || !sc.Roster[callIdx].CanSupervise() {
			continue
		}
		date := model.Midnight(days[d].Date)

		available := 0
		for _, i := range interns {
			if !sc.HardCovered(sc.Roster[i].Name, date) {
				available++
			}
		}
		if available == 0 {
			gaps = append(gaps, model.CoverageGap{
				Date:   date,
				Role:   model.GapIntern,
				Reason: "全部实习医师当日有硬约束冲突",
			})
			continue
		}
		slots = append(slots, slot{dayIdx: d, date: date})
	}
	return slots, gaps
}

// buildModel 编码实习分配的硬性规则
func buildModel(sc *scheduler.Context, interns []int, slots []slot) (*csp.Model, error) {
	m, err := csp.NewModel(len(interns))
	if err != nil {
		return nil, err
	}

	vars := make([]csp.Var, len(slots))
	for i, s := range slots {
		vars[i] = m.AddVar("intern_" + s.date.Format("2006-01-02"))
		for j, r := range interns {
			if sc.HardCovered(sc.Roster[r].Name, s.date) {
				m.Forbid(vars[i], j)
			}
		}
	}

	// 同一实习医师不得连续占用三个资格日
	m.MaxRun(vars, maxConsecutiveSlots, "连续资格日上限")

	// 周期上限: 总分配上限(可选)与周六分配上限
	for _, p := range sc.Periods.Periods() {
		var inPeriod, saturdays []csp.Var
		for i, s := range slots {
			if !p.Contains(s.date) {
				continue
			}
			inPeriod = append(inPeriod, vars[i])
			if s.date.Weekday() == time.Saturday {
				saturdays = append(saturdays, vars[i])
			}
		}
		for j := range interns {
			if sc.InternCap != nil && *sc.InternCap > 0 && len(inPeriod) > *sc.InternCap {
				m.CountAtMost(inPeriod, j, *sc.InternCap, "周期分配上限")
			}
			if len(saturdays) > saturdayCap {
				m.CountAtMost(saturdays, j, saturdayCap, "周期周六上限")
			}
		}
	}

	return m, nil
}

// internObjective 实习分配目标函数
type internObjective struct {
	sc      *scheduler.Context
	interns []int
	slots   []slot
	// softBlocked[slot][intern] 该实习医师当日是否有免值请求
	softBlocked [][]bool
}

func newObjective(sc *scheduler.Context, interns []int, slots []slot) *internObjective {
	o := &internObjective{sc: sc, interns: interns, slots: slots}
	o.softBlocked = make([][]bool, len(slots))
	for i, s := range slots {
		o.softBlocked[i] = make([]bool, len(interns))
		for j, r := range interns {
			o.softBlocked[i][j] = sc.SoftBlocked(sc.Roster[r].Name, s.date, model.PriorityNonCall)
		}
	}
	return o
}

// Evaluate 计算分配的总惩罚分
func (o *internObjective) Evaluate(assign []int) float64 {
	n := len(o.interns)
	total := make([]int, n)
	weekday := make([]int, n)
	saturday := make([]int, n)

	score := 0.0
	for i, s := range o.slots {
		j := assign[i]
		total[j]++
		switch wd := s.date.Weekday(); {
		case wd == time.Saturday:
			saturday[j]++
		case wd != time.Sunday:
			weekday[j]++
		}
		if o.softBlocked[i][j] {
			score += weightSoftViolation
		}
		if i > 0 && assign[i-1] == j {
			score += weightConsecutive
		}
	}

	score += weightTotalFairness * spread(total)
	score += weightWeekdayFairness * spread(weekday)
	score += weightSaturdayFairness * spread(saturday)
	return score
}

// spread 最大最小差
func spread(counts []int) float64 {
	if len(counts) < 2 {
		return 0
	}
	min, max := counts[0], counts[0]
	for _, c := range counts[1:] {
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	return float64(max - min)
}

// buildSummary 按实习医师统计总数/周中/周六分配
func buildSummary(sc *scheduler.Context, interns []int, days []model.DayAssignment) []model.InternSummaryRow {
	rows := emptySummary(sc, interns)
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		index[row.Resident] = i
	}

	for _, da := range days {
		i, ok := index[da.Intern]
		if !ok {
			continue
		}
		rows[i].Total++
		switch wd := da.Date.Weekday(); {
		case wd == time.Saturday:
			rows[i].Saturday++
		case wd != time.Sunday:
			rows[i].Weekday++
		}
	}
	return rows
}

func emptySummary(sc *scheduler.Context, interns []int) []model.InternSummaryRow {
	rows := make([]model.InternSummaryRow, len(interns))
	for i, r := range interns {
		rows[i] = model.InternSummaryRow{Resident: sc.Roster[r].Name}
	}
	return rows
}
