package backbone

import (
	"context"
	"time"

	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
	"github.com/zhiban/zhiban/pkg/scheduler/csp"
	"github.com/zhiban/zhiban/pkg/scheduler/optimizer"
)

// Result 骨架求解结果
type Result struct {
	// Assignment 长度为两倍天数, 前半段为值班, 后半段为备班
	Assignment []int
	Score      float64
	Iterations int
	Duration   time.Duration
}

// CallOn 返回某天值班的住院医师下标
func (r *Result) CallOn(day int) int {
	return r.Assignment[day]
}

// BackupOn 返回某天备班的住院医师下标
func (r *Result) BackupOn(day int) int {
	return r.Assignment[len(r.Assignment)/2+day]
}

// Solve 求解骨架: 先找可行解, 再用局部搜索优化软性规则
func Solve(ctx context.Context, sc *scheduler.Context, optCfg *optimizer.Config) (*Result, error) {
	start := time.Now()
	log := logger.Get()

	problem, err := Build(sc)
	if err != nil {
		return nil, err
	}

	solver := csp.NewSolver(problem.Model)
	solver.SetValueScore(initialValueScore(sc, problem))

	initial, err := solver.Solve(ctx)
	if err != nil {
		return nil, err
	}

	objective := NewObjective(sc)
	generator := optimizer.NewModelNeighborhood(
		problem.Model,
		[][]csp.Var{problem.Call, problem.Backup},
		sameDayPairs(sc, problem),
	)

	ls := optimizer.NewLocalSearch(optCfg, objective, generator)
	optimized, optErr := ls.Optimize(ctx, initial)
	if optErr != nil {
		if optimized == nil || optimized.Assignment == nil {
			return nil, errors.Timeout("骨架优化被中断")
		}
		// 被中断时沿用当前最优解
		log.Warn().Err(optErr).Msg("骨架优化提前结束")
	}

	log.Info().
		Int("iterations", optimized.Iterations).
		Float64("score", optimized.Score).
		Dur("elapsed", time.Since(start)).
		Msg("骨架求解完成")

	return &Result{
		Assignment: optimized.Assignment,
		Score:      optimized.Score,
		Iterations: optimized.Iterations,
		Duration:   time.Since(start),
	}, nil
}

// initialValueScore 初始解的取值排序: 历史负担轻的人优先
// 公平性的主要工作由局部搜索完成, 这里只提供一个合理的起点
func initialValueScore(sc *scheduler.Context, problem *Problem) func(v csp.Var, value int) float64 {
	prevLoad := make([]float64, len(sc.Roster))
	for r, res := range sc.Roster {
		p := sc.PrevTotalsOf(res.Name)
		prevLoad[r] = float64(p.CallTotal + p.BackupTotal)
	}
	return func(v csp.Var, value int) float64 {
		return prevLoad[value]
	}
}

// sameDayPairs 非节假日的同日值班备班变量对, 供交换邻域使用
func sameDayPairs(sc *scheduler.Context, problem *Problem) [][2]csp.Var {
	var pairs [][2]csp.Var
	for d, day := range sc.Days {
		if sc.IsHoliday(day) {
			continue
		}
		pairs = append(pairs, [2]csp.Var{problem.Call[d], problem.Backup[d]})
	}
	return pairs
}

// ExtractDays 把骨架赋值展开为每日排班记录
func ExtractDays(sc *scheduler.Context, result *Result) []model.DayAssignment {
	days := make([]model.DayAssignment, len(sc.Days))
	for d, day := range sc.Days {
		da := model.DayAssignment{Date: day}
		if h, ok := sc.HolidayOn(day); ok {
			// 节假日按人工名单原样输出, 花名册之外的名字也照搬
			da.Call, da.Backup = h.Call, h.Backup
		} else {
			da.Call = sc.Roster[result.CallOn(d)].Name
			da.Backup = sc.Roster[result.BackupOn(d)].Name
		}
		days[d] = da
	}
	return days
}
