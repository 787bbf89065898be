package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
	"github.com/zhiban/zhiban/pkg/scheduler/backbone"
	"github.com/zhiban/zhiban/pkg/scheduler/intern"
	"github.com/zhiban/zhiban/pkg/scheduler/optimizer"
	"github.com/zhiban/zhiban/pkg/scheduler/supervisor"
	"github.com/zhiban/zhiban/pkg/stats"
	"github.com/zhiban/zhiban/pkg/validator"
)

// transitionCarryDays 传给下一区块的衔接日数量
const transitionCarryDays = 4

// Config 引擎配置
type Config struct {
	// SolveTimeout 整体求解时间预算, 0 表示不限
	SolveTimeout time.Duration
	// Optimizer 局部搜索配置, nil 使用默认值
	Optimizer *optimizer.Config
	// StrictPeriods 为真时轮转周期必须无缝覆盖区块
	StrictPeriods bool
}

// Engine 排班生成引擎, 按骨架→实习→督导的固定顺序执行
type Engine struct {
	cfg Config
	log *logger.EngineLogger
}

// New 创建排班引擎
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg, log: logger.NewEngineLogger()}
}

// Generate 生成一个区块的完整排班
// 不可行时返回空排班和对应错误, 软性缺口只记录不中断
func (e *Engine) Generate(ctx context.Context, req *Request) (*model.GenerationResult, error) {
	start := time.Now()
	blockID := uuid.New().String()

	sc, err := Normalize(req, e.cfg.StrictPeriods)
	if err != nil {
		return nil, err
	}
	e.log.StartGeneration(blockID, len(sc.Roster), sc.NumDays())

	if e.cfg.SolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.SolveTimeout)
		defer cancel()
	}

	backboneRes, err := backbone.Solve(ctx, sc, e.cfg.Optimizer)
	if err != nil {
		e.log.Infeasible(blockID, err.Error())
		return emptyResult(sc, start), err
	}

	days := backbone.ExtractDays(sc, backboneRes)
	golden := backbone.NewObjective(sc).GoldenWeekends(backboneRes.Assignment)

	var gaps []model.CoverageGap
	internRes, err := intern.Assign(ctx, sc, days, e.cfg.Optimizer)
	if err != nil {
		if !errors.Is(err, errors.CodeNoFeasibleSolution) {
			return emptyResult(sc, start), err
		}
		// 实习上限过紧时留空实习列, 不影响骨架
		e.log.ConstraintViolation("intern", err.Error())
		internRes = &intern.Result{}
	}
	gaps = append(gaps, internRes.Gaps...)

	gaps = append(gaps, supervisor.Assign(sc, days)...)
	for _, g := range gaps {
		e.log.CoverageGap(g.Date.Format("2006-01-02"), string(g.Role), g.Reason)
	}

	// 出厂自检, 求解器保证规则成立, 违规说明引擎有缺陷
	for _, v := range validator.NewAuditor(sc).Audit(days) {
		e.log.ConstraintViolation(string(v.Type), v.Message)
	}

	schedule := &model.Schedule{
		BaseModel: model.NewBaseModel(),
		Block:     sc.Block,
		Days:      days,
	}

	result := &model.GenerationResult{
		Schedule:        schedule,
		GoldenWeekends:  golden,
		BackboneScore:   &backboneRes.Score,
		InternScore:     internRes.Score,
		InternSummary:   internRes.Summary,
		Gaps:            gaps,
		CarryTotals:     stats.CarryTotals(sc, days),
		CarryTransition: carryTransition(days),
		Iterations:      backboneRes.Iterations,
		Duration:        time.Since(start),
	}

	e.log.GenerationComplete(blockID, result.Duration, backboneRes.Score)
	return result, nil
}

// emptyResult 不可行时的空结果
func emptyResult(sc *scheduler.Context, start time.Time) *model.GenerationResult {
	return &model.GenerationResult{
		Schedule: &model.Schedule{
			BaseModel: model.NewBaseModel(),
			Block:     sc.Block,
		},
		Duration: time.Since(start),
	}
}

// carryTransition 取最后几天的排班供下一区块延伸间隔规则
func carryTransition(days []model.DayAssignment) []model.TransitionDay {
	n := len(days)
	from := n - transitionCarryDays
	if from < 0 {
		from = 0
	}
	out := make([]model.TransitionDay, 0, n-from)
	for _, da := range days[from:] {
		out = append(out, model.TransitionDay{Date: da.Date, Call: da.Call, Backup: da.Backup})
	}
	return out
}
