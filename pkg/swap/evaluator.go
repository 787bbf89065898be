// Package swap 提供值班换班评估与推荐
package swap

import (
	"fmt"

	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
	"github.com/zhiban/zhiban/pkg/stats"
	"github.com/zhiban/zhiban/pkg/validator"
)

// Role 可换班的角色
type Role string

const (
	RoleCall   Role = "call"
	RoleBackup Role = "backup"
)

// Request 换班请求
// TargetDay 为 -1 表示接管（目标只接班不交班），否则为互换
type Request struct {
	Day       int    `json:"day"`    // 源班次在排班中的下标
	Role      Role   `json:"role"`   // 源班次角色
	Target    string `json:"target"` // 接班人姓名
	TargetDay int    `json:"target_day"`
}

// Issue 换班引出的规则问题
type Issue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // error/warning
	Message  string `json:"message"`
}

// Impact 换班对双方值班量的影响
type Impact struct {
	SourceCallChange   int `json:"source_call_change"`
	SourceBackupChange int `json:"source_backup_change"`
	TargetCallChange   int `json:"target_call_change"`
	TargetBackupChange int `json:"target_backup_change"`
}

// Evaluation 换班评估结果
type Evaluation struct {
	Feasible       bool    `json:"feasible"`
	Score          float64 `json:"score"` // 0-100
	Issues         []Issue `json:"issues"`
	Impact         Impact  `json:"impact"`
	Recommendation string  `json:"recommendation"`
}

// Evaluator 换班评估器, 以审核器为可行性依据
type Evaluator struct {
	sc      *scheduler.Context
	auditor *validator.Auditor
}

// NewEvaluator 创建换班评估器
func NewEvaluator(sc *scheduler.Context) *Evaluator {
	return &Evaluator{sc: sc, auditor: validator.NewAuditor(sc)}
}

// Evaluate 评估一次换班
// 以换班前的审核结果为基线, 只有新增的规则问题才计入评估
func (e *Evaluator) Evaluate(days []model.DayAssignment, req *Request) *Evaluation {
	result := &Evaluation{Feasible: true, Score: 100, Issues: make([]Issue, 0)}

	if req.Day < 0 || req.Day >= len(days) {
		result.Feasible = false
		result.Issues = append(result.Issues, Issue{
			Type: "invalid_request", Severity: "error", Message: "换班日下标越界",
		})
		return result
	}
	if e.sc.Roster.IndexOf(req.Target) < 0 {
		result.Feasible = false
		result.Issues = append(result.Issues, Issue{
			Type: "unknown_target", Severity: "error",
			Message: fmt.Sprintf("接班人 %s 不在花名册中", req.Target),
		})
		return result
	}

	source := roleOf(&days[req.Day], req.Role)
	if source == req.Target {
		result.Feasible = false
		result.Issues = append(result.Issues, Issue{
			Type: "invalid_request", Severity: "error", Message: "接班人不能是原值班人",
		})
		return result
	}

	// 基线: 换班前已有的问题不算在此次换班头上
	baseline := make(map[string]bool)
	for _, v := range e.auditor.Audit(days) {
		baseline[violationKey(v)] = true
	}

	simulated := Apply(days, req)
	for _, v := range e.auditor.Audit(simulated) {
		if baseline[violationKey(v)] {
			continue
		}
		issue := Issue{Type: string(v.Type), Severity: v.Severity, Message: v.Message}
		result.Issues = append(result.Issues, issue)
		if v.Severity == "error" {
			result.Feasible = false
		}
	}

	result.Impact = e.impact(days, simulated, source, req.Target)
	result.Score = e.score(result)
	result.Recommendation = e.recommendation(result)
	return result
}

// CanSwap 快速检查是否可换班
func (e *Evaluator) CanSwap(days []model.DayAssignment, req *Request) (bool, string) {
	result := e.Evaluate(days, req)
	if !result.Feasible {
		if len(result.Issues) > 0 {
			return false, result.Issues[0].Message
		}
		return false, "无法进行换班"
	}
	return true, ""
}

// Apply 返回应用换班后的新排班, 不修改原切片
func Apply(days []model.DayAssignment, req *Request) []model.DayAssignment {
	out := make([]model.DayAssignment, len(days))
	copy(out, days)

	source := roleOf(&out[req.Day], req.Role)
	setRole(&out[req.Day], req.Role, req.Target)
	if req.TargetDay >= 0 && req.TargetDay < len(out) && req.TargetDay != req.Day {
		// 互换: 目标的同角色班次交给原值班人
		setRole(&out[req.TargetDay], req.Role, source)
	}
	return out
}

// impact 统计换班前后双方班次总量的变化
func (e *Evaluator) impact(before, after []model.DayAssignment, source, target string) Impact {
	b := stats.BlockTotals(e.sc, before)
	a := stats.BlockTotals(e.sc, after)
	return Impact{
		SourceCallChange:   a[source].CallTotal - b[source].CallTotal,
		SourceBackupChange: a[source].BackupTotal - b[source].BackupTotal,
		TargetCallChange:   a[target].CallTotal - b[target].CallTotal,
		TargetBackupChange: a[target].BackupTotal - b[target].BackupTotal,
	}
}

// score 按新增问题和负担变化打分
func (e *Evaluator) score(result *Evaluation) float64 {
	score := 100.0
	for _, issue := range result.Issues {
		switch issue.Severity {
		case "error":
			score -= 40
		case "warning":
			score -= 10
		}
	}
	// 接班人净增班次越多, 分数越低
	gain := result.Impact.TargetCallChange + result.Impact.TargetBackupChange
	if gain > 0 {
		score -= float64(gain) * 5
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (e *Evaluator) recommendation(result *Evaluation) string {
	if !result.Feasible {
		return "不建议进行此换班, 存在硬性规则冲突"
	}
	switch {
	case result.Score >= 90:
		return "推荐, 换班后无新增问题"
	case result.Score >= 70:
		return "可以进行, 但有少量提醒"
	default:
		return "谨慎进行, 会影响排班质量"
	}
}

func roleOf(da *model.DayAssignment, role Role) string {
	if role == RoleBackup {
		return da.Backup
	}
	return da.Call
}

func setRole(da *model.DayAssignment, role Role, name string) {
	if role == RoleBackup {
		da.Backup = name
		return
	}
	da.Call = name
}

func violationKey(v validator.Violation) string {
	return fmt.Sprintf("%s|%s|%s|%s", v.Type, v.Severity, v.Resident, v.Date)
}
