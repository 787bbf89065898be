package swap

import (
	"sort"

	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
)

// Recommender 换班推荐器
type Recommender struct {
	sc        *scheduler.Context
	evaluator *Evaluator
}

// NewRecommender 创建换班推荐器
func NewRecommender(sc *scheduler.Context) *Recommender {
	return &Recommender{sc: sc, evaluator: NewEvaluator(sc)}
}

// Recommendation 换班推荐
type Recommendation struct {
	Target     string      `json:"target"`
	TargetDay  int         `json:"target_day"` // -1 表示接管
	Score      float64     `json:"score"`
	SwapType   string      `json:"swap_type"` // take_over/exchange
	Evaluation *Evaluation `json:"evaluation"`
	Rank       int         `json:"rank"`
}

// Options 推荐选项
type Options struct {
	MaxRecommendations int      // 最大推荐数量
	Preferred          []string // 优先考虑的人
	Exclude            []string // 排除的人
	AllowExchange      bool     // 是否允许互换
	MinScore           float64  // 最低得分
}

// DefaultOptions 返回默认选项
func DefaultOptions() *Options {
	return &Options{
		MaxRecommendations: 5,
		AllowExchange:      true,
		MinScore:           60,
	}
}

// RecommendTargets 为指定班次推荐接班人
func (r *Recommender) RecommendTargets(days []model.DayAssignment, day int, role Role, options *Options) []Recommendation {
	if options == nil {
		options = DefaultOptions()
	}
	if day < 0 || day >= len(days) {
		return nil
	}

	source := roleOf(&days[day], role)
	excludeSet := map[string]bool{source: true}
	for _, name := range options.Exclude {
		excludeSet[name] = true
	}
	preferredSet := make(map[string]bool)
	for _, name := range options.Preferred {
		preferredSet[name] = true
	}

	var candidates []Recommendation
	for _, res := range r.sc.Roster {
		if excludeSet[res.Name] || res.IsIntern() {
			continue
		}

		// 接管评估
		eval := r.evaluator.Evaluate(days, &Request{
			Day: day, Role: role, Target: res.Name, TargetDay: -1,
		})
		if eval.Feasible && eval.Score >= options.MinScore {
			candidate := Recommendation{
				Target:     res.Name,
				TargetDay:  -1,
				Score:      eval.Score,
				SwapType:   "take_over",
				Evaluation: eval,
			}
			if preferredSet[res.Name] {
				candidate.Score += 10
			}
			candidates = append(candidates, candidate)
		}

		if options.AllowExchange {
			candidates = append(candidates,
				r.exchangeCandidates(days, day, role, res.Name, preferredSet, options)...)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > options.MaxRecommendations {
		candidates = candidates[:options.MaxRecommendations]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates
}

// exchangeCandidates 查找与目标同角色班次的互换方案
func (r *Recommender) exchangeCandidates(days []model.DayAssignment, day int, role Role, target string, preferred map[string]bool, options *Options) []Recommendation {
	var out []Recommendation
	for i := range days {
		if i == day || roleOf(&days[i], role) != target {
			continue
		}
		eval := r.evaluator.Evaluate(days, &Request{
			Day: day, Role: role, Target: target, TargetDay: i,
		})
		if !eval.Feasible || eval.Score < options.MinScore {
			continue
		}
		candidate := Recommendation{
			Target:     target,
			TargetDay:  i,
			Score:      eval.Score,
			SwapType:   "exchange",
			Evaluation: eval,
		}
		if preferred[target] {
			candidate.Score += 10
		}
		out = append(out, candidate)
	}
	return out
}

// FindBestReplacement 为请假者找到最佳接班人
// 该人当天无班时返回 nil
func (r *Recommender) FindBestReplacement(days []model.DayAssignment, resident string, date string) *Recommendation {
	day, role := -1, RoleCall
	for i := range days {
		if days[i].Date.Format("2006-01-02") != date {
			continue
		}
		switch resident {
		case days[i].Call:
			day, role = i, RoleCall
		case days[i].Backup:
			day, role = i, RoleBackup
		}
		break
	}
	if day < 0 {
		return nil
	}

	recs := r.RecommendTargets(days, day, role, &Options{
		MaxRecommendations: 1,
		AllowExchange:      true,
		MinScore:           50,
	})
	if len(recs) == 0 {
		return nil
	}
	return &recs[0]
}
