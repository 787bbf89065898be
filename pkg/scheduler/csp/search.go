package csp

import (
	"context"
	"sort"

	"github.com/zhiban/zhiban/pkg/errors"
)

// Solver 回溯求解器, 采用前向检查和最小剩余值变量排序
type Solver struct {
	model *Model
	// valueScore 取值排序依据, 分数低者优先尝试, 为 nil 时按升序
	valueScore func(v Var, value int) float64
}

// NewSolver 创建求解器
func NewSolver(m *Model) *Solver {
	return &Solver{model: m}
}

// SetValueScore 设置取值排序函数, 分数低的取值优先尝试
func (s *Solver) SetValueScore(f func(v Var, value int) float64) {
	s.valueScore = f
}

// Solve 求解模型, 返回每个变量的取值
func (s *Solver) Solve(ctx context.Context) ([]int, error) {
	m := s.model
	n := m.NumVars()
	domains := make([]Domain, n)
	copy(domains, m.domains)
	assign := make([]int, n)
	for i := range assign {
		assign[i] = Unassigned
	}

	// 先传播单值域并检查空域
	for i := range domains {
		if domains[i].Empty() {
			return nil, errors.NoFeasibleSolution("变量 " + m.names[i] + " 的取值域为空")
		}
	}

	if s.search(ctx, domains, assign, 0) {
		return assign, nil
	}
	if ctx.Err() != nil {
		return nil, errors.Timeout("求解被中断")
	}
	return nil, errors.NoFeasibleSolution("约束无法同时满足")
}

// search 回溯搜索, depth 仅用于周期性检查中断
func (s *Solver) search(ctx context.Context, domains []Domain, assign []int, depth int) bool {
	if depth&0x3f == 0 && ctx.Err() != nil {
		return false
	}

	v := s.pickVar(domains, assign)
	if v < 0 {
		return true
	}

	for _, value := range s.orderedValues(Var(v), domains[v]) {
		assign[v] = value
		if s.consistent(Var(v), assign) {
			saved, ok := s.propagate(Var(v), value, domains, assign)
			if ok && s.search(ctx, domains, assign, depth+1) {
				return true
			}
			s.restore(domains, saved)
		}
		assign[v] = Unassigned
	}
	return false
}

// pickVar 最小剩余值启发: 选域最小的未赋值变量
func (s *Solver) pickVar(domains []Domain, assign []int) int {
	best := -1
	bestSize := MaxDomainSize + 1
	for i := range domains {
		if assign[i] != Unassigned {
			continue
		}
		if size := domains[i].Count(); size < bestSize {
			best = i
			bestSize = size
			if size == 1 {
				break
			}
		}
	}
	return best
}

// orderedValues 按取值分数升序排列候选取值
func (s *Solver) orderedValues(v Var, d Domain) []int {
	vals := d.Values()
	if s.valueScore == nil || len(vals) < 2 {
		return vals
	}
	sort.SliceStable(vals, func(i, j int) bool {
		return s.valueScore(v, vals[i]) < s.valueScore(v, vals[j])
	})
	return vals
}

// consistent 检查变量赋值后所有相关约束在当前部分赋值下是否成立
func (s *Solver) consistent(v Var, assign []int) bool {
	m := s.model
	for _, idx := range m.adjacency[v] {
		c := &m.binaries[idx]
		va, vb := assign[c.a], assign[c.b]
		if va != Unassigned && vb != Unassigned && !c.ok(va, vb) {
			return false
		}
	}
	for _, idx := range m.countIndex[v] {
		if !m.checkCount(&m.counts[idx], assign) {
			return false
		}
	}
	for _, idx := range m.runIndex[v] {
		if !m.checkRun(&m.runs[idx], assign) {
			return false
		}
	}
	return true
}

// savedDomain 用于回溯时恢复被剪裁的域
type savedDomain struct {
	v Var
	d Domain
}

// propagate 前向检查: 根据 v=value 剪裁相邻未赋值变量的域
func (s *Solver) propagate(v Var, value int, domains []Domain, assign []int) ([]savedDomain, bool) {
	m := s.model
	var saved []savedDomain
	for _, idx := range m.adjacency[v] {
		c := &m.binaries[idx]
		other := c.a
		ok := c.ok
		if other == v {
			// v 是 a 端, 候选值落在 b 端, 反转参数顺序以保持 ok(va, vb) 的约定
			other = c.b
			f := c.ok
			ok = func(vo, vv int) bool { return f(vv, vo) }
		}
		if assign[other] != Unassigned {
			continue
		}
		old := domains[other]
		next := old
		for rest := old; !rest.Empty(); {
			cand := rest.First()
			rest = rest.Remove(cand)
			if !ok(cand, value) {
				next = next.Remove(cand)
			}
		}
		if next != old {
			saved = append(saved, savedDomain{v: other, d: old})
			domains[other] = next
			if next.Empty() {
				return saved, false
			}
		}
	}
	return saved, true
}

// restore 恢复被 propagate 剪裁的域
func (s *Solver) restore(domains []Domain, saved []savedDomain) {
	for i := len(saved) - 1; i >= 0; i-- {
		domains[saved[i].v] = saved[i].d
	}
}

// Validate 检查一个完整赋值是否满足模型全部约束
func (m *Model) Validate(assign []int) bool {
	if len(assign) != m.NumVars() {
		return false
	}
	for i, value := range assign {
		if !m.domains[i].Has(value) {
			return false
		}
	}
	for i := range m.binaries {
		c := &m.binaries[i]
		if !c.ok(assign[c.a], assign[c.b]) {
			return false
		}
	}
	for i := range m.counts {
		if !m.checkCount(&m.counts[i], assign) {
			return false
		}
	}
	for i := range m.runs {
		if !m.checkRun(&m.runs[i], assign) {
			return false
		}
	}
	return true
}

// CandidateValues 返回在当前完整赋值下变量 v 可替换的取值集合
// 仅检查基础域和与已赋值变量的约束, 供邻域搜索使用
func (m *Model) CandidateValues(assign []int, v Var) []int {
	orig := assign[v]
	var out []int
	for _, value := range m.domains[v].Values() {
		if value == orig {
			continue
		}
		assign[v] = value
		ok := true
		for _, idx := range m.adjacency[v] {
			c := &m.binaries[idx]
			if !c.ok(assign[c.a], assign[c.b]) {
				ok = false
				break
			}
		}
		if ok {
			for _, idx := range m.countIndex[v] {
				if !m.checkCount(&m.counts[idx], assign) {
					ok = false
					break
				}
			}
		}
		if ok {
			for _, idx := range m.runIndex[v] {
				if !m.checkRun(&m.runs[idx], assign) {
					ok = false
					break
				}
			}
		}
		if ok {
			out = append(out, value)
		}
	}
	assign[v] = orig
	return out
}
