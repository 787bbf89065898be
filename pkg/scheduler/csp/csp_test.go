package csp

import (
	"context"
	"testing"

	"github.com/zhiban/zhiban/pkg/errors"
)

func TestDomainOperations(t *testing.T) {
	tests := []struct {
		name  string
		setup func() Domain
		want  []int
	}{
		{
			name:  "全集域",
			setup: func() Domain { return FullDomain(4) },
			want:  []int{0, 1, 2, 3},
		},
		{
			name: "移除取值",
			setup: func() Domain {
				return FullDomain(4).Remove(1).Remove(3)
			},
			want: []int{0, 2},
		},
		{
			name: "交集",
			setup: func() Domain {
				a := FullDomain(5).Remove(0)
				b := FullDomain(3)
				return a.Intersect(b)
			},
			want: []int{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.setup()
			got := d.Values()
			if len(got) != len(tt.want) {
				t.Fatalf("Values() = %v, 期望 %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Values()[%d] = %d, 期望 %d", i, got[i], tt.want[i])
				}
			}
			if d.Count() != len(tt.want) {
				t.Errorf("Count() = %d, 期望 %d", d.Count(), len(tt.want))
			}
		})
	}
}

func TestDomainSingle(t *testing.T) {
	d := Domain(0).Add(5)
	if v, ok := d.Single(); !ok || v != 5 {
		t.Errorf("Single() = (%d, %v), 期望 (5, true)", v, ok)
	}
	if _, ok := FullDomain(3).Single(); ok {
		t.Error("多值域的 Single() 应返回 false")
	}
	if _, ok := Domain(0).Single(); ok {
		t.Error("空域的 Single() 应返回 false")
	}
}

func TestSolveNotEqual(t *testing.T) {
	m, err := NewModel(3)
	if err != nil {
		t.Fatalf("NewModel 失败: %v", err)
	}
	a := m.AddVar("a")
	b := m.AddVar("b")
	c := m.AddVar("c")
	m.NotEqual(a, b, "a!=b")
	m.NotEqual(b, c, "b!=c")
	m.NotEqual(a, c, "a!=c")

	assign, err := NewSolver(m).Solve(context.Background())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if assign[a] == assign[b] || assign[b] == assign[c] || assign[a] == assign[c] {
		t.Errorf("解违反全不等约束: %v", assign)
	}
	if !m.Validate(assign) {
		t.Error("Validate 应接受求解器给出的解")
	}
}

func TestSolveInfeasible(t *testing.T) {
	m, _ := NewModel(2)
	a := m.AddVar("a")
	b := m.AddVar("b")
	c := m.AddVar("c")
	m.NotEqual(a, b, "a!=b")
	m.NotEqual(b, c, "b!=c")
	m.NotEqual(a, c, "a!=c")

	_, err := NewSolver(m).Solve(context.Background())
	if err == nil {
		t.Fatal("三个变量两个取值的全不等问题应无解")
	}
	if !errors.Is(err, errors.CodeNoFeasibleSolution) {
		t.Errorf("错误码 = %v, 期望 NO_FEASIBLE_SOLUTION", errors.GetCode(err))
	}
}

func TestSolveWithFixAndForbidPair(t *testing.T) {
	m, _ := NewModel(4)
	a := m.AddVar("a")
	b := m.AddVar("b")
	m.Fix(a, 2)
	m.ForbidPair(a, 2, b, 0, "禁止(2,0)")
	m.ForbidPair(a, 2, b, 1, "禁止(2,1)")
	m.Forbid(b, 3)

	assign, err := NewSolver(m).Solve(context.Background())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if assign[a] != 2 {
		t.Errorf("a = %d, 期望固定值 2", assign[a])
	}
	if assign[b] != 2 {
		t.Errorf("b = %d, 期望唯一剩余取值 2", assign[b])
	}
}

func TestForbidPairDirection(t *testing.T) {
	// 非对称约束: 禁止的是 (a=2, b=0), (a=0, b=2) 依然可行
	m, _ := NewModel(4)
	a := m.AddVar("a")
	b := m.AddVar("b")
	m.Fix(a, 0)
	m.Allow(b, []int{2})
	m.ForbidPair(a, 2, b, 0, "禁止(a=2,b=0)")

	assign, err := NewSolver(m).Solve(context.Background())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if assign[a] != 0 || assign[b] != 2 {
		t.Errorf("赋值 = (a=%d, b=%d), 期望 (0, 2)", assign[a], assign[b])
	}
}

func TestForbidPairDirectionReversed(t *testing.T) {
	// 先固定 b 端, 剪裁落在 a 端, 参数顺序约定须同样成立
	m, _ := NewModel(4)
	a := m.AddVar("a")
	b := m.AddVar("b")
	m.Fix(b, 0)
	m.Allow(a, []int{0, 2})
	m.ForbidPair(a, 2, b, 0, "禁止(a=2,b=0)")

	assign, err := NewSolver(m).Solve(context.Background())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if assign[a] != 0 || assign[b] != 0 {
		t.Errorf("赋值 = (a=%d, b=%d), 期望 (0, 0)", assign[a], assign[b])
	}
}

func TestCountAtMost(t *testing.T) {
	m, _ := NewModel(2)
	vars := make([]Var, 4)
	for i := range vars {
		vars[i] = m.AddVar("v")
	}
	m.CountAtMost(vars, 0, 1, "取值0至多一次")

	assign, err := NewSolver(m).Solve(context.Background())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	zeros := 0
	for _, v := range vars {
		if assign[v] == 0 {
			zeros++
		}
	}
	if zeros > 1 {
		t.Errorf("取值 0 出现 %d 次, 超过上限 1", zeros)
	}
}

func TestMaxRun(t *testing.T) {
	m, _ := NewModel(2)
	vars := make([]Var, 5)
	for i := range vars {
		vars[i] = m.AddVar("d")
		m.Fix(vars[i], 1)
	}
	// 全部固定为同一取值, 连续上限 2 必然违反
	m.MaxRun(vars, 2, "连续不超过2")

	if _, err := NewSolver(m).Solve(context.Background()); err == nil {
		t.Fatal("连续约束被违反时应无解")
	}

	m2, _ := NewModel(2)
	vars2 := make([]Var, 5)
	for i := range vars2 {
		vars2[i] = m2.AddVar("d")
	}
	m2.MaxRun(vars2, 2, "连续不超过2")
	assign, err := NewSolver(m2).Solve(context.Background())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	run, prev := 0, Unassigned
	for _, v := range vars2 {
		if assign[v] == prev {
			run++
		} else {
			run = 1
		}
		if run > 2 {
			t.Fatalf("解中出现超过 2 次的连续取值: %v", assign)
		}
		prev = assign[v]
	}
}

func TestValueScoreOrdering(t *testing.T) {
	m, _ := NewModel(3)
	a := m.AddVar("a")
	s := NewSolver(m)
	// 分数最低的取值应最先被选中
	s.SetValueScore(func(v Var, value int) float64 {
		return float64(2 - value)
	})
	assign, err := s.Solve(context.Background())
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if assign[a] != 2 {
		t.Errorf("a = %d, 期望优先取分数最低的 2", assign[a])
	}
}

func TestSolveCancellation(t *testing.T) {
	m, _ := NewModel(2)
	for i := 0; i < 8; i++ {
		m.AddVar("v")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSolver(m).Solve(ctx)
	if err == nil {
		t.Fatal("已取消的上下文应返回错误")
	}
	if !errors.Is(err, errors.CodeTimeout) {
		t.Errorf("错误码 = %v, 期望 TIMEOUT", errors.GetCode(err))
	}
}

func TestCandidateValues(t *testing.T) {
	m, _ := NewModel(3)
	a := m.AddVar("a")
	b := m.AddVar("b")
	m.NotEqual(a, b, "a!=b")

	assign := []int{0, 1}
	cands := m.CandidateValues(assign, a)
	// a 当前为 0, 可换为 2 但不能换为 b 的取值 1
	if len(cands) != 1 || cands[0] != 2 {
		t.Errorf("CandidateValues = %v, 期望 [2]", cands)
	}
	if assign[a] != 0 {
		t.Errorf("CandidateValues 不应修改赋值, a = %d", assign[a])
	}
}
