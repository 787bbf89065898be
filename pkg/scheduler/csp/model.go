package csp

import (
	"fmt"

	"github.com/zhiban/zhiban/pkg/errors"
)

// Var 变量句柄
type Var int

// Unassigned 表示变量尚未赋值
const Unassigned = -1

// binaryConstraint 二元约束, ok 返回两个取值是否兼容
type binaryConstraint struct {
	a, b Var
	ok   func(va, vb int) bool
	name string
}

// countConstraint 计数约束: 取值为 value 的变量不超过 max 个
type countConstraint struct {
	vars  []Var
	value int
	max   int
	name  string
}

// runConstraint 连续约束: 按序排列的变量中同一取值的连续段不超过 maxRun
type runConstraint struct {
	vars   []Var
	maxRun int
	name   string
}

// Model 约束模型
type Model struct {
	nValues  int
	domains  []Domain
	names    []string
	binaries []binaryConstraint
	// adjacency 记录每个变量关联的二元约束下标
	adjacency [][]int
	counts    []countConstraint
	runs      []runConstraint
	// countIndex/runIndex 记录每个变量关联的全局约束下标
	countIndex [][]int
	runIndex   [][]int
}

// NewModel 创建约束模型, nValues 为所有变量共享的取值空间大小
func NewModel(nValues int) (*Model, error) {
	if nValues <= 0 || nValues > MaxDomainSize {
		return nil, errors.InvalidInput("nValues", fmt.Sprintf("取值空间大小 %d 超出支持范围 [1, %d]", nValues, MaxDomainSize))
	}
	return &Model{nValues: nValues}, nil
}

// NumValues 返回取值空间大小
func (m *Model) NumValues() int {
	return m.nValues
}

// NumVars 返回变量个数
func (m *Model) NumVars() int {
	return len(m.domains)
}

// AddVar 添加一个变量, 初始域为全集
func (m *Model) AddVar(name string) Var {
	m.domains = append(m.domains, FullDomain(m.nValues))
	m.names = append(m.names, name)
	m.adjacency = append(m.adjacency, nil)
	m.countIndex = append(m.countIndex, nil)
	m.runIndex = append(m.runIndex, nil)
	return Var(len(m.domains) - 1)
}

// VarName 返回变量名称
func (m *Model) VarName(v Var) string {
	return m.names[v]
}

// Domain 返回变量当前的基础域
func (m *Model) Domain(v Var) Domain {
	return m.domains[v]
}

// Fix 将变量固定为单一取值
func (m *Model) Fix(v Var, value int) {
	m.domains[v] = Domain(0).Add(value)
}

// Allow 将变量域限制为给定取值集合
func (m *Model) Allow(v Var, values []int) {
	var d Domain
	for _, val := range values {
		d = d.Add(val)
	}
	m.domains[v] = m.domains[v].Intersect(d)
}

// Forbid 从变量域中移除一个取值
func (m *Model) Forbid(v Var, value int) {
	m.domains[v] = m.domains[v].Remove(value)
}

// AddBinary 添加任意二元约束
func (m *Model) AddBinary(a, b Var, name string, ok func(va, vb int) bool) {
	idx := len(m.binaries)
	m.binaries = append(m.binaries, binaryConstraint{a: a, b: b, ok: ok, name: name})
	m.adjacency[a] = append(m.adjacency[a], idx)
	m.adjacency[b] = append(m.adjacency[b], idx)
}

// NotEqual 约束两个变量取值不同
func (m *Model) NotEqual(a, b Var, name string) {
	m.AddBinary(a, b, name, func(va, vb int) bool { return va != vb })
}

// ForbidPair 禁止 (a=va, b=vb) 同时成立
func (m *Model) ForbidPair(a Var, va int, b Var, vb int, name string) {
	m.AddBinary(a, b, name, func(x, y int) bool { return x != va || y != vb })
}

// CountAtMost 约束变量集合中取值为 value 的个数不超过 max
func (m *Model) CountAtMost(vars []Var, value, max int, name string) {
	idx := len(m.counts)
	m.counts = append(m.counts, countConstraint{vars: append([]Var(nil), vars...), value: value, max: max, name: name})
	for _, v := range vars {
		m.countIndex[v] = append(m.countIndex[v], idx)
	}
}

// MaxRun 约束按序变量中同一取值的连续出现次数不超过 maxRun
func (m *Model) MaxRun(vars []Var, maxRun int, name string) {
	idx := len(m.runs)
	m.runs = append(m.runs, runConstraint{vars: append([]Var(nil), vars...), maxRun: maxRun, name: name})
	for _, v := range vars {
		m.runIndex[v] = append(m.runIndex[v], idx)
	}
}

// checkCount 在部分赋值下检查计数约束, assign 中未赋值的变量不计入
func (m *Model) checkCount(c *countConstraint, assign []int) bool {
	n := 0
	for _, v := range c.vars {
		if assign[v] == c.value {
			n++
			if n > c.max {
				return false
			}
		}
	}
	return true
}

// checkRun 在部分赋值下检查连续约束, 未赋值的位置视为断开
func (m *Model) checkRun(c *runConstraint, assign []int) bool {
	run := 0
	prev := Unassigned
	for _, v := range c.vars {
		cur := assign[v]
		if cur != Unassigned && cur == prev {
			run++
		} else {
			run = 1
		}
		if cur != Unassigned && run > c.maxRun {
			return false
		}
		prev = cur
	}
	return true
}
