// Package optimizer 提供排班优化算法
package optimizer

import (
	"math/rand"

	"github.com/zhiban/zhiban/pkg/scheduler/csp"
)

// MoveType 邻域移动类型
type MoveType int

const (
	MoveReassign MoveType = iota // 重新指派单个变量
	MoveSwap                     // 交换同组两个变量的取值
	MovePairSwap                 // 交换配对变量的取值
)

// ModelNeighborhood 基于约束模型的邻域生成器
// 生成的每个邻居都经过模型校验, 保证硬约束不被破坏
type ModelNeighborhood struct {
	model *csp.Model
	// groups 可互换取值的变量分组(如同角色的各天)
	groups [][]csp.Var
	// pairs 可互换取值的变量对(如同一天的两个角色)
	pairs       [][2]csp.Var
	moveWeights map[MoveType]float64
}

// NewModelNeighborhood 创建邻域生成器
func NewModelNeighborhood(m *csp.Model, groups [][]csp.Var, pairs [][2]csp.Var) *ModelNeighborhood {
	weights := map[MoveType]float64{
		MoveReassign: 0.50,
		MoveSwap:     0.35,
		MovePairSwap: 0.15,
	}
	if len(pairs) == 0 {
		weights = map[MoveType]float64{
			MoveReassign: 0.60,
			MoveSwap:     0.40,
		}
	}
	return &ModelNeighborhood{
		model:       m,
		groups:      groups,
		pairs:       pairs,
		moveWeights: weights,
	}
}

// Neighbor 生成一个可行邻居, 失败时返回 nil
func (g *ModelNeighborhood) Neighbor(rng *rand.Rand, assign []int) []int {
	switch g.pickMove(rng) {
	case MoveSwap:
		return g.swapMove(rng, assign)
	case MovePairSwap:
		return g.pairSwapMove(rng, assign)
	default:
		return g.reassignMove(rng, assign)
	}
}

// pickMove 按权重随机选择移动类型
func (g *ModelNeighborhood) pickMove(rng *rand.Rand) MoveType {
	r := rng.Float64()
	acc := 0.0
	for _, mt := range []MoveType{MoveReassign, MoveSwap, MovePairSwap} {
		acc += g.moveWeights[mt]
		if r < acc {
			return mt
		}
	}
	return MoveReassign
}

// reassignMove 随机变量换为随机可行取值
func (g *ModelNeighborhood) reassignMove(rng *rand.Rand, assign []int) []int {
	n := g.model.NumVars()
	if n == 0 {
		return nil
	}
	next := append([]int(nil), assign...)
	v := csp.Var(rng.Intn(n))
	cands := g.model.CandidateValues(next, v)
	if len(cands) == 0 {
		return nil
	}
	next[v] = cands[rng.Intn(len(cands))]
	return next
}

// swapMove 同组内交换两个变量的取值
func (g *ModelNeighborhood) swapMove(rng *rand.Rand, assign []int) []int {
	if len(g.groups) == 0 {
		return g.reassignMove(rng, assign)
	}
	group := g.groups[rng.Intn(len(g.groups))]
	if len(group) < 2 {
		return nil
	}
	i := rng.Intn(len(group))
	j := rng.Intn(len(group))
	if i == j {
		return nil
	}
	a, b := group[i], group[j]
	if assign[a] == assign[b] {
		return nil
	}
	next := append([]int(nil), assign...)
	next[a], next[b] = next[b], next[a]
	if !g.model.Validate(next) {
		return nil
	}
	return next
}

// pairSwapMove 交换配对变量的取值
func (g *ModelNeighborhood) pairSwapMove(rng *rand.Rand, assign []int) []int {
	if len(g.pairs) == 0 {
		return g.reassignMove(rng, assign)
	}
	p := g.pairs[rng.Intn(len(g.pairs))]
	if assign[p[0]] == assign[p[1]] {
		return nil
	}
	next := append([]int(nil), assign...)
	next[p[0]], next[p[1]] = next[p[1]], next[p[0]]
	if !g.model.Validate(next) {
		return nil
	}
	return next
}
