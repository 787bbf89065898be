// Package optimizer 提供排班优化算法
package optimizer

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/zhiban/zhiban/pkg/logger"
)

// Config 优化配置
type Config struct {
	MaxIterations    int           `json:"max_iterations"`    // 最大迭代次数
	MaxTime          time.Duration `json:"max_time"`          // 最大运行时间
	InitialTemp      float64       `json:"initial_temp"`      // 模拟退火初始温度
	CoolingRate      float64       `json:"cooling_rate"`      // 冷却速率
	TabuSize         int           `json:"tabu_size"`         // 禁忌表大小
	NeighborhoodSize int           `json:"neighborhood_size"` // 每轮生成的邻域解数
	ParallelWorkers  int           `json:"parallel_workers"`  // 并行评估工作数
	StopOnPlateau    bool          `json:"stop_on_plateau"`   // 平台期停止
	PlateauThreshold int           `json:"plateau_threshold"` // 平台期阈值（无改进迭代次数）
	Seed             int64         `json:"seed"`              // 随机种子，0 表示按时间
}

// DefaultConfig 默认优化配置
func DefaultConfig() *Config {
	return &Config{
		MaxIterations:    2000,
		MaxTime:          30 * time.Second,
		InitialTemp:      100.0,
		CoolingRate:      0.99,
		TabuSize:         50,
		NeighborhoodSize: 20,
		ParallelWorkers:  1,
		StopOnPlateau:    true,
		PlateauThreshold: 200,
	}
}

// Objective 目标函数接口，分数越低越优
type Objective interface {
	Evaluate(assign []int) float64
}

// ObjectiveFunc 函数式目标
type ObjectiveFunc func(assign []int) float64

// Evaluate 实现 Objective
func (f ObjectiveFunc) Evaluate(assign []int) float64 {
	return f(assign)
}

// NeighborGenerator 邻域生成器接口
// Neighbor 返回一个满足全部硬约束的新赋值，无可行邻居时返回 nil
type NeighborGenerator interface {
	Neighbor(rng *rand.Rand, assign []int) []int
}

// Result 优化结果
type Result struct {
	Assignment []int
	Score      float64
	Iterations int
	Duration   time.Duration
}

// LocalSearch 局部搜索优化器（模拟退火 + 禁忌表）
type LocalSearch struct {
	config    *Config
	objective Objective
	generator NeighborGenerator
	tabuList  *TabuList
	parallel  *ParallelEvaluator
	rng       *rand.Rand
}

// NewLocalSearch 创建局部搜索优化器
func NewLocalSearch(config *Config, objective Objective, generator NeighborGenerator) *LocalSearch {
	if config == nil {
		config = DefaultConfig()
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ls := &LocalSearch{
		config:    config,
		objective: objective,
		generator: generator,
		tabuList:  NewTabuList(config.TabuSize),
		rng:       rand.New(rand.NewSource(seed)),
	}
	if config.ParallelWorkers > 1 {
		ls.parallel = NewParallelEvaluator(config.ParallelWorkers, objective)
	}
	return ls
}

// Optimize 从初始赋值出发优化目标函数
func (o *LocalSearch) Optimize(ctx context.Context, initial []int) (*Result, error) {
	start := time.Now()
	log := logger.Get()

	current := append([]int(nil), initial...)
	currentScore := o.objective.Evaluate(current)
	best := append([]int(nil), current...)
	bestScore := currentScore

	temperature := o.config.InitialTemp
	noImprovement := 0
	iterations := 0

	log.Debug().
		Int("max_iterations", o.config.MaxIterations).
		Dur("max_time", o.config.MaxTime).
		Float64("initial_score", currentScore).
		Msg("开始局部搜索优化")

	for i := 0; i < o.config.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return &Result{Assignment: best, Score: bestScore, Iterations: iterations, Duration: time.Since(start)}, ctx.Err()
		default:
		}
		if time.Since(start) > o.config.MaxTime {
			break
		}
		iterations = i + 1

		neighbors := o.generateNeighbors(current)
		if len(neighbors) == 0 {
			continue
		}

		neighbor, neighborScore := o.pickBestNeighbor(ctx, neighbors)
		if neighbor == nil {
			continue
		}

		moveKey := hashAssignment(neighbor)
		inTabu := o.tabuList.Contains(moveKey)

		accept := false
		if neighborScore < currentScore {
			accept = true
		} else if !inTabu {
			delta := neighborScore - currentScore
			if o.rng.Float64() < boltzmannProbability(delta, temperature) {
				accept = true
			}
		}

		if accept {
			current = neighbor
			currentScore = neighborScore
			o.tabuList.Add(moveKey)

			if currentScore < bestScore {
				best = append(best[:0], current...)
				bestScore = currentScore
				noImprovement = 0
			} else {
				noImprovement++
			}
		} else {
			noImprovement++
		}

		if o.config.StopOnPlateau && noImprovement >= o.config.PlateauThreshold {
			break
		}

		temperature *= o.config.CoolingRate
	}

	elapsed := time.Since(start)
	log.Debug().
		Int("iterations", iterations).
		Float64("final_score", bestScore).
		Dur("elapsed", elapsed).
		Msg("局部搜索优化完成")

	return &Result{Assignment: best, Score: bestScore, Iterations: iterations, Duration: elapsed}, nil
}

// generateNeighbors 生成一轮邻域解
func (o *LocalSearch) generateNeighbors(current []int) [][]int {
	neighbors := make([][]int, 0, o.config.NeighborhoodSize)
	for i := 0; i < o.config.NeighborhoodSize; i++ {
		if n := o.generator.Neighbor(o.rng, current); n != nil {
			neighbors = append(neighbors, n)
		}
	}
	return neighbors
}

// pickBestNeighbor 评估并返回分数最低的邻域解
func (o *LocalSearch) pickBestNeighbor(ctx context.Context, neighbors [][]int) ([]int, float64) {
	if o.parallel != nil {
		results := o.parallel.EvaluateBatch(ctx, neighbors)
		var best []int
		bestScore := math.Inf(1)
		for _, r := range results {
			if r.Score < bestScore {
				best = neighbors[r.Index]
				bestScore = r.Score
			}
		}
		return best, bestScore
	}

	var best []int
	bestScore := math.Inf(1)
	for _, n := range neighbors {
		if score := o.objective.Evaluate(n); score < bestScore {
			best = n
			bestScore = score
		}
	}
	return best, bestScore
}

// hashAssignment 计算赋值的哈希 (使用FNV-1a算法)
func hashAssignment(assign []int) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range assign {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// boltzmannProbability 计算模拟退火的接受概率
// delta: 能量差 (new - old)
// temperature: 当前温度
func boltzmannProbability(delta, temperature float64) float64 {
	if delta <= 0 {
		return 1.0
	}
	if temperature <= 0 {
		return 0.0
	}
	return math.Exp(-delta / temperature)
}

// TabuList 禁忌表（使用uint64哈希作为键提高性能）
type TabuList struct {
	items   map[uint64]struct{}
	order   []uint64
	maxSize int
	mu      sync.RWMutex
}

// NewTabuList 创建禁忌表
func NewTabuList(size int) *TabuList {
	if size <= 0 {
		size = 1
	}
	return &TabuList{
		items:   make(map[uint64]struct{}),
		order:   make([]uint64, 0, size),
		maxSize: size,
	}
}

// Add 添加到禁忌表
func (t *TabuList) Add(key uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.items[key]; exists {
		return
	}

	// 超出容量时移除最旧的
	if len(t.order) >= t.maxSize {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.items, oldest)
	}

	t.items[key] = struct{}{}
	t.order = append(t.order, key)
}

// Contains 检查是否在禁忌表中
func (t *TabuList) Contains(key uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.items[key]
	return exists
}

// Clear 清空禁忌表
func (t *TabuList) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[uint64]struct{})
	t.order = t.order[:0]
}
