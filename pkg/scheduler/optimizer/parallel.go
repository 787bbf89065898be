// Package optimizer 提供排班优化算法
package optimizer

import (
	"context"
	"math"
	"sync"
)

// ParallelEvaluator 并行评估器
type ParallelEvaluator struct {
	workers   int
	objective Objective
}

// NewParallelEvaluator 创建并行评估器
func NewParallelEvaluator(workers int, objective Objective) *ParallelEvaluator {
	if workers <= 0 {
		workers = 4
	}
	return &ParallelEvaluator{
		workers:   workers,
		objective: objective,
	}
}

// EvaluationResult 评估结果
type EvaluationResult struct {
	Index int
	Score float64
}

// EvaluateBatch 并行评估一批赋值
func (p *ParallelEvaluator) EvaluateBatch(ctx context.Context, batch [][]int) []EvaluationResult {
	if len(batch) == 0 {
		return nil
	}

	results := make([]EvaluationResult, len(batch))
	for i := range results {
		results[i] = EvaluationResult{Index: i, Score: math.Inf(1)}
	}
	jobs := make(chan int, len(batch))

	var wg sync.WaitGroup
	workers := p.workers
	if workers > len(batch) {
		workers = len(batch)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = EvaluationResult{Index: idx, Score: p.objective.Evaluate(batch[idx])}
				if ctx.Err() != nil {
					return
				}
			}
		}()
	}

	for i := range batch {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
