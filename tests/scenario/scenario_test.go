// Package scenario 提供场景测试
package scenario

import (
	"time"

	"github.com/zhiban/zhiban/pkg/engine"
	"github.com/zhiban/zhiban/pkg/scheduler/optimizer"
)

// newEngine 场景测试用的引擎, 固定种子保证可复现
func newEngine() *engine.Engine {
	return engine.New(engine.Config{
		SolveTimeout: 20 * time.Second,
		Optimizer: &optimizer.Config{
			MaxIterations:    500,
			MaxTime:          20 * time.Second,
			InitialTemp:      50,
			CoolingRate:      0.97,
			TabuSize:         20,
			NeighborhoodSize: 10,
			ParallelWorkers:  1,
			StopOnPlateau:    true,
			PlateauThreshold: 100,
			Seed:             11,
		},
	})
}

// baseRequest 两周排班的标准花名册
func baseRequest(start, end string) engine.Request {
	return engine.Request{
		Residents: []string{
			"Amy", "Beth", "Cara", "Dana", "Erin",
			"Fred", "Gina", "Hank", "Iris", "Jack",
			"Kate", "Liam", "Ivy", "Joe",
		},
		PGYLevels: []int{2, 2, 2, 2, 2, 3, 3, 3, 3, 3, 4, 4, 1, 1},
		StartDate: start,
		EndDate:   end,
	}
}
