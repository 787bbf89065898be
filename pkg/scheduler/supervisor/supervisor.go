// Package supervisor 为二年级值班日用贪心启发式补充督导
//
// 规则: 周日和节假日不设督导; 只有 PGY2 值班的日期需要督导;
// 周五优先让周六的值班人提前督导; 前一天值班的人不得督导;
// 按已督导次数最少优先, 并列时按花名册顺序
package supervisor

import (
	"sort"
	"time"

	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
)

// Assign 原地为 days 填充督导列, 返回未能分配的缺口
func Assign(sc *scheduler.Context, days []model.DayAssignment) []model.CoverageGap {
	log := logger.Get()
	var gaps []model.CoverageGap

	counts := make(map[string]int)
	supervisors := sc.Roster.ByPGY(3, 4)

	prevCall := ""
	if t, ok := sc.TransitionOn(sc.Block.Start.AddDate(0, 0, -1)); ok {
		prevCall = t.Call
	}

	for d := range days {
		day := model.Midnight(days[d].Date)
		call := days[d].Call

		if day.Weekday() == time.Sunday || sc.IsHoliday(day) {
			prevCall = call
			continue
		}
		callIdx := sc.Roster.IndexOf(call)
		if callIdx < 0 || sc.Roster[callIdx].PGY != 2 {
			prevCall = call
			continue
		}

		// 周五: 周六值班人提前督导, 形成连续的周末班
		if day.Weekday() == time.Friday && d+1 < len(days) {
			satCall := days[d+1].Call
			if idx := sc.Roster.IndexOf(satCall); idx >= 0 && sc.Roster[idx].CanSupervise() &&
				!sc.HardCovered(satCall, day) &&
				!sc.SoftBlocked(satCall, day, model.PriorityNonCall) {
				days[d].Supervisor = satCall
				counts[satCall]++
				prevCall = call
				continue
			}
		}

		chosen := pickSupervisor(sc, supervisors, counts, day, call, prevCall)
		if chosen == "" {
			log.Warn().Str("date", day.Format("2006-01-02")).Msg("无可用督导")
			gaps = append(gaps, model.CoverageGap{
				Date:   day,
				Role:   model.GapSupervisor,
				Reason: "没有符合条件的 PGY3/PGY4 督导",
			})
			prevCall = call
			continue
		}

		days[d].Supervisor = chosen
		counts[chosen]++
		prevCall = call
	}
	return gaps
}

// pickSupervisor 在可用督导中选次数最少者
// 优先选没有免值请求冲突的人, 全部冲突时退而求其次
func pickSupervisor(sc *scheduler.Context, supervisors []int, counts map[string]int, day time.Time, call, prevCall string) string {
	var eligible, noSoft []string
	for _, r := range supervisors {
		name := sc.Roster[r].Name
		if name == call || name == prevCall || sc.HardCovered(name, day) {
			continue
		}
		eligible = append(eligible, name)
		if !sc.SoftBlocked(name, day, model.PriorityNonCall) {
			noSoft = append(noSoft, name)
		}
	}

	pool := noSoft
	if len(pool) == 0 {
		pool = eligible
	}
	if len(pool) == 0 {
		return ""
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return counts[pool[i]] < counts[pool[j]]
	})
	return pool[0]
}
