package backbone

import (
	"time"

	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
)

// sameWeekdayWindow 同星期几聚集惩罚的检查窗口(两周)
const sameWeekdayWindow = 14

// Objective 骨架软性规则的目标函数, 分数越低越优
//
// 各规则族按年级分桶:
//   PGY2 公平性看周中/周五/周日, PGY3 看周中/周六, PGY4 看总量
type Objective struct {
	sc      *scheduler.Context
	nDays   int
	pgy     []int
	weights model.Weights
	// fridays 区块内全部周五的下标, 用于黄金周末判定
	fridays []int
	// ghost 名单在花名册之外的节假日, 赋值是哑元, 各计分项跳过
	ghost []bool
	// periodDays 每个周期覆盖的区块日下标
	periods    []model.RotationRange
	periodDays [][]int
}

// NewObjective 创建骨架目标函数
func NewObjective(sc *scheduler.Context) *Objective {
	o := &Objective{
		sc:      sc,
		nDays:   sc.NumDays(),
		pgy:     pgyLevels(sc.Roster),
		weights: sc.Weights,
		periods: sc.Periods.Periods(),
	}
	o.ghost = make([]bool, o.nDays)
	for d, day := range sc.Days {
		o.ghost[d] = sc.HolidayOffRoster(day)
		if day.Weekday() == time.Friday {
			o.fridays = append(o.fridays, d)
		}
	}
	o.periodDays = make([][]int, len(o.periods))
	for i, p := range o.periods {
		for d, day := range sc.Days {
			if p.Contains(day) {
				o.periodDays[i] = append(o.periodDays[i], d)
			}
		}
	}
	return o
}

// Evaluate 计算赋值的总惩罚分
func (o *Objective) Evaluate(assign []int) float64 {
	score := o.fairnessScore(assign)
	score += o.softWindowScore(assign)
	score += o.rotationFairnessScore(assign)
	score += o.sameWeekdayScore(assign)
	score += o.goldenWeekendScore(assign)
	score -= o.weekdayBonus(assign)
	return score
}

// roleCounts 每人每类别的角色计数
type roleCounts struct {
	byCategory map[model.DayCategory][]int
	total      []int
}

func newRoleCounts(n int) *roleCounts {
	return &roleCounts{
		byCategory: map[model.DayCategory][]int{
			model.CategoryWeekday:  make([]int, n),
			model.CategoryFriday:   make([]int, n),
			model.CategorySaturday: make([]int, n),
			model.CategorySunday:   make([]int, n),
		},
		total: make([]int, n),
	}
}

// countRoles 统计赋值中每人的值班和备班分布
func (o *Objective) countRoles(assign []int) (call, backup *roleCounts) {
	n := len(o.sc.Roster)
	call = newRoleCounts(n)
	backup = newRoleCounts(n)
	for d, day := range o.sc.Days {
		if o.ghost[d] {
			continue
		}
		cat := model.CategoryOf(day)
		c, b := assign[d], assign[o.nDays+d]
		call.byCategory[cat][c]++
		call.total[c]++
		backup.byCategory[cat][b]++
		backup.total[b]++
	}
	return call, backup
}

// fairnessScore 跨区块累计公平性: 各年级各类别的最大最小差之和
func (o *Objective) fairnessScore(assign []int) float64 {
	call, backup := o.countRoles(assign)

	spread := func(indices []int, current []int, prev func(model.PreviousTotals) int) float64 {
		if len(indices) < 2 {
			return 0
		}
		min, max := 0, 0
		for i, r := range indices {
			c := current[r] + prev(o.sc.PrevTotalsOf(o.sc.Roster[r].Name))
			if i == 0 {
				min, max = c, c
				continue
			}
			if c < min {
				min = c
			}
			if c > max {
				max = c
			}
		}
		return float64(max - min)
	}

	score := 0.0
	wCall, wBackup := o.weights.CallFairness, o.weights.BackupFairness

	pgy2 := o.sc.Roster.ByPGY(2)
	for _, cat := range []model.DayCategory{model.CategoryWeekday, model.CategoryFriday, model.CategorySunday} {
		cat := cat
		score += wCall * spread(pgy2, call.byCategory[cat], func(p model.PreviousTotals) int { return p.CallByCategory(cat) })
		score += wBackup * spread(pgy2, backup.byCategory[cat], func(p model.PreviousTotals) int { return p.BackupByCategory(cat) })
	}

	pgy3 := o.sc.Roster.ByPGY(3)
	for _, cat := range []model.DayCategory{model.CategoryWeekday, model.CategorySaturday} {
		cat := cat
		score += wCall * spread(pgy3, call.byCategory[cat], func(p model.PreviousTotals) int { return p.CallByCategory(cat) })
		score += wBackup * spread(pgy3, backup.byCategory[cat], func(p model.PreviousTotals) int { return p.BackupByCategory(cat) })
	}

	pgy4 := o.sc.Roster.ByPGY(4)
	score += wCall * spread(pgy4, call.total, func(p model.PreviousTotals) int { return p.CallTotal })
	score += wBackup * spread(pgy4, backup.total, func(p model.PreviousTotals) int { return p.BackupTotal })

	return score
}

// softWindowScore 软约束窗口违反
// 免值请求对值班和备班都生效, 轮转/讲座只对值班生效
func (o *Objective) softWindowScore(assign []int) float64 {
	score := 0.0
	for d, day := range o.sc.Days {
		// 节假日钉死的分配不算软约束违反
		if o.sc.IsHoliday(day) {
			continue
		}
		callName := o.sc.Roster[assign[d]].Name
		backupName := o.sc.Roster[assign[o.nDays+d]].Name

		// 两类窗口同日重叠时惩罚叠加
		if o.sc.SoftBlocked(callName, day, model.PriorityNonCall) {
			score += o.weights.NonCallRequest
		}
		if o.sc.SoftBlocked(callName, day, model.PriorityRotationLecture) {
			score += o.weights.RotationLecture
		}
		if o.sc.SoftBlocked(backupName, day, model.PriorityNonCall) {
			score += o.weights.NonCallRequest
		}
	}
	return score
}

// rotationFairnessScore 轮转周期内的参与度
// PGY2/PGY3 在每个轮转周期内应至少有一次值班和一次备班
func (o *Objective) rotationFairnessScore(assign []int) float64 {
	if !o.sc.Periods.HasRotations() {
		return 0
	}
	score := 0.0
	for _, r := range o.sc.Roster.ByPGY(2, 3) {
		for i := range o.periods {
			days := o.periodDays[i]
			if len(days) == 0 {
				continue
			}
			calls, backups := 0, 0
			for _, d := range days {
				if o.ghost[d] {
					continue
				}
				if assign[d] == r {
					calls++
				}
				if assign[o.nDays+d] == r {
					backups++
				}
			}
			if calls == 0 {
				score += o.weights.RotationFairness
			}
			if backups == 0 {
				score += o.weights.RotationFairness
			}
		}
	}
	return score
}

// sameWeekdayScore 同星期几聚集惩罚: 两周内同一人在同一星期几重复值班
func (o *Objective) sameWeekdayScore(assign []int) float64 {
	score := 0.0
	for d1 := 0; d1 < o.nDays; d1++ {
		if o.ghost[d1] {
			continue
		}
		for d2 := d1 + 7; d2 < o.nDays && d2 <= d1+sameWeekdayWindow; d2 += 7 {
			if o.ghost[d2] {
				continue
			}
			if o.sc.Days[d1].Weekday() == o.sc.Days[d2].Weekday() && assign[d1] == assign[d2] {
				score += o.weights.SameWeekdaySpacing
			}
		}
	}
	return score
}

// isGoldenWeekend 检查 PGY2 在某周五起的周末是否完全无班
func (o *Objective) isGoldenWeekend(assign []int, r, friday int) bool {
	for _, d := range []int{friday, friday + 1, friday + 2} {
		if d >= o.nDays || o.ghost[d] {
			continue
		}
		if assign[d] == r || assign[o.nDays+d] == r {
			return false
		}
	}
	return true
}

// goldenWeekendScore 黄金周末惩罚
// 每个未兑现的黄金周末小额惩罚, 整个周期内一个都没有时重罚
func (o *Objective) goldenWeekendScore(assign []int) float64 {
	pgy2 := o.sc.Roster.ByPGY(2)
	if len(pgy2) == 0 || len(o.fridays) == 0 {
		return 0
	}

	score := 0.0
	golden := make(map[int]map[int]bool, len(pgy2)) // resident -> friday day index -> golden
	for _, r := range pgy2 {
		golden[r] = make(map[int]bool, len(o.fridays))
		for _, f := range o.fridays {
			g := o.isGoldenWeekend(assign, r, f)
			golden[r][f] = g
			if !g {
				score += o.weights.GoldenWeekend
			}
		}
	}

	for i := range o.periods {
		var fridaysIn []int
		for _, f := range o.fridays {
			if o.periods[i].Contains(o.sc.Days[f]) {
				fridaysIn = append(fridaysIn, f)
			}
		}
		if len(fridaysIn) == 0 {
			continue
		}
		for _, r := range pgy2 {
			any := false
			for _, f := range fridaysIn {
				if golden[r][f] {
					any = true
					break
				}
			}
			if !any {
				score += o.weights.GoldenPerRotation
			}
		}
	}
	return score
}

// weekdayBonus 周四偏好 PGY4 值班, 周三偏好 PGY2 值班
func (o *Objective) weekdayBonus(assign []int) float64 {
	bonus := 0.0
	for d, day := range o.sc.Days {
		if o.ghost[d] {
			continue
		}
		switch day.Weekday() {
		case time.Thursday:
			if o.pgy[assign[d]] == 4 {
				bonus += o.weights.PGY4ThursdayBonus
			}
		case time.Wednesday:
			if o.pgy[assign[d]] == 2 {
				bonus += o.weights.PGY2WednesdayBonus
			}
		}
	}
	return bonus
}

// GoldenWeekends 统计赋值中每名 PGY2 的黄金周末数
// 提供轮转周期时按周期名分组, 否则返回总数
func (o *Objective) GoldenWeekends(assign []int) model.GoldenWeekendCounts {
	pgy2 := o.sc.Roster.ByPGY(2)
	if o.sc.Periods.HasRotations() {
		byRotation := make(map[string]map[string]int)
		for i := range o.periods {
			counts := make(map[string]int)
			for _, r := range pgy2 {
				name := o.sc.Roster[r].Name
				counts[name] = 0
				for _, f := range o.fridays {
					if o.periods[i].Contains(o.sc.Days[f]) && o.isGoldenWeekend(assign, r, f) {
						counts[name]++
					}
				}
			}
			byRotation[o.periods[i].Name] = counts
		}
		return model.GoldenWeekendCounts{ByRotation: byRotation}
	}

	flat := make(map[string]int)
	for _, r := range pgy2 {
		name := o.sc.Roster[r].Name
		flat[name] = 0
		for _, f := range o.fridays {
			if o.isGoldenWeekend(assign, r, f) {
				flat[name]++
			}
		}
	}
	return model.GoldenWeekendCounts{Flat: flat}
}
