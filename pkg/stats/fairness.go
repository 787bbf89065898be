// Package stats 提供排班统计分析功能
package stats

import (
	"sort"

	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
)

// TierSpread 某年级某类别的公平性指标
type TierSpread struct {
	PGY      int               `json:"pgy"`
	Category model.DayCategory `json:"category"`
	Role     string            `json:"role"` // call/backup
	Min      int               `json:"min"`
	Max      int               `json:"max"`
	Spread   int               `json:"spread"`
}

// ResidentStat 单人统计行
type ResidentStat struct {
	Resident string               `json:"resident"`
	PGY      int                  `json:"pgy"`
	Totals   model.PreviousTotals `json:"totals"`
}

// FairnessReport 区块公平性报告
type FairnessReport struct {
	Residents []ResidentStat `json:"residents"`
	Spreads   []TierSpread   `json:"spreads"`
}

// BlockTotals 统计本区块内每人的值班与备班分布
func BlockTotals(sc *scheduler.Context, days []model.DayAssignment) map[string]model.PreviousTotals {
	totals := make(map[string]model.PreviousTotals, len(sc.Roster))
	for _, r := range sc.Roster {
		totals[r.Name] = model.PreviousTotals{}
	}

	for _, da := range days {
		cat := model.CategoryOf(da.Date)
		if t, ok := totals[da.Call]; ok {
			t.CallTotal++
			switch cat {
			case model.CategoryFriday:
				t.CallFriday++
			case model.CategorySaturday:
				t.CallSaturday++
			case model.CategorySunday:
				t.CallSunday++
			default:
				t.CallWeekday++
			}
			totals[da.Call] = t
		}
		if t, ok := totals[da.Backup]; ok {
			t.BackupTotal++
			switch cat {
			case model.CategoryFriday:
				t.BackupFriday++
			case model.CategorySaturday:
				t.BackupSaturday++
			case model.CategorySunday:
				t.BackupSunday++
			default:
				t.BackupWeekday++
			}
			totals[da.Backup] = t
		}
	}
	return totals
}

// CarryTotals 本区块计数叠加历史累计, 作为下一区块的输入
func CarryTotals(sc *scheduler.Context, days []model.DayAssignment) map[string]model.PreviousTotals {
	block := BlockTotals(sc, days)
	out := make(map[string]model.PreviousTotals, len(block))
	for name, t := range block {
		prev := sc.PrevTotalsOf(name)
		out[name] = model.PreviousTotals{
			CallWeekday:    t.CallWeekday + prev.CallWeekday,
			CallFriday:     t.CallFriday + prev.CallFriday,
			CallSaturday:   t.CallSaturday + prev.CallSaturday,
			CallSunday:     t.CallSunday + prev.CallSunday,
			CallTotal:      t.CallTotal + prev.CallTotal,
			BackupWeekday:  t.BackupWeekday + prev.BackupWeekday,
			BackupFriday:   t.BackupFriday + prev.BackupFriday,
			BackupSaturday: t.BackupSaturday + prev.BackupSaturday,
			BackupSunday:   t.BackupSunday + prev.BackupSunday,
			BackupTotal:    t.BackupTotal + prev.BackupTotal,
		}
	}
	return out
}

// tierBuckets 各年级参与公平性统计的类别
var tierBuckets = map[int][]model.DayCategory{
	2: {model.CategoryWeekday, model.CategoryFriday, model.CategorySunday},
	3: {model.CategoryWeekday, model.CategorySaturday},
}

// BuildFairnessReport 生成区块公平性报告
// 各年级的统计类别与目标函数使用的分桶一致, PGY4 只看总量
func BuildFairnessReport(sc *scheduler.Context, days []model.DayAssignment) *FairnessReport {
	totals := BlockTotals(sc, days)
	report := &FairnessReport{}

	for _, r := range sc.Roster {
		report.Residents = append(report.Residents, ResidentStat{
			Resident: r.Name,
			PGY:      r.PGY,
			Totals:   totals[r.Name],
		})
	}
	sort.SliceStable(report.Residents, func(i, j int) bool {
		if report.Residents[i].PGY != report.Residents[j].PGY {
			return report.Residents[i].PGY < report.Residents[j].PGY
		}
		return report.Residents[i].Resident < report.Residents[j].Resident
	})

	for pgy := 2; pgy <= 3; pgy++ {
		indices := sc.Roster.ByPGY(pgy)
		for _, cat := range tierBuckets[pgy] {
			report.Spreads = append(report.Spreads,
				tierSpread(sc, indices, totals, pgy, cat, "call"),
				tierSpread(sc, indices, totals, pgy, cat, "backup"))
		}
	}
	pgy4 := sc.Roster.ByPGY(4)
	report.Spreads = append(report.Spreads,
		totalSpread(sc, pgy4, totals, "call"),
		totalSpread(sc, pgy4, totals, "backup"))

	return report
}

func tierSpread(sc *scheduler.Context, indices []int, totals map[string]model.PreviousTotals, pgy int, cat model.DayCategory, role string) TierSpread {
	s := TierSpread{PGY: pgy, Category: cat, Role: role}
	for i, r := range indices {
		t := totals[sc.Roster[r].Name]
		c := t.CallByCategory(cat)
		if role == "backup" {
			c = t.BackupByCategory(cat)
		}
		if i == 0 {
			s.Min, s.Max = c, c
			continue
		}
		if c < s.Min {
			s.Min = c
		}
		if c > s.Max {
			s.Max = c
		}
	}
	s.Spread = s.Max - s.Min
	return s
}

func totalSpread(sc *scheduler.Context, indices []int, totals map[string]model.PreviousTotals, role string) TierSpread {
	s := TierSpread{PGY: 4, Role: role}
	for i, r := range indices {
		t := totals[sc.Roster[r].Name]
		c := t.CallTotal
		if role == "backup" {
			c = t.BackupTotal
		}
		if i == 0 {
			s.Min, s.Max = c, c
			continue
		}
		if c < s.Min {
			s.Min = c
		}
		if c > s.Max {
			s.Max = c
		}
	}
	s.Spread = s.Max - s.Min
	return s
}
