// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"fmt"
	"sort"
	"time"
)

// DayCategory 日期类别（公平性统计分桶）
type DayCategory string

const (
	CategoryWeekday  DayCategory = "weekday" // 周一至周四
	CategoryFriday   DayCategory = "friday"
	CategorySaturday DayCategory = "saturday"
	CategorySunday   DayCategory = "sunday"
)

// CategoryOf 返回日期所属类别
func CategoryOf(d time.Time) DayCategory {
	switch d.Weekday() {
	case time.Friday:
		return CategoryFriday
	case time.Saturday:
		return CategorySaturday
	case time.Sunday:
		return CategorySunday
	default:
		return CategoryWeekday
	}
}

// RotationSwitch 轮转切换点（按切换日期排序后生成轮转周期）
type RotationSwitch struct {
	SwitchDate time.Time `json:"switch_date"`
	Name       string    `json:"rotation_name"`
}

// RotationRange 轮转周期（命名的子日期范围）
type RotationRange struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Contains 检查日期是否落在该轮转周期内
func (rr RotationRange) Contains(d time.Time) bool {
	return DateRange{Start: rr.Start, End: rr.End}.Contains(d)
}

// BuildRotationRanges 由切换点构造轮转周期
// 周期 i 覆盖 [switch[i], switch[i+1]-1]，最后一个周期延伸到区块末尾
func BuildRotationRanges(switches []RotationSwitch, blockEnd time.Time) []RotationRange {
	if len(switches) == 0 {
		return nil
	}

	sorted := make([]RotationSwitch, len(switches))
	copy(sorted, switches)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SwitchDate.Before(sorted[j].SwitchDate)
	})

	ranges := make([]RotationRange, 0, len(sorted))
	for i, sw := range sorted {
		name := sw.Name
		if name == "" {
			name = fmt.Sprintf("Rotation %d", i+1)
		}
		end := Midnight(blockEnd)
		if i+1 < len(sorted) {
			end = Midnight(sorted[i+1].SwitchDate).AddDate(0, 0, -1)
		}
		ranges = append(ranges, RotationRange{
			Name:  name,
			Start: Midnight(sw.SwitchDate),
			End:   end,
		})
	}
	return ranges
}

// rollingWindowDays 未提供轮转周期时的滚动窗口宽度（4周）
const rollingWindowDays = 28

// PeriodSet 周期枚举器
// 多个规则族（轮转公平、黄金周末、实习上限）共用同一种周期语义：
// 如果提供了轮转周期就使用轮转周期，否则退化为 28 天滚动窗口
type PeriodSet struct {
	Rotations []RotationRange
	Block     DateRange
}

// HasRotations 检查是否提供了轮转周期
func (ps PeriodSet) HasRotations() bool {
	return len(ps.Rotations) > 0
}

// Periods 返回供规则使用的全部周期
// 有轮转周期时返回轮转周期本身；否则返回以区块每一天为起点的 28 天滚动窗口
func (ps PeriodSet) Periods() []RotationRange {
	if ps.HasRotations() {
		return ps.Rotations
	}

	var windows []RotationRange
	for _, d := range ps.Block.Days() {
		windows = append(windows, RotationRange{
			Name:  fmt.Sprintf("window_%s", d.Format("2006-01-02")),
			Start: d,
			End:   d.AddDate(0, 0, rollingWindowDays-1),
		})
	}
	return windows
}

// RotationOf 返回日期所属的轮转周期名，不在任何周期内时返回空串
func (ps PeriodSet) RotationOf(d time.Time) string {
	for _, rr := range ps.Rotations {
		if rr.Contains(d) {
			return rr.Name
		}
	}
	return ""
}

// Validate 检查轮转周期是否无缝覆盖整个区块（无缺口、无重叠）
// 默认模式下调用方容忍缺口/重叠，严格模式下将其视为输入错误
func (ps PeriodSet) Validate() error {
	if !ps.HasRotations() {
		return nil
	}

	for i := 0; i < len(ps.Rotations); i++ {
		rr := ps.Rotations[i]
		if rr.End.Before(rr.Start) {
			return fmt.Errorf("轮转周期 %q 结束日期早于开始日期", rr.Name)
		}
		if i == 0 {
			if !Midnight(rr.Start).Equal(Midnight(ps.Block.Start)) {
				return fmt.Errorf("第一个轮转周期 %q 未从区块开始日期起始", rr.Name)
			}
			continue
		}
		prev := ps.Rotations[i-1]
		if got := Midnight(rr.Start); !got.Equal(Midnight(prev.End).AddDate(0, 0, 1)) {
			return fmt.Errorf("轮转周期 %q 与 %q 之间存在缺口或重叠", prev.Name, rr.Name)
		}
	}
	last := ps.Rotations[len(ps.Rotations)-1]
	if !Midnight(last.End).Equal(Midnight(ps.Block.End)) {
		return fmt.Errorf("最后一个轮转周期 %q 未延伸到区块末尾", last.Name)
	}
	return nil
}
