// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"strings"
	"time"
)

// Resident 住院医师
type Resident struct {
	Name string `json:"name" db:"name"`
	PGY  int    `json:"pgy" db:"pgy"` // 培训年级 1-5
}

// IsIntern 检查是否为实习医师（PGY1）
func (r Resident) IsIntern() bool {
	return r.PGY == 1
}

// CanSupervise 检查是否可以担任督导（PGY3/PGY4）
func (r Resident) CanSupervise() bool {
	return r.PGY == 3 || r.PGY == 4
}

// Roster 住院医师花名册（一个排班区块内姓名唯一）
type Roster []Resident

// NewRoster 由姓名和年级并列列表构造花名册，姓名去除首尾空白
func NewRoster(names []string, pgyLevels []int) Roster {
	n := len(names)
	if len(pgyLevels) < n {
		n = len(pgyLevels)
	}
	roster := make(Roster, 0, n)
	for i := 0; i < n; i++ {
		roster = append(roster, Resident{
			Name: strings.TrimSpace(names[i]),
			PGY:  pgyLevels[i],
		})
	}
	return roster
}

// IndexOf 返回姓名对应的下标，不存在时返回 -1
func (ro Roster) IndexOf(name string) int {
	name = strings.TrimSpace(name)
	for i, r := range ro {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// Names 返回全部姓名
func (ro Roster) Names() []string {
	names := make([]string, len(ro))
	for i, r := range ro {
		names[i] = r.Name
	}
	return names
}

// ByPGY 返回指定年级的全部下标
func (ro Roster) ByPGY(levels ...int) []int {
	var indices []int
	for i, r := range ro {
		for _, l := range levels {
			if r.PGY == l {
				indices = append(indices, i)
				break
			}
		}
	}
	return indices
}

// weekdayAllowedPGY 每个星期几允许担任值班/备班的年级
var weekdayAllowedPGY = map[time.Weekday][]int{
	time.Sunday:    {2},
	time.Monday:    {3},
	time.Tuesday:   {2},
	time.Wednesday: {2, 3},
	time.Thursday:  {3, 4},
	time.Friday:    {2},
	time.Saturday:  {3},
}

// AllowedPGY 返回某星期几允许的年级集合
func AllowedPGY(wd time.Weekday) []int {
	return weekdayAllowedPGY[wd]
}

// EligibleOn 返回某日期（按星期几规则）可担任值班/备班的下标
func (ro Roster) EligibleOn(d time.Time) []int {
	return ro.ByPGY(AllowedPGY(d.Weekday())...)
}
