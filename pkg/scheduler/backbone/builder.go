// Package backbone 求解每日值班与备班骨架
//
// 骨架把每天的两个角色建模为取值为住院医师下标的变量,
// 硬性规则族(年级资格, 硬约束窗口, 间隔, 同日年级一致, 节假日钉死)
// 全部编码为约束, 软性规则族由目标函数处理
package backbone

import (
	"fmt"

	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
	"github.com/zhiban/zhiban/pkg/scheduler/csp"
)

// 间隔规则: 值班→值班/值班→备班/备班→值班 至少隔 4 天, 备班→备班至少隔 3 天
const (
	callSpacingDays   = 4
	backupSpacingDays = 3
)

// Problem 编码完成的骨架求解问题
type Problem struct {
	Model  *csp.Model
	Call   []csp.Var // 每天的值班变量
	Backup []csp.Var // 每天的备班变量
}

// Vars 返回某天两个角色在赋值数组中的下标 (值班在前半段, 备班在后半段)
func (p *Problem) Vars(day int) (call, backup csp.Var) {
	return p.Call[day], p.Backup[day]
}

// Build 把求解上下文编码为约束模型
func Build(sc *scheduler.Context) (*Problem, error) {
	n := len(sc.Roster)
	if n < 2 {
		return nil, errors.InvalidInput("roster", "至少需要两名住院医师")
	}
	if n > csp.MaxDomainSize {
		return nil, errors.New(errors.CodeRosterTooLarge,
			fmt.Sprintf("住院医师人数 %d 超过支持上限 %d", n, csp.MaxDomainSize))
	}

	m, err := csp.NewModel(n)
	if err != nil {
		return nil, err
	}

	p := &Problem{Model: m}
	for _, d := range sc.Days {
		p.Call = append(p.Call, m.AddVar("call_"+d.Format("2006-01-02")))
	}
	for _, d := range sc.Days {
		p.Backup = append(p.Backup, m.AddVar("backup_"+d.Format("2006-01-02")))
	}

	if err := encodeDayRules(sc, p); err != nil {
		return nil, err
	}
	encodeSpacing(sc, p)
	encodeTransitions(sc, p)
	encodePGY4Cap(sc, p)

	return p, nil
}

// encodeDayRules 编码单日规则: 节假日钉死, 年级资格, 硬约束窗口, 同日规则
func encodeDayRules(sc *scheduler.Context, p *Problem) error {
	m := p.Model
	pgy := pgyLevels(sc.Roster)

	for d, day := range sc.Days {
		callVar, backupVar := p.Vars(d)

		if h, ok := sc.HolidayOn(day); ok {
			if sc.HolidayOffRoster(day) {
				// 名单含花名册之外的名字: 变量钉成哑元保持整齐,
				// 输出时由 ExtractDays 按名单原样覆盖
				m.Fix(callVar, 0)
				m.Fix(backupVar, 0)
				continue
			}
			// 节假日: 直接钉死指定的人, 其余规则族对该日失效
			m.Fix(callVar, sc.Roster.IndexOf(h.Call))
			m.Fix(backupVar, sc.Roster.IndexOf(h.Backup))
			m.NotEqual(callVar, backupVar, "同日值班备班不同人")
			continue
		}

		eligible := sc.Roster.EligibleOn(day)
		if len(eligible) < 2 {
			return errors.InsufficientResidents(
				day.Format("2006-01-02"), day.Weekday().String(), len(eligible))
		}
		m.Allow(callVar, eligible)
		m.Allow(backupVar, eligible)

		for r, res := range sc.Roster {
			if sc.HardBlocked(res.Name, day) {
				m.Forbid(callVar, r)
				m.Forbid(backupVar, r)
			}
		}

		m.NotEqual(callVar, backupVar, "同日值班备班不同人")
		m.AddBinary(callVar, backupVar, "同日年级一致", func(a, b int) bool {
			return pgy[a] == pgy[b]
		})
	}
	return nil
}

// encodeSpacing 编码区块内间隔规则, 节假日端点不受间隔限制
func encodeSpacing(sc *scheduler.Context, p *Problem) {
	m := p.Model
	nDays := len(sc.Days)

	for d1 := 0; d1 < nDays; d1++ {
		if sc.IsHoliday(sc.Days[d1]) {
			continue
		}
		for offset := 1; offset < callSpacingDays; offset++ {
			d2 := d1 + offset
			if d2 >= nDays || sc.IsHoliday(sc.Days[d2]) {
				continue
			}
			m.NotEqual(p.Call[d1], p.Call[d2], "值班间隔")
			m.NotEqual(p.Call[d1], p.Backup[d2], "值班转备班间隔")
			m.NotEqual(p.Backup[d1], p.Call[d2], "备班转值班间隔")
		}
		for offset := 1; offset < backupSpacingDays; offset++ {
			d2 := d1 + offset
			if d2 >= nDays || sc.IsHoliday(sc.Days[d2]) {
				continue
			}
			m.NotEqual(p.Backup[d1], p.Backup[d2], "备班间隔")
		}
	}
}

// encodeTransitions 把间隔规则延伸过区块边界
// 只有区块开头几天可能落在衔接日的间隔窗口内
func encodeTransitions(sc *scheduler.Context, p *Problem) {
	m := p.Model
	limit := callSpacingDays
	if limit > len(sc.Days) {
		limit = len(sc.Days)
	}

	for d := 0; d < limit; d++ {
		day := sc.Days[d]
		if sc.IsHoliday(day) {
			continue
		}
		for _, t := range sc.Transitions {
			apart := model.DaysBetween(t.Date, day)
			if apart <= 0 {
				continue
			}
			callIdx := sc.Roster.IndexOf(t.Call)
			backupIdx := sc.Roster.IndexOf(t.Backup)
			if apart < callSpacingDays {
				if callIdx >= 0 {
					m.Forbid(p.Call[d], callIdx)
					m.Forbid(p.Backup[d], callIdx)
				}
				if backupIdx >= 0 {
					m.Forbid(p.Call[d], backupIdx)
				}
			}
			if apart < backupSpacingDays && backupIdx >= 0 {
				m.Forbid(p.Backup[d], backupIdx)
			}
		}
	}
}

// encodePGY4Cap 编码四年级住院医师的区块值班上限
func encodePGY4Cap(sc *scheduler.Context, p *Problem) {
	if sc.PGY4CallCap == nil {
		return
	}
	vars := make([]csp.Var, 0, len(p.Call))
	for d, day := range sc.Days {
		// 名单在花名册之外的节假日是哑元赋值, 不计入上限
		if sc.HolidayOffRoster(day) {
			continue
		}
		vars = append(vars, p.Call[d])
	}
	for _, r := range sc.Roster.ByPGY(4) {
		p.Model.CountAtMost(vars, r, *sc.PGY4CallCap, "PGY4值班上限")
	}
}

// pgyLevels 返回按下标排列的年级表
func pgyLevels(roster model.Roster) []int {
	levels := make([]int, len(roster))
	for i, r := range roster {
		levels[i] = r.PGY
	}
	return levels
}
