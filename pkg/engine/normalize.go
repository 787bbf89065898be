// Package engine 把原始排班请求归一化并按固定顺序驱动三个求解阶段
package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler"
)

// DateRangeInput 原始日期范围
type DateRangeInput struct {
	Start interface{} `json:"start"`
	End   interface{} `json:"end"`
}

// SoftInput 原始软约束
type SoftInput struct {
	Start    interface{} `json:"start"`
	End      interface{} `json:"end"`
	Priority string      `json:"priority"`
}

// HolidayInput 原始节假日指定
type HolidayInput struct {
	Date   interface{} `json:"date"`
	Call   string      `json:"call"`
	Backup string      `json:"backup"`
}

// RotationInput 原始轮转切换点
type RotationInput struct {
	SwitchDate interface{} `json:"switch_date"`
	Name       string      `json:"rotation_name"`
}

// TransitionInput 原始区块衔接日
type TransitionInput struct {
	Date   interface{} `json:"date"`
	Call   string      `json:"call"`
	Backup string      `json:"backup"`
}

// Request 一次排班生成的原始输入
// 上游表单层传来的日期可能是多种形态, 由归一化统一
type Request struct {
	Residents       []string                          `json:"residents"`
	PGYLevels       []int                             `json:"pgy_levels"`
	StartDate       interface{}                       `json:"start_date"`
	EndDate         interface{}                       `json:"end_date"`
	Holidays        []HolidayInput                    `json:"holidays,omitempty"`
	HardConstraints map[string][]DateRangeInput       `json:"hard_constraints,omitempty"`
	SoftConstraints map[string][]SoftInput            `json:"soft_constraints,omitempty"`
	RotationPeriods []RotationInput                   `json:"rotation_periods,omitempty"`
	Transitions     []TransitionInput                 `json:"block_transition,omitempty"`
	PreviousTotals  map[string]model.PreviousTotals   `json:"previous_totals,omitempty"`
	Weights         *model.Weights                    `json:"weights,omitempty"`
	PGY4CallCap     *int                              `json:"pgy4_call_cap,omitempty"`
	InternCap       *int                              `json:"intern_cap,omitempty"`
}

// legacyDateRe 匹配历史文本编码 "datetime.date(YYYY, M, D)"
var legacyDateRe = regexp.MustCompile(`^datetime\.date\((\d+), (\d+), (\d+)\)$`)

// dateLayouts 依次尝试的字符串日期格式
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate 把任意形态的日期值解析为午夜时间
// 已是规范形态的值原样返回
func ParseDate(val interface{}) (time.Time, error) {
	switch v := val.(type) {
	case time.Time:
		return model.Midnight(v), nil
	case *time.Time:
		if v == nil {
			return time.Time{}, errors.DateParse("<nil>")
		}
		return model.Midnight(*v), nil
	case string:
		s := strings.TrimSpace(v)
		if m := legacyDateRe.FindStringSubmatch(s); m != nil {
			var y, mo, d int
			fmt.Sscanf(m[1], "%d", &y)
			fmt.Sscanf(m[2], "%d", &mo)
			fmt.Sscanf(m[3], "%d", &d)
			return model.Date(y, time.Month(mo), d), nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return model.Midnight(t), nil
			}
		}
		return time.Time{}, errors.DateParse(s)
	default:
		return time.Time{}, errors.DateParse(fmt.Sprint(val))
	}
}

// parsePriority 解析软约束优先级, 缺省为轮转/讲座
func parsePriority(s string) (model.SoftPriority, error) {
	switch strings.TrimSpace(s) {
	case "", string(model.PriorityRotationLecture):
		return model.PriorityRotationLecture, nil
	case string(model.PriorityNonCall):
		return model.PriorityNonCall, nil
	default:
		return "", errors.InvalidInput("priority", fmt.Sprintf("未知的软约束优先级 %q", s))
	}
}

// Normalize 把原始请求转换为求解上下文
// strictPeriods 为真时轮转周期必须无缝覆盖区块, 否则缺口/重叠只记警告
func Normalize(req *Request, strictPeriods bool) (*scheduler.Context, error) {
	log := logger.Get()

	if len(req.Residents) == 0 {
		return nil, errors.InvalidInput("residents", "花名册为空")
	}
	if len(req.Residents) != len(req.PGYLevels) {
		return nil, errors.InvalidInput("pgy_levels",
			fmt.Sprintf("年级表长度 %d 与花名册长度 %d 不一致", len(req.PGYLevels), len(req.Residents)))
	}
	for i, pgy := range req.PGYLevels {
		if pgy < 1 || pgy > 5 {
			return nil, errors.InvalidInput("pgy_levels",
				fmt.Sprintf("%s 的年级 %d 不在 1-5 范围内", req.Residents[i], pgy))
		}
	}
	roster := model.NewRoster(req.Residents, req.PGYLevels)

	start, err := ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, errors.InvalidInput("end_date", "结束日期早于开始日期")
	}
	block := model.DateRange{Start: start, End: end}

	sc := &scheduler.Context{
		Roster:      roster,
		Block:       block,
		Days:        block.Days(),
		Holidays:    make(map[time.Time]model.Holiday),
		Hard:        make(map[string][]model.HardWindow),
		Soft:        make(map[string][]model.SoftWindow),
		PrevTotals:  req.PreviousTotals,
		PGY4CallCap: req.PGY4CallCap,
		InternCap:   req.InternCap,
		Weights:     model.DefaultWeights(),
	}
	if req.Weights != nil {
		sc.Weights = *req.Weights
	}

	for _, h := range req.Holidays {
		date, err := ParseDate(h.Date)
		if err != nil {
			return nil, err
		}
		call := strings.TrimSpace(h.Call)
		backup := strings.TrimSpace(h.Backup)
		if roster.IndexOf(call) < 0 || roster.IndexOf(backup) < 0 {
			// 解析不了的名字退回常规排班, 与上游手工录入的容错一致
			log.Warn().
				Str("date", date.Format("2006-01-02")).
				Str("call", call).
				Str("backup", backup).
				Msg("节假日指定的住院医师不在花名册中")
		}
		sc.Holidays[date] = model.Holiday{Date: date, Call: call, Backup: backup}
	}

	for name, ranges := range req.HardConstraints {
		norm := strings.TrimSpace(name)
		for _, r := range ranges {
			ws, err := ParseDate(r.Start)
			if err != nil {
				return nil, err
			}
			we, err := ParseDate(r.End)
			if err != nil {
				return nil, err
			}
			sc.Hard[norm] = append(sc.Hard[norm], model.HardWindow{Start: ws, End: we})
		}
		sort.Slice(sc.Hard[norm], func(i, j int) bool {
			return sc.Hard[norm][i].Start.Before(sc.Hard[norm][j].Start)
		})
	}

	for name, prefs := range req.SoftConstraints {
		norm := strings.TrimSpace(name)
		for _, p := range prefs {
			ws, err := ParseDate(p.Start)
			if err != nil {
				return nil, err
			}
			we, err := ParseDate(p.End)
			if err != nil {
				return nil, err
			}
			priority, err := parsePriority(p.Priority)
			if err != nil {
				return nil, err
			}
			sc.Soft[norm] = append(sc.Soft[norm], model.SoftWindow{Start: ws, End: we, Priority: priority})
		}
	}

	if len(req.RotationPeriods) > 0 {
		switches := make([]model.RotationSwitch, 0, len(req.RotationPeriods))
		for _, rp := range req.RotationPeriods {
			d, err := ParseDate(rp.SwitchDate)
			if err != nil {
				return nil, err
			}
			switches = append(switches, model.RotationSwitch{SwitchDate: d, Name: strings.TrimSpace(rp.Name)})
		}
		sc.Periods = model.PeriodSet{
			Rotations: model.BuildRotationRanges(switches, block.End),
			Block:     block,
		}
		if err := sc.Periods.Validate(); err != nil {
			if strictPeriods {
				return nil, errors.Wrap(err, errors.CodeInvalidInput, "轮转周期未无缝覆盖区块")
			}
			log.Warn().Err(err).Msg("轮转周期存在缺口或重叠, 按提供的范围继续")
		}
	} else {
		sc.Periods = model.PeriodSet{Block: block}
	}

	for _, t := range req.Transitions {
		d, err := ParseDate(t.Date)
		if err != nil {
			return nil, err
		}
		sc.Transitions = append(sc.Transitions, model.TransitionDay{
			Date:   d,
			Call:   strings.TrimSpace(t.Call),
			Backup: strings.TrimSpace(t.Backup),
		})
	}

	return sc, nil
}
