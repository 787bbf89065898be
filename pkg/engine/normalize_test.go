package engine

import (
	"testing"
	"time"

	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
)

func TestParseDate(t *testing.T) {
	want := model.Date(2026, time.January, 5)

	tests := []struct {
		name string
		val  interface{}
	}{
		{"标准格式", "2026-01-05"},
		{"历史文本编码", "datetime.date(2026, 1, 5)"},
		{"带时间的 ISO 格式", "2026-01-05T08:30:00"},
		{"斜杠格式", "2026/01/05"},
		{"time.Time 原样返回", time.Date(2026, time.January, 5, 14, 0, 0, 0, time.UTC)},
		{"带空白", "  2026-01-05  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.val)
			if err != nil {
				t.Fatalf("ParseDate(%v) 出错: %v", tt.val, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseDate(%v) = %v, 期望 %v", tt.val, got, want)
			}
		})
	}
}

func TestParseDateIdempotent(t *testing.T) {
	first, err := ParseDate("2026-01-05")
	if err != nil {
		t.Fatal(err)
	}
	second, err := ParseDate(first)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Equal(first) {
		t.Errorf("重复解析结果不一致: %v vs %v", second, first)
	}
}

func TestParseDateErrors(t *testing.T) {
	tests := []struct {
		name string
		val  interface{}
	}{
		{"无法识别的字符串", "next tuesday"},
		{"非日期类型", 42},
		{"nil 指针", (*time.Time)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDate(tt.val); !errors.Is(err, errors.CodeDateParse) {
				t.Errorf("ParseDate(%v) 错误码 = %v, 期望 DATE_PARSE_ERROR", tt.val, err)
			}
		})
	}
}

func validRequest() *Request {
	return &Request{
		Residents: []string{"Amy", "Beth", "Fred", "Gina", "Kate"},
		PGYLevels: []int{2, 2, 3, 3, 4},
		StartDate: "2026-01-05",
		EndDate:   "2026-01-18",
	}
}

func TestNormalizeValid(t *testing.T) {
	req := validRequest()
	req.HardConstraints = map[string][]DateRangeInput{
		"Amy": {{Start: "2026-01-12", End: "2026-01-10"}, {Start: "2026-01-06", End: "2026-01-07"}},
	}
	req.SoftConstraints = map[string][]SoftInput{
		"Fred": {{Start: "2026-01-08", End: "2026-01-08", Priority: "non_call"}},
	}
	req.Holidays = []HolidayInput{{Date: "2026-01-10", Call: "Amy", Backup: "Kate"}}

	sc, err := Normalize(req, false)
	if err != nil {
		t.Fatalf("Normalize 出错: %v", err)
	}
	if sc.NumDays() != 14 {
		t.Errorf("区块天数 = %d, 期望 14", sc.NumDays())
	}
	if len(sc.Roster) != 5 {
		t.Errorf("花名册人数 = %d, 期望 5", len(sc.Roster))
	}
	// 硬约束窗口按开始日期排序
	windows := sc.Hard["Amy"]
	if len(windows) != 2 || !windows[0].Start.Before(windows[1].Start) {
		t.Errorf("硬约束窗口未按开始日期排序: %+v", windows)
	}
	if !sc.SoftBlocked("Fred", model.Date(2026, time.January, 8), model.PriorityNonCall) {
		t.Error("Fred 1月8日的不值班软约束未生效")
	}
	if !sc.IsHoliday(model.Date(2026, time.January, 10)) {
		t.Error("1月10日的节假日指定未生效")
	}
	if sc.Periods.HasRotations() {
		t.Error("未提供轮转周期时不应有轮转周期")
	}
}

func TestNormalizeDefaultPriority(t *testing.T) {
	req := validRequest()
	req.SoftConstraints = map[string][]SoftInput{
		"Gina": {{Start: "2026-01-09", End: "2026-01-09"}},
	}
	sc, err := Normalize(req, false)
	if err != nil {
		t.Fatal(err)
	}
	if !sc.SoftBlocked("Gina", model.Date(2026, time.January, 9), model.PriorityRotationLecture) {
		t.Error("缺省优先级应为轮转/讲座")
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		code   errors.Code
	}{
		{"空花名册", func(r *Request) { r.Residents = nil }, errors.CodeInvalidInput},
		{"年级表长度不一致", func(r *Request) { r.PGYLevels = []int{2, 2} }, errors.CodeInvalidInput},
		{"年级越界", func(r *Request) { r.PGYLevels = []int{2, 2, 3, 3, 7} }, errors.CodeInvalidInput},
		{"结束早于开始", func(r *Request) { r.EndDate = "2026-01-01" }, errors.CodeInvalidInput},
		{"日期无法解析", func(r *Request) { r.StartDate = "???" }, errors.CodeDateParse},
		{"未知软约束优先级", func(r *Request) {
			r.SoftConstraints = map[string][]SoftInput{
				"Amy": {{Start: "2026-01-06", End: "2026-01-06", Priority: "urgent"}},
			}
		}, errors.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			if _, err := Normalize(req, false); !errors.Is(err, tt.code) {
				t.Errorf("错误码 = %v, 期望 %s", err, tt.code)
			}
		})
	}
}

func TestNormalizeRotations(t *testing.T) {
	req := validRequest()
	req.RotationPeriods = []RotationInput{
		{SwitchDate: "2026-01-05", Name: "病房A"},
		{SwitchDate: "2026-01-12", Name: "病房B"},
	}
	sc, err := Normalize(req, false)
	if err != nil {
		t.Fatal(err)
	}
	rots := sc.Periods.Rotations
	if len(rots) != 2 {
		t.Fatalf("轮转周期数 = %d, 期望 2", len(rots))
	}
	// 最后一个周期延伸到区块结束
	if !rots[1].End.Equal(model.Date(2026, time.January, 18)) {
		t.Errorf("末段轮转结束 = %v, 期望区块结束日", rots[1].End)
	}
	if got := sc.Periods.RotationOf(model.Date(2026, time.January, 11)); got != "病房A" {
		t.Errorf("1月11日所属轮转 = %q, 期望 病房A", got)
	}
}

func TestNormalizeStrictPeriods(t *testing.T) {
	req := validRequest()
	// 第一段从区块开始后两天才起, 严格模式下是缺口
	req.RotationPeriods = []RotationInput{{SwitchDate: "2026-01-07", Name: "病房A"}}

	if _, err := Normalize(req, true); !errors.Is(err, errors.CodeInvalidInput) {
		t.Errorf("严格模式下轮转缺口应报错, 实际 %v", err)
	}
	if _, err := Normalize(req, false); err != nil {
		t.Errorf("宽松模式下轮转缺口应容忍, 实际 %v", err)
	}
}

func TestNormalizeHolidayUnknownName(t *testing.T) {
	req := validRequest()
	req.Holidays = []HolidayInput{{Date: "2026-01-10", Call: "陌生人", Backup: "Kate"}}

	sc, err := Normalize(req, false)
	if err != nil {
		t.Fatalf("花名册外的节假日人名只应记警告: %v", err)
	}
	h, ok := sc.HolidayOn(model.Date(2026, time.January, 10))
	if !ok || h.Call != "陌生人" {
		t.Errorf("节假日指定应原样保留: %+v", h)
	}
}
