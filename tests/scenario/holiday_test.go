package scenario

import (
	"context"
	"testing"

	"github.com/zhiban/zhiban/pkg/engine"
)

// TestHolidayWeekendBlock 含节假日周末和请假窗口的两周区块
func TestHolidayWeekendBlock(t *testing.T) {
	req := baseRequest("2026-01-05", "2026-01-18")
	req.Holidays = []engine.HolidayInput{
		{Date: "2026-01-10", Call: "Ivy", Backup: "Joe"},
		{Date: "2026-01-11", Call: "Joe", Backup: "Ivy"},
	}
	req.HardConstraints = map[string][]engine.DateRangeInput{
		"Amy": {{Start: "2026-01-05", End: "2026-01-11"}},
	}

	res, err := newEngine().Generate(context.Background(), &req)
	if err != nil {
		t.Fatalf("生成失败: %v", err)
	}
	days := res.Schedule.Days
	if len(days) != 14 {
		t.Fatalf("应有 14 天, 实际 %d", len(days))
	}

	// 节假日人选按指定钉死, 年级规则不适用
	if days[5].Call != "Ivy" || days[5].Backup != "Joe" {
		t.Errorf("周六节假日应为 Ivy/Joe, 实际 %s/%s", days[5].Call, days[5].Backup)
	}
	if days[6].Call != "Joe" || days[6].Backup != "Ivy" {
		t.Errorf("周日节假日应为 Joe/Ivy, 实际 %s/%s", days[6].Call, days[6].Backup)
	}

	// 请假窗口内不应有任何班
	for d := 0; d < 7; d++ {
		if days[d].Call == "Amy" || days[d].Backup == "Amy" {
			t.Errorf("Amy 请假期间第 %d 天不应有班", d)
		}
	}

	if res.BackboneScore == nil {
		t.Error("应返回骨架得分")
	}
}
