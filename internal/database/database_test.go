package database

import (
	"strings"
	"testing"
)

// 建表语句须覆盖仓储层 SQL 用到的全部表和列
func TestSchemaCoversRepositoryColumns(t *testing.T) {
	required := map[string][]string{
		"schedules": {
			"block_start", "block_end", "status", "feasible",
			"backbone_score", "intern_score", "golden_weekends",
			"carry_totals", "intern_summary", "gaps", "generated_at",
		},
		"schedule_days": {"schedule_id", "date", "call", "backup", "intern", "supervisor"},
		"residents":     {"name", "pgy", "active"},
	}

	for table, cols := range required {
		var stmt string
		for _, s := range schemaStatements {
			if strings.Contains(s, "EXISTS "+table+" (") {
				stmt = s
				break
			}
		}
		if stmt == "" {
			t.Errorf("缺少 %s 的建表语句", table)
			continue
		}
		for _, col := range cols {
			if !strings.Contains(stmt, col) {
				t.Errorf("%s 建表语句缺少列 %s", table, col)
			}
		}
	}
}
