// Package constraints 规则族目录
// 供前端展示引擎支持的全部规则族及其参数, 不参与求解
package constraints

// ConstraintParam 规则参数定义
type ConstraintParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, bool, array
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition 规则定义
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`     // hard 硬约束, soft 软约束
	Category    string            `json:"category"` // 分类
	Description string            `json:"description"`
	Stage       string            `json:"stage"` // backbone/intern/supervisor
	Params      []ConstraintParam `json:"params"`
}

// LibraryResponse 规则库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

// GetLibrary 获取完整的规则库
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		// =====================================================
		// 骨架硬约束
		// =====================================================
		{
			Name:        "weekday_eligibility",
			DisplayName: "星期资格",
			Type:        "hard",
			Category:    "资格",
			Description: "每个星期几只允许特定年级担任值班和备班：周日/周二/周五限二年级，周一/周六限三年级，周三为二或三年级，周四为三或四年级。",
			Stage:       "backbone",
		},
		{
			Name:        "pgy_match",
			DisplayName: "值班备班同年级",
			Type:        "hard",
			Category:    "资格",
			Description: "非节假日的值班和备班必须来自同一年级，保证备班能够无缝接手。",
			Stage:       "backbone",
		},
		{
			Name:        "call_spacing",
			DisplayName: "任务间隔",
			Type:        "hard",
			Category:    "间隔",
			Description: "同一人两次任务之间的最小间隔：涉及值班的组合禁止间隔1-3天，备班与备班禁止间隔1-2天。区块衔接日把间隔延伸过区块边界。",
			Stage:       "backbone",
		},
		{
			Name:        "hard_window",
			DisplayName: "硬约束窗口",
			Type:        "hard",
			Category:    "可用性",
			Description: "窗口内以及窗口前一天（缓冲日）不可排值班或备班。实习与督导阶段只看窗口本身，不含缓冲日。",
			Stage:       "backbone",
		},
		{
			Name:        "holiday_override",
			DisplayName: "节假日钉死",
			Type:        "hard",
			Category:    "覆盖",
			Description: "人工指定节假日的值班和备班后，该日期对其余全部规则族豁免，包括资格、年级一致和间隔。",
			Stage:       "backbone",
		},
		{
			Name:        "pgy4_call_cap",
			DisplayName: "四年级值班上限",
			Type:        "hard",
			Category:    "上限",
			Description: "限制每位四年级住院医师在区块内的值班次数。",
			Stage:       "backbone",
			Params: []ConstraintParam{
				{Name: "cap", Type: "int", Description: "区块内最大值班次数", Min: "0"},
			},
		},
		// =====================================================
		// 骨架软约束
		// =====================================================
		{
			Name:        "tier_fairness",
			DisplayName: "分桶公平",
			Type:        "soft",
			Category:    "公平",
			Description: "按年级和日期类别（二年级分周中/周五/周日，三年级分周中/周六，四年级只看总量）均衡值班与备班次数，历史累计计入。",
			Stage:       "backbone",
		},
		{
			Name:        "soft_window",
			DisplayName: "软约束窗口",
			Type:        "soft",
			Category:    "偏好",
			Description: "免值请求对值班和备班都计罚，轮转/讲座只对值班计罚。节假日钉死的日期不计罚。",
			Stage:       "backbone",
			Params: []ConstraintParam{
				{Name: "priority", Type: "string", Description: "Non-call request 或 Rotation/Lecture", Default: "Rotation/Lecture"},
			},
		},
		{
			Name:        "rotation_fairness",
			DisplayName: "轮转公平",
			Type:        "soft",
			Category:    "公平",
			Description: "提供轮转周期时，鼓励二三年级在每个轮转内都至少有一次值班和一次备班。",
			Stage:       "backbone",
		},
		{
			Name:        "same_weekday_window",
			DisplayName: "同星期重复",
			Type:        "soft",
			Category:    "分布",
			Description: "惩罚同一人在14天窗口内两次落在同一个星期几的值班（间隔7或14天）。",
			Stage:       "backbone",
		},
		{
			Name:        "golden_weekend",
			DisplayName: "黄金周末",
			Type:        "soft",
			Category:    "福利",
			Description: "鼓励二年级获得周五到周日连续三天无任务的周末，每个轮转周期至少一个。",
			Stage:       "backbone",
		},
		// =====================================================
		// 实习阶段
		// =====================================================
		{
			Name:        "intern_consecutive",
			DisplayName: "实习连续上限",
			Type:        "hard",
			Category:    "实习",
			Description: "实习医师最多连续两个资格日（三四年级值班日）跟班。",
			Stage:       "intern",
		},
		{
			Name:        "intern_saturday_cap",
			DisplayName: "实习周六上限",
			Type:        "hard",
			Category:    "实习",
			Description: "实习医师每个周期最多两个周六跟班。",
			Stage:       "intern",
		},
		{
			Name:        "intern_period_cap",
			DisplayName: "实习周期上限",
			Type:        "hard",
			Category:    "实习",
			Description: "限制实习医师在每个轮转周期（或28天滚动窗口）内的跟班总数。",
			Stage:       "intern",
			Params: []ConstraintParam{
				{Name: "cap", Type: "int", Description: "每周期最大跟班数", Min: "1"},
			},
		},
		{
			Name:        "intern_fairness",
			DisplayName: "实习公平",
			Type:        "soft",
			Category:    "实习",
			Description: "均衡实习医师的总跟班数、周中跟班数和周六跟班数，惩罚软约束冲突和连续跟班。",
			Stage:       "intern",
		},
		// =====================================================
		// 督导阶段
		// =====================================================
		{
			Name:        "supervisor_rules",
			DisplayName: "督导规则",
			Type:        "hard",
			Category:    "督导",
			Description: "二年级值班的非周日非节假日需要三四年级督导；督导不能是当天或前一天的值班；周五优先由周六的值班担任。",
			Stage:       "supervisor",
		},
	}
}

// GetByStage 按求解阶段过滤规则库
func GetByStage(stage string) []ConstraintDefinition {
	var out []ConstraintDefinition
	for _, def := range GetLibrary() {
		if def.Stage == stage {
			out = append(out, def)
		}
	}
	return out
}

// GetByName 按名称查找规则定义
func GetByName(name string) (ConstraintDefinition, bool) {
	for _, def := range GetLibrary() {
		if def.Name == name {
			return def, true
		}
	}
	return ConstraintDefinition{}, false
}
