// Package model 定义值班排班引擎的核心数据模型
package model

// Weights 优化目标权重配置
// 由外部提供的不可变记录，贯穿每个求解阶段；各项均为非负乘数
type Weights struct {
	CallFairness       float64 `json:"call_fairness_weight"`        // 值班公平性（极差）
	BackupFairness     float64 `json:"backup_fairness_weight"`      // 备班公平性（极差）
	NonCallRequest     float64 `json:"non_call_request_weight"`     // 免值请求违反
	RotationLecture    float64 `json:"rotation_lecture_weight"`     // 轮转/讲座违反
	GoldenWeekend      float64 `json:"golden_weekend_weight"`       // 未获得黄金周末
	GoldenPerRotation  float64 `json:"golden_per_rotation_weight"`  // 整个轮转周期内零黄金周末
	RotationFairness   float64 `json:"rotation_fairness_weight"`    // 轮转周期内零值班/零备班
	SameWeekdaySpacing float64 `json:"same_weekday_spacing_weight"` // 同星期几14天内成对
	PGY4ThursdayBonus  float64 `json:"pgy4_thursday_bonus"`         // PGY4 周四值班奖励
	PGY2WednesdayBonus float64 `json:"pgy2_wednesday_bonus"`        // PGY2 周三值班奖励
}

// DefaultWeights 返回默认权重
func DefaultWeights() Weights {
	return Weights{
		CallFairness:       1.0,
		BackupFairness:     0.3,
		NonCallRequest:     10.0,
		RotationLecture:    0.1,
		GoldenWeekend:      0.01,
		GoldenPerRotation:  5.0,
		RotationFairness:   0.5,
		SameWeekdaySpacing: 0.2,
		PGY4ThursdayBonus:  0.1,
		PGY2WednesdayBonus: 0.05,
	}
}
