package model

import (
	"errors"
	"time"
)

// 活动执行结果
const (
	OutcomeGood          = "GOOD"
	OutcomeBad           = "BAD"
	OutcomeCorrected     = "CORRECTED"
	OutcomeNotApplicable = "NOT_APPLICABLE"
)

// Outcomes 所有合法的执行结果
var Outcomes = []string{OutcomeGood, OutcomeBad, OutcomeCorrected, OutcomeNotApplicable}

// ValidOutcome 判断执行结果是否合法
func ValidOutcome(outcome string) bool {
	for _, o := range Outcomes {
		if o == outcome {
			return true
		}
	}
	return false
}

// ExecutedActivityModel 已执行活动数据模型
// 与测量记录同样的离线生命周期:LocalRef 去重,就地更新
type ExecutedActivityModel struct {
	ID         string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OrderID    string     `gorm:"type:varchar(64);not null;index:idx_activities_order_local,priority:1" json:"order_id"`
	ActivityID string     `gorm:"type:varchar(64);not null;index" json:"activity_id"` // 活动目录引用
	LocalRef   string     `gorm:"type:varchar(64);index:idx_activities_order_local,priority:2" json:"local_ref"`
	Outcome    string     `gorm:"type:varchar(16);not null" json:"outcome"`
	Notes      string     `gorm:"type:text" json:"notes"`
	ExecutedBy string     `gorm:"type:varchar(64);not null" json:"executed_by"`
	ExecutedAt *time.Time `json:"executed_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (ExecutedActivityModel) TableName() string {
	return "executed_activities"
}

// Validate 验证已执行活动模型
func (am *ExecutedActivityModel) Validate() error {
	if am.ID == "" {
		return errors.New("activity ID is required")
	}
	if am.OrderID == "" {
		return errors.New("order ID is required")
	}
	if am.ActivityID == "" {
		return errors.New("catalog activity ID is required")
	}
	if !ValidOutcome(am.Outcome) {
		return errors.New("activity outcome is invalid")
	}
	return nil
}
