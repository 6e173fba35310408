package model

import (
	"errors"
	"time"
)

// OrderHistoryModel 工单状态变更历史数据模型
// 仅追加:每次被接受的状态转换都写入一条记录,永不更新或删除
type OrderHistoryModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OrderID   string    `gorm:"type:varchar(64);not null;index" json:"order_id"`
	FromState string    `gorm:"type:varchar(32)" json:"from_state"`
	ToState   string    `gorm:"type:varchar(32);not null" json:"to_state"`
	Reason    string    `gorm:"type:text" json:"reason"`
	Notes     string    `gorm:"type:text" json:"notes"`
	ChangedBy string    `gorm:"type:varchar(64);not null" json:"changed_by"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName 指定表名
func (OrderHistoryModel) TableName() string {
	return "order_history"
}

// Validate 验证历史记录模型
func (hm *OrderHistoryModel) Validate() error {
	if hm.ID == "" {
		return errors.New("history ID is required")
	}
	if hm.OrderID == "" {
		return errors.New("order ID is required")
	}
	if hm.ToState == "" {
		return errors.New("to state is required")
	}
	if hm.ChangedBy == "" {
		return errors.New("changed by is required")
	}
	return nil
}
