package model

import (
	"errors"
	"time"
)

// 工单事件类型
const (
	EventOrderCompleted = "order_completed"
)

// 工单事件状态
const (
	EventStatusPending = "pending"
	EventStatusSent    = "sent"
	EventStatusFailed  = "failed"
)

// OrderEventModel 工单后台事件数据模型
// 完成态触发的文档生成/通知先落库再异步派发,失败只记日志和重试计数,
// 永远不影响状态转换本身
type OrderEventModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OrderID     string    `gorm:"type:varchar(64);not null;index" json:"order_id"`
	Type        string    `gorm:"type:varchar(32);not null" json:"type"`
	Status      string    `gorm:"type:varchar(32);not null;default:pending;index" json:"status"`
	RetryCount  int       `gorm:"default:0" json:"retry_count"`
	DocumentURL string    `gorm:"type:text" json:"document_url"`
	LastError   string    `gorm:"type:text" json:"last_error"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (OrderEventModel) TableName() string {
	return "order_events"
}

// Validate 验证工单事件模型
func (em *OrderEventModel) Validate() error {
	if em.ID == "" {
		return errors.New("event ID is required")
	}
	if em.OrderID == "" {
		return errors.New("order ID is required")
	}
	if em.Type == "" {
		return errors.New("event type is required")
	}
	return nil
}
