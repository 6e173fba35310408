package model

import "errors"

// OrderStateModel 工单状态目录数据模型
// 状态目录是状态码的唯一权威来源,必须与状态机的转换表一致
type OrderStateModel struct {
	Code         string `gorm:"primaryKey;type:varchar(32)" json:"code"`
	Name         string `gorm:"type:varchar(64);not null" json:"name"`
	IsTerminal   bool   `gorm:"not null;default:false" json:"is_terminal"` // 终态无出边
	DisplayOrder int    `gorm:"not null;default:0" json:"display_order"`
}

// TableName 指定表名
func (OrderStateModel) TableName() string {
	return "order_states"
}

// Validate 验证状态目录模型
func (sm *OrderStateModel) Validate() error {
	if sm.Code == "" {
		return errors.New("state code is required")
	}
	if sm.Name == "" {
		return errors.New("state name is required")
	}
	return nil
}
