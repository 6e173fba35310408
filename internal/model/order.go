package model

import (
	"errors"
	"time"
)

// 工单优先级
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Priorities 所有合法的优先级(按升序)
var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// PriorityRank 优先级排序权重,未知优先级返回 0
func PriorityRank(priority string) int {
	switch priority {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

// OrderModel 工单数据模型
// UpdatedAt 同时作为乐观并发的版本标记:每次提交变更都会刷新,
// 同步协议用它判断服务端是否比客户端记录的版本更新
type OrderModel struct {
	ID              string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Number          string     `gorm:"type:varchar(32);not null;uniqueIndex" json:"number"` // 工单编号 PREFIX-YYYYMM-NNNN
	StateCode       string     `gorm:"type:varchar(32);not null;index" json:"state_code"`   // 当前状态(order_states.code)
	Priority        string     `gorm:"type:varchar(16);not null;index" json:"priority"`
	ClientID        string     `gorm:"type:varchar(64);not null;index" json:"client_id"`
	ClientName      string     `gorm:"type:varchar(255)" json:"client_name"` // 客户名称(冗余,供差异摘要展示)
	SiteID          *string    `gorm:"type:varchar(64)" json:"site_id,omitempty"`
	ServiceTypeID   *string    `gorm:"type:varchar(64)" json:"service_type_id,omitempty"`
	TechnicianID    *string    `gorm:"type:varchar(64);index" json:"technician_id,omitempty"` // 指派的技术员
	ScheduledAt     *time.Time `gorm:"index" json:"scheduled_at,omitempty"`
	RealStartAt     *time.Time `json:"real_start_at,omitempty"`
	RealEndAt       *time.Time `json:"real_end_at,omitempty"`
	StateChangedAt  *time.Time `json:"state_changed_at,omitempty"`
	ApprovedBy      *string    `gorm:"type:varchar(64)" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	Description     string     `gorm:"type:text" json:"description"`      // 初始描述
	WorkPerformed   string     `gorm:"type:text" json:"work_performed"`   // 执行的工作
	TechnicianNotes string     `gorm:"type:text" json:"technician_notes"` // 技术员备注
	ClosingNotes    string     `gorm:"type:text" json:"closing_notes"`    // 关闭备注
	CreatedBy       string     `gorm:"type:varchar(64);index" json:"created_by"`
	CreatedAt       time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;index" json:"updated_at"` // 版本标记
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

// Validate 验证工单模型
func (om *OrderModel) Validate() error {
	if om.ID == "" {
		return errors.New("order ID is required")
	}
	if om.Number == "" {
		return errors.New("order number is required")
	}
	if om.StateCode == "" {
		return errors.New("order state is required")
	}
	if PriorityRank(om.Priority) == 0 {
		return errors.New("order priority is invalid")
	}
	if om.ClientID == "" {
		return errors.New("client ID is required")
	}
	return nil
}

// OrderEquipmentModel 工单-设备关联
type OrderEquipmentModel struct {
	OrderID     string `gorm:"primaryKey;type:varchar(64)" json:"order_id"`
	EquipmentID string `gorm:"primaryKey;type:varchar(64);index" json:"equipment_id"`
}

// TableName 指定表名
func (OrderEquipmentModel) TableName() string {
	return "order_equipments"
}
