package model

import (
	"errors"
	"time"
)

// 测量告警级别
const (
	AlertNormal   = "NORMAL"
	AlertWarning  = "WARNING"
	AlertCritical = "CRITICAL"
)

// MeasurementModel 测量记录数据模型
// LocalRef 是客户端离线生成的临时标识,同一工单内重复提交相同
// LocalRef 会就地更新而不是插入新行
type MeasurementModel struct {
	ID           string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OrderID      string     `gorm:"type:varchar(64);not null;index:idx_measurements_order_local,priority:1" json:"order_id"`
	ParameterID  string     `gorm:"type:varchar(64);not null;index" json:"parameter_id"`
	LocalRef     string     `gorm:"type:varchar(64);index:idx_measurements_order_local,priority:2" json:"local_ref"`
	ValueNumeric *float64   `json:"value_numeric,omitempty"`
	ValueText    string     `gorm:"type:text" json:"value_text"`
	AlertLevel   string     `gorm:"type:varchar(16);not null;default:NORMAL" json:"alert_level"`
	Context      string     `gorm:"type:text" json:"context"` // 测量场景说明
	MeasuredBy   string     `gorm:"type:varchar(64);not null" json:"measured_by"`
	MeasuredAt   *time.Time `json:"measured_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (MeasurementModel) TableName() string {
	return "measurements"
}

// Validate 验证测量记录模型
func (mm *MeasurementModel) Validate() error {
	if mm.ID == "" {
		return errors.New("measurement ID is required")
	}
	if mm.OrderID == "" {
		return errors.New("order ID is required")
	}
	if mm.ParameterID == "" {
		return errors.New("parameter ID is required")
	}
	if mm.MeasuredBy == "" {
		return errors.New("measured by is required")
	}
	return nil
}
