package model

import "time"

// ParameterModel 测量参数目录数据模型(只读参考数据)
// 四个阈值均可为空,为空的一侧永远不会触发告警
type ParameterModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string    `gorm:"type:varchar(128);not null" json:"name"`
	Unit        string    `gorm:"type:varchar(32)" json:"unit"`
	NormalMin   *float64  `json:"normal_min,omitempty"`
	NormalMax   *float64  `json:"normal_max,omitempty"`
	CriticalMin *float64  `json:"critical_min,omitempty"`
	CriticalMax *float64  `json:"critical_max,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (ParameterModel) TableName() string {
	return "parameters"
}

// CatalogActivityModel 维护活动目录数据模型(只读参考数据)
type CatalogActivityModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string    `gorm:"type:varchar(128);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"type:varchar(64);index" json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (CatalogActivityModel) TableName() string {
	return "catalog_activities"
}

// ServiceTypeModel 服务类型目录数据模型(只读参考数据)
type ServiceTypeModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string    `gorm:"type:varchar(128);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (ServiceTypeModel) TableName() string {
	return "service_types"
}
