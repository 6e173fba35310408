package repository

import (
	"errors"

	"github.com/mautops/fieldops-gin/internal/model"
	"gorm.io/gorm"
)

// MeasurementRepository 测量记录仓储接口
type MeasurementRepository interface {
	Save(measurement *model.MeasurementModel) error
	FindByID(id string) (*model.MeasurementModel, error)
	FindByOrderID(orderID string) ([]*model.MeasurementModel, error)
	// FindExisting 按服务端 ID 或客户端本地标识查找已有记录
	// 两者都未命中时返回 (nil, nil),调用方据此决定插入还是更新
	FindExisting(orderID, serverID, localRef string) (*model.MeasurementModel, error)
}

// measurementRepository 测量记录仓储实现
type measurementRepository struct {
	db *gorm.DB
}

// NewMeasurementRepository 创建测量记录仓储
func NewMeasurementRepository(db *gorm.DB) MeasurementRepository {
	return &measurementRepository{db: db}
}

// Save 保存测量记录
func (r *measurementRepository) Save(measurement *model.MeasurementModel) error {
	return r.db.Save(measurement).Error
}

// FindByID 根据 ID 查找测量记录
func (r *measurementRepository) FindByID(id string) (*model.MeasurementModel, error) {
	var m model.MeasurementModel
	if err := r.db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByOrderID 根据工单 ID 查找测量记录
func (r *measurementRepository) FindByOrderID(orderID string) ([]*model.MeasurementModel, error) {
	var measurements []*model.MeasurementModel
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&measurements).Error
	return measurements, err
}

// FindExisting 按服务端 ID 或 (order_id, local_ref) 查找已有记录
func (r *measurementRepository) FindExisting(orderID, serverID, localRef string) (*model.MeasurementModel, error) {
	var m model.MeasurementModel

	if serverID != "" {
		err := r.db.Where("id = ? AND order_id = ?", serverID, orderID).First(&m).Error
		if err == nil {
			return &m, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if localRef != "" {
		err := r.db.Where("order_id = ? AND local_ref = ?", orderID, localRef).First(&m).Error
		if err == nil {
			return &m, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, nil
}
