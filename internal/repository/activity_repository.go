package repository

import (
	"errors"

	"github.com/mautops/fieldops-gin/internal/model"
	"gorm.io/gorm"
)

// ActivityRepository 已执行活动仓储接口
type ActivityRepository interface {
	Save(activity *model.ExecutedActivityModel) error
	FindByID(id string) (*model.ExecutedActivityModel, error)
	FindByOrderID(orderID string) ([]*model.ExecutedActivityModel, error)
	// FindExisting 按服务端 ID 或客户端本地标识查找已有记录
	FindExisting(orderID, serverID, localRef string) (*model.ExecutedActivityModel, error)
}

// activityRepository 已执行活动仓储实现
type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository 创建已执行活动仓储
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Save 保存已执行活动
func (r *activityRepository) Save(activity *model.ExecutedActivityModel) error {
	return r.db.Save(activity).Error
}

// FindByID 根据 ID 查找已执行活动
func (r *activityRepository) FindByID(id string) (*model.ExecutedActivityModel, error) {
	var a model.ExecutedActivityModel
	if err := r.db.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByOrderID 根据工单 ID 查找已执行活动
func (r *activityRepository) FindByOrderID(orderID string) ([]*model.ExecutedActivityModel, error) {
	var activities []*model.ExecutedActivityModel
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&activities).Error
	return activities, err
}

// FindExisting 按服务端 ID 或 (order_id, local_ref) 查找已有记录
func (r *activityRepository) FindExisting(orderID, serverID, localRef string) (*model.ExecutedActivityModel, error) {
	var a model.ExecutedActivityModel

	if serverID != "" {
		err := r.db.Where("id = ? AND order_id = ?", serverID, orderID).First(&a).Error
		if err == nil {
			return &a, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if localRef != "" {
		err := r.db.Where("order_id = ? AND local_ref = ?", orderID, localRef).First(&a).Error
		if err == nil {
			return &a, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, nil
}
