package repository

import (
	"github.com/mautops/fieldops-gin/internal/model"
	"gorm.io/gorm"
)

// EventRepository 工单后台事件仓储接口
type EventRepository interface {
	Save(event *model.OrderEventModel) error
	FindByID(id string) (*model.OrderEventModel, error)
	FindByOrderID(orderID string) ([]*model.OrderEventModel, error)
	FindPending(limit int) ([]*model.OrderEventModel, error)
}

// eventRepository 工单后台事件仓储实现
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建工单后台事件仓储
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Save 保存事件
func (r *eventRepository) Save(event *model.OrderEventModel) error {
	return r.db.Save(event).Error
}

// FindByID 根据 ID 查找事件
func (r *eventRepository) FindByID(id string) (*model.OrderEventModel, error) {
	var event model.OrderEventModel
	if err := r.db.Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByOrderID 根据工单 ID 查找事件
func (r *eventRepository) FindByOrderID(orderID string) ([]*model.OrderEventModel, error) {
	var events []*model.OrderEventModel
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&events).Error
	return events, err
}

// FindPending 查找待派发的事件
func (r *eventRepository) FindPending(limit int) ([]*model.OrderEventModel, error) {
	var events []*model.OrderEventModel
	query := r.db.Where("status = ?", model.EventStatusPending).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&events).Error
	return events, err
}
