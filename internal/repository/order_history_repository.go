package repository

import (
	"github.com/mautops/fieldops-gin/internal/model"
	"gorm.io/gorm"
)

// OrderHistoryRepository 工单状态历史仓储接口
// 历史是审计线索,只允许追加和查询
type OrderHistoryRepository interface {
	Append(history *model.OrderHistoryModel) error
	FindByOrderID(orderID string) ([]*model.OrderHistoryModel, error)
}

// orderHistoryRepository 工单状态历史仓储实现
type orderHistoryRepository struct {
	db *gorm.DB
}

// NewOrderHistoryRepository 创建工单状态历史仓储
func NewOrderHistoryRepository(db *gorm.DB) OrderHistoryRepository {
	return &orderHistoryRepository{db: db}
}

// Append 追加状态历史记录
func (r *orderHistoryRepository) Append(history *model.OrderHistoryModel) error {
	if err := history.Validate(); err != nil {
		return err
	}
	return r.db.Create(history).Error
}

// FindByOrderID 根据工单 ID 查找状态历史
func (r *orderHistoryRepository) FindByOrderID(orderID string) ([]*model.OrderHistoryModel, error) {
	var histories []*model.OrderHistoryModel
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&histories).Error
	return histories, err
}
