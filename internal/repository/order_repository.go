package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mautops/fieldops-gin/internal/model"
	"gorm.io/gorm"
)

// priorityRankExpr 优先级排序表达式
// 优先级存储为枚举字符串,列表查询需要按权重排序
const priorityRankExpr = "CASE priority " +
	"WHEN 'URGENT' THEN 4 " +
	"WHEN 'HIGH' THEN 3 " +
	"WHEN 'MEDIUM' THEN 2 " +
	"WHEN 'LOW' THEN 1 " +
	"ELSE 0 END"

// OrderRepository 工单仓储接口
type OrderRepository interface {
	Create(order *model.OrderModel) error
	Save(order *model.OrderModel) error
	FindByID(id string) (*model.OrderModel, error)
	FindByFilter(filter *OrderFilter) ([]*model.OrderModel, error)
	FindActiveByTechnician(technicianID string, limit int) ([]*model.OrderModel, error)
	FindActiveModifiedSince(technicianID string, since time.Time, limit int) ([]*model.OrderModel, error)
	NextNumber(prefix string, now time.Time) (string, error)
	ReplaceEquipments(orderID string, equipmentIDs []string) error
	FindEquipmentIDs(orderID string) ([]string, error)
	CountByState() (map[string]int64, error)
}

// OrderFilter 工单查询过滤器
type OrderFilter struct {
	TechnicianID *string
	ClientID     *string
	EquipmentID  *string
	State        *string
	Priority     *string
	Limit        int
}

// orderRepository 工单仓储实现
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建工单仓储
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create 创建工单
func (r *orderRepository) Create(order *model.OrderModel) error {
	return r.db.Create(order).Error
}

// Save 保存工单
func (r *orderRepository) Save(order *model.OrderModel) error {
	return r.db.Save(order).Error
}

// FindByID 根据 ID 查找工单
func (r *orderRepository) FindByID(id string) (*model.OrderModel, error) {
	var order model.OrderModel
	if err := r.db.Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByFilter 根据过滤器查找工单
func (r *orderRepository) FindByFilter(filter *OrderFilter) ([]*model.OrderModel, error) {
	var orders []*model.OrderModel
	query := r.db.Model(&model.OrderModel{})

	if filter != nil {
		if filter.TechnicianID != nil {
			query = query.Where("technician_id = ?", *filter.TechnicianID)
		}
		if filter.ClientID != nil {
			query = query.Where("client_id = ?", *filter.ClientID)
		}
		if filter.State != nil {
			query = query.Where("state_code = ?", *filter.State)
		}
		if filter.Priority != nil {
			query = query.Where("priority = ?", *filter.Priority)
		}
		if filter.EquipmentID != nil {
			query = query.Where("id IN (?)",
				r.db.Model(&model.OrderEquipmentModel{}).
					Select("order_id").
					Where("equipment_id = ?", *filter.EquipmentID))
		}
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
	}

	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// activeQuery 技术员的活跃工单查询
// 终态工单永远不会发给现场客户端,结果按优先级降序、排期升序排列,
// 命中上限时保证紧急工单先被包含
func (r *orderRepository) activeQuery(technicianID string) *gorm.DB {
	terminal := r.db.Model(&model.OrderStateModel{}).
		Select("code").
		Where("is_terminal = ?", true)
	return r.db.Model(&model.OrderModel{}).
		Where("technician_id = ?", technicianID).
		Where("state_code NOT IN (?)", terminal).
		Order(priorityRankExpr + " DESC").
		Order("scheduled_at ASC")
}

// FindActiveByTechnician 查找技术员的活跃(非终态)工单
func (r *orderRepository) FindActiveByTechnician(technicianID string, limit int) ([]*model.OrderModel, error) {
	var orders []*model.OrderModel
	query := r.activeQuery(technicianID)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&orders).Error
	return orders, err
}

// FindActiveModifiedSince 查找技术员自某时间点后修改过的活跃工单
func (r *orderRepository) FindActiveModifiedSince(technicianID string, since time.Time, limit int) ([]*model.OrderModel, error) {
	var orders []*model.OrderModel
	query := r.activeQuery(technicianID).Where("updated_at >= ?", since)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&orders).Error
	return orders, err
}

// NextNumber 生成下一个工单编号
// 编号格式为 PREFIX-YYYYMM-NNNN,序号在自然月内单调递增,
// 生成方式是扫描当月前缀下已有的最大编号再加一
func (r *orderRepository) NextNumber(prefix string, now time.Time) (string, error) {
	monthPrefix := fmt.Sprintf("%s-%s-", prefix, now.Format("200601"))

	var last model.OrderModel
	err := r.db.Model(&model.OrderModel{}).
		Where("number LIKE ?", monthPrefix+"%").
		Order("number DESC").
		First(&last).Error

	seq := 0
	if err == nil {
		parsed, perr := parseSequence(last.Number, monthPrefix)
		if perr != nil {
			return "", perr
		}
		seq = parsed
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	return fmt.Sprintf("%s%04d", monthPrefix, seq+1), nil
}

// parseSequence 从工单编号中解析序号
func parseSequence(number, monthPrefix string) (int, error) {
	raw := strings.TrimPrefix(number, monthPrefix)
	seq, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("malformed order number %q: %w", number, err)
	}
	return seq, nil
}

// ReplaceEquipments 替换工单的设备关联
func (r *orderRepository) ReplaceEquipments(orderID string, equipmentIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&model.OrderEquipmentModel{}).Error; err != nil {
			return err
		}
		for _, eq := range equipmentIDs {
			link := &model.OrderEquipmentModel{OrderID: orderID, EquipmentID: eq}
			if err := tx.Create(link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindEquipmentIDs 查找工单关联的设备 ID
func (r *orderRepository) FindEquipmentIDs(orderID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.OrderEquipmentModel{}).
		Where("order_id = ?", orderID).
		Order("equipment_id ASC").
		Pluck("equipment_id", &ids).Error
	return ids, err
}

// CountByState 统计各状态的工单数量
func (r *orderRepository) CountByState() (map[string]int64, error) {
	type stateCount struct {
		StateCode string
		Count     int64
	}
	var rows []stateCount
	err := r.db.Model(&model.OrderModel{}).
		Select("state_code, COUNT(*) as count").
		Group("state_code").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.StateCode] = row.Count
	}
	return counts, nil
}
