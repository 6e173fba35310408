package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/fieldops-gin/internal/metrics"
	"github.com/mautops/fieldops-gin/internal/model"
	"github.com/mautops/fieldops-gin/internal/repository"
	"github.com/mautops/fieldops-gin/internal/statemachine"
	"gorm.io/gorm"
)

// OrderService 工单数据服务接口
// 录入和查询侧:创建总是落在 SCHEDULED,编号按月单调递增
type OrderService interface {
	Create(ctx context.Context, req *CreateOrderRequest) (*model.OrderModel, error)
	Get(id string) (*OrderDetail, error)
	List(filter *repository.OrderFilter) ([]*model.OrderModel, error)
	History(orderID string) ([]*model.OrderHistoryModel, error)
	Measurements(orderID string) ([]*model.MeasurementModel, error)
	Activities(orderID string) ([]*model.ExecutedActivityModel, error)
}

// CreateOrderRequest 创建工单请求
// @Description 创建工单的请求参数
type CreateOrderRequest struct {
	Priority      string     `json:"priority" example:"MEDIUM" binding:"required"`
	ClientID      string     `json:"client_id" example:"cli-001" binding:"required"`
	ClientName    string     `json:"client_name" example:"Acme Corp"`
	SiteID        *string    `json:"site_id,omitempty"`
	ServiceTypeID *string    `json:"service_type_id,omitempty"`
	EquipmentIDs  []string   `json:"equipment_ids"`
	TechnicianID  *string    `json:"technician_id,omitempty"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	Description   string     `json:"description"`
	CreatedBy     string     `json:"created_by" example:"user-001" binding:"required"`
}

// OrderDetail 工单详情(含从属记录)
type OrderDetail struct {
	Order        *model.OrderModel              `json:"order"`
	EquipmentIDs []string                       `json:"equipment_ids"`
	Measurements []*model.MeasurementModel      `json:"measurements"`
	Activities   []*model.ExecutedActivityModel `json:"activities"`
	History      []*model.OrderHistoryModel     `json:"history"`
}

// orderService 工单数据服务实现
type orderService struct {
	db           *gorm.DB
	numberPrefix string
}

// NewOrderService 创建工单数据服务
func NewOrderService(db *gorm.DB, numberPrefix string) OrderService {
	if numberPrefix == "" {
		numberPrefix = "WO"
	}
	return &orderService{db: db, numberPrefix: numberPrefix}
}

// Create 创建工单
// 新工单总是从 SCHEDULED 进入生命周期
func (s *orderService) Create(ctx context.Context, req *CreateOrderRequest) (*model.OrderModel, error) {
	if model.PriorityRank(req.Priority) == 0 {
		return nil, fmt.Errorf("invalid priority %q", req.Priority)
	}

	now := time.Now()
	var order *model.OrderModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewOrderRepository(tx)

		number, err := orderRepo.NextNumber(s.numberPrefix, now)
		if err != nil {
			return err
		}

		order = &model.OrderModel{
			ID:            uuid.New().String(),
			Number:        number,
			StateCode:     statemachine.StateScheduled,
			Priority:      req.Priority,
			ClientID:      req.ClientID,
			ClientName:    req.ClientName,
			SiteID:        req.SiteID,
			ServiceTypeID: req.ServiceTypeID,
			TechnicianID:  req.TechnicianID,
			ScheduledAt:   req.ScheduledAt,
			Description:   req.Description,
			CreatedBy:     req.CreatedBy,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := order.Validate(); err != nil {
			return err
		}
		if err := orderRepo.Create(order); err != nil {
			return err
		}

		for _, eq := range req.EquipmentIDs {
			link := &model.OrderEquipmentModel{OrderID: order.ID, EquipmentID: eq}
			if err := tx.Create(link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordOrderCreated()
	return order, nil
}

// Get 获取工单详情
func (s *orderService) Get(id string) (*OrderDetail, error) {
	orderRepo := repository.NewOrderRepository(s.db)
	order, err := orderRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %q", ErrNotFound, id)
		}
		return nil, err
	}

	equipments, err := orderRepo.FindEquipmentIDs(id)
	if err != nil {
		return nil, err
	}
	measurements, err := repository.NewMeasurementRepository(s.db).FindByOrderID(id)
	if err != nil {
		return nil, err
	}
	activities, err := repository.NewActivityRepository(s.db).FindByOrderID(id)
	if err != nil {
		return nil, err
	}
	history, err := repository.NewOrderHistoryRepository(s.db).FindByOrderID(id)
	if err != nil {
		return nil, err
	}

	return &OrderDetail{
		Order:        order,
		EquipmentIDs: equipments,
		Measurements: measurements,
		Activities:   activities,
		History:      history,
	}, nil
}

// List 按过滤器查询工单
func (s *orderService) List(filter *repository.OrderFilter) ([]*model.OrderModel, error) {
	return repository.NewOrderRepository(s.db).FindByFilter(filter)
}

// History 查询工单状态历史
func (s *orderService) History(orderID string) ([]*model.OrderHistoryModel, error) {
	return repository.NewOrderHistoryRepository(s.db).FindByOrderID(orderID)
}

// Measurements 查询工单测量记录
func (s *orderService) Measurements(orderID string) ([]*model.MeasurementModel, error) {
	return repository.NewMeasurementRepository(s.db).FindByOrderID(orderID)
}

// Activities 查询工单已执行活动
func (s *orderService) Activities(orderID string) ([]*model.ExecutedActivityModel, error) {
	return repository.NewActivityRepository(s.db).FindByOrderID(orderID)
}
