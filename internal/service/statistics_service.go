package service

import (
	"github.com/mautops/fieldops-gin/internal/metrics"
	"github.com/mautops/fieldops-gin/internal/model"
	"github.com/mautops/fieldops-gin/internal/repository"
	"github.com/mautops/fieldops-gin/internal/statemachine"
	"gorm.io/gorm"
)

// StatisticsService 工单统计服务接口
type StatisticsService interface {
	OrdersByState() (map[string]int64, error)
	AlertSummary(orderID string) (*AlertSummary, error)
	RefreshMetrics() error
}

// AlertSummary 工单级告警统计
type AlertSummary struct {
	OrderID  string `json:"order_id"`
	Total    int    `json:"total"`
	Normal   int    `json:"normal"`
	Warning  int    `json:"warning"`
	Critical int    `json:"critical"`
}

// statisticsService 工单统计服务实现
type statisticsService struct {
	db *gorm.DB
}

// NewStatisticsService 创建工单统计服务
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// OrdersByState 各状态的工单数量
// 目录里存在但没有工单的状态也返回,计数为零
func (s *statisticsService) OrdersByState() (map[string]int64, error) {
	counts, err := repository.NewOrderRepository(s.db).CountByState()
	if err != nil {
		return nil, err
	}
	for _, state := range statemachine.States() {
		if _, ok := counts[state]; !ok {
			counts[state] = 0
		}
	}
	return counts, nil
}

// AlertSummary 统计某工单的测量告警分布
func (s *statisticsService) AlertSummary(orderID string) (*AlertSummary, error) {
	measurements, err := repository.NewMeasurementRepository(s.db).FindByOrderID(orderID)
	if err != nil {
		return nil, err
	}

	summary := &AlertSummary{OrderID: orderID}
	for _, m := range measurements {
		summary.Total++
		switch m.AlertLevel {
		case model.AlertCritical:
			summary.Critical++
		case model.AlertWarning:
			summary.Warning++
		default:
			summary.Normal++
		}
	}
	return summary, nil
}

// RefreshMetrics 刷新工单状态分布指标
func (s *statisticsService) RefreshMetrics() error {
	counts, err := s.OrdersByState()
	if err != nil {
		return err
	}
	for state, count := range counts {
		metrics.UpdateOrdersByState(state, float64(count))
	}
	return nil
}
