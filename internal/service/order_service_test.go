package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/fieldops-gin/internal/model"
	"github.com/mautops/fieldops-gin/internal/service"
	"github.com/mautops/fieldops-gin/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOrderService_Create 新工单总是从 SCHEDULED 开始并带服务端编号
func TestOrderService_Create(t *testing.T) {
	db := setupServiceDB(t)
	svc := service.NewOrderService(db, "WO")

	order, err := svc.Create(context.Background(), &service.CreateOrderRequest{
		Priority:     model.PriorityHigh,
		ClientID:     "cli-001",
		ClientName:   "Acme Corp",
		EquipmentIDs: []string{"eq-001", "eq-002"},
		Description:  "quarterly maintenance",
		CreatedBy:    "dispatcher-001",
	})
	require.NoError(t, err)
	assert.Equal(t, statemachine.StateScheduled, order.StateCode)
	assert.Regexp(t, `^WO-\d{6}-\d{4}$`, order.Number)
	assert.NotEmpty(t, order.ID)

	// 设备关联一并写入
	detail, err := svc.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"eq-001", "eq-002"}, detail.EquipmentIDs)

	// 同月内第二个工单编号递增
	second, err := svc.Create(context.Background(), &service.CreateOrderRequest{
		Priority:  model.PriorityLow,
		ClientID:  "cli-002",
		CreatedBy: "dispatcher-001",
	})
	require.NoError(t, err)
	assert.NotEqual(t, order.Number, second.Number)
	assert.Greater(t, second.Number, order.Number)
}

// TestOrderService_Create_InvalidPriority 非法优先级被拒绝
func TestOrderService_Create_InvalidPriority(t *testing.T) {
	db := setupServiceDB(t)
	svc := service.NewOrderService(db, "WO")

	_, err := svc.Create(context.Background(), &service.CreateOrderRequest{
		Priority:  "EXTREME",
		ClientID:  "cli-001",
		CreatedBy: "dispatcher-001",
	})
	require.Error(t, err)
}

// TestOrderService_Get_NotFound 不存在的工单返回未找到
func TestOrderService_Get_NotFound(t *testing.T) {
	db := setupServiceDB(t)
	svc := service.NewOrderService(db, "WO")

	_, err := svc.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

// TestStatisticsService_OrdersByState 统计含零计数的全部状态
func TestStatisticsService_OrdersByState(t *testing.T) {
	db := setupServiceDB(t)
	svc := service.NewStatisticsService(db)

	seedOrder(t, db, statemachine.StateScheduled, nil)
	seedOrder(t, db, statemachine.StateScheduled, nil)
	seedOrder(t, db, statemachine.StateCancelled, nil)

	counts, err := svc.OrdersByState()
	require.NoError(t, err)
	assert.Len(t, counts, 7)
	assert.Equal(t, int64(2), counts[statemachine.StateScheduled])
	assert.Equal(t, int64(1), counts[statemachine.StateCancelled])
	assert.Equal(t, int64(0), counts[statemachine.StateApproved])
}

// TestStatisticsService_AlertSummary 按告警级别统计测量记录
func TestStatisticsService_AlertSummary(t *testing.T) {
	db := setupServiceDB(t)
	svc := service.NewStatisticsService(db)

	order := seedOrder(t, db, statemachine.StateInProgress, nil)
	now := time.Now()
	for _, level := range []string{model.AlertNormal, model.AlertWarning, model.AlertWarning, model.AlertCritical} {
		m := &model.MeasurementModel{
			ID:          uuid.New().String(),
			OrderID:     order.ID,
			ParameterID: "param-001",
			AlertLevel:  level,
			MeasuredBy:  "tech-001",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		require.NoError(t, db.Create(m).Error)
	}

	summary, err := svc.AlertSummary(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Normal)
	assert.Equal(t, 2, summary.Warning)
	assert.Equal(t, 1, summary.Critical)
}
