package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/mautops/fieldops-gin/internal/model"
	"github.com/mautops/fieldops-gin/internal/service"
	"github.com/mautops/fieldops-gin/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedSyncCatalogs 写入同步测试用的参数与活动目录
func seedSyncCatalogs(t *testing.T, db *gorm.DB) {
	high := 30.0
	low := 10.0
	critHigh := 40.0
	param := &model.ParameterModel{
		ID:          "param-temp",
		Name:        "temperature",
		Unit:        "°C",
		NormalMin:   &low,
		NormalMax:   &high,
		CriticalMax: &critHigh,
	}
	require.NoError(t, db.Create(param).Error)

	activity := &model.CatalogActivityModel{
		ID:       "act-clean",
		Name:     "clean condenser coils",
		Category: "preventive",
	}
	require.NoError(t, db.Create(activity).Error)
}

// seedAssignedOrder 插入指派给技术员的工单
func seedAssignedOrder(t *testing.T, db *gorm.DB, technicianID string) *model.OrderModel {
	return seedOrder(t, db, statemachine.StateAssigned, func(o *model.OrderModel) {
		o.TechnicianID = &technicianID
		o.ScheduledAt = ptrTime(time.Now().Add(time.Hour))
	})
}

// TestSyncService_UploadBatch_TextAndMeasurements 上传文本更新和新测量记录
func TestSyncService_UploadBatch_TextAndMeasurements(t *testing.T) {
	db := setupServiceDB(t)
	seedSyncCatalogs(t, db)
	svc := service.NewSyncService(db, service.SyncOptions{}, nil)

	order := seedAssignedOrder(t, db, "tech-001")

	value := 35.0
	measuredAt := time.Now()
	result, err := svc.UploadBatch(context.Background(), &service.SyncUploadRequest{
		TechnicianID: "tech-001",
		Items: []service.SyncUploadItem{
			{
				OrderID:       order.ID,
				ClientVersion: order.UpdatedAt,
				TextUpdates: &service.SyncTextUpdates{
					WorkPerformed: ptrStr("checked refrigerant pressure"),
				},
				Measurements: []service.SyncMeasurementUpsert{
					{
						LocalID:      "local-m-1",
						ParameterID:  "param-temp",
						ValueNumeric: &value,
						MeasuredAt:   &measuredAt,
					},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.Zero(t, result.Conflicted)

	// 分配了服务端 ID 并回传映射
	item := result.Items[0]
	require.True(t, item.Success)
	require.NotNil(t, item.IDMapping)
	serverID := item.IDMapping.Measurements["local-m-1"]
	require.NotEmpty(t, serverID)

	// 越出正常范围但未到临界:WARNING
	var m model.MeasurementModel
	require.NoError(t, db.First(&m, "id = ?", serverID).Error)
	assert.Equal(t, model.AlertWarning, m.AlertLevel)
	assert.Equal(t, "local-m-1", m.LocalRef)
	assert.Equal(t, "tech-001", m.MeasuredBy)

	var saved model.OrderModel
	require.NoError(t, db.First(&saved, "id = ?", order.ID).Error)
	assert.Equal(t, "checked refrigerant pressure", saved.WorkPerformed)
}

// TestSyncService_UploadBatch_Idempotent 重复提交相同 LocalID 就地更新同一行
func TestSyncService_UploadBatch_Idempotent(t *testing.T) {
	db := setupServiceDB(t)
	seedSyncCatalogs(t, db)
	svc := service.NewSyncService(db, service.SyncOptions{}, nil)

	order := seedAssignedOrder(t, db, "tech-001")

	upload := func(value float64) *service.SyncUploadResult {
		// 不带 ClientVersion,跳过冲突检测,模拟重试
		result, err := svc.UploadBatch(context.Background(), &service.SyncUploadRequest{
			TechnicianID: "tech-001",
			Items: []service.SyncUploadItem{
				{
					OrderID: order.ID,
					Measurements: []service.SyncMeasurementUpsert{
						{LocalID: "local-m-1", ParameterID: "param-temp", ValueNumeric: &value},
					},
				},
			},
		})
		require.NoError(t, err)
		return result
	}

	first := upload(20)
	second := upload(22)

	firstID := first.Items[0].IDMapping.Measurements["local-m-1"]
	secondID := second.Items[0].IDMapping.Measurements["local-m-1"]
	assert.Equal(t, firstID, secondID)

	// 表里只有一行,值是最后一次提交的
	var count int64
	require.NoError(t, db.Model(&model.MeasurementModel{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var m model.MeasurementModel
	require.NoError(t, db.First(&m, "id = ?", firstID).Error)
	require.NotNil(t, m.ValueNumeric)
	assert.Equal(t, 22.0, *m.ValueNumeric)
}

// TestSyncService_UploadBatch_Conflict 服务端版本更新时判冲突且不写入
func TestSyncService_UploadBatch_Conflict(t *testing.T) {
	db := setupServiceDB(t)
	seedSyncCatalogs(t, db)
	svc := service.NewSyncService(db, service.SyncOptions{}, nil)

	order := seedAssignedOrder(t, db, "tech-001")

	// 客户端版本落后于服务端一小时
	staleVersion := order.UpdatedAt.Add(-time.Hour)
	result, err := svc.UploadBatch(context.Background(), &service.SyncUploadRequest{
		TechnicianID: "tech-001",
		Items: []service.SyncUploadItem{
			{
				OrderID:       order.ID,
				ClientVersion: staleVersion,
				TextUpdates: &service.SyncTextUpdates{
					WorkPerformed: ptrStr("stale update"),
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Zero(t, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 1, result.Conflicted)

	item := result.Items[0]
	assert.True(t, item.Conflict)
	assert.False(t, item.Success)
	assert.Contains(t, item.Error, "conflict")

	// 冲突条目不产生任何写入
	var saved model.OrderModel
	require.NoError(t, db.First(&saved, "id = ?", order.ID).Error)
	assert.Empty(t, saved.WorkPerformed)
}

// TestSyncService_UploadBatch_ItemIsolation 单个条目失败不影响批次内其它条目
func TestSyncService_UploadBatch_ItemIsolation(t *testing.T) {
	db := setupServiceDB(t)
	seedSyncCatalogs(t, db)
	svc := service.NewSyncService(db, service.SyncOptions{}, nil)

	first := seedAssignedOrder(t, db, "tech-001")
	third := seedAssignedOrder(t, db, "tech-001")

	result, err := svc.UploadBatch(context.Background(), &service.SyncUploadRequest{
		TechnicianID: "tech-001",
		Items: []service.SyncUploadItem{
			{
				OrderID:     first.ID,
				TextUpdates: &service.SyncTextUpdates{TechnicianNotes: ptrStr("note one")},
			},
			{
				OrderID:     "missing-order",
				TextUpdates: &service.SyncTextUpdates{TechnicianNotes: ptrStr("orphan")},
			},
			{
				OrderID:     third.ID,
				TextUpdates: &service.SyncTextUpdates{TechnicianNotes: ptrStr("note three")},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Conflicted)

	assert.True(t, result.Items[0].Success)
	assert.False(t, result.Items[1].Success)
	assert.True(t, result.Items[2].Success)

	// 成功条目的写入持久化
	var saved model.OrderModel
	require.NoError(t, db.First(&saved, "id = ?", first.ID).Error)
	assert.Equal(t, "note one", saved.TechnicianNotes)
	var savedThird model.OrderModel
	require.NoError(t, db.First(&savedThird, "id = ?", third.ID).Error)
	assert.Equal(t, "note three", savedThird.TechnicianNotes)
}

// TestSyncService_UploadBatch_Forbidden 别人的工单拒绝上传
func TestSyncService_UploadBatch_Forbidden(t *testing.T) {
	db := setupServiceDB(t)
	svc := service.NewSyncService(db, service.SyncOptions{}, nil)

	order := seedAssignedOrder(t, db, "tech-001")

	result, err := svc.UploadBatch(context.Background(), &service.SyncUploadRequest{
		TechnicianID: "tech-002",
		Items: []service.SyncUploadItem{
			{OrderID: order.ID, TextUpdates: &service.SyncTextUpdates{TechnicianNotes: ptrStr("hijack")}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.Items[0].Success)
}

// TestSyncService_UploadBatch_StateChange 离线状态变更重放完整状态机校验
func TestSyncService_UploadBatch_StateChange(t *testing.T) {
	db := setupServiceDB(t)
	seedSyncCatalogs(t, db)
	svc := service.NewSyncService(db, service.SyncOptions{}, nil)

	order := seedAssignedOrder(t, db, "tech-001")

	result, err := svc.UploadBatch(context.Background(), &service.SyncUploadRequest{
		TechnicianID: "tech-001",
		Items: []service.SyncUploadItem{
			{
				OrderID: order.ID,
				StateChange: &service.SyncStateChange{
					TargetState: statemachine.StateInProgress,
				},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Succeeded)

	var saved model.OrderModel
	require.NoError(t, db.First(&saved, "id = ?", order.ID).Error)
	assert.Equal(t, statemachine.StateInProgress, saved.StateCode)
	require.NotNil(t, saved.RealStartAt)

	// 历史也追加了
	var count int64
	require.NoError(t, db.Model(&model.OrderHistoryModel{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 非法的离线转换同样被拒绝
	result, err = svc.UploadBatch(context.Background(), &service.SyncUploadRequest{
		TechnicianID: "tech-001",
		Items: []service.SyncUploadItem{
			{
				OrderID: order.ID,
				StateChange: &service.SyncStateChange{
					TargetState: statemachine.StateApproved,
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
}

// TestSyncService_FullDownload 全量下载包含目录且排除终态工单
func TestSyncService_FullDownload(t *testing.T) {
	db := setupServiceDB(t)
	seedSyncCatalogs(t, db)
	svc := service.NewSyncService(db, service.SyncOptions{}, nil)

	active := seedAssignedOrder(t, db, "tech-001")
	seedOrder(t, db, statemachine.StateCancelled, func(o *model.OrderModel) {
		o.TechnicianID = ptrStr("tech-001")
	})

	result, err := svc.FullDownload("tech-001")
	require.NoError(t, err)
	assert.False(t, result.Delta)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, active.ID, result.Orders[0].Order.ID)

	require.NotNil(t, result.Catalogs)
	assert.Len(t, result.Catalogs.States, 7)
	assert.Len(t, result.Catalogs.Parameters, 1)
	assert.Len(t, result.Catalogs.Activities, 1)
}

// TestSyncService_DeltaDownload 增量下载只含 since 之后修改的工单
func TestSyncService_DeltaDownload(t *testing.T) {
	db := setupServiceDB(t)
	seedSyncCatalogs(t, db)
	svc := service.NewSyncService(db, service.SyncOptions{}, nil)

	cutoff := time.Now()

	seedOrder(t, db, statemachine.StateAssigned, func(o *model.OrderModel) {
		o.TechnicianID = ptrStr("tech-001")
		o.ScheduledAt = ptrTime(cutoff.Add(time.Hour))
		o.UpdatedAt = cutoff.Add(-time.Hour)
	})
	fresh := seedOrder(t, db, statemachine.StateAssigned, func(o *model.OrderModel) {
		o.TechnicianID = ptrStr("tech-001")
		o.ScheduledAt = ptrTime(cutoff.Add(time.Hour))
		o.UpdatedAt = cutoff.Add(time.Hour)
	})

	// 默认不含目录
	result, err := svc.DeltaDownload("tech-001", cutoff, false)
	require.NoError(t, err)
	assert.True(t, result.Delta)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, fresh.ID, result.Orders[0].Order.ID)
	assert.Nil(t, result.Catalogs)

	// 显式请求时附带目录,即使没有工单变化
	result, err = svc.DeltaDownload("tech-001", cutoff.Add(2*time.Hour), true)
	require.NoError(t, err)
	assert.Empty(t, result.Orders)
	require.NotNil(t, result.Catalogs)
	assert.Len(t, result.Catalogs.States, 7)
}

// TestSyncService_DiffSummary 差异摘要返回轻量指纹
func TestSyncService_DiffSummary(t *testing.T) {
	db := setupServiceDB(t)
	svc := service.NewSyncService(db, service.SyncOptions{}, nil)

	order := seedAssignedOrder(t, db, "tech-001")
	seedOrder(t, db, statemachine.StateApproved, func(o *model.OrderModel) {
		o.TechnicianID = ptrStr("tech-001")
	})

	result, err := svc.DiffSummary("tech-001", 0)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	entry := result.Entries[0]
	assert.Equal(t, order.ID, entry.OrderID)
	assert.Equal(t, order.Number, entry.Number)
	assert.Equal(t, statemachine.StateAssigned, entry.StateCode)
	assert.False(t, entry.Version.IsZero())
}

// TestSyncService_GetOrder_TerminalHidden 终态工单对客户端视同不存在
func TestSyncService_GetOrder_TerminalHidden(t *testing.T) {
	db := setupServiceDB(t)
	svc := service.NewSyncService(db, service.SyncOptions{}, nil)

	active := seedAssignedOrder(t, db, "tech-001")
	terminal := seedOrder(t, db, statemachine.StateApproved, nil)

	detail, err := svc.GetOrder(active.ID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, detail.Order.ID)

	_, err = svc.GetOrder(terminal.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.GetOrder("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
