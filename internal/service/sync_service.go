package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/fieldops-gin/internal/alert"
	"github.com/mautops/fieldops-gin/internal/metrics"
	"github.com/mautops/fieldops-gin/internal/model"
	"github.com/mautops/fieldops-gin/internal/repository"
	"github.com/mautops/fieldops-gin/internal/statemachine"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// errSyncConflict 同步条目的版本冲突
// 只在事务内部使用,向上转换为条目结果里的 conflict 标记
var errSyncConflict = errors.New("sync conflict")

// SyncService 离线同步服务接口
// 上传按条目隔离事务,下载分全量/增量/差异摘要三种模式
type SyncService interface {
	UploadBatch(ctx context.Context, req *SyncUploadRequest) (*SyncUploadResult, error)
	FullDownload(technicianID string) (*SyncDownloadResult, error)
	DeltaDownload(technicianID string, since time.Time, includeCatalogs bool) (*SyncDownloadResult, error)
	DiffSummary(technicianID string, limit int) (*SyncDiffResult, error)
	GetOrder(orderID string) (*OrderDetail, error)
}

// SyncUploadRequest 批量上传请求
// @Description 离线客户端批量上传的请求参数
type SyncUploadRequest struct {
	TechnicianID  string           `json:"technician_id" example:"tech-001" binding:"required"`
	SyncTimestamp *time.Time       `json:"sync_timestamp,omitempty"` // 客户端的同步时刻
	Items         []SyncUploadItem `json:"items" binding:"required"`
}

// SyncUploadItem 单个工单的上传条目
type SyncUploadItem struct {
	OrderID       string                  `json:"order_id" binding:"required"`
	ClientVersion time.Time               `json:"client_version"`           // 客户端记录的服务端版本标记
	LastModified  *time.Time              `json:"last_modified,omitempty"`  // 客户端本地最后修改时间
	StateChange   *SyncStateChange        `json:"state_change,omitempty"`   // 可选的状态变更
	TextUpdates   *SyncTextUpdates        `json:"text_updates,omitempty"`   // 可选的文本字段更新
	Measurements  []SyncMeasurementUpsert `json:"measurements,omitempty"`   // 测量记录 upsert
	Activities    []SyncActivityUpsert    `json:"activities,omitempty"`     // 已执行活动 upsert
}

// SyncStateChange 离线产生的状态变更请求
// 状态机对离线变更同样权威,重放时重新走完整校验
type SyncStateChange struct {
	TargetState string     `json:"target_state" binding:"required"`
	Reason      string     `json:"reason"`
	Notes       string     `json:"notes"`
	Timestamp   *time.Time `json:"timestamp,omitempty"` // 客户端发生变更的时刻(仅记录)
}

// SyncTextUpdates 自由文本字段更新
type SyncTextUpdates struct {
	Description     *string `json:"description,omitempty"`
	WorkPerformed   *string `json:"work_performed,omitempty"`
	TechnicianNotes *string `json:"technician_notes,omitempty"`
	ClosingNotes    *string `json:"closing_notes,omitempty"`
}

// SyncMeasurementUpsert 测量记录 upsert 条目
// LocalID 是客户端临时标识;ServerID 为空表示尚未分配服务端 ID
type SyncMeasurementUpsert struct {
	LocalID      string     `json:"local_id" binding:"required"`
	ServerID     string     `json:"server_id,omitempty"`
	ParameterID  string     `json:"parameter_id" binding:"required"`
	ValueNumeric *float64   `json:"value_numeric,omitempty"`
	ValueText    string     `json:"value_text,omitempty"`
	Context      string     `json:"context,omitempty"`
	MeasuredAt   *time.Time `json:"measured_at,omitempty"`
}

// SyncActivityUpsert 已执行活动 upsert 条目
type SyncActivityUpsert struct {
	LocalID    string     `json:"local_id" binding:"required"`
	ServerID   string     `json:"server_id,omitempty"`
	ActivityID string     `json:"activity_id" binding:"required"`
	Outcome    string     `json:"outcome" binding:"required"`
	Notes      string     `json:"notes,omitempty"`
	ExecutedAt *time.Time `json:"executed_at,omitempty"`
}

// SyncIDMapping 客户端本地 ID 到服务端 ID 的映射
type SyncIDMapping struct {
	Measurements map[string]string `json:"measurements"`
	Activities   map[string]string `json:"activities"`
}

// SyncItemResult 单个条目的处理结果
type SyncItemResult struct {
	OrderID   string         `json:"order_id"`
	Success   bool           `json:"success"`
	Conflict  bool           `json:"conflict"`
	Error     string         `json:"error,omitempty"`
	IDMapping *SyncIDMapping `json:"id_mapping,omitempty"`
}

// SyncUploadResult 批量上传结果
// ServerTimestamp 是客户端下一次增量同步的基线
type SyncUploadResult struct {
	Processed       int              `json:"processed"`
	Succeeded       int              `json:"succeeded"`
	Failed          int              `json:"failed"`
	Conflicted      int              `json:"conflicted"`
	Items           []SyncItemResult `json:"items"`
	ServerTimestamp time.Time        `json:"server_timestamp"`
}

// SyncCatalogs 下载负载中的参考数据目录
type SyncCatalogs struct {
	States       []*model.OrderStateModel      `json:"states"`
	Parameters   []*model.ParameterModel       `json:"parameters"`
	Activities   []*model.CatalogActivityModel `json:"activities"`
	ServiceTypes []*model.ServiceTypeModel     `json:"service_types"`
}

// SyncDownloadResult 下载负载
type SyncDownloadResult struct {
	Orders          []*OrderDetail `json:"orders"`
	Catalogs        *SyncCatalogs  `json:"catalogs,omitempty"`
	Delta           bool           `json:"delta"`
	ServerTimestamp time.Time      `json:"server_timestamp"`
}

// SyncDiffEntry 差异摘要条目:单个工单的轻量指纹
type SyncDiffEntry struct {
	OrderID    string    `json:"order_id"`
	Number     string    `json:"number"`
	StateCode  string    `json:"state_code"`
	ClientName string    `json:"client_name"`
	Version    time.Time `json:"version"`
}

// SyncDiffResult 差异摘要结果
type SyncDiffResult struct {
	Entries         []SyncDiffEntry `json:"entries"`
	ServerTimestamp time.Time       `json:"server_timestamp"`
}

// SyncOptions 同步服务配置
type SyncOptions struct {
	MaxDownloadOrders int // 单次下载的工单数上限
	DefaultDiffLimit  int // 差异摘要的默认条数
}

// syncService 离线同步服务实现
type syncService struct {
	db     *gorm.DB
	opts   SyncOptions
	logger *logrus.Logger
}

// NewSyncService 创建离线同步服务
func NewSyncService(db *gorm.DB, opts SyncOptions, logger *logrus.Logger) SyncService {
	if opts.MaxDownloadOrders <= 0 {
		opts.MaxDownloadOrders = 200
	}
	if opts.DefaultDiffLimit <= 0 {
		opts.DefaultDiffLimit = 100
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &syncService{db: db, opts: opts, logger: logger}
}

// UploadBatch 应用一批客户端变更
// 每个条目独立事务:单个条目失败不影响批次内其它条目,
// 一条损坏的离线记录不能卡住一整天的同步
func (s *syncService) UploadBatch(ctx context.Context, req *SyncUploadRequest) (*SyncUploadResult, error) {
	if req.TechnicianID == "" {
		return nil, fmt.Errorf("%w: technician ID is required", ErrForbidden)
	}

	result := &SyncUploadResult{
		Items: make([]SyncItemResult, 0, len(req.Items)),
	}

	for i := range req.Items {
		item := &req.Items[i]
		itemResult := s.applyItem(ctx, req.TechnicianID, item)
		result.Items = append(result.Items, *itemResult)
		result.Processed++
		switch {
		case itemResult.Conflict:
			result.Conflicted++
			metrics.RecordSyncItem("conflict")
		case itemResult.Success:
			result.Succeeded++
			metrics.RecordSyncItem("success")
		default:
			result.Failed++
			metrics.RecordSyncItem("failed")
		}
	}

	result.ServerTimestamp = time.Now()
	metrics.RecordSyncBatch()
	s.logger.WithFields(logrus.Fields{
		"technician": req.TechnicianID,
		"processed":  result.Processed,
		"succeeded":  result.Succeeded,
		"failed":     result.Failed,
		"conflicted": result.Conflicted,
	}).Info("sync batch processed")

	return result, nil
}

// applyItem 在独立事务中应用单个条目
func (s *syncService) applyItem(ctx context.Context, technicianID string, item *SyncUploadItem) *SyncItemResult {
	result := &SyncItemResult{OrderID: item.OrderID}
	mapping := &SyncIDMapping{
		Measurements: make(map[string]string),
		Activities:   make(map[string]string),
	}
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewOrderRepository(tx)
		order, err := orderRepo.FindByID(item.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %q", ErrNotFound, item.OrderID)
			}
			return err
		}

		if order.TechnicianID == nil || *order.TechnicianID != technicianID {
			return fmt.Errorf("%w: order %s", ErrForbidden, order.ID)
		}
		if statemachine.IsTerminal(order.StateCode) {
			return fmt.Errorf("%w: order %s is %s", ErrTerminalState, order.ID, order.StateCode)
		}

		// 冲突检测:服务端版本严格新于客户端声明的版本则判冲突,
		// 不做任何合并猜测,客户端必须重新下载后再重试
		if !item.ClientVersion.IsZero() && order.UpdatedAt.After(item.ClientVersion) {
			return errSyncConflict
		}

		applyTextUpdates(order, item.TextUpdates)

		if item.StateChange != nil {
			changeReq := &ChangeStateRequest{
				TargetState: item.StateChange.TargetState,
				ActorID:     technicianID,
				Reason:      item.StateChange.Reason,
				Notes:       item.StateChange.Notes,
			}
			history, err := applyStateChange(tx, order, changeReq, now)
			if err != nil {
				return err
			}
			if err := repository.NewOrderHistoryRepository(tx).Append(history); err != nil {
				return err
			}
			metrics.RecordStateTransition(history.FromState, history.ToState)
		}

		for i := range item.Measurements {
			serverID, err := s.upsertMeasurement(tx, order, technicianID, &item.Measurements[i], now)
			if err != nil {
				return err
			}
			mapping.Measurements[item.Measurements[i].LocalID] = serverID
		}

		for i := range item.Activities {
			serverID, err := s.upsertActivity(tx, order, technicianID, &item.Activities[i], now)
			if err != nil {
				return err
			}
			mapping.Activities[item.Activities[i].LocalID] = serverID
		}

		order.UpdatedAt = now
		return orderRepo.Save(order)
	})

	if err != nil {
		if errors.Is(err, errSyncConflict) {
			result.Conflict = true
			result.Error = "version conflict: re-download required"
		} else {
			result.Error = err.Error()
		}
		return result
	}

	result.Success = true
	result.IDMapping = mapping
	return result
}

// applyTextUpdates 应用自由文本字段更新
func applyTextUpdates(order *model.OrderModel, updates *SyncTextUpdates) {
	if updates == nil {
		return
	}
	if updates.Description != nil {
		order.Description = *updates.Description
	}
	if updates.WorkPerformed != nil {
		order.WorkPerformed = *updates.WorkPerformed
	}
	if updates.TechnicianNotes != nil {
		order.TechnicianNotes = *updates.TechnicianNotes
	}
	if updates.ClosingNotes != nil {
		order.ClosingNotes = *updates.ClosingNotes
	}
}

// upsertMeasurement 插入或就地更新测量记录
// 已有服务端 ID 或相同 LocalRef 的重复提交映射到同一行,保证幂等
func (s *syncService) upsertMeasurement(tx *gorm.DB, order *model.OrderModel, technicianID string, up *SyncMeasurementUpsert, now time.Time) (string, error) {
	param, err := repository.NewCatalogRepository(tx).FindParameterByID(up.ParameterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: parameter %q", ErrNotFound, up.ParameterID)
		}
		return "", err
	}

	level := model.AlertNormal
	if up.ValueNumeric != nil {
		level = alert.Classify(*up.ValueNumeric, param)
	}

	repo := repository.NewMeasurementRepository(tx)
	existing, err := repo.FindExisting(order.ID, up.ServerID, up.LocalID)
	if err != nil {
		return "", err
	}

	if existing != nil {
		existing.ParameterID = up.ParameterID
		existing.ValueNumeric = up.ValueNumeric
		existing.ValueText = up.ValueText
		existing.AlertLevel = level
		existing.Context = up.Context
		existing.MeasuredAt = up.MeasuredAt
		existing.UpdatedAt = now
		if err := repo.Save(existing); err != nil {
			return "", err
		}
		return existing.ID, nil
	}

	m := &model.MeasurementModel{
		ID:           uuid.New().String(),
		OrderID:      order.ID,
		ParameterID:  up.ParameterID,
		LocalRef:     up.LocalID,
		ValueNumeric: up.ValueNumeric,
		ValueText:    up.ValueText,
		AlertLevel:   level,
		Context:      up.Context,
		MeasuredBy:   technicianID,
		MeasuredAt:   up.MeasuredAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.Validate(); err != nil {
		return "", err
	}
	if err := repo.Save(m); err != nil {
		return "", err
	}
	return m.ID, nil
}

// upsertActivity 插入或就地更新已执行活动
func (s *syncService) upsertActivity(tx *gorm.DB, order *model.OrderModel, technicianID string, up *SyncActivityUpsert, now time.Time) (string, error) {
	if _, err := repository.NewCatalogRepository(tx).FindActivityByID(up.ActivityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: catalog activity %q", ErrNotFound, up.ActivityID)
		}
		return "", err
	}
	if !model.ValidOutcome(up.Outcome) {
		return "", fmt.Errorf("invalid outcome %q", up.Outcome)
	}

	repo := repository.NewActivityRepository(tx)
	existing, err := repo.FindExisting(order.ID, up.ServerID, up.LocalID)
	if err != nil {
		return "", err
	}

	if existing != nil {
		existing.ActivityID = up.ActivityID
		existing.Outcome = up.Outcome
		existing.Notes = up.Notes
		existing.ExecutedAt = up.ExecutedAt
		existing.UpdatedAt = now
		if err := repo.Save(existing); err != nil {
			return "", err
		}
		return existing.ID, nil
	}

	a := &model.ExecutedActivityModel{
		ID:         uuid.New().String(),
		OrderID:    order.ID,
		ActivityID: up.ActivityID,
		LocalRef:   up.LocalID,
		Outcome:    up.Outcome,
		Notes:      up.Notes,
		ExecutedBy: technicianID,
		ExecutedAt: up.ExecutedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.Validate(); err != nil {
		return "", err
	}
	if err := repo.Save(a); err != nil {
		return "", err
	}
	return a.ID, nil
}

// FullDownload 全量下载:技术员的全部活跃工单加完整目录
// 硬性约束:终态工单永远不会出现在下载负载里
func (s *syncService) FullDownload(technicianID string) (*SyncDownloadResult, error) {
	orders, err := repository.NewOrderRepository(s.db).FindActiveByTechnician(technicianID, s.opts.MaxDownloadOrders)
	if err != nil {
		return nil, err
	}

	payloads, err := s.buildPayloads(orders)
	if err != nil {
		return nil, err
	}
	catalogs, err := s.loadCatalogs()
	if err != nil {
		return nil, err
	}

	metrics.RecordSyncDownload("full")
	return &SyncDownloadResult{
		Orders:          payloads,
		Catalogs:        catalogs,
		Delta:           false,
		ServerTimestamp: time.Now(),
	}, nil
}

// DeltaDownload 增量下载:版本标记不早于 since 的活跃工单
// 目录很少变化,只有显式请求时才包含,增量同步默认跳过以省带宽
func (s *syncService) DeltaDownload(technicianID string, since time.Time, includeCatalogs bool) (*SyncDownloadResult, error) {
	orders, err := repository.NewOrderRepository(s.db).FindActiveModifiedSince(technicianID, since, s.opts.MaxDownloadOrders)
	if err != nil {
		return nil, err
	}

	payloads, err := s.buildPayloads(orders)
	if err != nil {
		return nil, err
	}

	result := &SyncDownloadResult{
		Orders:          payloads,
		Delta:           true,
		ServerTimestamp: time.Now(),
	}
	if includeCatalogs {
		catalogs, err := s.loadCatalogs()
		if err != nil {
			return nil, err
		}
		result.Catalogs = catalogs
	}

	metrics.RecordSyncDownload("delta")
	return result, nil
}

// DiffSummary 差异摘要:轻量的工单指纹列表
// 客户端用它对比本地缓存,再按需走单工单拉取,避免无变化时传输全量负载
func (s *syncService) DiffSummary(technicianID string, limit int) (*SyncDiffResult, error) {
	if limit <= 0 {
		limit = s.opts.DefaultDiffLimit
	}
	if limit > s.opts.MaxDownloadOrders {
		limit = s.opts.MaxDownloadOrders
	}

	orders, err := repository.NewOrderRepository(s.db).FindActiveByTechnician(technicianID, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]SyncDiffEntry, 0, len(orders))
	for _, order := range orders {
		entries = append(entries, SyncDiffEntry{
			OrderID:    order.ID,
			Number:     order.Number,
			StateCode:  order.StateCode,
			ClientName: order.ClientName,
			Version:    order.UpdatedAt,
		})
	}

	metrics.RecordSyncDownload("diff")
	return &SyncDiffResult{
		Entries:         entries,
		ServerTimestamp: time.Now(),
	}, nil
}

// GetOrder 单工单拉取
// 终态工单对现场客户端不可见,按约定回答 NotFound 而不是泄露其存在
func (s *syncService) GetOrder(orderID string) (*OrderDetail, error) {
	order, err := repository.NewOrderRepository(s.db).FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %q", ErrNotFound, orderID)
		}
		return nil, err
	}
	if statemachine.IsTerminal(order.StateCode) {
		return nil, fmt.Errorf("%w: order %q", ErrNotFound, orderID)
	}

	payloads, err := s.buildPayloads([]*model.OrderModel{order})
	if err != nil {
		return nil, err
	}
	return payloads[0], nil
}

// buildPayloads 组装下载负载(工单及其从属记录)
func (s *syncService) buildPayloads(orders []*model.OrderModel) ([]*OrderDetail, error) {
	orderRepo := repository.NewOrderRepository(s.db)
	measRepo := repository.NewMeasurementRepository(s.db)
	actRepo := repository.NewActivityRepository(s.db)
	histRepo := repository.NewOrderHistoryRepository(s.db)

	payloads := make([]*OrderDetail, 0, len(orders))
	for _, order := range orders {
		equipments, err := orderRepo.FindEquipmentIDs(order.ID)
		if err != nil {
			return nil, err
		}
		measurements, err := measRepo.FindByOrderID(order.ID)
		if err != nil {
			return nil, err
		}
		activities, err := actRepo.FindByOrderID(order.ID)
		if err != nil {
			return nil, err
		}
		history, err := histRepo.FindByOrderID(order.ID)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, &OrderDetail{
			Order:        order,
			EquipmentIDs: equipments,
			Measurements: measurements,
			Activities:   activities,
			History:      history,
		})
	}
	return payloads, nil
}

// loadCatalogs 加载完整参考数据目录
func (s *syncService) loadCatalogs() (*SyncCatalogs, error) {
	catalogRepo := repository.NewCatalogRepository(s.db)

	states, err := catalogRepo.FindAllStates()
	if err != nil {
		return nil, err
	}
	params, err := catalogRepo.FindAllParameters()
	if err != nil {
		return nil, err
	}
	activities, err := catalogRepo.FindAllActivities()
	if err != nil {
		return nil, err
	}
	serviceTypes, err := catalogRepo.FindAllServiceTypes()
	if err != nil {
		return nil, err
	}

	return &SyncCatalogs{
		States:       states,
		Parameters:   params,
		Activities:   activities,
		ServiceTypes: serviceTypes,
	}, nil
}
