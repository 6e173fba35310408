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
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CompletionHook 工单进入完成态后的后台副作用入口
// 派发必须是 fire-and-forget:失败只记日志,不回滚已提交的转换
type CompletionHook interface {
	OrderCompleted(orderID string)
}

// WorkflowService 工单状态流转服务接口
type WorkflowService interface {
	ChangeState(ctx context.Context, orderID string, req *ChangeStateRequest) (*StateChangeResult, error)
}

// ChangeStateRequest 状态变更请求
// @Description 工单状态变更的请求参数
type ChangeStateRequest struct {
	TargetState string            `json:"target_state" example:"ASSIGNED" binding:"required"` // 目标状态码
	ActorID     string            `json:"actor_id" example:"user-001" binding:"required"`     // 操作人 ID
	Reason      string            `json:"reason" example:"customer request"`                  // 变更原因
	Notes       string            `json:"notes"`                                              // 备注
	Extra       *StateChangeExtra `json:"extra,omitempty"`                                    // 同一请求中一并写入的字段
}

// StateChangeExtra 随状态变更一并写入的字段
// 必填字段校验针对合并后的记录,这里写入的字段视为已存在
type StateChangeExtra struct {
	TechnicianID    *string    `json:"technician_id,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	RealStartAt     *time.Time `json:"real_start_at,omitempty"`
	RealEndAt       *time.Time `json:"real_end_at,omitempty"`
	WorkPerformed   *string    `json:"work_performed,omitempty"`
	TechnicianNotes *string    `json:"technician_notes,omitempty"`
	ClosingNotes    *string    `json:"closing_notes,omitempty"`
}

// StateChangeResult 状态变更结果
type StateChangeResult struct {
	OrderID       string    `json:"order_id"`
	PreviousState string    `json:"previous_state"`
	NewState      string    `json:"new_state"`
	HistoryID     string    `json:"history_id"`
	ChangedAt     time.Time `json:"changed_at"`
}

// workflowService 工单状态流转服务实现
type workflowService struct {
	db     *gorm.DB
	hook   CompletionHook
	logger *logrus.Logger
}

// NewWorkflowService 创建工单状态流转服务
// hook 可以为 nil,此时完成态不触发后台副作用
func NewWorkflowService(db *gorm.DB, hook CompletionHook, logger *logrus.Logger) WorkflowService {
	if logger == nil {
		logger = logrus.New()
	}
	return &workflowService{db: db, hook: hook, logger: logger}
}

// ChangeState 执行一次状态变更
// 校验 → 计算派生字段 → 同一事务内更新工单并追加历史记录
func (s *workflowService) ChangeState(ctx context.Context, orderID string, req *ChangeStateRequest) (*StateChangeResult, error) {
	now := time.Now()

	var result *StateChangeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewOrderRepository(tx)
		order, err := orderRepo.FindByID(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %q", ErrNotFound, orderID)
			}
			return err
		}

		history, err := applyStateChange(tx, order, req, now)
		if err != nil {
			return err
		}

		if err := orderRepo.Save(order); err != nil {
			return err
		}
		if err := repository.NewOrderHistoryRepository(tx).Append(history); err != nil {
			return err
		}

		result = &StateChangeResult{
			OrderID:       order.ID,
			PreviousState: history.FromState,
			NewState:      history.ToState,
			HistoryID:     history.ID,
			ChangedAt:     history.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordStateTransition(result.PreviousState, result.NewState)
	s.logger.WithFields(logrus.Fields{
		"order_id": result.OrderID,
		"from":     result.PreviousState,
		"to":       result.NewState,
		"actor":    req.ActorID,
	}).Info("order state changed")

	if result.NewState == statemachine.StateCompleted && s.hook != nil {
		s.hook.OrderCompleted(result.OrderID)
	}

	return result, nil
}

// applyStateChange 在内存中套用一次状态变更
// 终态守卫 → 转换表校验 → 状态目录解析 → 自动派生字段 → 必填字段校验,
// 全部通过后就地修改工单并返回待追加的历史记录(未持久化)
// 状态流转和离线同步共用这一条路径,保证状态机对两者同样权威
func applyStateChange(tx *gorm.DB, order *model.OrderModel, req *ChangeStateRequest, now time.Time) (*model.OrderHistoryModel, error) {
	if statemachine.IsTerminal(order.StateCode) {
		return nil, fmt.Errorf("%w: order %s is %s", ErrTerminalState, order.ID, order.StateCode)
	}
	if err := statemachine.ValidateTransition(order.StateCode, req.TargetState); err != nil {
		return nil, err
	}
	if _, err := repository.NewCatalogRepository(tx).FindStateByCode(req.TargetState); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q has no catalog entry", ErrUnknownState, req.TargetState)
		}
		return nil, err
	}

	mergeExtra(order, req.Extra)
	autoPopulate(order, req, now)

	snapshot := &statemachine.Snapshot{
		TechnicianID: order.TechnicianID,
		ScheduledAt:  order.ScheduledAt,
		RealStartAt:  order.RealStartAt,
		RealEndAt:    order.RealEndAt,
		ApprovedBy:   order.ApprovedBy,
		ClosingNotes: order.ClosingNotes,
	}
	if err := statemachine.ValidateRequiredFields(req.TargetState, snapshot); err != nil {
		return nil, err
	}

	fromState := order.StateCode
	order.StateCode = req.TargetState
	order.StateChangedAt = &now
	order.UpdatedAt = now

	return &model.OrderHistoryModel{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		FromState: fromState,
		ToState:   req.TargetState,
		Reason:    req.Reason,
		Notes:     req.Notes,
		ChangedBy: req.ActorID,
		CreatedAt: now,
	}, nil
}

// mergeExtra 合并请求中一并写入的字段
func mergeExtra(order *model.OrderModel, extra *StateChangeExtra) {
	if extra == nil {
		return
	}
	if extra.TechnicianID != nil {
		order.TechnicianID = extra.TechnicianID
	}
	if extra.ScheduledAt != nil {
		order.ScheduledAt = extra.ScheduledAt
	}
	if extra.RealStartAt != nil {
		order.RealStartAt = extra.RealStartAt
	}
	if extra.RealEndAt != nil {
		order.RealEndAt = extra.RealEndAt
	}
	if extra.WorkPerformed != nil {
		order.WorkPerformed = *extra.WorkPerformed
	}
	if extra.TechnicianNotes != nil {
		order.TechnicianNotes = *extra.TechnicianNotes
	}
	if extra.ClosingNotes != nil {
		order.ClosingNotes = *extra.ClosingNotes
	}
}

// autoPopulate 按目标状态自动填充派生字段
func autoPopulate(order *model.OrderModel, req *ChangeStateRequest, now time.Time) {
	switch req.TargetState {
	case statemachine.StateInProgress:
		// 审核驳回重新进入执行时保留最初的开始时间
		if order.RealStartAt == nil {
			order.RealStartAt = &now
		}
	case statemachine.StateCompleted:
		order.RealEndAt = &now
		if req.Notes != "" {
			order.ClosingNotes = req.Notes
		}
	case statemachine.StateApproved:
		order.ApprovedBy = &req.ActorID
		order.ApprovedAt = &now
	case statemachine.StateCancelled, statemachine.StateWaitingParts:
		if req.Notes != "" {
			order.ClosingNotes = req.Notes
		} else if req.Reason != "" {
			order.ClosingNotes = req.Reason
		}
	}
}
