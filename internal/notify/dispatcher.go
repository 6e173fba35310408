package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/fieldops-gin/internal/model"
	"github.com/mautops/fieldops-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Notifier 文档生成/通知协作方
// 只在工单进入完成态后被调用,错误被吞掉并记日志,永远不上抛给转换调用方
type Notifier interface {
	GenerateAndDeliver(ctx context.Context, orderID string) (documentURL string, err error)
}

// Dispatcher 后台副作用派发器
// 事件先落库(order_events)再异步派发:派发失败只更新事件行的
// 状态和重试计数,主事务已经提交,不受影响
type Dispatcher struct {
	db        *gorm.DB
	eventRepo repository.EventRepository
	notifier  Notifier
	logger    *logrus.Logger
	queue     chan string // 事件 ID
	stop      chan struct{}
	timeout   time.Duration
}

// NewDispatcher 创建后台副作用派发器并启动 worker
func NewDispatcher(db *gorm.DB, notifier Notifier, workers int, logger *logrus.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.New()
	}

	d := &Dispatcher{
		db:        db,
		eventRepo: repository.NewEventRepository(db),
		notifier:  notifier,
		logger:    logger,
		queue:     make(chan string, 1000),
		stop:      make(chan struct{}),
		timeout:   30 * time.Second,
	}

	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d
}

// OrderCompleted 工单进入完成态,登记并排队文档生成事件
// 实现 service.CompletionHook;队列满时丢弃入队但保留落库的事件行,
// 可由带外进程重新派发
func (d *Dispatcher) OrderCompleted(orderID string) {
	event := &model.OrderEventModel{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		Type:      model.EventOrderCompleted,
		Status:    model.EventStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := d.eventRepo.Save(event); err != nil {
		d.logger.WithError(err).WithField("order_id", orderID).
			Error("failed to persist completion event")
		return
	}

	select {
	case d.queue <- event.ID:
	default:
		d.logger.WithField("order_id", orderID).
			Warn("event queue full, completion event left pending")
	}
}

// worker 事件派发 worker
func (d *Dispatcher) worker() {
	for {
		select {
		case eventID := <-d.queue:
			d.deliver(eventID)
		case <-d.stop:
			return
		}
	}
}

// deliver 派发单个事件
func (d *Dispatcher) deliver(eventID string) {
	event, err := d.eventRepo.FindByID(eventID)
	if err != nil {
		d.logger.WithError(err).WithField("event_id", eventID).
			Error("failed to load completion event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	documentURL, err := d.notifier.GenerateAndDeliver(ctx, event.OrderID)
	event.UpdatedAt = time.Now()
	if err != nil {
		event.Status = model.EventStatusFailed
		event.RetryCount++
		event.LastError = err.Error()
		d.logger.WithError(err).WithFields(logrus.Fields{
			"event_id": event.ID,
			"order_id": event.OrderID,
		}).Error("document generation failed")
	} else {
		event.Status = model.EventStatusSent
		event.DocumentURL = documentURL
		d.logger.WithFields(logrus.Fields{
			"event_id":     event.ID,
			"order_id":     event.OrderID,
			"document_url": documentURL,
		}).Info("completion document delivered")
	}

	if err := d.eventRepo.Save(event); err != nil {
		d.logger.WithError(err).WithField("event_id", event.ID).
			Error("failed to update completion event")
	}
}

// RequeuePending 把落库但未派发的事件重新入队
// 进程重启后用来接续上次的未完成派发
func (d *Dispatcher) RequeuePending(limit int) error {
	events, err := d.eventRepo.FindPending(limit)
	if err != nil {
		return err
	}
	for _, event := range events {
		select {
		case d.queue <- event.ID:
		default:
			return nil
		}
	}
	return nil
}

// Close 停止所有 worker
func (d *Dispatcher) Close() {
	close(d.stop)
}
