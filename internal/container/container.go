package container

import (
	"fmt"
	"time"

	"github.com/mautops/fieldops-gin/internal/api"
	"github.com/mautops/fieldops-gin/internal/config"
	"github.com/mautops/fieldops-gin/internal/database"
	"github.com/mautops/fieldops-gin/internal/notify"
	"github.com/mautops/fieldops-gin/internal/service"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、服务和事件派发器
type Container struct {
	db         *gorm.DB
	logger     *logrus.Logger
	dispatcher *notify.Dispatcher
	orders     service.OrderService
	workflow   service.WorkflowService
	sync       service.SyncService
	stats      service.StatisticsService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config) (*Container, error) {
	logger, err := api.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// 初始化数据库(带重试机制)
	// 默认重试 3 次,初始间隔 1 秒,指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移和基础数据种子
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := database.SeedStates(db); err != nil {
		return nil, fmt.Errorf("failed to seed order states: %w", err)
	}

	// 初始化完成事件派发器
	// 未配置 webhook 时退化为只记录事件不投递
	var notifier notify.Notifier
	if cfg.Webhook.DocumentURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Webhook.DocumentURL)
	} else {
		notifier = notify.NoopNotifier{}
	}
	dispatcher := notify.NewDispatcher(db, notifier, cfg.Sync.Workers, logger)

	// 初始化服务层
	orders := service.NewOrderService(db, cfg.Orders.NumberPrefix)
	workflow := service.NewWorkflowService(db, dispatcher, logger)
	sync := service.NewSyncService(db, service.SyncOptions{
		MaxDownloadOrders: cfg.Sync.MaxDownloadOrders,
		DefaultDiffLimit:  cfg.Sync.DefaultDiffLimit,
	}, logger)
	stats := service.NewStatisticsService(db)

	return &Container{
		db:         db,
		logger:     logger,
		dispatcher: dispatcher,
		orders:     orders,
		workflow:   workflow,
		sync:       sync,
		stats:      stats,
	}, nil
}

// DB 获取数据库实例
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger 获取日志记录器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Dispatcher 获取完成事件派发器
func (c *Container) Dispatcher() *notify.Dispatcher {
	return c.dispatcher
}

// OrderService 获取工单数据服务
func (c *Container) OrderService() service.OrderService {
	return c.orders
}

// WorkflowService 获取工单状态流转服务
func (c *Container) WorkflowService() service.WorkflowService {
	return c.workflow
}

// SyncService 获取离线同步服务
func (c *Container) SyncService() service.SyncService {
	return c.sync
}

// StatisticsService 获取统计服务
func (c *Container) StatisticsService() service.StatisticsService {
	return c.stats
}

// Close 关闭容器中的资源
func (c *Container) Close() error {
	if c.dispatcher != nil {
		c.dispatcher.Close()
	}

	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
