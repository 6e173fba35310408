package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mautops/fieldops-gin/internal/config"
	"github.com/mautops/fieldops-gin/internal/model"
	"github.com/mautops/fieldops-gin/internal/statemachine"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池默认配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数,未设置的项用默认值补齐
	poolConfig := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.OrderStateModel{},
		&model.OrderModel{},
		&model.OrderEquipmentModel{},
		&model.OrderHistoryModel{},
		&model.MeasurementModel{},
		&model.ExecutedActivityModel{},
		&model.ParameterModel{},
		&model.CatalogActivityModel{},
		&model.ServiceTypeModel{},
		&model.OrderEventModel{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// orders 表索引:同步查询按 (technician_id, state_code, updated_at) 走
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_tech_state ON orders(technician_id, state_code)").Error; err != nil {
		return fmt.Errorf("failed to create idx_orders_tech_state: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_updated_at ON orders(updated_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_orders_updated_at: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_number ON orders(number)").Error; err != nil {
		return fmt.Errorf("failed to create idx_orders_number: %w", err)
	}

	// order_history 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_history_order_id ON order_history(order_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_history_order_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_history_created_at ON order_history(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_history_created_at: %w", err)
	}

	// measurements / executed_activities 幂等查找索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_measurements_order_local ON measurements(order_id, local_ref)").Error; err != nil {
		return fmt.Errorf("failed to create idx_measurements_order_local: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_activities_order_local ON executed_activities(order_id, local_ref)").Error; err != nil {
		return fmt.Errorf("failed to create idx_activities_order_local: %w", err)
	}

	// order_events 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_status ON order_events(status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_events_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_order_id ON order_events(order_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_events_order_id: %w", err)
	}

	return nil
}

// SeedStates 写入状态目录
// 目录必须与状态机的转换表一致,种子数据直接从转换表派生
func SeedStates(db *gorm.DB) error {
	for _, entry := range statemachine.Catalog() {
		state := &model.OrderStateModel{
			Code:         entry.Code,
			Name:         entry.Name,
			IsTerminal:   entry.IsTerminal,
			DisplayOrder: entry.DisplayOrder,
		}
		if err := db.Save(state).Error; err != nil {
			return fmt.Errorf("failed to seed state %s: %w", entry.Code, err)
		}
	}
	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx) == nil
}
