package metrics

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Collector 指标收集器
// 定期刷新数据库连接数等快照型指标,计数型指标由调用点直接上报
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	refresh  func() // 可选:额外的快照刷新回调(如工单状态分布)
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration, refresh func()) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		refresh:  refresh,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateDatabaseConnections(c.db)
			if c.refresh != nil {
				c.refresh()
			}
		}
	}
}
