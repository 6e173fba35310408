package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 工单创建数
	ordersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of work orders created",
		},
	)

	// 状态转换数
	stateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_state_transitions_total",
			Help: "Total number of accepted order state transitions",
		},
		[]string{"from", "to"},
	)

	// 同步条目数(按结果)
	syncItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_items_total",
			Help: "Total number of processed sync upload items",
		},
		[]string{"outcome"}, // success, failed, conflict
	)

	// 同步批次数
	syncBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_batches_total",
			Help: "Total number of processed sync upload batches",
		},
	)

	// 下载请求数(按模式)
	syncDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_downloads_total",
			Help: "Total number of sync download requests",
		},
		[]string{"mode"}, // full, delta, diff
	)

	// 工单状态分布
	ordersByState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orders_by_state",
			Help: "Number of work orders by state",
		},
		[]string{"state"},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)
)

var once sync.Once

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(ordersCreatedTotal)
	prometheus.MustRegister(stateTransitionsTotal)
	prometheus.MustRegister(syncItemsTotal)
	prometheus.MustRegister(syncBatchesTotal)
	prometheus.MustRegister(syncDownloadsTotal)
	prometheus.MustRegister(ordersByState)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)

	// 注册 Go 运行时指标(只注册一次,已注册则忽略错误)
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordOrderCreated 记录工单创建
func RecordOrderCreated() {
	ordersCreatedTotal.Inc()
}

// RecordStateTransition 记录被接受的状态转换
func RecordStateTransition(from, to string) {
	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordSyncItem 记录同步条目结果
func RecordSyncItem(outcome string) {
	syncItemsTotal.WithLabelValues(outcome).Inc()
}

// RecordSyncBatch 记录同步批次
func RecordSyncBatch() {
	syncBatchesTotal.Inc()
}

// RecordSyncDownload 记录下载请求
func RecordSyncDownload(mode string) {
	syncDownloadsTotal.WithLabelValues(mode).Inc()
}

// UpdateOrdersByState 更新工单状态分布指标
func UpdateOrdersByState(state string, count float64) {
	ordersByState.WithLabelValues(state).Set(count)
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}
