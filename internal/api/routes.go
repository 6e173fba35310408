package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/fieldops-gin/internal/config"
	"github.com/mautops/fieldops-gin/internal/service"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	DB       *gorm.DB
	Config   *config.Config
	Logger   *logrus.Logger
	Orders   service.OrderService
	Workflow service.WorkflowService
	Sync     service.SyncService
	Stats    service.StatisticsService
}

// SetupRoutes 配置路由
func SetupRoutes(deps *RouterDeps) *gin.Engine {
	if config.IsProduction(deps.Config) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware(deps.Logger))
	router.Use(CORSMiddleware(&deps.Config.CORS))
	router.Use(ErrorHandlerMiddleware())

	// 健康检查
	healthController := NewHealthController(deps.DB)
	router.GET("/health", healthController.Health)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	orderController := NewOrderController(deps.Orders, deps.Workflow, deps.Stats)
	syncController := NewSyncController(deps.Sync)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		// 工单管理路由
		orders := v1.Group("/orders")
		{
			orders.POST("", orderController.Create)
			orders.GET("", orderController.List)
			orders.GET("/statistics", orderController.Statistics)
			orders.GET("/:id", orderController.Get)
			orders.POST("/:id/state", orderController.ChangeState)
			orders.GET("/:id/history", orderController.History)
			orders.GET("/:id/measurements", orderController.Measurements)
			orders.GET("/:id/activities", orderController.Activities)
			orders.GET("/:id/alerts", orderController.AlertSummary)
		}

		// 离线同步路由
		sync := v1.Group("/sync")
		{
			sync.POST("/upload",
				RateLimitMiddleware(deps.Config.Sync.UploadRPS, deps.Config.Sync.UploadBurst),
				syncController.Upload)
			sync.GET("/download", syncController.Download)
			sync.GET("/compare", syncController.Compare)
			sync.GET("/orders/:id", syncController.GetOrder)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", c.Request.Method+" "+c.Request.URL.Path)
	})

	return router
}
