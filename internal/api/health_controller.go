package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/fieldops-gin/internal/database"
	"gorm.io/gorm"
)

// HealthController 健康检查控制器
type HealthController struct {
	db        *gorm.DB
	startedAt time.Time
}

// NewHealthController 创建健康检查控制器
func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{
		db:        db,
		startedAt: time.Now(),
	}
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务与数据库连接状态
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} ErrorResponse
// @Router /health [get]
func (ctl *HealthController) Health(c *gin.Context) {
	status := gin.H{
		"status":    "ok",
		"uptime":    time.Since(ctl.startedAt).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if !database.CheckHealth(ctl.db) {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, Response{
			Code:    http.StatusServiceUnavailable,
			Message: "database unreachable",
			Data:    status,
		})
		return
	}

	status["database"] = "ok"
	Success(c, status)
}
