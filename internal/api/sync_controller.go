package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/fieldops-gin/internal/service"
)

// SyncController 离线同步控制器
type SyncController struct {
	sync service.SyncService
}

// NewSyncController 创建离线同步控制器
func NewSyncController(sync service.SyncService) *SyncController {
	return &SyncController{sync: sync}
}

// Upload 批量上传
// @Summary 批量上传离线变更
// @Description 逐项独立处理离线客户端积累的变更,单项失败不影响其他项
// @Tags sync
// @Accept json
// @Produce json
// @Param request body service.SyncUploadRequest true "批量上传请求"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/sync/upload [post]
func (ctl *SyncController) Upload(c *gin.Context) {
	var req service.SyncUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := ctl.sync.UploadBatch(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err, "sync upload")
		return
	}

	Success(c, result)
}

// Download 下载工作包
// @Summary 下载技师工作包
// @Description 不带 since 参数时全量下载,带 since 参数时只下载增量
// @Tags sync
// @Produce json
// @Param technician_id query string true "技师 ID"
// @Param since query string false "增量起点(RFC3339 时间戳)"
// @Param catalogs query bool false "增量下载是否包含目录数据"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/sync/download [get]
func (ctl *SyncController) Download(c *gin.Context) {
	technicianID := c.Query("technician_id")
	if technicianID == "" {
		Error(c, http.StatusBadRequest, "missing technician_id", "technician_id query parameter is required")
		return
	}

	sinceRaw := c.Query("since")
	if sinceRaw == "" {
		result, err := ctl.sync.FullDownload(technicianID)
		if err != nil {
			ServiceError(c, err, "sync download")
			return
		}
		Success(c, result)
		return
	}

	since, err := time.Parse(time.RFC3339, sinceRaw)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid since parameter", "since must be an RFC3339 timestamp")
		return
	}

	includeCatalogs := false
	if v := c.Query("catalogs"); v != "" {
		includeCatalogs, err = strconv.ParseBool(v)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid catalogs parameter", "catalogs must be a boolean")
			return
		}
	}

	result, err := ctl.sync.DeltaDownload(technicianID, since, includeCatalogs)
	if err != nil {
		ServiceError(c, err, "sync download")
		return
	}

	Success(c, result)
}

// Compare 差异摘要
// @Summary 服务端与客户端差异摘要
// @Description 返回技师活动工单的轻量摘要,供客户端比对本地副本
// @Tags sync
// @Produce json
// @Param technician_id query string true "技师 ID"
// @Param limit query int false "返回条数上限"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/sync/compare [get]
func (ctl *SyncController) Compare(c *gin.Context) {
	technicianID := c.Query("technician_id")
	if technicianID == "" {
		Error(c, http.StatusBadRequest, "missing technician_id", "technician_id query parameter is required")
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			Error(c, http.StatusBadRequest, "invalid limit", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	result, err := ctl.sync.DiffSummary(technicianID, limit)
	if err != nil {
		ServiceError(c, err, "sync compare")
		return
	}

	Success(c, result)
}

// GetOrder 按 ID 下载单个工单
// @Summary 下载单个工单
// @Description 返回单个活动工单及其从属记录,终态工单视同不存在
// @Tags sync
// @Produce json
// @Param id path string true "工单 ID"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/sync/orders/{id} [get]
func (ctl *SyncController) GetOrder(c *gin.Context) {
	detail, err := ctl.sync.GetOrder(c.Param("id"))
	if err != nil {
		ServiceError(c, err, "sync get order")
		return
	}

	Success(c, detail)
}
