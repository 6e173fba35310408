package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mautops/fieldops-gin/internal/repository"
	"github.com/mautops/fieldops-gin/internal/service"
)

// OrderController 工单控制器
type OrderController struct {
	orders   service.OrderService
	workflow service.WorkflowService
	stats    service.StatisticsService
}

// NewOrderController 创建工单控制器
func NewOrderController(orders service.OrderService, workflow service.WorkflowService, stats service.StatisticsService) *OrderController {
	return &OrderController{
		orders:   orders,
		workflow: workflow,
		stats:    stats,
	}
}

// Create 创建工单
// @Summary 创建工单
// @Description 创建新工单,初始状态为 SCHEDULED,编号由服务端生成
// @Tags orders
// @Accept json
// @Produce json
// @Param request body service.CreateOrderRequest true "创建工单请求"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/orders [post]
func (ctl *OrderController) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order, err := ctl.orders.Create(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err, "create order")
		return
	}

	Success(c, order)
}

// Get 获取工单详情
// @Summary 获取工单详情
// @Description 获取工单及其设备、测量、活动和历史记录
// @Tags orders
// @Produce json
// @Param id path string true "工单 ID"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/orders/{id} [get]
func (ctl *OrderController) Get(c *gin.Context) {
	detail, err := ctl.orders.Get(c.Param("id"))
	if err != nil {
		ServiceError(c, err, "get order")
		return
	}

	Success(c, detail)
}

// List 查询工单列表
// @Summary 查询工单列表
// @Description 按技师、客户、设备、状态和优先级过滤查询工单
// @Tags orders
// @Produce json
// @Param technician_id query string false "技师 ID"
// @Param client_id query string false "客户 ID"
// @Param equipment_id query string false "设备 ID"
// @Param state query string false "状态码"
// @Param priority query string false "优先级"
// @Param limit query int false "返回条数上限"
// @Success 200 {object} Response
// @Router /api/v1/orders [get]
func (ctl *OrderController) List(c *gin.Context) {
	filter := &repository.OrderFilter{}
	if v := c.Query("technician_id"); v != "" {
		filter.TechnicianID = &v
	}
	if v := c.Query("client_id"); v != "" {
		filter.ClientID = &v
	}
	if v := c.Query("equipment_id"); v != "" {
		filter.EquipmentID = &v
	}
	if v := c.Query("state"); v != "" {
		filter.State = &v
	}
	if v := c.Query("priority"); v != "" {
		filter.Priority = &v
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			Error(c, http.StatusBadRequest, "invalid limit", "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	orders, err := ctl.orders.List(filter)
	if err != nil {
		ServiceError(c, err, "list orders")
		return
	}

	Success(c, gin.H{
		"orders": orders,
		"total":  len(orders),
	})
}

// ChangeState 工单状态变更
// @Summary 工单状态变更
// @Description 按状态机规则变更工单状态,校验失败不产生任何写入
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "工单 ID"
// @Param request body service.ChangeStateRequest true "状态变更请求"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/orders/{id}/state [post]
func (ctl *OrderController) ChangeState(c *gin.Context) {
	var req service.ChangeStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := ctl.workflow.ChangeState(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err, "change state")
		return
	}

	Success(c, result)
}

// History 获取工单历史
// @Summary 获取工单状态历史
// @Description 获取工单的状态变更历史,按变更时间排序
// @Tags orders
// @Produce json
// @Param id path string true "工单 ID"
// @Success 200 {object} Response
// @Router /api/v1/orders/{id}/history [get]
func (ctl *OrderController) History(c *gin.Context) {
	history, err := ctl.orders.History(c.Param("id"))
	if err != nil {
		ServiceError(c, err, "get history")
		return
	}

	Success(c, history)
}

// Measurements 获取工单测量记录
// @Summary 获取工单测量记录
// @Tags orders
// @Produce json
// @Param id path string true "工单 ID"
// @Success 200 {object} Response
// @Router /api/v1/orders/{id}/measurements [get]
func (ctl *OrderController) Measurements(c *gin.Context) {
	measurements, err := ctl.orders.Measurements(c.Param("id"))
	if err != nil {
		ServiceError(c, err, "get measurements")
		return
	}

	Success(c, measurements)
}

// Activities 获取工单活动记录
// @Summary 获取工单活动记录
// @Tags orders
// @Produce json
// @Param id path string true "工单 ID"
// @Success 200 {object} Response
// @Router /api/v1/orders/{id}/activities [get]
func (ctl *OrderController) Activities(c *gin.Context) {
	activities, err := ctl.orders.Activities(c.Param("id"))
	if err != nil {
		ServiceError(c, err, "get activities")
		return
	}

	Success(c, activities)
}

// Statistics 获取工单统计
// @Summary 获取工单统计
// @Description 按状态统计工单数量
// @Tags orders
// @Produce json
// @Success 200 {object} Response
// @Router /api/v1/orders/statistics [get]
func (ctl *OrderController) Statistics(c *gin.Context) {
	counts, err := ctl.stats.OrdersByState()
	if err != nil {
		ServiceError(c, err, "get statistics")
		return
	}

	Success(c, gin.H{"orders_by_state": counts})
}

// AlertSummary 获取工单告警汇总
// @Summary 获取工单告警汇总
// @Description 按告警级别统计工单的测量记录
// @Tags orders
// @Produce json
// @Param id path string true "工单 ID"
// @Success 200 {object} Response
// @Router /api/v1/orders/{id}/alerts [get]
func (ctl *OrderController) AlertSummary(c *gin.Context) {
	summary, err := ctl.stats.AlertSummary(c.Param("id"))
	if err != nil {
		ServiceError(c, err, "get alert summary")
		return
	}

	Success(c, summary)
}
