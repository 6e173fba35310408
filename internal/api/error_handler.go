package api

import (
	"errors"
	"net/http"

	"github.com/mautops/fieldops-gin/internal/service"
	"github.com/mautops/fieldops-gin/internal/statemachine"

	"github.com/gin-gonic/gin"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			} else {
				Error(c, http.StatusInternalServerError, "internal server error", err.Error())
			}
		}
	}
}

// ServiceError 把服务层错误分类映射到 HTTP 状态码
// 校验类失败(转换表、必填字段、未知状态)在任何写入前被拒绝,用 422;
// 终态工单的变更尝试用 409;其余按分类走 404/403/500
func ServiceError(c *gin.Context, err error, operation string) {
	var missing *statemachine.MissingFieldsError

	switch {
	case errors.Is(err, service.ErrNotFound):
		Error(c, http.StatusNotFound, operation+" failed", err.Error())
	case errors.Is(err, service.ErrForbidden):
		Error(c, http.StatusForbidden, operation+" failed", err.Error())
	case errors.Is(err, service.ErrTerminalState):
		Error(c, http.StatusConflict, operation+" failed", err.Error())
	case errors.Is(err, statemachine.ErrInvalidTransition),
		errors.Is(err, statemachine.ErrInvalidState),
		errors.Is(err, service.ErrUnknownState),
		errors.As(err, &missing):
		Error(c, http.StatusUnprocessableEntity, operation+" rejected", err.Error())
	default:
		Error(c, http.StatusInternalServerError, "failed to "+operation, err.Error())
	}
}
