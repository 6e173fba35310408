package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应格式
// @Description 统一响应格式,包含状态码、消息和数据
type Response struct {
	Code    int         `json:"code" example:"0"`          // 状态码: 0 表示成功,非 0 表示失败
	Message string      `json:"message" example:"success"` // 响应消息
	Data    interface{} `json:"data"`                      // 响应数据
}

// ErrorResponse 错误响应格式
// @Description 错误响应格式,包含错误码、错误消息和错误详情
type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`                // 错误码
	Message string `json:"message" example:"invalid request"` // 错误消息
	Detail  string `json:"detail,omitempty"`                  // 错误详情(可选)
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string, detail string) {
	statusCode := http.StatusInternalServerError
	if code >= 400 && code < 600 {
		statusCode = code
	}

	c.JSON(statusCode, ErrorResponse{
		Code:    code,
		Message: message,
		Detail:  detail,
	})
}
