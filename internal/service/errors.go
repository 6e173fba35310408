package service

import "errors"

// 服务层错误分类
// 冲突(Conflict)不在这里:它是同步条目的一种上报结果,不是错误
var (
	// ErrNotFound 工单/状态/参数不存在
	ErrNotFound = errors.New("not found")
	// ErrForbidden 技术员不是工单的指派人
	ErrForbidden = errors.New("technician not assigned to order")
	// ErrTerminalState 工单已处于终态,拒绝任何变更
	ErrTerminalState = errors.New("order is in a terminal state")
	// ErrUnknownState 状态目录中没有目标状态
	ErrUnknownState = errors.New("unknown state code")
)
