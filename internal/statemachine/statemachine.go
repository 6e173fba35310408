package statemachine

import (
	"errors"
	"fmt"
	"sort"
)

// 工单状态
const (
	StateScheduled    = "SCHEDULED"
	StateAssigned     = "ASSIGNED"
	StateInProgress   = "IN_PROGRESS"
	StateCompleted    = "COMPLETED"
	StateApproved     = "APPROVED"
	StateCancelled    = "CANCELLED"
	StateWaitingParts = "WAITING_PARTS"
)

var (
	// ErrInvalidState 当前状态不在状态目录中
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidTransition 目标状态不在当前状态的出边集合中
	ErrInvalidTransition = errors.New("invalid state transition")
)

// transitions 状态转换表
// 保持为数据而不是分支逻辑,属性测试可以穷举每一条边
var transitions = map[string]map[string]bool{
	StateScheduled: {
		StateAssigned:  true,
		StateCancelled: true,
	},
	StateAssigned: {
		StateInProgress:   true,
		StateWaitingParts: true,
		StateScheduled:    true, // 重新排期
		StateCancelled:    true,
	},
	StateInProgress: {
		StateCompleted:    true,
		StateWaitingParts: true,
		StateCancelled:    true,
	},
	StateWaitingParts: {
		StateAssigned:   true,
		StateInProgress: true,
		StateCancelled:  true,
	},
	StateCompleted: {
		StateApproved:   true,
		StateInProgress: true, // 审核驳回,退回执行
		StateCancelled:  true,
	},
	StateApproved:  {},
	StateCancelled: {},
}

// States 返回所有状态码(按字典序,便于穷举测试)
func States() []string {
	states := make([]string, 0, len(transitions))
	for s := range transitions {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

// IsKnown 判断状态码是否存在
func IsKnown(state string) bool {
	_, ok := transitions[state]
	return ok
}

// IsTerminal 判断是否为终态(无出边)
func IsTerminal(state string) bool {
	targets, ok := transitions[state]
	return ok && len(targets) == 0
}

// AllowsEdit 判断该状态下工单是否可编辑
func AllowsEdit(state string) bool {
	return IsKnown(state) && !IsTerminal(state)
}

// AllowsCancellation 判断该状态下工单是否可取消
func AllowsCancellation(state string) bool {
	return IsKnown(state) && !IsTerminal(state)
}

// AllowedTargets 返回某状态的所有出边目标(按字典序)
func AllowedTargets(state string) []string {
	targets := make([]string, 0, len(transitions[state]))
	for t := range transitions[state] {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// CanTransition 判断转换是否允许
func CanTransition(current, target string) bool {
	targets, ok := transitions[current]
	if !ok {
		return false
	}
	return targets[target]
}

// ValidateTransition 验证状态转换
// 当前状态未知返回 ErrInvalidState,目标不在出边集合返回 ErrInvalidTransition
func ValidateTransition(current, target string) error {
	targets, ok := transitions[current]
	if !ok {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidState, current)
	}
	if !targets[target] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}
	return nil
}
