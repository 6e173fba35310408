package statemachine_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/mautops/fieldops-gin/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allowedPairs 状态机中全部允许的转换边
var allowedPairs = map[[2]string]bool{
	{statemachine.StateScheduled, statemachine.StateAssigned}:      true,
	{statemachine.StateScheduled, statemachine.StateCancelled}:     true,
	{statemachine.StateAssigned, statemachine.StateInProgress}:     true,
	{statemachine.StateAssigned, statemachine.StateWaitingParts}:   true,
	{statemachine.StateAssigned, statemachine.StateScheduled}:      true,
	{statemachine.StateAssigned, statemachine.StateCancelled}:      true,
	{statemachine.StateInProgress, statemachine.StateCompleted}:    true,
	{statemachine.StateInProgress, statemachine.StateWaitingParts}: true,
	{statemachine.StateInProgress, statemachine.StateCancelled}:    true,
	{statemachine.StateWaitingParts, statemachine.StateAssigned}:   true,
	{statemachine.StateWaitingParts, statemachine.StateInProgress}: true,
	{statemachine.StateWaitingParts, statemachine.StateCancelled}:  true,
	{statemachine.StateCompleted, statemachine.StateApproved}:      true,
	{statemachine.StateCompleted, statemachine.StateInProgress}:    true,
	{statemachine.StateCompleted, statemachine.StateCancelled}:     true,
}

// TestStates 测试状态目录
func TestStates(t *testing.T) {
	states := statemachine.States()
	assert.Len(t, states, 7)
	assert.Equal(t, []string{
		statemachine.StateApproved,
		statemachine.StateAssigned,
		statemachine.StateCancelled,
		statemachine.StateCompleted,
		statemachine.StateInProgress,
		statemachine.StateScheduled,
		statemachine.StateWaitingParts,
	}, states)
}

// TestCanTransition_Exhaustive 穷举全部状态对,验证转换表与期望的边集合一致
func TestCanTransition_Exhaustive(t *testing.T) {
	states := statemachine.States()
	for _, from := range states {
		for _, to := range states {
			expected := allowedPairs[[2]string{from, to}]
			assert.Equal(t, expected, statemachine.CanTransition(from, to),
				"transition %s -> %s", from, to)
		}
	}
}

// TestValidateTransition 测试转换验证的错误分类
func TestValidateTransition(t *testing.T) {
	// 允许的转换
	err := statemachine.ValidateTransition(statemachine.StateScheduled, statemachine.StateAssigned)
	assert.NoError(t, err)

	// 不允许的转换(两个状态都已知)
	err = statemachine.ValidateTransition(statemachine.StateScheduled, statemachine.StateCompleted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, statemachine.ErrInvalidTransition))

	// 当前状态未知
	err = statemachine.ValidateTransition("UNKNOWN", statemachine.StateAssigned)
	require.Error(t, err)
	assert.True(t, errors.Is(err, statemachine.ErrInvalidState))

	// 自转换不允许
	for _, s := range statemachine.States() {
		assert.False(t, statemachine.CanTransition(s, s), "self transition %s", s)
	}
}

// TestIsTerminal 测试终态判定
func TestIsTerminal(t *testing.T) {
	assert.True(t, statemachine.IsTerminal(statemachine.StateApproved))
	assert.True(t, statemachine.IsTerminal(statemachine.StateCancelled))

	for _, s := range []string{
		statemachine.StateScheduled,
		statemachine.StateAssigned,
		statemachine.StateInProgress,
		statemachine.StateCompleted,
		statemachine.StateWaitingParts,
	} {
		assert.False(t, statemachine.IsTerminal(s), "state %s", s)
	}

	// 未知状态不是终态
	assert.False(t, statemachine.IsTerminal("UNKNOWN"))
}

// TestTerminalStatesHaveNoOutgoingEdges 终态没有任何出边
func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, terminal := range []string{statemachine.StateApproved, statemachine.StateCancelled} {
		assert.Empty(t, statemachine.AllowedTargets(terminal))
		for _, to := range statemachine.States() {
			assert.False(t, statemachine.CanTransition(terminal, to),
				"terminal %s must not transition to %s", terminal, to)
		}
	}
}

// TestAllowsEditAndCancellation 测试可编辑与可取消判定
func TestAllowsEditAndCancellation(t *testing.T) {
	assert.True(t, statemachine.AllowsEdit(statemachine.StateInProgress))
	assert.False(t, statemachine.AllowsEdit(statemachine.StateApproved))
	assert.False(t, statemachine.AllowsEdit("UNKNOWN"))

	assert.True(t, statemachine.AllowsCancellation(statemachine.StateCompleted))
	assert.False(t, statemachine.AllowsCancellation(statemachine.StateCancelled))
}

// TestAllowedTargets 测试出边集合
func TestAllowedTargets(t *testing.T) {
	targets := statemachine.AllowedTargets(statemachine.StateAssigned)
	assert.Equal(t, []string{
		statemachine.StateCancelled,
		statemachine.StateInProgress,
		statemachine.StateScheduled,
		statemachine.StateWaitingParts,
	}, targets)
}

// TestCatalogMatchesTransitionTable 状态目录与转换表保持一致
func TestCatalogMatchesTransitionTable(t *testing.T) {
	entries := statemachine.Catalog()
	assert.Len(t, entries, len(statemachine.States()))

	seenOrder := map[int]bool{}
	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		codes = append(codes, e.Code)
		assert.True(t, statemachine.IsKnown(e.Code), "catalog code %s", e.Code)
		assert.Equal(t, statemachine.IsTerminal(e.Code), e.IsTerminal, "terminal flag for %s", e.Code)
		assert.False(t, seenOrder[e.DisplayOrder], "duplicate display order %d", e.DisplayOrder)
		seenOrder[e.DisplayOrder] = true
	}

	sort.Strings(codes)
	assert.Equal(t, statemachine.States(), codes)
}
