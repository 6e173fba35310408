package statemachine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/mautops/fieldops-gin/internal/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func timePtr(v time.Time) *time.Time { return &v }

// TestValidateRequiredFields_Assigned 测试进入 ASSIGNED 的必填字段
func TestValidateRequiredFields_Assigned(t *testing.T) {
	// 全部缺失:一次性列出所有缺失字段
	err := statemachine.ValidateRequiredFields(statemachine.StateAssigned, &statemachine.Snapshot{})
	require.Error(t, err)

	var missing *statemachine.MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, statemachine.StateAssigned, missing.State)
	assert.Equal(t, []string{"scheduled_at", "technician_id"}, missing.Fields)

	// 空字符串技师 ID 视同缺失
	err = statemachine.ValidateRequiredFields(statemachine.StateAssigned, &statemachine.Snapshot{
		TechnicianID: strPtr(""),
		ScheduledAt:  timePtr(time.Now()),
	})
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"technician_id"}, missing.Fields)

	// 全部就绪
	err = statemachine.ValidateRequiredFields(statemachine.StateAssigned, &statemachine.Snapshot{
		TechnicianID: strPtr("tech-001"),
		ScheduledAt:  timePtr(time.Now()),
	})
	assert.NoError(t, err)
}

// TestValidateRequiredFields_Completed 测试进入 COMPLETED 的必填字段
func TestValidateRequiredFields_Completed(t *testing.T) {
	var missing *statemachine.MissingFieldsError

	err := statemachine.ValidateRequiredFields(statemachine.StateCompleted, &statemachine.Snapshot{})
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"closing_notes", "real_start_at"}, missing.Fields)

	err = statemachine.ValidateRequiredFields(statemachine.StateCompleted, &statemachine.Snapshot{
		RealStartAt:  timePtr(time.Now()),
		ClosingNotes: "replaced compressor belt",
	})
	assert.NoError(t, err)
}

// TestValidateRequiredFields_Approved 测试进入 APPROVED 的必填字段
func TestValidateRequiredFields_Approved(t *testing.T) {
	var missing *statemachine.MissingFieldsError

	err := statemachine.ValidateRequiredFields(statemachine.StateApproved, &statemachine.Snapshot{
		ApprovedBy: strPtr("supervisor-001"),
	})
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"real_end_at"}, missing.Fields)

	err = statemachine.ValidateRequiredFields(statemachine.StateApproved, &statemachine.Snapshot{
		ApprovedBy: strPtr("supervisor-001"),
		RealEndAt:  timePtr(time.Now()),
	})
	assert.NoError(t, err)
}

// TestValidateRequiredFields_ClosingNotesStates 取消和待件都要求结案说明
func TestValidateRequiredFields_ClosingNotesStates(t *testing.T) {
	for _, target := range []string{statemachine.StateCancelled, statemachine.StateWaitingParts} {
		err := statemachine.ValidateRequiredFields(target, &statemachine.Snapshot{})
		var missing *statemachine.MissingFieldsError
		require.True(t, errors.As(err, &missing), "state %s", target)
		assert.Equal(t, []string{"closing_notes"}, missing.Fields)

		err = statemachine.ValidateRequiredFields(target, &statemachine.Snapshot{
			ClosingNotes: "customer rescheduled",
		})
		assert.NoError(t, err, "state %s", target)
	}
}

// TestValidateRequiredFields_NoRequirements 没有必填字段的目标状态总是通过
func TestValidateRequiredFields_NoRequirements(t *testing.T) {
	assert.NoError(t, statemachine.ValidateRequiredFields(statemachine.StateScheduled, nil))
	assert.NoError(t, statemachine.ValidateRequiredFields(statemachine.StateInProgress, nil))
}
