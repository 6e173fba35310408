package statemachine

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Snapshot 进入目标状态前的工单快照
// 校验针对合并后的"预期记录":同一请求中正在写入的字段算作已存在
type Snapshot struct {
	TechnicianID *string
	ScheduledAt  *time.Time
	RealStartAt  *time.Time
	RealEndAt    *time.Time
	ApprovedBy   *string
	ClosingNotes string
}

// MissingFieldsError 进入目标状态缺少必填字段
// 一次性列出所有缺失字段,客户端可以整批修复
type MissingFieldsError struct {
	State  string
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("state %s requires missing fields: %s", e.State, strings.Join(e.Fields, ", "))
}

// fieldCheck 单个必填字段检查
type fieldCheck struct {
	name    string
	present func(s *Snapshot) bool
}

// requiredFields 每个目标状态的必填字段
var requiredFields = map[string][]fieldCheck{
	StateAssigned: {
		{"technician_id", func(s *Snapshot) bool { return s.TechnicianID != nil && *s.TechnicianID != "" }},
		{"scheduled_at", func(s *Snapshot) bool { return s.ScheduledAt != nil }},
	},
	StateCompleted: {
		{"real_start_at", func(s *Snapshot) bool { return s.RealStartAt != nil }},
		{"closing_notes", func(s *Snapshot) bool { return s.ClosingNotes != "" }},
	},
	StateApproved: {
		{"approved_by", func(s *Snapshot) bool { return s.ApprovedBy != nil && *s.ApprovedBy != "" }},
		{"real_end_at", func(s *Snapshot) bool { return s.RealEndAt != nil }},
	},
	StateCancelled: {
		{"closing_notes", func(s *Snapshot) bool { return s.ClosingNotes != "" }},
	},
	StateWaitingParts: {
		{"closing_notes", func(s *Snapshot) bool { return s.ClosingNotes != "" }},
	},
}

// ValidateRequiredFields 验证进入目标状态的必填字段
// 返回的错误列出所有缺失字段,而不是遇到第一个就停
func ValidateRequiredFields(target string, snapshot *Snapshot) error {
	checks, ok := requiredFields[target]
	if !ok {
		return nil
	}
	if snapshot == nil {
		snapshot = &Snapshot{}
	}

	var missing []string
	for _, check := range checks {
		if !check.present(snapshot) {
			missing = append(missing, check.name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingFieldsError{State: target, Fields: missing}
	}
	return nil
}
