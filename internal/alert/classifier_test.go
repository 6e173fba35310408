package alert_test

import (
	"testing"

	"github.com/mautops/fieldops-gin/internal/alert"
	"github.com/mautops/fieldops-gin/internal/model"
	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 { return &v }

// fullParam 四个阈值齐全的参数: 正常 [10, 20], 临界 [5, 25]
func fullParam() *model.ParameterModel {
	return &model.ParameterModel{
		ID:          "param-001",
		Name:        "motor temperature",
		Unit:        "°C",
		NormalMin:   f64(10),
		NormalMax:   f64(20),
		CriticalMin: f64(5),
		CriticalMax: f64(25),
	}
}

// TestClassify_Levels 测试三个告警级别
func TestClassify_Levels(t *testing.T) {
	param := fullParam()

	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"well inside normal range", 15, model.AlertNormal},
		{"below normal min", 9.9, model.AlertWarning},
		{"above normal max", 20.1, model.AlertWarning},
		{"below critical min", 4.9, model.AlertCritical},
		{"above critical max", 25.1, model.AlertCritical},
		{"far above critical max", 100, model.AlertCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alert.Classify(tt.value, param))
		})
	}
}

// TestClassify_Boundaries 正好落在边界上不触发告警
func TestClassify_Boundaries(t *testing.T) {
	param := fullParam()

	assert.Equal(t, model.AlertNormal, alert.Classify(10, param))
	assert.Equal(t, model.AlertNormal, alert.Classify(20, param))
	// 落在临界边界虽然越出正常范围,但不算临界
	assert.Equal(t, model.AlertWarning, alert.Classify(5, param))
	assert.Equal(t, model.AlertWarning, alert.Classify(25, param))
}

// TestClassify_NilThresholds 为空的阈值不参与判断
func TestClassify_NilThresholds(t *testing.T) {
	// 全部阈值为空: 任何读数都是 NORMAL
	empty := &model.ParameterModel{ID: "param-002", Name: "free text"}
	assert.Equal(t, model.AlertNormal, alert.Classify(-1000, empty))
	assert.Equal(t, model.AlertNormal, alert.Classify(1000, empty))

	// 只有上限: 下方不设限
	upperOnly := &model.ParameterModel{
		ID:          "param-003",
		NormalMax:   f64(50),
		CriticalMax: f64(80),
	}
	assert.Equal(t, model.AlertNormal, alert.Classify(-1000, upperOnly))
	assert.Equal(t, model.AlertWarning, alert.Classify(60, upperOnly))
	assert.Equal(t, model.AlertCritical, alert.Classify(81, upperOnly))
}

// TestClassify_NilParam 未知参数不触发告警
func TestClassify_NilParam(t *testing.T) {
	assert.Equal(t, model.AlertNormal, alert.Classify(42, nil))
}
