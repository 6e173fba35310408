package alert

import "github.com/mautops/fieldops-gin/internal/model"

// Classify 将数值读数按参数阈值分类为告警级别
// 纯函数:临界阈值越界为 CRITICAL,正常范围越界为 WARNING,
// 正好落在边界上算 NORMAL,为空的阈值不参与判断
func Classify(value float64, param *model.ParameterModel) string {
	if param == nil {
		return model.AlertNormal
	}
	if param.CriticalMin != nil && value < *param.CriticalMin {
		return model.AlertCritical
	}
	if param.CriticalMax != nil && value > *param.CriticalMax {
		return model.AlertCritical
	}
	if param.NormalMin != nil && value < *param.NormalMin {
		return model.AlertWarning
	}
	if param.NormalMax != nil && value > *param.NormalMax {
		return model.AlertWarning
	}
	return model.AlertNormal
}
