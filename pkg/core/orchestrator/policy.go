package orchestrator

import (
	"github.com/Eugenepoly/market-agent/pkg/core/state"
	"github.com/Eugenepoly/market-agent/pkg/core/step"
)

// FailureMode 步骤失败处理模式（对外导出）
type FailureMode string

const (
	// FailureFatal 失败即终止工作流
	FailureFatal FailureMode = "fatal"
	// FailureLenient 记录错误后继续后续步骤
	FailureLenient FailureMode = "lenient"
)

// FailurePolicy 步骤失败策略表（对外导出）
// 哪些步骤失败致命是产品决策，这里做成显式可配置的表而非硬编码
type FailurePolicy map[string]FailureMode

// DefaultFailurePolicy 默认失败策略（对外导出）
// 采集降级继续；没有报告就没有可起草/审批的内容，报告与起草失败致命；
// 深度分析失败仅记录
func DefaultFailurePolicy() FailurePolicy {
	return FailurePolicy{
		step.StepCollect: FailureLenient,
		step.StepReport:  FailureFatal,
		step.StepAnalyze: FailureLenient,
		step.StepDraft:   FailureFatal,
	}
}

// ModeFor 查询步骤的失败模式，strict采集模式下采集失败升级为致命
func (p FailurePolicy) ModeFor(stepName string, opts state.Options) FailureMode {
	if stepName == step.StepCollect && opts.StrictCollection {
		return FailureFatal
	}
	if mode, ok := p[stepName]; ok {
		return mode
	}
	return FailureFatal
}
