// Package step 定义流水线步骤的统一执行契约
package step

import (
	"context"
	"fmt"

	"github.com/Eugenepoly/market-agent/pkg/core/state"
)

// 流水线步骤名称（对外导出）
const (
	StepCollect = "collect"
	StepReport  = "report"
	StepAnalyze = "analyze"
	StepDraft   = "draft"
)

// Step 统一的步骤执行单元（对外导出）
// Orchestrator按序调用，不感知内部实现；失败通过error返回，不得中止进程
// 是否跳过由Orchestrator根据options决定，Step内部不做跳过判断
type Step interface {
	// Name 步骤名称
	Name() string
	// Run 执行步骤，返回产出物引用
	Run(ctx context.Context, w *state.WorkflowState, opts state.Options) (outputRef string, err error)
}

// Registry 步骤注册表（对外导出）
// 固定的按workflow kind选择的分发表，构造时一次性建立
type Registry struct {
	pipelines map[string][]Step
}

// NewRegistry 创建Registry实例（对外导出的工厂方法）
func NewRegistry() *Registry {
	return &Registry{pipelines: make(map[string][]Step)}
}

// Register 注册某类工作流的步骤序列
func (r *Registry) Register(kind string, steps []Step) {
	r.pipelines[kind] = steps
}

// Steps 获取某类工作流的步骤序列
func (r *Registry) Steps(kind string) ([]Step, error) {
	steps, ok := r.pipelines[kind]
	if !ok {
		return nil, fmt.Errorf("未注册的工作流类型: %s", kind)
	}
	return steps, nil
}

// Kinds 列出已注册的工作流类型
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.pipelines))
	for k := range r.pipelines {
		kinds = append(kinds, k)
	}
	return kinds
}

// Func 函数式Step适配器（对外导出）
type Func struct {
	StepName string
	RunFunc  func(ctx context.Context, w *state.WorkflowState, opts state.Options) (string, error)
}

// Name 实现Step接口
func (f Func) Name() string {
	return f.StepName
}

// Run 实现Step接口
func (f Func) Run(ctx context.Context, w *state.WorkflowState, opts state.Options) (string, error) {
	return f.RunFunc(ctx, w, opts)
}
