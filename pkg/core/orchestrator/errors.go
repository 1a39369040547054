package orchestrator

import (
	"errors"
	"fmt"

	"github.com/Eugenepoly/market-agent/pkg/core/state"
)

// ErrInvalidTransition 操作目标不处于要求的源状态（对外导出）
// 例如对非waiting_approval的工作流执行approve
var ErrInvalidTransition = errors.New("invalid workflow transition")

// InvalidTransitionError 携带上下文的非法转移错误（对外导出）
type InvalidTransitionError struct {
	WorkflowID string
	Current    state.Status
	Op         string
}

// Error 实现error接口
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("工作流 %s 当前状态为 %s，无法执行 %s", e.WorkflowID, e.Current, e.Op)
}

// Is 支持errors.Is(err, ErrInvalidTransition)匹配
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ValidationError 公开操作的入参校验错误（对外导出）
// 不触发任何状态变更，同步返回调用方
type ValidationError struct {
	Field   string
	Message string
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数 %s 无效: %s", e.Field, e.Message)
}
