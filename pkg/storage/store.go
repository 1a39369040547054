// Package storage 定义工作流状态与产出物的存储接口
package storage

import (
	"context"
	"errors"

	"github.com/Eugenepoly/market-agent/pkg/core/state"
)

// ErrNotFound 指定ID的工作流状态不存在（对外导出）
var ErrNotFound = errors.New("workflow state not found")

// Filter 列表查询过滤条件（对外导出）
// 空字段表示不过滤
type Filter struct {
	Status state.Status
	Kind   string
}

// Match 判断状态记录是否命中过滤条件
func (f Filter) Match(w *state.WorkflowState) bool {
	if f.Status != "" && w.Status != f.Status {
		return false
	}
	if f.Kind != "" && w.Kind != f.Kind {
		return false
	}
	return true
}

// StateStore 工作流状态存储接口（对外导出）
// 后端可替换（本地文件/GCS对象存储/SQLite），对Orchestrator透明
type StateStore interface {
	// Save 保存完整状态记录（创建或覆盖，调用方视角原子）
	Save(ctx context.Context, w *state.WorkflowState) error
	// Load 根据ID加载状态，不存在时返回ErrNotFound
	Load(ctx context.Context, id string) (*state.WorkflowState, error)
	// List 列出所有状态，按created_at升序
	List(ctx context.Context, filter Filter) ([]*state.WorkflowState, error)
}
