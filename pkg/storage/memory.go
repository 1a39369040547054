package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Eugenepoly/market-agent/pkg/core/state"
)

// MemoryStateStore 内存版状态存储（对外导出）
// 进程重启即丢失，仅用于开发与测试
type MemoryStateStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStateStore 创建内存状态存储（对外导出的工厂方法）
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: make(map[string][]byte)}
}

// Save 保存工作流状态
func (s *MemoryStateStore) Save(ctx context.Context, w *state.WorkflowState) error {
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[w.ID] = data
	return nil
}

// Load 读取工作流状态
func (s *MemoryStateStore) Load(ctx context.Context, id string) (*state.WorkflowState, error) {
	s.mu.RLock()
	data, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var w state.WorkflowState
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// List 列出工作流状态
func (s *MemoryStateStore) List(ctx context.Context, filter Filter) ([]*state.WorkflowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]*state.WorkflowState, 0, len(s.items))
	for _, data := range s.items {
		var w state.WorkflowState
		if err := json.Unmarshal(data, &w); err != nil {
			continue
		}
		if filter.Match(&w) {
			items = append(items, &w)
		}
	}
	return items, nil
}
