// Package file 提供基于本地文件树的存储实现
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Eugenepoly/market-agent/pkg/core/state"
	"github.com/Eugenepoly/market-agent/pkg/storage"
)

// StateStore 文件版工作流状态存储（对外导出）
// 每个工作流一个JSON文件：<dir>/<id>.json
type StateStore struct {
	dir string
}

// NewStateStore 创建文件状态存储（对外导出的工厂方法）
func NewStateStore(dir string) (*StateStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建状态目录失败: %w", err)
	}
	return &StateStore{dir: dir}, nil
}

// Save 保存状态记录
// 先写临时文件再rename，读方不会看到半写入的记录
func (s *StateStore) Save(ctx context.Context, w *state.WorkflowState) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化工作流状态失败: %w", err)
	}

	final := filepath.Join(s.dir, w.ID+".json")
	tmp, err := os.CreateTemp(s.dir, w.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("写入工作流状态失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("替换状态文件失败: %w", err)
	}
	return nil
}

// Load 根据ID加载状态
func (s *StateStore) Load(ctx context.Context, id string) (*state.WorkflowState, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("读取状态文件失败: %w", err)
	}

	var w state.WorkflowState
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("解析状态文件失败: %w", err)
	}
	return &w, nil
}

// List 列出所有状态，按created_at升序
func (s *StateStore) List(ctx context.Context, filter storage.Filter) ([]*state.WorkflowState, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*state.WorkflowState{}, nil
		}
		return nil, fmt.Errorf("读取状态目录失败: %w", err)
	}

	items := make([]*state.WorkflowState, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		w, err := s.Load(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			// 跳过损坏或读取失败的记录
			continue
		}
		if filter.Match(w) {
			items = append(items, w)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}
