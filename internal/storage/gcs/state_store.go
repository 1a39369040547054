// Package gcs 提供基于Google Cloud Storage的存储实现
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/Eugenepoly/market-agent/pkg/core/state"
	"github.com/Eugenepoly/market-agent/pkg/storage"
)

// StateStore GCS版工作流状态存储（对外导出）
// 对象布局：<prefix>/state/<id>.json，记录格式与文件后端一致
type StateStore struct {
	client *gstorage.Client
	bucket string
	prefix string
}

// NewStateStore 创建GCS状态存储（对外导出的工厂方法）
// 凭证走Application Default Credentials
func NewStateStore(ctx context.Context, bucket, prefix string) (*StateStore, error) {
	client, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("创建GCS客户端失败: %w", err)
	}
	return &StateStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// objectPath 计算状态对象路径（内部方法）
func (s *StateStore) objectPath(id string) string {
	return path.Join(s.prefix, "state", id+".json")
}

// Save 保存状态记录
// GCS对象写入本身原子：Close成功前读方只能看到旧版本
func (s *StateStore) Save(ctx context.Context, w *state.WorkflowState) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("序列化工作流状态失败: %w", err)
	}

	writer := s.client.Bucket(s.bucket).Object(s.objectPath(w.ID)).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("写入GCS对象失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("提交GCS对象失败: %w", err)
	}
	return nil
}

// Load 根据ID加载状态
func (s *StateStore) Load(ctx context.Context, id string) (*state.WorkflowState, error) {
	reader, err := s.client.Bucket(s.bucket).Object(s.objectPath(id)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("读取GCS对象失败: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取GCS对象内容失败: %w", err)
	}

	var w state.WorkflowState
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("解析工作流状态失败: %w", err)
	}
	return &w, nil
}

// List 列出所有状态，按created_at升序
func (s *StateStore) List(ctx context.Context, filter storage.Filter) ([]*state.WorkflowState, error) {
	query := &gstorage.Query{Prefix: path.Join(s.prefix, "state") + "/"}
	it := s.client.Bucket(s.bucket).Objects(ctx, query)

	items := make([]*state.WorkflowState, 0)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("遍历GCS对象失败: %w", err)
		}

		id := path.Base(attrs.Name)
		if ext := path.Ext(id); ext != ".json" {
			continue
		}
		w, err := s.Load(ctx, id[:len(id)-len(".json")])
		if err != nil {
			// 跳过损坏或并发删除的记录
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

// Close 关闭GCS客户端（对外导出）
func (s *StateStore) Close() error {
	return s.client.Close()
}
