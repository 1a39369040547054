// Package storage 按配置选择存储后端
package storage

import (
	"context"
	"fmt"

	"github.com/Eugenepoly/market-agent/internal/storage/file"
	"github.com/Eugenepoly/market-agent/internal/storage/gcs"
	"github.com/Eugenepoly/market-agent/internal/storage/sqlite"
	"github.com/Eugenepoly/market-agent/pkg/config"
	pkgstorage "github.com/Eugenepoly/market-agent/pkg/storage"
)

// Stores 存储实例集合（对外导出）
type Stores struct {
	State     pkgstorage.StateStore
	Artifacts pkgstorage.ArtifactStore
	closers   []func() error
}

// NewStores 按配置创建存储后端（对外导出的工厂方法）
// 后端切换对Orchestrator完全透明
func NewStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.Storage.Type {
	case "file":
		stateStore, err := file.NewStateStore(cfg.Storage.StateDir)
		if err != nil {
			return nil, fmt.Errorf("创建文件状态存储失败: %w", err)
		}
		artifactStore, err := file.NewArtifactStore(cfg.Storage.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("创建文件产出物存储失败: %w", err)
		}
		return &Stores{State: stateStore, Artifacts: artifactStore}, nil

	case "sqlite":
		stateStore, err := sqlite.NewStateStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("创建SQLite状态存储失败: %w", err)
		}
		// 产出物仍落本地文件，SQLite只承载状态记录
		artifactStore, err := file.NewArtifactStore(cfg.Storage.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("创建文件产出物存储失败: %w", err)
		}
		return &Stores{
			State:     stateStore,
			Artifacts: artifactStore,
			closers:   []func() error{stateStore.Close},
		}, nil

	case "gcs":
		stateStore, err := gcs.NewStateStore(ctx, cfg.Storage.GCSBucket, cfg.Storage.GCSPrefix)
		if err != nil {
			return nil, fmt.Errorf("创建GCS状态存储失败: %w", err)
		}
		artifactStore, err := gcs.NewArtifactStore(ctx, cfg.Storage.GCSBucket, cfg.Storage.GCSPrefix)
		if err != nil {
			return nil, fmt.Errorf("创建GCS产出物存储失败: %w", err)
		}
		return &Stores{
			State:     stateStore,
			Artifacts: artifactStore,
			closers:   []func() error{stateStore.Close},
		}, nil

	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Storage.Type)
	}
}

// Close 关闭所有持有连接的后端（对外导出）
func (s *Stores) Close() error {
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
