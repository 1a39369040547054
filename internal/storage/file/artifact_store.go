package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArtifactStore 文件版产出物存储（对外导出）
// 目录结构与云端对象布局一致：reports/ analysis/ pending/ approved/
type ArtifactStore struct {
	dir string
}

// NewArtifactStore 创建文件产出物存储（对外导出的工厂方法）
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	for _, sub := range []string{"data", "reports", "analysis", "pending", "approved"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("创建产出物目录失败: %w", err)
		}
	}
	return &ArtifactStore{dir: dir}, nil
}

// write 写入产出物文件（内部方法）
func (s *ArtifactStore) write(rel, content string) (string, error) {
	path := filepath.Join(s.dir, rel)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("写入产出物失败: %w", err)
	}
	return path, nil
}

// SaveCollected 保存采集汇总数据
func (s *ArtifactStore) SaveCollected(ctx context.Context, workflowID, content string) (string, error) {
	return s.write(filepath.Join("data", fmt.Sprintf("collected_%s.json", workflowID)), content)
}

// SaveReport 保存日报
func (s *ArtifactStore) SaveReport(ctx context.Context, content string) (string, error) {
	name := fmt.Sprintf("Market_Update_%s.txt", time.Now().Format("2006-01-02"))
	return s.write(filepath.Join("reports", name), content)
}

// SaveAnalysis 保存深度分析
func (s *ArtifactStore) SaveAnalysis(ctx context.Context, content string) (string, error) {
	name := fmt.Sprintf("Deep_Analysis_%s.txt", time.Now().Format("2006-01-02"))
	return s.write(filepath.Join("analysis", name), content)
}

// SavePendingDraft 保存待审批草稿
func (s *ArtifactStore) SavePendingDraft(ctx context.Context, workflowID, content string) (string, error) {
	return s.write(filepath.Join("pending", fmt.Sprintf("draft_%s.txt", workflowID)), content)
}

// LoadPendingDraft 读取待审批草稿
func (s *ArtifactStore) LoadPendingDraft(ctx context.Context, workflowID string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, "pending", fmt.Sprintf("draft_%s.txt", workflowID)))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("读取待审批草稿失败: %w", err)
	}
	return string(data), nil
}

// SaveApprovedDraft 保存已批准草稿
func (s *ArtifactStore) SaveApprovedDraft(ctx context.Context, workflowID, content string) (string, error) {
	return s.write(filepath.Join("approved", fmt.Sprintf("approved_%s.txt", workflowID)), content)
}

// DeletePendingDraft 删除待审批草稿
func (s *ArtifactStore) DeletePendingDraft(ctx context.Context, workflowID string) error {
	err := os.Remove(filepath.Join(s.dir, "pending", fmt.Sprintf("draft_%s.txt", workflowID)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除待审批草稿失败: %w", err)
	}
	return nil
}
