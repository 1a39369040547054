package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	gstorage "cloud.google.com/go/storage"
)

// ArtifactStore GCS版产出物存储（对外导出）
// 对象布局与文件后端目录结构一致：reports/ analysis/ pending/ approved/
type ArtifactStore struct {
	client *gstorage.Client
	bucket string
	prefix string
}

// NewArtifactStore 创建GCS产出物存储（对外导出的工厂方法）
func NewArtifactStore(ctx context.Context, bucket, prefix string) (*ArtifactStore, error) {
	client, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("创建GCS客户端失败: %w", err)
	}
	return &ArtifactStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// write 写入产出物对象（内部方法）
func (s *ArtifactStore) write(ctx context.Context, rel, content string) (string, error) {
	objectPath := path.Join(s.prefix, rel)
	writer := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	writer.ContentType = "text/plain; charset=utf-8"
	if _, err := writer.Write([]byte(content)); err != nil {
		writer.Close()
		return "", fmt.Errorf("写入产出物对象失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("提交产出物对象失败: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, objectPath), nil
}

// SaveCollected 保存采集汇总数据
func (s *ArtifactStore) SaveCollected(ctx context.Context, workflowID, content string) (string, error) {
	return s.write(ctx, path.Join("data", fmt.Sprintf("collected_%s.json", workflowID)), content)
}

// SaveReport 保存日报
func (s *ArtifactStore) SaveReport(ctx context.Context, content string) (string, error) {
	name := fmt.Sprintf("Market_Update_%s.txt", time.Now().Format("2006-01-02"))
	return s.write(ctx, path.Join("reports", name), content)
}

// SaveAnalysis 保存深度分析
func (s *ArtifactStore) SaveAnalysis(ctx context.Context, content string) (string, error) {
	name := fmt.Sprintf("Deep_Analysis_%s.txt", time.Now().Format("2006-01-02"))
	return s.write(ctx, path.Join("analysis", name), content)
}

// SavePendingDraft 保存待审批草稿
func (s *ArtifactStore) SavePendingDraft(ctx context.Context, workflowID, content string) (string, error) {
	return s.write(ctx, path.Join("pending", fmt.Sprintf("draft_%s.txt", workflowID)), content)
}

// LoadPendingDraft 读取待审批草稿
func (s *ArtifactStore) LoadPendingDraft(ctx context.Context, workflowID string) (string, error) {
	objectPath := path.Join(s.prefix, "pending", fmt.Sprintf("draft_%s.txt", workflowID))
	reader, err := s.client.Bucket(s.bucket).Object(objectPath).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("读取待审批草稿失败: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("读取待审批草稿内容失败: %w", err)
	}
	return string(data), nil
}

// SaveApprovedDraft 保存已批准草稿
func (s *ArtifactStore) SaveApprovedDraft(ctx context.Context, workflowID, content string) (string, error) {
	return s.write(ctx, path.Join("approved", fmt.Sprintf("approved_%s.txt", workflowID)), content)
}

// DeletePendingDraft 删除待审批草稿
func (s *ArtifactStore) DeletePendingDraft(ctx context.Context, workflowID string) error {
	objectPath := path.Join(s.prefix, "pending", fmt.Sprintf("draft_%s.txt", workflowID))
	err := s.client.Bucket(s.bucket).Object(objectPath).Delete(ctx)
	if err != nil && !errors.Is(err, gstorage.ErrObjectNotExist) {
		return fmt.Errorf("删除待审批草稿失败: %w", err)
	}
	return nil
}
