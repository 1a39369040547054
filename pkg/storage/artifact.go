package storage

import "context"

// ArtifactStore 流水线产出物存储接口（对外导出）
// 报告/深度分析/社媒草稿等文本产出物的落盘位置
type ArtifactStore interface {
	// SaveCollected 保存采集汇总数据（JSON文本）
	SaveCollected(ctx context.Context, workflowID, content string) (string, error)
	// SaveReport 保存日报，返回存储路径
	SaveReport(ctx context.Context, content string) (string, error)
	// SaveAnalysis 保存深度分析，返回存储路径
	SaveAnalysis(ctx context.Context, content string) (string, error)
	// SavePendingDraft 保存待审批草稿
	SavePendingDraft(ctx context.Context, workflowID, content string) (string, error)
	// LoadPendingDraft 读取待审批草稿，不存在时返回空串
	LoadPendingDraft(ctx context.Context, workflowID string) (string, error)
	// SaveApprovedDraft 保存已批准草稿
	SaveApprovedDraft(ctx context.Context, workflowID, content string) (string, error)
	// DeletePendingDraft 删除待审批草稿（审批结束后清理）
	DeletePendingDraft(ctx context.Context, workflowID string) error
}
