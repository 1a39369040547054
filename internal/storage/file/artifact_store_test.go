package file

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestArtifactStoreDraftLifecycle 测试草稿从待审批到已批准的流转
func TestArtifactStoreDraftLifecycle(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("没有草稿时返回空串", func(t *testing.T) {
		draft, err := store.LoadPendingDraft(ctx, "wf-1")
		require.NoError(t, err)
		assert.Empty(t, draft)
	})

	t.Run("保存后可读取", func(t *testing.T) {
		ref, err := store.SavePendingDraft(ctx, "wf-1", "今日市场观察...")
		require.NoError(t, err)
		assert.FileExists(t, ref)

		draft, err := store.LoadPendingDraft(ctx, "wf-1")
		require.NoError(t, err)
		assert.Equal(t, "今日市场观察...", draft)
	})

	t.Run("批准后固化并清理", func(t *testing.T) {
		ref, err := store.SaveApprovedDraft(ctx, "wf-1", "今日市场观察...")
		require.NoError(t, err)
		data, err := os.ReadFile(ref)
		require.NoError(t, err)
		assert.Equal(t, "今日市场观察...", string(data))

		require.NoError(t, store.DeletePendingDraft(ctx, "wf-1"))
		draft, err := store.LoadPendingDraft(ctx, "wf-1")
		require.NoError(t, err)
		assert.Empty(t, draft)
	})

	t.Run("重复删除不报错", func(t *testing.T) {
		assert.NoError(t, store.DeletePendingDraft(ctx, "wf-1"))
	})
}

// TestArtifactStoreOutputs 测试各类产出物落盘
func TestArtifactStoreOutputs(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	collected, err := store.SaveCollected(ctx, "wf-1", `{"sources":{}}`)
	require.NoError(t, err)
	assert.FileExists(t, collected)
	assert.Contains(t, collected, "collected_wf-1.json")

	report, err := store.SaveReport(ctx, "# 每日交易者逻辑更新")
	require.NoError(t, err)
	assert.FileExists(t, report)
	assert.Contains(t, report, "Market_Update_")

	analysis, err := store.SaveAnalysis(ctx, "深度分析内容")
	require.NoError(t, err)
	assert.FileExists(t, analysis)
	assert.Contains(t, analysis, "Deep_Analysis_")
}
