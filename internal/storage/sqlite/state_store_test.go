package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eugenepoly/market-agent/pkg/core/state"
	"github.com/Eugenepoly/market-agent/pkg/storage"
)

func newTestStore(t *testing.T) *StateStore {
	t.Helper()
	store, err := NewStateStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// TestSQLiteRoundTrip 测试状态的保存与读取
func TestSQLiteRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w := state.New("daily", state.Options{Topic: "ETF资金流", StrictCollection: true})
	w.Status = state.StatusWaitingApproval
	w.BeginStep("report")
	w.FinishStep("report", "./reports/Market_Update_2026-08-31.txt", nil)
	w.SetApproval(state.DecisionRejected, "语气不对")

	require.NoError(t, store.Save(ctx, w))

	got, err := store.Load(ctx, w.ID)
	require.NoError(t, err)

	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, state.StatusWaitingApproval, got.Status)
	assert.Equal(t, "ETF资金流", got.Options.Topic)
	assert.True(t, got.Options.StrictCollection)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, state.StepSuccess, got.Steps[0].Status)
	require.NotNil(t, got.Approval)
	assert.Equal(t, state.DecisionRejected, got.Approval.Decision)
	assert.Equal(t, "语气不对", got.Approval.Reason)
}

// TestSQLiteUpsert 测试INSERT OR REPLACE语义
func TestSQLiteUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w := state.New("daily", state.Options{})
	require.NoError(t, store.Save(ctx, w))

	w.Status = state.StatusCompleted
	require.NoError(t, store.Save(ctx, w))

	got, err := store.Load(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StatusCompleted, got.Status)

	items, err := store.List(ctx, storage.Filter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

// TestSQLiteNotFound 测试不存在的ID
func TestSQLiteNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// TestSQLiteList 测试列表过滤与排序
func TestSQLiteList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w1 := state.New("daily", state.Options{})
	w1.Status = state.StatusWaitingApproval
	w2 := state.New("daily", state.Options{})
	w2.Status = state.StatusFailed
	w3 := state.New("adhoc", state.Options{})
	w3.Status = state.StatusWaitingApproval
	for _, w := range []*state.WorkflowState{w1, w2, w3} {
		require.NoError(t, store.Save(ctx, w))
	}

	t.Run("全量按创建时间升序", func(t *testing.T) {
		items, err := store.List(ctx, storage.Filter{})
		require.NoError(t, err)
		require.Len(t, items, 3)
		for i := 1; i < len(items); i++ {
			assert.False(t, items[i].CreatedAt.Before(items[i-1].CreatedAt))
		}
	})

	t.Run("状态加类型组合过滤", func(t *testing.T) {
		items, err := store.List(ctx, storage.Filter{Status: state.StatusWaitingApproval, Kind: "daily"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, w1.ID, items[0].ID)
	})
}
