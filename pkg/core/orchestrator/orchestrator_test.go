package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eugenepoly/market-agent/pkg/core/state"
	"github.com/Eugenepoly/market-agent/pkg/core/step"
	"github.com/Eugenepoly/market-agent/pkg/storage"
)

// memArtifacts 内存版产出物存储，记录审批动作
type memArtifacts struct {
	mu       sync.Mutex
	pending  map[string]string
	approved map[string]string
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{
		pending:  make(map[string]string),
		approved: make(map[string]string),
	}
}

func (m *memArtifacts) SaveCollected(ctx context.Context, workflowID, content string) (string, error) {
	return "mem://collected/" + workflowID, nil
}

func (m *memArtifacts) SaveReport(ctx context.Context, content string) (string, error) {
	return "mem://report", nil
}

func (m *memArtifacts) SaveAnalysis(ctx context.Context, content string) (string, error) {
	return "mem://analysis", nil
}

func (m *memArtifacts) SavePendingDraft(ctx context.Context, workflowID, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[workflowID] = content
	return "mem://pending/" + workflowID, nil
}

func (m *memArtifacts) LoadPendingDraft(ctx context.Context, workflowID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending[workflowID], nil
}

func (m *memArtifacts) SaveApprovedDraft(ctx context.Context, workflowID, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approved[workflowID] = content
	return "mem://approved/" + workflowID, nil
}

func (m *memArtifacts) DeletePendingDraft(ctx context.Context, workflowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, workflowID)
	return nil
}

// stubStep 构造固定行为的步骤
func stubStep(name, outputRef string, err error) step.Step {
	return step.Func{
		StepName: name,
		RunFunc: func(ctx context.Context, w *state.WorkflowState, opts state.Options) (string, error) {
			return outputRef, err
		},
	}
}

// okSteps 全部成功的四步流水线，草稿落到artifacts
func okSteps(artifacts *memArtifacts) []step.Step {
	return []step.Step{
		stubStep(step.StepCollect, "ref-collect", nil),
		stubStep(step.StepReport, "ref-report", nil),
		stubStep(step.StepAnalyze, "ref-analyze", nil),
		step.Func{
			StepName: step.StepDraft,
			RunFunc: func(ctx context.Context, w *state.WorkflowState, opts state.Options) (string, error) {
				return artifacts.SavePendingDraft(ctx, w.ID, "草稿内容")
			},
		},
	}
}

func newTestOrchestrator(t *testing.T, steps []step.Step, artifacts *memArtifacts) (*Orchestrator, *storage.MemoryStateStore) {
	t.Helper()
	store := storage.NewMemoryStateStore()
	registry := step.NewRegistry()
	registry.Register("daily", steps)
	return New(store, artifacts, registry, DefaultFailurePolicy(), nil), store
}

// TestStartHappyPath 测试完整流水线执行到审批门
func TestStartHappyPath(t *testing.T) {
	artifacts := newMemArtifacts()
	orc, store := newTestOrchestrator(t, okSteps(artifacts), artifacts)

	w, err := orc.Start(context.Background(), "daily", state.Options{})
	require.NoError(t, err)
	assert.Equal(t, state.StatusWaitingApproval, w.Status)

	// 四个步骤全部成功且按序记录
	require.Len(t, w.Steps, 4)
	names := []string{step.StepCollect, step.StepReport, step.StepAnalyze, step.StepDraft}
	for i, name := range names {
		assert.Equal(t, name, w.Steps[i].Name)
		assert.Equal(t, state.StepSuccess, w.Steps[i].Status)
	}
	assert.Equal(t, "ref-report", w.StepOutput(step.StepReport))

	// 持久化状态与内存一致
	saved, err := store.Load(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StatusWaitingApproval, saved.Status)
	assert.Len(t, saved.Steps, 4)
}

// TestStartSkipOptions 测试跳过的步骤不产生任何记录
func TestStartSkipOptions(t *testing.T) {
	t.Run("跳过采集", func(t *testing.T) {
		artifacts := newMemArtifacts()
		orc, _ := newTestOrchestrator(t, okSteps(artifacts), artifacts)

		w, err := orc.Start(context.Background(), "daily", state.Options{SkipCollection: true})
		require.NoError(t, err)

		assert.Equal(t, state.StatusWaitingApproval, w.Status)
		require.Len(t, w.Steps, 3)
		assert.Nil(t, w.StepByName(step.StepCollect))
	})

	t.Run("跳过深度分析", func(t *testing.T) {
		artifacts := newMemArtifacts()
		orc, _ := newTestOrchestrator(t, okSteps(artifacts), artifacts)

		w, err := orc.Start(context.Background(), "daily", state.Options{SkipAnalysis: true})
		require.NoError(t, err)

		assert.Equal(t, state.StatusWaitingApproval, w.Status)
		require.Len(t, w.Steps, 3)
		assert.Nil(t, w.StepByName(step.StepAnalyze))
	})

	t.Run("同时跳过两步", func(t *testing.T) {
		artifacts := newMemArtifacts()
		orc, _ := newTestOrchestrator(t, okSteps(artifacts), artifacts)

		w, err := orc.Start(context.Background(), "daily", state.Options{SkipCollection: true, SkipAnalysis: true})
		require.NoError(t, err)

		assert.Equal(t, state.StatusWaitingApproval, w.Status)
		require.Len(t, w.Steps, 2)
	})
}

// TestStartFailurePolicy 测试步骤失败的降级与致命处理
func TestStartFailurePolicy(t *testing.T) {
	t.Run("采集失败默认降级继续", func(t *testing.T) {
		artifacts := newMemArtifacts()
		steps := okSteps(artifacts)
		steps[0] = stubStep(step.StepCollect, "", errors.New("全部数据源失败"))
		orc, _ := newTestOrchestrator(t, steps, artifacts)

		w, err := orc.Start(context.Background(), "daily", state.Options{})
		require.NoError(t, err)

		assert.Equal(t, state.StatusWaitingApproval, w.Status)
		rec := w.StepByName(step.StepCollect)
		require.NotNil(t, rec)
		assert.Equal(t, state.StepFailed, rec.Status)
		assert.Contains(t, rec.Error, "全部数据源失败")
	})

	t.Run("严格模式下采集失败致命", func(t *testing.T) {
		artifacts := newMemArtifacts()
		steps := okSteps(artifacts)
		steps[0] = stubStep(step.StepCollect, "", errors.New("全部数据源失败"))
		orc, store := newTestOrchestrator(t, steps, artifacts)

		w, err := orc.Start(context.Background(), "daily", state.Options{StrictCollection: true})
		require.NoError(t, err)

		assert.Equal(t, state.StatusFailed, w.Status)
		// 后续步骤未执行
		assert.Nil(t, w.StepByName(step.StepReport))

		saved, err := store.Load(context.Background(), w.ID)
		require.NoError(t, err)
		assert.Equal(t, state.StatusFailed, saved.Status)
	})

	t.Run("报告失败致命", func(t *testing.T) {
		artifacts := newMemArtifacts()
		steps := okSteps(artifacts)
		steps[1] = stubStep(step.StepReport, "", errors.New("Gemini返回空响应"))
		orc, _ := newTestOrchestrator(t, steps, artifacts)

		w, err := orc.Start(context.Background(), "daily", state.Options{})
		require.NoError(t, err)

		assert.Equal(t, state.StatusFailed, w.Status)
		assert.Nil(t, w.StepByName(step.StepDraft))
	})

	t.Run("深度分析失败降级继续", func(t *testing.T) {
		artifacts := newMemArtifacts()
		steps := okSteps(artifacts)
		steps[2] = stubStep(step.StepAnalyze, "", errors.New("分析超时"))
		orc, _ := newTestOrchestrator(t, steps, artifacts)

		w, err := orc.Start(context.Background(), "daily", state.Options{})
		require.NoError(t, err)

		assert.Equal(t, state.StatusWaitingApproval, w.Status)
		rec := w.StepByName(step.StepAnalyze)
		require.NotNil(t, rec)
		assert.Equal(t, state.StepFailed, rec.Status)
		// 草稿仍然生成
		draft := w.StepByName(step.StepDraft)
		require.NotNil(t, draft)
		assert.Equal(t, state.StepSuccess, draft.Status)
	})

	t.Run("草稿失败致命", func(t *testing.T) {
		artifacts := newMemArtifacts()
		steps := okSteps(artifacts)
		steps[3] = stubStep(step.StepDraft, "", errors.New("保存待审批草稿失败"))
		orc, _ := newTestOrchestrator(t, steps, artifacts)

		w, err := orc.Start(context.Background(), "daily", state.Options{})
		require.NoError(t, err)
		assert.Equal(t, state.StatusFailed, w.Status)
	})
}

// TestStartUnknownKind 测试未注册的工作流类型
func TestStartUnknownKind(t *testing.T) {
	artifacts := newMemArtifacts()
	orc, _ := newTestOrchestrator(t, okSteps(artifacts), artifacts)

	_, err := orc.Start(context.Background(), "weekly", state.Options{})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "kind", valErr.Field)
}

// TestApprove 测试批准流程
func TestApprove(t *testing.T) {
	artifacts := newMemArtifacts()
	orc, store := newTestOrchestrator(t, okSteps(artifacts), artifacts)

	w, err := orc.Start(context.Background(), "daily", state.Options{})
	require.NoError(t, err)
	require.Equal(t, state.StatusWaitingApproval, w.Status)

	approved, err := orc.Approve(context.Background(), w.ID)
	require.NoError(t, err)

	assert.Equal(t, state.StatusCompleted, approved.Status)
	require.NotNil(t, approved.Approval)
	assert.Equal(t, state.DecisionApproved, approved.Approval.Decision)

	// 草稿从pending固化到approved
	assert.Equal(t, "草稿内容", artifacts.approved[w.ID])
	assert.Empty(t, artifacts.pending[w.ID])

	saved, err := store.Load(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, state.StatusCompleted, saved.Status)
}

// TestReject 测试驳回流程
func TestReject(t *testing.T) {
	artifacts := newMemArtifacts()
	orc, _ := newTestOrchestrator(t, okSteps(artifacts), artifacts)

	w, err := orc.Start(context.Background(), "daily", state.Options{})
	require.NoError(t, err)

	rejected, err := orc.Reject(context.Background(), w.ID, "语气不对")
	require.NoError(t, err)

	// 驳回是正常完成，不是失败
	assert.Equal(t, state.StatusCompleted, rejected.Status)
	require.NotNil(t, rejected.Approval)
	assert.Equal(t, state.DecisionRejected, rejected.Approval.Decision)
	assert.Equal(t, "语气不对", rejected.Approval.Reason)

	// 被驳回的草稿不会固化
	assert.Empty(t, artifacts.approved[w.ID])
	assert.Empty(t, artifacts.pending[w.ID])
}

// TestDecisionGuards 测试审批操作的前置校验
func TestDecisionGuards(t *testing.T) {
	t.Run("不存在的工作流", func(t *testing.T) {
		artifacts := newMemArtifacts()
		orc, _ := newTestOrchestrator(t, okSteps(artifacts), artifacts)

		_, err := orc.Approve(context.Background(), "no-such-id")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("重复审批返回冲突", func(t *testing.T) {
		artifacts := newMemArtifacts()
		orc, _ := newTestOrchestrator(t, okSteps(artifacts), artifacts)

		w, err := orc.Start(context.Background(), "daily", state.Options{})
		require.NoError(t, err)

		_, err = orc.Approve(context.Background(), w.ID)
		require.NoError(t, err)

		_, err = orc.Approve(context.Background(), w.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		var transErr *InvalidTransitionError
		require.ErrorAs(t, err, &transErr)
		assert.Equal(t, state.StatusCompleted, transErr.Current)
	})

	t.Run("对失败工作流审批返回冲突", func(t *testing.T) {
		artifacts := newMemArtifacts()
		steps := okSteps(artifacts)
		steps[1] = stubStep(step.StepReport, "", errors.New("boom"))
		orc, _ := newTestOrchestrator(t, steps, artifacts)

		w, err := orc.Start(context.Background(), "daily", state.Options{})
		require.NoError(t, err)
		require.Equal(t, state.StatusFailed, w.Status)

		_, err = orc.Reject(context.Background(), w.ID, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("空ID返回参数错误", func(t *testing.T) {
		artifacts := newMemArtifacts()
		orc, _ := newTestOrchestrator(t, okSteps(artifacts), artifacts)

		var valErr *ValidationError
		_, err := orc.Approve(context.Background(), "")
		assert.ErrorAs(t, err, &valErr)
		_, err = orc.Status(context.Background(), "")
		assert.ErrorAs(t, err, &valErr)
	})
}

// TestList 测试列表查询
func TestList(t *testing.T) {
	artifacts := newMemArtifacts()
	orc, _ := newTestOrchestrator(t, okSteps(artifacts), artifacts)

	var ids []string
	for i := 0; i < 3; i++ {
		w, err := orc.Start(context.Background(), "daily", state.Options{})
		require.NoError(t, err)
		ids = append(ids, w.ID)
	}
	_, err := orc.Approve(context.Background(), ids[0])
	require.NoError(t, err)

	t.Run("按创建时间升序", func(t *testing.T) {
		items, err := orc.List(context.Background(), storage.Filter{})
		require.NoError(t, err)
		require.Len(t, items, 3)
		for i := 1; i < len(items); i++ {
			assert.False(t, items[i].CreatedAt.Before(items[i-1].CreatedAt))
		}
	})

	t.Run("按状态过滤", func(t *testing.T) {
		items, err := orc.List(context.Background(), storage.Filter{Status: state.StatusWaitingApproval})
		require.NoError(t, err)
		assert.Len(t, items, 2)

		items, err = orc.List(context.Background(), storage.Filter{Status: state.StatusCompleted})
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

// TestStartAsync 测试异步启动
func TestStartAsync(t *testing.T) {
	artifacts := newMemArtifacts()
	release := make(chan struct{})
	steps := []step.Step{
		step.Func{
			StepName: step.StepReport,
			RunFunc: func(ctx context.Context, w *state.WorkflowState, opts state.Options) (string, error) {
				<-release
				return "ref-report", nil
			},
		},
		okSteps(artifacts)[3],
	}
	orc, store := newTestOrchestrator(t, steps, artifacts)

	w, err := orc.StartAsync(context.Background(), "daily", state.Options{})
	require.NoError(t, err)

	// 返回的是创建时刻的快照
	assert.Equal(t, state.StatusCreated, w.Status)
	assert.Empty(t, w.Steps)

	close(release)

	// 等待后台执行到审批门
	require.Eventually(t, func() bool {
		saved, err := store.Load(context.Background(), w.ID)
		return err == nil && saved.Status == state.StatusWaitingApproval
	}, 2*time.Second, 10*time.Millisecond)
}

// TestFailurePolicyModes 测试失败策略表
func TestFailurePolicyModes(t *testing.T) {
	policy := DefaultFailurePolicy()

	assert.Equal(t, FailureLenient, policy.ModeFor(step.StepCollect, state.Options{}))
	assert.Equal(t, FailureFatal, policy.ModeFor(step.StepCollect, state.Options{StrictCollection: true}))
	assert.Equal(t, FailureFatal, policy.ModeFor(step.StepReport, state.Options{}))
	assert.Equal(t, FailureLenient, policy.ModeFor(step.StepAnalyze, state.Options{}))
	assert.Equal(t, FailureFatal, policy.ModeFor(step.StepDraft, state.Options{}))

	// 未知步骤保守处理为致命
	assert.Equal(t, FailureFatal, policy.ModeFor("unknown", state.Options{}))
}

// failingStore 保存失败的存储，用于验证转移失败时的回滚
type failingStore struct {
	*storage.MemoryStateStore
	failAfter int
	saves     int
}

func (s *failingStore) Save(ctx context.Context, w *state.WorkflowState) error {
	s.saves++
	if s.saves > s.failAfter {
		return fmt.Errorf("磁盘已满")
	}
	return s.MemoryStateStore.Save(ctx, w)
}

// TestAdvanceRollback 测试持久化失败时内存状态回滚
func TestAdvanceRollback(t *testing.T) {
	artifacts := newMemArtifacts()
	store := &failingStore{MemoryStateStore: storage.NewMemoryStateStore(), failAfter: 1}
	registry := step.NewRegistry()
	registry.Register("daily", okSteps(artifacts))
	orc := New(store, artifacts, registry, DefaultFailurePolicy(), nil)

	_, err := orc.Start(context.Background(), "daily", state.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "磁盘已满")

	// 初始保存成功，之后的转移全部失败：持久化记录停留在created
	items, err := store.MemoryStateStore.List(context.Background(), storage.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, state.StatusCreated, items[0].Status)
}
