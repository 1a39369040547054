// Package orchestrator 驱动工作流按状态机执行并持久化每次转移
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Eugenepoly/market-agent/pkg/core/events"
	"github.com/Eugenepoly/market-agent/pkg/core/state"
	"github.com/Eugenepoly/market-agent/pkg/core/step"
	"github.com/Eugenepoly/market-agent/pkg/storage"
)

// stepStatus 步骤名到运行状态的映射
var stepStatus = map[string]state.Status{
	step.StepCollect: state.StatusCollecting,
	step.StepReport:  state.StatusReporting,
	step.StepAnalyze: state.StatusAnalyzing,
	step.StepDraft:   state.StatusDrafting,
}

// Orchestrator 工作流编排器（对外导出）
// 独占WorkflowState的修改权；每次状态转移先持久化再继续
type Orchestrator struct {
	store     storage.StateStore
	artifacts storage.ArtifactStore
	registry  *step.Registry
	policy    FailurePolicy
	bus       *events.Bus
}

// New 创建Orchestrator实例（对外导出的工厂方法）
// bus可为nil（不发布事件）
func New(store storage.StateStore, artifacts storage.ArtifactStore, registry *step.Registry, policy FailurePolicy, bus *events.Bus) *Orchestrator {
	if policy == nil {
		policy = DefaultFailurePolicy()
	}
	return &Orchestrator{
		store:     store,
		artifacts: artifacts,
		registry:  registry,
		policy:    policy,
		bus:       bus,
	}
}

// Start 启动一次工作流运行（对外导出）
// 同步执行到waiting_approval/failed为止，返回最终持久化的状态
func (o *Orchestrator) Start(ctx context.Context, kind string, opts state.Options) (*state.WorkflowState, error) {
	w, steps, err := o.create(ctx, kind, opts)
	if err != nil {
		return nil, err
	}
	return o.runSteps(ctx, w, steps, opts)
}

// StartAsync 创建工作流后立即返回，步骤在后台执行（对外导出）
// HTTP入口使用：返回的是创建时刻的快照，后续进度通过Status查询
func (o *Orchestrator) StartAsync(ctx context.Context, kind string, opts state.Options) (*state.WorkflowState, error) {
	w, steps, err := o.create(ctx, kind, opts)
	if err != nil {
		return nil, err
	}

	snapshot := *w
	snapshot.Steps = append([]state.StepRecord(nil), w.Steps...)

	go func() {
		// 脱离请求上下文，运行不随HTTP请求结束而取消
		if _, err := o.runSteps(context.Background(), w, steps, opts); err != nil {
			log.Printf("❌ [编排器] 后台运行失败: ID=%s, Error=%v", w.ID, err)
		}
	}()
	return &snapshot, nil
}

// create 创建并持久化初始状态（内部方法）
func (o *Orchestrator) create(ctx context.Context, kind string, opts state.Options) (*state.WorkflowState, []step.Step, error) {
	steps, err := o.registry.Steps(kind)
	if err != nil {
		return nil, nil, &ValidationError{Field: "kind", Message: err.Error()}
	}

	w := state.New(kind, opts)
	if err := o.store.Save(ctx, w); err != nil {
		return nil, nil, fmt.Errorf("持久化初始状态失败: %w", err)
	}
	log.Printf("🚀 [编排器] 工作流已创建: ID=%s, Kind=%s", w.ID, kind)
	return w, steps, nil
}

// runSteps 按序执行步骤直到审批门或失败（内部方法）
func (o *Orchestrator) runSteps(ctx context.Context, w *state.WorkflowState, steps []step.Step, opts state.Options) (*state.WorkflowState, error) {
	for _, s := range steps {
		if o.shouldSkip(s.Name(), opts) {
			log.Printf("⏭️ [编排器] 跳过步骤: ID=%s, Step=%s", w.ID, s.Name())
			continue
		}

		next, ok := stepStatus[s.Name()]
		if !ok {
			return nil, fmt.Errorf("步骤 %s 没有对应的工作流状态", s.Name())
		}
		if err := o.advance(ctx, w, next, s.Name()); err != nil {
			return nil, err
		}

		w.BeginStep(s.Name())
		if err := o.store.Save(ctx, w); err != nil {
			return nil, fmt.Errorf("持久化步骤记录失败: %w", err)
		}

		outputRef, runErr := s.Run(ctx, w, opts)
		w.FinishStep(s.Name(), outputRef, runErr)

		if runErr != nil {
			if o.policy.ModeFor(s.Name(), opts) == FailureFatal {
				log.Printf("❌ [编排器] 步骤失败（致命）: ID=%s, Step=%s, Error=%v", w.ID, s.Name(), runErr)
				if err := o.advance(ctx, w, state.StatusFailed, s.Name()); err != nil {
					return nil, err
				}
				return w, nil
			}
			log.Printf("⚠️ [编排器] 步骤失败（降级继续）: ID=%s, Step=%s, Error=%v", w.ID, s.Name(), runErr)
		}

		if err := o.store.Save(ctx, w); err != nil {
			return nil, fmt.Errorf("持久化步骤结果失败: %w", err)
		}
	}

	// 全部步骤完成，停在审批门；不占用任何goroutine，等待外部approve/reject
	if err := o.advance(ctx, w, state.StatusWaitingApproval, ""); err != nil {
		return nil, err
	}
	log.Printf("⏸️ [编排器] 工作流等待审批: ID=%s", w.ID)
	return w, nil
}

// shouldSkip 根据options判断是否跳过步骤（内部方法）
func (o *Orchestrator) shouldSkip(stepName string, opts state.Options) bool {
	switch stepName {
	case step.StepCollect:
		return opts.SkipCollection
	case step.StepAnalyze:
		return opts.SkipAnalysis
	}
	return false
}

// advance 执行一次状态转移：校验、持久化、发布事件（内部方法）
func (o *Orchestrator) advance(ctx context.Context, w *state.WorkflowState, to state.Status, stepName string) error {
	from := w.Status
	if !state.CanTransition(from, to) {
		return fmt.Errorf("非法状态转移: %s -> %s (ID=%s)", from, to, w.ID)
	}
	w.Status = to
	w.Touch()
	if err := o.store.Save(ctx, w); err != nil {
		// 回滚内存状态，工作流停留在最后一次持久化成功的状态
		w.Status = from
		return fmt.Errorf("持久化状态转移失败: %w", err)
	}
	o.publish(w, from, to, stepName)
	return nil
}

// publish 发布状态事件，失败仅记录（内部方法）
func (o *Orchestrator) publish(w *state.WorkflowState, from, to state.Status, stepName string) {
	if o.bus == nil {
		return
	}
	ev := events.StatusEvent{
		WorkflowID: w.ID,
		Kind:       w.Kind,
		From:       from,
		To:         to,
		Step:       stepName,
		OccurredAt: time.Now().UTC(),
	}
	if err := o.bus.PublishStatus(ev); err != nil {
		log.Printf("⚠️ [编排器] 发布状态事件失败: ID=%s, Error=%v", w.ID, err)
	}
}

// Status 查询工作流状态（对外导出）
func (o *Orchestrator) Status(ctx context.Context, id string) (*state.WorkflowState, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Message: "不能为空"}
	}
	return o.store.Load(ctx, id)
}

// Approve 批准待审批的工作流（对外导出）
// 读-校验-写：仅当当前持久化状态为waiting_approval时生效，防止重复审批
func (o *Orchestrator) Approve(ctx context.Context, id string) (*state.WorkflowState, error) {
	w, err := o.loadForDecision(ctx, id, "approve")
	if err != nil {
		return nil, err
	}

	w.SetApproval(state.DecisionApproved, "")
	if err := o.advance(ctx, w, state.StatusApproved, ""); err != nil {
		return nil, err
	}

	// 审批后动作：固化已批准草稿，清理待审批文件
	if o.artifacts != nil {
		draft, err := o.artifacts.LoadPendingDraft(ctx, w.ID)
		if err != nil {
			return nil, fmt.Errorf("读取待审批草稿失败: %w", err)
		}
		if draft != "" {
			if _, err := o.artifacts.SaveApprovedDraft(ctx, w.ID, draft); err != nil {
				return nil, fmt.Errorf("保存已批准草稿失败: %w", err)
			}
			if err := o.artifacts.DeletePendingDraft(ctx, w.ID); err != nil {
				log.Printf("⚠️ [编排器] 清理待审批草稿失败: ID=%s, Error=%v", w.ID, err)
			}
		}
	}

	if err := o.advance(ctx, w, state.StatusCompleted, ""); err != nil {
		return nil, err
	}
	log.Printf("✅ [编排器] 工作流已批准: ID=%s", w.ID)
	return w, nil
}

// Reject 驳回待审批的工作流（对外导出）
// 驳回对流水线而言是正常完成：内容未获批准，原因保留在审批记录上
func (o *Orchestrator) Reject(ctx context.Context, id, reason string) (*state.WorkflowState, error) {
	w, err := o.loadForDecision(ctx, id, "reject")
	if err != nil {
		return nil, err
	}

	w.SetApproval(state.DecisionRejected, reason)
	if err := o.advance(ctx, w, state.StatusRejected, ""); err != nil {
		return nil, err
	}

	if o.artifacts != nil {
		if err := o.artifacts.DeletePendingDraft(ctx, w.ID); err != nil {
			log.Printf("⚠️ [编排器] 清理待审批草稿失败: ID=%s, Error=%v", w.ID, err)
		}
	}

	if err := o.advance(ctx, w, state.StatusCompleted, ""); err != nil {
		return nil, err
	}
	log.Printf("🚫 [编排器] 工作流已驳回: ID=%s, Reason=%s", w.ID, reason)
	return w, nil
}

// loadForDecision 加载并校验审批前置状态（内部方法）
func (o *Orchestrator) loadForDecision(ctx context.Context, id, op string) (*state.WorkflowState, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Message: "不能为空"}
	}
	w, err := o.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status != state.StatusWaitingApproval {
		return nil, &InvalidTransitionError{WorkflowID: id, Current: w.Status, Op: op}
	}
	return w, nil
}

// List 列出工作流状态（对外导出）
// 按created_at升序
func (o *Orchestrator) List(ctx context.Context, filter storage.Filter) ([]*state.WorkflowState, error) {
	items, err := o.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}
