package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/Eugenepoly/market-agent/pkg/collector"
	"github.com/Eugenepoly/market-agent/pkg/core/state"
	"github.com/Eugenepoly/market-agent/pkg/core/step"
	"github.com/Eugenepoly/market-agent/pkg/storage"
)

// Pipeline 日报流水线的步骤集合（对外导出）
// 步骤间的中间产物按工作流ID在内存中传递；产出物落ArtifactStore，
// 停在审批门之后仅依赖ArtifactStore即可完成approve/reject
type Pipeline struct {
	llm        LLM
	aggregator *collector.Aggregator
	artifacts  storage.ArtifactStore
	runs       sync.Map // workflowID -> *runData
}

// runData 单次运行的中间产物（内部结构）
type runData struct {
	collected string
	report    string
	analysis  string
}

// NewPipeline 创建流水线（对外导出的工厂方法）
func NewPipeline(llm LLM, aggregator *collector.Aggregator, artifacts storage.ArtifactStore) *Pipeline {
	return &Pipeline{
		llm:        llm,
		aggregator: aggregator,
		artifacts:  artifacts,
	}
}

// Steps 按执行顺序返回全部步骤（对外导出）
// 固定分发表：collect -> report -> analyze -> draft
func (p *Pipeline) Steps() []step.Step {
	return []step.Step{
		step.Func{StepName: step.StepCollect, RunFunc: p.runCollect},
		step.Func{StepName: step.StepReport, RunFunc: p.runReport},
		step.Func{StepName: step.StepAnalyze, RunFunc: p.runAnalyze},
		step.Func{StepName: step.StepDraft, RunFunc: p.runDraft},
	}
}

// run 获取或创建运行中间产物（内部方法）
func (p *Pipeline) run(workflowID string) *runData {
	actual, _ := p.runs.LoadOrStore(workflowID, &runData{})
	return actual.(*runData)
}

// runCollect 采集步骤：运行全部采集器并落盘汇总数据
func (p *Pipeline) runCollect(ctx context.Context, w *state.WorkflowState, opts state.Options) (string, error) {
	agg, err := p.aggregator.Run(ctx)
	if err != nil {
		return "", err
	}

	collected, err := agg.JSON()
	if err != nil {
		return "", err
	}
	p.run(w.ID).collected = collected

	ref, err := p.artifacts.SaveCollected(ctx, w.ID, collected)
	if err != nil {
		return "", fmt.Errorf("保存采集数据失败: %w", err)
	}
	return ref, nil
}

// runReport 报告步骤：采集数据喂给LLM生成日报
// 采集缺失/失败时降级为纯检索模式
func (p *Pipeline) runReport(ctx context.Context, w *state.WorkflowState, opts state.Options) (string, error) {
	data := p.run(w.ID)

	report, err := p.llm.Generate(ctx, reportPrompt(data.collected), true)
	if err != nil {
		return "", err
	}
	data.report = report

	ref, err := p.artifacts.SaveReport(ctx, report)
	if err != nil {
		return "", fmt.Errorf("保存日报失败: %w", err)
	}
	return ref, nil
}

// runAnalyze 深度分析步骤：围绕topic或自动选题深挖
func (p *Pipeline) runAnalyze(ctx context.Context, w *state.WorkflowState, opts state.Options) (string, error) {
	data := p.run(w.ID)
	if data.report == "" {
		return "", fmt.Errorf("上下文中没有日报，报告步骤必须先执行")
	}

	analysis, err := p.llm.Generate(ctx, analysisPrompt(data.report, opts.Topic), true)
	if err != nil {
		return "", err
	}
	data.analysis = analysis

	ref, err := p.artifacts.SaveAnalysis(ctx, analysis)
	if err != nil {
		return "", fmt.Errorf("保存深度分析失败: %w", err)
	}
	return ref, nil
}

// runDraft 起草步骤：生成待审批的社媒草稿
// 流水线在此之后停在审批门，中间产物随即清理
func (p *Pipeline) runDraft(ctx context.Context, w *state.WorkflowState, opts state.Options) (string, error) {
	defer p.runs.Delete(w.ID)

	data := p.run(w.ID)
	if data.report == "" {
		return "", fmt.Errorf("上下文中没有日报，报告步骤必须先执行")
	}

	draft, err := p.llm.Generate(ctx, socialPrompt(data.report, data.analysis), false)
	if err != nil {
		return "", err
	}

	ref, err := p.artifacts.SavePendingDraft(ctx, w.ID, draft)
	if err != nil {
		return "", fmt.Errorf("保存待审批草稿失败: %w", err)
	}
	return ref, nil
}
