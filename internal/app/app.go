// Package app 负责按配置组装全部组件
package app

import (
	"context"
	"fmt"
	"log"

	appstorage "github.com/Eugenepoly/market-agent/internal/storage"
	"github.com/Eugenepoly/market-agent/pkg/agent"
	"github.com/Eugenepoly/market-agent/pkg/collector"
	"github.com/Eugenepoly/market-agent/pkg/config"
	"github.com/Eugenepoly/market-agent/pkg/core/events"
	"github.com/Eugenepoly/market-agent/pkg/core/orchestrator"
	"github.com/Eugenepoly/market-agent/pkg/core/ratelimit"
	"github.com/Eugenepoly/market-agent/pkg/core/state"
	"github.com/Eugenepoly/market-agent/pkg/core/step"
	"github.com/Eugenepoly/market-agent/pkg/notify"
)

// KindDaily 日报工作流类型（对外导出）
const KindDaily = "daily"

// App 应用实例：配置、存储、编排器与周边组件的聚合（对外导出）
type App struct {
	Config       *config.Config
	Stores       *appstorage.Stores
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *orchestrator.Scheduler
	Bus          *events.Bus
	Notifier     *notify.Notifier
}

// New 按配置组装应用（对外导出的工厂方法）
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	stores, err := appstorage.NewStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 进程级限流器：所有出站调用共享
	limiter := ratelimit.NewLimiter(cfg.RateLimit.DefaultInterval.Std())
	for name, interval := range cfg.RateLimit.APIs {
		limiter.SetInterval(name, interval.Std())
	}
	policy := ratelimit.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay.Std(),
		MaxDelay:    cfg.Retry.MaxDelay.Std(),
		Jitter:      ratelimit.DefaultJitter,
		Retryable:   ratelimit.DefaultRetryable,
	}

	llm, err := agent.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, limiter, policy)
	if err != nil {
		return nil, fmt.Errorf("初始化LLM客户端失败: %w", err)
	}

	// 未配置地址的采集器不参与采集
	var collectors []collector.Collector
	if cfg.Collectors.SocialURL != "" && len(cfg.Collectors.SocialAccounts) > 0 {
		collectors = append(collectors, collector.NewSocialCollector(cfg.Collectors.SocialURL, cfg.Collectors.SocialAccounts, limiter, policy))
	}
	if cfg.Collectors.FundFlowURL != "" {
		collectors = append(collectors, collector.NewFundFlowCollector(cfg.Collectors.FundFlowURL, limiter, policy))
	}
	if cfg.Collectors.OnchainURL != "" {
		collectors = append(collectors, collector.NewOnchainCollector(cfg.Collectors.OnchainURL, limiter, policy))
	}

	pipeline := agent.NewPipeline(llm, collector.NewAggregator(collectors...), stores.Artifacts)

	registry := step.NewRegistry()
	registry.Register(KindDaily, pipeline.Steps())

	bus := events.NewBus(false)
	orch := orchestrator.New(stores.State, stores.Artifacts, registry, orchestrator.DefaultFailurePolicy(), bus)

	a := &App{
		Config:       cfg,
		Stores:       stores,
		Orchestrator: orch,
		Scheduler:    orchestrator.NewScheduler(orch),
		Bus:          bus,
		Notifier:     notify.New(bus, cfg.Notify),
	}

	if cfg.Schedule.Enabled {
		opts := state.Options{
			SkipAnalysis:     cfg.Schedule.SkipAnalysis,
			StrictCollection: cfg.Workflow.StrictCollection,
		}
		if err := a.Scheduler.RegisterWorkflow(cfg.Schedule.Cron, KindDaily, opts); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Start 启动后台组件（对外导出）
// 提醒器先于调度器启动，保证定时运行的审批事件不丢
func (a *App) Start(ctx context.Context) error {
	if a.Notifier != nil {
		if err := a.Notifier.Start(ctx); err != nil {
			return err
		}
	}
	if a.Config.Schedule.Enabled {
		a.Scheduler.Start()
	}
	return nil
}

// Shutdown 停止后台组件并释放资源（对外导出）
func (a *App) Shutdown() {
	a.Scheduler.Stop()
	if err := a.Bus.Close(); err != nil {
		log.Printf("⚠️ [应用] 关闭事件总线失败: %v", err)
	}
	if err := a.Stores.Close(); err != nil {
		log.Printf("⚠️ [应用] 关闭存储失败: %v", err)
	}
}
