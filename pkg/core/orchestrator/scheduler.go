package orchestrator

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/Eugenepoly/market-agent/pkg/core/state"
)

// Scheduler 定时调度器（对外导出）
// 按cron表达式定时触发工作流运行
type Scheduler struct {
	cron *cron.Cron
	orc  *Orchestrator
}

// NewScheduler 创建定时调度器（对外导出）
func NewScheduler(orc *Orchestrator) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		orc:  orc,
	}
}

// RegisterWorkflow 注册定时触发的工作流（对外导出）
func (s *Scheduler) RegisterWorkflow(cronExpr, kind string, opts state.Options) error {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("Cron表达式无效: %w", err)
	}

	_, err := s.cron.AddFunc(cronExpr, func() {
		log.Printf("🕐 [定时调度器] 触发工作流: Kind=%s", kind)
		w, err := s.orc.Start(context.Background(), kind, opts)
		if err != nil {
			log.Printf("❌ [定时调度器] 工作流启动失败: Kind=%s, Error=%v", kind, err)
			return
		}
		log.Printf("✅ [定时调度器] 工作流已执行: ID=%s, Status=%s", w.ID, w.Status)
	})
	if err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}

	log.Printf("✅ [定时调度器] 已注册工作流: Kind=%s, CronExpr=%s", kind, cronExpr)
	return nil
}

// Start 启动定时调度器（对外导出）
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("✅ [定时调度器] 已启动")
}

// Stop 停止定时调度器（对外导出）
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("✅ [定时调度器] 已停止")
}
