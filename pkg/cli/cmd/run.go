package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Eugenepoly/market-agent/internal/app"
	"github.com/Eugenepoly/market-agent/pkg/cli/output"
	"github.com/Eugenepoly/market-agent/pkg/config"
	"github.com/Eugenepoly/market-agent/pkg/core/state"
)

var runConfigPath string

// workflowRunCmd 本地同步执行工作流（不经过服务端）
// 运行到审批门为止，之后用approve/reject完成审批
var workflowRunCmd = &cobra.Command{
	Use:   "run",
	Short: "在本地同步执行一次工作流",
	Long: `在本地进程内同步执行一次工作流，不依赖HTTP服务。

执行到审批门（waiting_approval）后退出，之后启动服务并用
workflow approve/reject 完成审批，或直接再次查看本地状态目录。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(runConfigPath)
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}

		ctx := context.Background()
		application, err := app.New(ctx, cfg)
		if err != nil {
			output.Error("初始化失败: %v", err)
			return err
		}
		defer application.Shutdown()

		opts := state.Options{
			SkipCollection:   skipCollection,
			SkipAnalysis:     skipAnalysis,
			StrictCollection: strictCollection || cfg.Workflow.StrictCollection,
			Topic:            startTopic,
		}

		w, err := application.Orchestrator.Start(ctx, startKind, opts)
		if err != nil {
			output.Error("执行失败: %v", err)
			return err
		}

		if w.Status == state.StatusFailed {
			output.Error("工作流执行失败: %s", w.ID)
			for _, s := range w.Steps {
				if s.Error != "" {
					output.Warning("步骤 %s: %s", s.Name, s.Error)
				}
			}
			return nil
		}

		output.Success("工作流已执行到审批门: %s", w.ID)
		output.Info("查看草稿: market-agent workflow draft %s", w.ID)
		return nil
	},
}

func init() {
	workflowRunCmd.Flags().StringVar(&startKind, "kind", "daily", "工作流类型")
	workflowRunCmd.Flags().StringVar(&startTopic, "topic", "", "深度分析主题")
	workflowRunCmd.Flags().BoolVar(&skipCollection, "skip-collection", false, "跳过采集步骤")
	workflowRunCmd.Flags().BoolVar(&skipAnalysis, "skip-analysis", false, "跳过深度分析步骤")
	workflowRunCmd.Flags().BoolVar(&strictCollection, "strict-collection", false, "采集失败视为致命错误")
	workflowRunCmd.Flags().StringVarP(&runConfigPath, "config", "c", "./configs/config.yaml", "配置文件路径")

	workflowCmd.AddCommand(workflowRunCmd)
}
