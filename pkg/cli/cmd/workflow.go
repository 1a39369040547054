package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Eugenepoly/market-agent/pkg/api/dto"
	"github.com/Eugenepoly/market-agent/pkg/cli/marketagent"
	"github.com/Eugenepoly/market-agent/pkg/cli/output"
)

var (
	startKind        string
	startTopic       string
	skipCollection   bool
	skipAnalysis     bool
	strictCollection bool
	listStatus       string
	listKind         string
	rejectReason     string
)

// workflowCmd workflow子命令
var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "工作流管理命令",
	Long:  `管理市场情报工作流，包括启动、列出、查询状态和审批。`,
}

// workflowStartCmd 启动工作流
var workflowStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动一次工作流运行",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := marketagent.New(serverURL)
		result, err := client.StartWorkflow(dto.StartWorkflowRequest{
			Kind:             startKind,
			SkipCollection:   skipCollection,
			SkipAnalysis:     skipAnalysis,
			StrictCollection: strictCollection,
			Topic:            startTopic,
		})
		if err != nil {
			output.Error("启动失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		output.Success("工作流已启动: %s", result.ID)
		output.Info("查询进度: market-agent workflow status %s", result.ID)
		return nil
	},
}

// workflowListCmd 列出工作流
var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有工作流",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := marketagent.New(serverURL)
		result, err := client.ListWorkflows(listStatus, listKind)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无工作流")
			return nil
		}

		table := output.NewTable([]string{"ID", "KIND", "STATUS", "TOPIC", "CREATED"})
		for _, w := range result.Items {
			topic := w.Topic
			if topic == "" {
				topic = "-"
			}
			table.AddRow([]string{
				w.ID,
				w.Kind,
				w.Status,
				topic,
				w.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		return nil
	},
}

// workflowStatusCmd 查询工作流状态
var workflowStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "查询工作流状态",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := marketagent.New(serverURL)
		result, err := client.GetWorkflow(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		fmt.Printf("工作流:   %s\n", result.ID)
		fmt.Printf("类型:     %s\n", result.Kind)
		fmt.Printf("状态:     %s\n", result.Status)
		if result.Options.Topic != "" {
			fmt.Printf("主题:     %s\n", result.Options.Topic)
		}
		fmt.Printf("创建时间: %s\n", result.CreatedAt.Format("2006-01-02 15:04:05"))
		if result.Approval != nil {
			fmt.Printf("审批:     %s", result.Approval.Decision)
			if result.Approval.Reason != "" {
				fmt.Printf(" (%s)", result.Approval.Reason)
			}
			fmt.Println()
		}

		if len(result.Steps) > 0 {
			fmt.Println("\nSteps:")
			for _, s := range result.Steps {
				line := fmt.Sprintf("  - %-8s %s", s.Name, s.Status)
				if s.Duration != "" {
					line += fmt.Sprintf(" (%s)", s.Duration)
				}
				if s.Error != "" {
					line += fmt.Sprintf(" 错误: %s", s.Error)
				}
				fmt.Println(line)
			}
		}
		return nil
	},
}

// workflowDraftCmd 查看待审批草稿
var workflowDraftCmd = &cobra.Command{
	Use:   "draft <id>",
	Short: "查看待审批草稿",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := marketagent.New(serverURL)
		result, err := client.GetDraft(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		output.Info("工作流 %s 的待审批草稿:", result.WorkflowID)
		fmt.Println()
		fmt.Println(result.Draft)
		return nil
	},
}

// workflowApproveCmd 批准工作流
var workflowApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "批准待审批的草稿",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := marketagent.New(serverURL)
		result, err := client.ApproveWorkflow(args[0])
		if err != nil {
			output.Error("批准失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		output.Success("工作流已批准: %s (状态: %s)", result.ID, result.Status)
		return nil
	},
}

// workflowRejectCmd 驳回工作流
var workflowRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "驳回待审批的草稿",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := marketagent.New(serverURL)
		result, err := client.RejectWorkflow(args[0], rejectReason)
		if err != nil {
			output.Error("驳回失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		output.Success("工作流已驳回: %s (状态: %s)", result.ID, result.Status)
		return nil
	},
}

func init() {
	workflowStartCmd.Flags().StringVar(&startKind, "kind", "daily", "工作流类型")
	workflowStartCmd.Flags().StringVar(&startTopic, "topic", "", "深度分析主题")
	workflowStartCmd.Flags().BoolVar(&skipCollection, "skip-collection", false, "跳过采集步骤")
	workflowStartCmd.Flags().BoolVar(&skipAnalysis, "skip-analysis", false, "跳过深度分析步骤")
	workflowStartCmd.Flags().BoolVar(&strictCollection, "strict-collection", false, "采集失败视为致命错误")

	workflowListCmd.Flags().StringVar(&listStatus, "status", "", "按状态过滤")
	workflowListCmd.Flags().StringVar(&listKind, "kind", "", "按类型过滤")

	workflowRejectCmd.Flags().StringVar(&rejectReason, "reason", "", "驳回原因")

	workflowCmd.AddCommand(workflowStartCmd)
	workflowCmd.AddCommand(workflowListCmd)
	workflowCmd.AddCommand(workflowStatusCmd)
	workflowCmd.AddCommand(workflowDraftCmd)
	workflowCmd.AddCommand(workflowApproveCmd)
	workflowCmd.AddCommand(workflowRejectCmd)
}
