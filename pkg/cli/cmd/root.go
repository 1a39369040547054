// Package cmd 实现CLI命令
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局变量
	serverURL  string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "market-agent",
	Short: "Market Agent CLI - 市场情报工作流命令行工具",
	Long: `Market Agent CLI 是一个用于管理市场情报工作流的命令行工具。

支持的功能：
  - 启动日报工作流（采集 -> 日报 -> 深度分析 -> 社媒草稿）
  - 查询工作流状态与步骤执行记录
  - 审批社媒草稿（批准/驳回）
  - 启动HTTP API服务

使用示例：
  # 启动一次日报工作流
  market-agent workflow start

  # 列出所有工作流
  market-agent workflow list

  # 查看待审批草稿并批准
  market-agent workflow draft <workflow-id>
  market-agent workflow approve <workflow-id>

  # 启动HTTP服务
  market-agent server start --port 8080`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Market Agent服务器地址")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}
