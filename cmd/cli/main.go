package main

import (
	"github.com/Eugenepoly/market-agent/pkg/cli/cmd"
)

// CLI工具入口：管理工作流与审批
func main() {
	cmd.Execute()
}
