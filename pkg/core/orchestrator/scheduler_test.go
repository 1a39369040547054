package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eugenepoly/market-agent/pkg/core/state"
)

// TestSchedulerRegisterWorkflow 测试cron表达式校验
func TestSchedulerRegisterWorkflow(t *testing.T) {
	artifacts := newMemArtifacts()
	orc, _ := newTestOrchestrator(t, okSteps(artifacts), artifacts)
	s := NewScheduler(orc)

	t.Run("合法表达式注册成功", func(t *testing.T) {
		require.NoError(t, s.RegisterWorkflow("0 8 * * *", "daily", state.Options{SkipAnalysis: true}))
	})

	t.Run("非法表达式返回错误", func(t *testing.T) {
		assert.Error(t, s.RegisterWorkflow("every morning", "daily", state.Options{}))
		assert.Error(t, s.RegisterWorkflow("61 8 * * *", "daily", state.Options{}))
	})

	t.Run("启动与停止", func(t *testing.T) {
		s.Start()
		s.Stop()
	})
}
