package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eugenepoly/market-agent/pkg/config"
	"github.com/Eugenepoly/market-agent/pkg/core/events"
	"github.com/Eugenepoly/market-agent/pkg/core/state"
)

// recordingSender 记录发送调用的桩
type recordingSender struct {
	mu       sync.Mutex
	subjects []string
	bodies   []string
}

func (s *recordingSender) Send(to []string, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = append(s.subjects, subject)
	s.bodies = append(s.bodies, body)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subjects)
}

// TestNotifierConfig 测试配置不完整时不启用
func TestNotifierConfig(t *testing.T) {
	bus := events.NewBus(false)
	defer bus.Close()

	assert.Nil(t, New(bus, config.NotifyConfig{}))
	assert.Nil(t, New(bus, config.NotifyConfig{SMTPHost: "smtp.example.com"}))
	assert.Nil(t, New(bus, config.NotifyConfig{SMTPHost: "smtp.example.com", From: "bot@example.com"}))

	n := New(bus, config.NotifyConfig{
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		From:     "bot@example.com",
		To:       []string{"trader@example.com"},
	})
	assert.NotNil(t, n)
}

// TestNotifierSendsOnWaitingApproval 测试审批门事件触发提醒
func TestNotifierSendsOnWaitingApproval(t *testing.T) {
	bus := events.NewBus(false)
	defer bus.Close()

	sender := &recordingSender{}
	n := NewWithSender(bus, sender, []string{"trader@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, n.Start(ctx))

	require.NoError(t, bus.PublishStatus(events.StatusEvent{
		WorkflowID: "wf-1",
		Kind:       "daily",
		From:       state.StatusDrafting,
		To:         state.StatusWaitingApproval,
		OccurredAt: time.Now().UTC(),
	}))

	require.Eventually(t, func() bool { return sender.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Contains(t, sender.subjects[0], "wf-1")
	assert.Contains(t, sender.bodies[0], "workflow approve wf-1")
}

// TestNotifierIgnoresOtherTransitions 测试非审批门事件不触发提醒
func TestNotifierIgnoresOtherTransitions(t *testing.T) {
	bus := events.NewBus(false)
	defer bus.Close()

	sender := &recordingSender{}
	n := NewWithSender(bus, sender, []string{"trader@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, n.Start(ctx))

	for _, to := range []state.Status{state.StatusCollecting, state.StatusReporting, state.StatusCompleted, state.StatusFailed} {
		require.NoError(t, bus.PublishStatus(events.StatusEvent{
			WorkflowID: "wf-1",
			To:         to,
			OccurredAt: time.Now().UTC(),
		}))
	}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, sender.count())
}
