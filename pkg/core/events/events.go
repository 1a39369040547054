// Package events 提供工作流状态事件总线
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/Eugenepoly/market-agent/pkg/core/state"
)

// TopicWorkflowStatus 工作流状态转移事件主题（对外导出）
const TopicWorkflowStatus = "workflow.status"

// StatusEvent 状态转移事件载荷（对外导出）
type StatusEvent struct {
	WorkflowID string       `json:"workflow_id"`
	Kind       string       `json:"kind"`
	From       state.Status `json:"from"`
	To         state.Status `json:"to"`
	Step       string       `json:"step,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Bus 进程内事件总线（对外导出）
// 基于watermill gochannel实现，发布不阻塞工作流执行
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus 创建事件总线（对外导出的工厂方法）
func NewBus(debug bool) *Bus {
	logger := watermill.NewStdLogger(debug, false)
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, logger),
	}
}

// PublishStatus 发布状态转移事件（对外导出）
func (b *Bus) PublishStatus(ev StatusEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化状态事件失败: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicWorkflowStatus, msg); err != nil {
		return fmt.Errorf("发布状态事件失败: %w", err)
	}
	return nil
}

// SubscribeStatus 订阅状态转移事件（对外导出）
func (b *Bus) SubscribeStatus(ctx context.Context) (<-chan *message.Message, error) {
	msgs, err := b.pubsub.Subscribe(ctx, TopicWorkflowStatus)
	if err != nil {
		return nil, fmt.Errorf("订阅状态事件失败: %w", err)
	}
	return msgs, nil
}

// DecodeStatus 解析状态事件消息（对外导出）
func DecodeStatus(msg *message.Message) (StatusEvent, error) {
	var ev StatusEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ev, fmt.Errorf("解析状态事件失败: %w", err)
	}
	return ev, nil
}

// Close 关闭事件总线（对外导出）
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
