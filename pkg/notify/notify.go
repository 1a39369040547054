// Package notify 提供审批提醒通知
package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/Eugenepoly/market-agent/pkg/config"
	"github.com/Eugenepoly/market-agent/pkg/core/events"
	"github.com/Eugenepoly/market-agent/pkg/core/state"
)

// Sender 邮件发送接口（对外导出）
// 测试中可替换net/smtp实现
type Sender interface {
	Send(to []string, subject, body string) error
}

// SMTPSender 基于net/smtp的发送实现（对外导出）
type SMTPSender struct {
	host string
	port int
	from string
}

// NewSMTPSender 创建SMTP发送器（对外导出的工厂方法）
func NewSMTPSender(host string, port int, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, from: from}
}

// Send 实现Sender接口
func (s *SMTPSender) Send(to []string, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.from, strings.Join(to, ", "), subject, body)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, to, []byte(msg))
}

// Notifier 审批提醒器（对外导出）
// 订阅状态事件，工作流停在审批门时发邮件提醒
// 通知失败只记日志，绝不影响工作流本身
type Notifier struct {
	bus    *events.Bus
	sender Sender
	to     []string
}

// New 创建提醒器（对外导出的工厂方法）
// 配置不完整时返回nil，调用方据此跳过启动
func New(bus *events.Bus, cfg config.NotifyConfig) *Notifier {
	if cfg.SMTPHost == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil
	}
	return &Notifier{
		bus:    bus,
		sender: NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.From),
		to:     cfg.To,
	}
}

// NewWithSender 用自定义发送器创建提醒器（对外导出，测试用）
func NewWithSender(bus *events.Bus, sender Sender, to []string) *Notifier {
	return &Notifier{bus: bus, sender: sender, to: to}
}

// Start 启动事件订阅循环（对外导出）
// ctx取消后循环退出
func (n *Notifier) Start(ctx context.Context) error {
	msgs, err := n.bus.SubscribeStatus(ctx)
	if err != nil {
		return fmt.Errorf("订阅状态事件失败: %w", err)
	}

	go func() {
		for msg := range msgs {
			ev, err := events.DecodeStatus(msg)
			msg.Ack()
			if err != nil {
				log.Printf("⚠️ [提醒器] 事件解析失败: %v", err)
				continue
			}
			if ev.To != state.StatusWaitingApproval {
				continue
			}
			if err := n.notify(ev); err != nil {
				log.Printf("⚠️ [提醒器] 审批提醒发送失败: workflow=%s, err=%v", ev.WorkflowID, err)
				continue
			}
			log.Printf("📧 [提醒器] 审批提醒已发送: workflow=%s", ev.WorkflowID)
		}
	}()

	log.Printf("✅ [提醒器] 审批提醒已启动: to=%v", n.to)
	return nil
}

// notify 发送单条审批提醒（内部方法）
func (n *Notifier) notify(ev events.StatusEvent) error {
	subject := fmt.Sprintf("[市场助理] 草稿待审批: %s", ev.WorkflowID)
	body := fmt.Sprintf("工作流 %s (%s) 已生成社媒草稿，等待人工审批。\n\n查看并决策:\n  market-agent workflow status %s\n  market-agent workflow approve %s\n  market-agent workflow reject %s --reason \"...\"\n",
		ev.WorkflowID, ev.Kind, ev.WorkflowID, ev.WorkflowID, ev.WorkflowID)
	return n.sender.Send(n.to, subject, body)
}
