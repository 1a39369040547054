// Package state 定义工作流运行状态的数据模型
package state

import (
	"time"

	"github.com/google/uuid"
)

// Status 工作流状态（对外导出）
type Status string

const (
	StatusCreated         Status = "created"
	StatusCollecting      Status = "collecting"
	StatusReporting       Status = "reporting"
	StatusAnalyzing       Status = "analyzing"
	StatusDrafting        Status = "drafting"
	StatusWaitingApproval Status = "waiting_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

// validTransitions 状态机转移表：仅允许向前转移
var validTransitions = map[Status][]Status{
	StatusCreated:         {StatusCollecting, StatusReporting, StatusFailed},
	StatusCollecting:      {StatusReporting, StatusFailed},
	StatusReporting:       {StatusAnalyzing, StatusDrafting, StatusFailed},
	StatusAnalyzing:       {StatusDrafting, StatusFailed},
	StatusDrafting:        {StatusWaitingApproval, StatusFailed},
	StatusWaitingApproval: {StatusApproved, StatusRejected, StatusFailed},
	StatusApproved:        {StatusCompleted, StatusFailed},
	StatusRejected:        {StatusCompleted, StatusFailed},
}

// CanTransition 校验状态转移是否合法（对外导出）
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal 判断是否为终态（对外导出）
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StepStatus 步骤执行状态（对外导出）
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepSuccess StepStatus = "success"
	StepFailed  StepStatus = "failed"
)

// StepRecord 单个步骤的执行记录
type StepRecord struct {
	Name       string     `json:"name"`
	Status     StepStatus `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	OutputRef  string     `json:"output_ref,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Options 工作流运行配置快照（创建后不可变）
type Options struct {
	SkipCollection   bool   `json:"skip_collection"`
	SkipAnalysis     bool   `json:"skip_analysis"`
	StrictCollection bool   `json:"strict_collection"`
	Topic            string `json:"topic,omitempty"`
}

// Decision 审批决定（对外导出）
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Approval 审批记录，仅在离开waiting_approval时设置一次
type Approval struct {
	Decision  Decision  `json:"decision"`
	Reason    string    `json:"reason,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// WorkflowState 一次工作流运行的持久化记录（对外导出）
// 仅由Orchestrator修改；Step只返回输出/错误
type WorkflowState struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Status    Status        `json:"status"`
	Steps     []StepRecord  `json:"steps"`
	Options   Options       `json:"options"`
	Approval  *Approval     `json:"approval,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// New 创建WorkflowState（对外导出的工厂方法）
func New(kind string, opts Options) *WorkflowState {
	now := time.Now().UTC()
	return &WorkflowState{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    StatusCreated,
		Steps:     make([]StepRecord, 0),
		Options:   opts,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch 刷新UpdatedAt时间戳
func (w *WorkflowState) Touch() {
	now := time.Now().UTC()
	if now.After(w.UpdatedAt) {
		w.UpdatedAt = now
	}
}

// BeginStep 追加一条步骤记录并标记为运行中
func (w *WorkflowState) BeginStep(name string) *StepRecord {
	now := time.Now().UTC()
	w.Steps = append(w.Steps, StepRecord{
		Name:      name,
		Status:    StepRunning,
		StartedAt: &now,
	})
	w.Touch()
	return &w.Steps[len(w.Steps)-1]
}

// FinishStep 就地更新当前步骤的完成结果
func (w *WorkflowState) FinishStep(name, outputRef string, stepErr error) {
	for i := len(w.Steps) - 1; i >= 0; i-- {
		if w.Steps[i].Name != name {
			continue
		}
		now := time.Now().UTC()
		w.Steps[i].FinishedAt = &now
		if stepErr != nil {
			w.Steps[i].Status = StepFailed
			w.Steps[i].Error = stepErr.Error()
		} else {
			w.Steps[i].Status = StepSuccess
			w.Steps[i].OutputRef = outputRef
		}
		break
	}
	w.Touch()
}

// StepByName 查找指定名称的步骤记录
func (w *WorkflowState) StepByName(name string) *StepRecord {
	for i := range w.Steps {
		if w.Steps[i].Name == name {
			return &w.Steps[i]
		}
	}
	return nil
}

// StepOutput 获取指定步骤的输出引用
func (w *WorkflowState) StepOutput(name string) string {
	if rec := w.StepByName(name); rec != nil {
		return rec.OutputRef
	}
	return ""
}

// SetApproval 记录审批决定（只允许设置一次）
func (w *WorkflowState) SetApproval(decision Decision, reason string) {
	if w.Approval != nil {
		return
	}
	w.Approval = &Approval{
		Decision:  decision,
		Reason:    reason,
		DecidedAt: time.Now().UTC(),
	}
	w.Touch()
}
