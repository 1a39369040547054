package dto

import "time"

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// WorkflowSummary 工作流摘要信息
type WorkflowSummary struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Topic     string    `json:"topic,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkflowDetail 工作流详细信息
type WorkflowDetail struct {
	WorkflowSummary
	Options  OptionsInfo   `json:"options"`
	Steps    []StepInfo    `json:"steps"`
	Approval *ApprovalInfo `json:"approval,omitempty"`
}

// OptionsInfo 运行配置信息
type OptionsInfo struct {
	SkipCollection   bool   `json:"skip_collection"`
	SkipAnalysis     bool   `json:"skip_analysis"`
	StrictCollection bool   `json:"strict_collection"`
	Topic            string `json:"topic,omitempty"`
}

// StepInfo 步骤执行信息
type StepInfo struct {
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Duration   string     `json:"duration,omitempty"`
	OutputRef  string     `json:"output_ref,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// ApprovalInfo 审批记录信息
type ApprovalInfo struct {
	Decision  string    `json:"decision"`
	Reason    string    `json:"reason,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

// DraftResponse 待审批草稿响应
type DraftResponse struct {
	WorkflowID string `json:"workflow_id"`
	Draft      string `json:"draft"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}
