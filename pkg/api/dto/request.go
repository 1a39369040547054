package dto

// StartWorkflowRequest 启动工作流请求
type StartWorkflowRequest struct {
	Kind             string `json:"kind"`
	SkipCollection   bool   `json:"skip_collection"`
	SkipAnalysis     bool   `json:"skip_analysis"`
	StrictCollection bool   `json:"strict_collection"`
	Topic            string `json:"topic"`
}

// RejectWorkflowRequest 驳回工作流请求
type RejectWorkflowRequest struct {
	Reason string `json:"reason"`
}

// ListQueryRequest 工作流列表查询参数
type ListQueryRequest struct {
	Status string `form:"status"`
	Kind   string `form:"kind"`
}
