package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Eugenepoly/market-agent/pkg/api/dto"
	"github.com/Eugenepoly/market-agent/pkg/core/orchestrator"
	"github.com/Eugenepoly/market-agent/pkg/core/state"
	"github.com/Eugenepoly/market-agent/pkg/storage"
)

// WorkflowHandler 工作流API处理器
type WorkflowHandler struct {
	orch      *orchestrator.Orchestrator
	artifacts storage.ArtifactStore
}

// NewWorkflowHandler 创建WorkflowHandler
func NewWorkflowHandler(orch *orchestrator.Orchestrator, artifacts storage.ArtifactStore) *WorkflowHandler {
	return &WorkflowHandler{orch: orch, artifacts: artifacts}
}

// Start 启动工作流
// POST /api/v1/workflows
func (h *WorkflowHandler) Start(c *gin.Context) {
	var req dto.StartWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}
	if req.Kind == "" {
		req.Kind = "daily"
	}

	opts := state.Options{
		SkipCollection:   req.SkipCollection,
		SkipAnalysis:     req.SkipAnalysis,
		StrictCollection: req.StrictCollection,
		Topic:            req.Topic,
	}

	w, err := h.orch.StartAsync(c.Request.Context(), req.Kind, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(toSummary(w)))
}

// List 列出工作流
// GET /api/v1/workflows
func (h *WorkflowHandler) List(c *gin.Context) {
	var query dto.ListQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("查询参数错误: %v", err)))
		return
	}

	items, err := h.orch.List(c.Request.Context(), storage.Filter{
		Status: state.Status(query.Status),
		Kind:   query.Kind,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]dto.WorkflowSummary, 0, len(items))
	for _, w := range items {
		summaries = append(summaries, toSummary(w))
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.WorkflowSummary]{
		Total: len(summaries),
		Items: summaries,
	}))
}

// Get 获取工作流详情
// GET /api/v1/workflows/:id
func (h *WorkflowHandler) Get(c *gin.Context) {
	w, err := h.orch.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(toDetail(w)))
}

// Draft 读取待审批草稿
// GET /api/v1/workflows/:id/draft
func (h *WorkflowHandler) Draft(c *gin.Context) {
	id := c.Param("id")

	// 先确认工作流存在，避免草稿缺失与工作流不存在混为一谈
	if _, err := h.orch.Status(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	draft, err := h.artifacts.LoadPendingDraft(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if draft == "" {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "没有待审批草稿"))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.DraftResponse{
		WorkflowID: id,
		Draft:      draft,
	}))
}

// Approve 批准工作流
// POST /api/v1/workflows/:id/approve
func (h *WorkflowHandler) Approve(c *gin.Context) {
	w, err := h.orch.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(toDetail(w)))
}

// Reject 驳回工作流
// POST /api/v1/workflows/:id/reject
func (h *WorkflowHandler) Reject(c *gin.Context) {
	var req dto.RejectWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}

	w, err := h.orch.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(toDetail(w)))
}

// respondError 按错误类型映射HTTP状态码
func respondError(c *gin.Context, err error) {
	var valErr *orchestrator.ValidationError
	switch {
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, valErr.Error()))
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "工作流不存在"))
	case errors.Is(err, orchestrator.ErrInvalidTransition):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(409, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
	}
}

// toSummary 转换为摘要DTO
func toSummary(w *state.WorkflowState) dto.WorkflowSummary {
	return dto.WorkflowSummary{
		ID:        w.ID,
		Kind:      w.Kind,
		Status:    string(w.Status),
		Topic:     w.Options.Topic,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// toDetail 转换为详情DTO
func toDetail(w *state.WorkflowState) dto.WorkflowDetail {
	steps := make([]dto.StepInfo, 0, len(w.Steps))
	for _, rec := range w.Steps {
		info := dto.StepInfo{
			Name:       rec.Name,
			Status:     string(rec.Status),
			StartedAt:  rec.StartedAt,
			FinishedAt: rec.FinishedAt,
			OutputRef:  rec.OutputRef,
			Error:      rec.Error,
		}
		if rec.StartedAt != nil && rec.FinishedAt != nil {
			info.Duration = formatDuration(rec.FinishedAt.Sub(*rec.StartedAt))
		}
		steps = append(steps, info)
	}

	detail := dto.WorkflowDetail{
		WorkflowSummary: toSummary(w),
		Options: dto.OptionsInfo{
			SkipCollection:   w.Options.SkipCollection,
			SkipAnalysis:     w.Options.SkipAnalysis,
			StrictCollection: w.Options.StrictCollection,
			Topic:            w.Options.Topic,
		},
		Steps: steps,
	}
	if w.Approval != nil {
		detail.Approval = &dto.ApprovalInfo{
			Decision:  string(w.Approval.Decision),
			Reason:    w.Approval.Reason,
			DecidedAt: w.Approval.DecidedAt,
		}
	}
	return detail
}

// formatDuration 格式化时长
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
