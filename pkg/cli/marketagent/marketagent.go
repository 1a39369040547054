// Package marketagent 提供访问服务端的HTTP API客户端
package marketagent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Eugenepoly/market-agent/pkg/api/dto"
)

// Client HTTP API客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 创建Client
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StartWorkflow 启动工作流
func (c *Client) StartWorkflow(req dto.StartWorkflowRequest) (*dto.WorkflowSummary, error) {
	var resp dto.APIResponse[dto.WorkflowSummary]
	if err := c.post("/api/v1/workflows", req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// ListWorkflows 列出工作流
func (c *Client) ListWorkflows(status, kind string) (*dto.ListResponse[dto.WorkflowSummary], error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	if kind != "" {
		params.Set("kind", kind)
	}

	path := "/api/v1/workflows"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp dto.APIResponse[dto.ListResponse[dto.WorkflowSummary]]
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// GetWorkflow 获取工作流详情
func (c *Client) GetWorkflow(id string) (*dto.WorkflowDetail, error) {
	var resp dto.APIResponse[dto.WorkflowDetail]
	if err := c.get("/api/v1/workflows/"+id, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// GetDraft 读取待审批草稿
func (c *Client) GetDraft(id string) (*dto.DraftResponse, error) {
	var resp dto.APIResponse[dto.DraftResponse]
	if err := c.get("/api/v1/workflows/"+id+"/draft", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// ApproveWorkflow 批准工作流
func (c *Client) ApproveWorkflow(id string) (*dto.WorkflowDetail, error) {
	var resp dto.APIResponse[dto.WorkflowDetail]
	if err := c.post("/api/v1/workflows/"+id+"/approve", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// RejectWorkflow 驳回工作流
func (c *Client) RejectWorkflow(id, reason string) (*dto.WorkflowDetail, error) {
	req := dto.RejectWorkflowRequest{Reason: reason}
	var resp dto.APIResponse[dto.WorkflowDetail]
	if err := c.post("/api/v1/workflows/"+id+"/reject", req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// Health 健康检查
func (c *Client) Health() (*dto.HealthResponse, error) {
	var resp dto.APIResponse[dto.HealthResponse]
	if err := c.get("/health", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return &resp.Data, nil
}

// ========== HTTP Methods ==========

func (c *Client) get(path string, result interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp, result)
}

func (c *Client) post(path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", reqBody)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp, result)
}

func (c *Client) parseResponse(resp *http.Response, result interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("解析响应失败: %w, body: %s", err, string(body))
	}

	return nil
}
