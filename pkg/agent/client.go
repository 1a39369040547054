// Package agent 提供LLM客户端与流水线四个步骤的实现
package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/Eugenepoly/market-agent/pkg/core/ratelimit"
)

// LLM 文本生成接口（对外导出）
// 测试中可用桩实现替换Gemini
type LLM interface {
	// Generate 生成文本，useSearch启用联网搜索工具
	Generate(ctx context.Context, prompt string, useSearch bool) (string, error)
}

// GeminiClient 共享Gemini客户端（对外导出）
// 所有调用经过限流器与重试保护
type GeminiClient struct {
	client  *genai.Client
	model   string
	limiter *ratelimit.Limiter
	policy  ratelimit.Policy
}

// APINameGemini Gemini在限流器中的API名称（对外导出）
const APINameGemini = "gemini"

// NewGeminiClient 创建Gemini客户端（对外导出的工厂方法）
func NewGeminiClient(ctx context.Context, apiKey, model string, limiter *ratelimit.Limiter, policy ratelimit.Policy) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API Key未配置")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建Gemini客户端失败: %w", err)
	}
	return &GeminiClient{client: client, model: model, limiter: limiter, policy: policy}, nil
}

// Generate 实现LLM接口
func (c *GeminiClient) Generate(ctx context.Context, prompt string, useSearch bool) (string, error) {
	var genConfig *genai.GenerateContentConfig
	if useSearch {
		genConfig = &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
		}
	}

	return ratelimit.CallWithRetry(ctx, c.limiter, APINameGemini, c.policy, func(ctx context.Context) (string, error) {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genConfig)
		if err != nil {
			return "", fmt.Errorf("Gemini调用失败: %w", err)
		}
		text := resp.Text()
		if text == "" {
			return "", fmt.Errorf("Gemini返回空响应")
		}
		return text, nil
	})
}
