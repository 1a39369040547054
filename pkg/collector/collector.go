// Package collector 采集市场相关信号（社媒帖子/资金流向/链上数据）
package collector

import (
	"context"
	"net/http"
	"time"
)

// Result 一次采集的结构化结果（对外导出）
// 编排层不解释Data内容，仅透传给报告生成
type Result struct {
	Source      string                 `json:"source"`
	CollectedAt time.Time              `json:"collected_at"`
	Data        map[string]interface{} `json:"data"`
}

// Collector 数据采集器统一接口（对外导出）
type Collector interface {
	// Name 采集器名称（同时作为限流API名）
	Name() string
	// Collect 执行采集
	Collect(ctx context.Context) (*Result, error)
}

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// newHTTPClient 创建采集用HTTP客户端（内部函数）
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// newRequest 创建带标准请求头的GET请求（内部函数）
func newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
