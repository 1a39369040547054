package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Eugenepoly/market-agent/pkg/core/ratelimit"
)

// FundFlowCollector 资金流向采集器（对外导出）
// 拉取恐慌贪婪指数与交易所资金流JSON接口
type FundFlowCollector struct {
	baseURL string
	client  *http.Client
	limiter *ratelimit.Limiter
	policy  ratelimit.Policy
}

// NewFundFlowCollector 创建资金流向采集器（对外导出的工厂方法）
func NewFundFlowCollector(baseURL string, limiter *ratelimit.Limiter, policy ratelimit.Policy) *FundFlowCollector {
	return &FundFlowCollector{
		baseURL: baseURL,
		client:  newHTTPClient(),
		limiter: limiter,
		policy:  policy,
	}
}

// Name 实现Collector接口
func (c *FundFlowCollector) Name() string {
	return "fundflow"
}

// Collect 采集资金流向数据
func (c *FundFlowCollector) Collect(ctx context.Context) (*Result, error) {
	fearGreed, err := c.fetchJSON(ctx, c.baseURL+"/fng/?limit=1")
	if err != nil {
		return nil, fmt.Errorf("采集恐慌贪婪指数失败: %w", err)
	}

	data := map[string]interface{}{
		"fear_greed": fearGreed,
	}

	// 交易所资金流为可选数据源，失败不中断
	if flows, err := c.fetchJSON(ctx, c.baseURL+"/flows/exchange"); err == nil {
		data["exchange_flows"] = flows
	} else {
		data["exchange_flows_error"] = err.Error()
	}

	return &Result{Source: "fundflow", CollectedAt: time.Now().UTC(), Data: data}, nil
}

// fetchJSON 限流重试后拉取JSON接口（内部方法）
func (c *FundFlowCollector) fetchJSON(ctx context.Context, url string) (map[string]interface{}, error) {
	return ratelimit.CallWithRetry(ctx, c.limiter, c.Name(), c.policy, func(ctx context.Context) (map[string]interface{}, error) {
		req, err := newRequest(ctx, url)
		if err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("解析JSON响应失败: %w", err)
		}
		return payload, nil
	})
}
