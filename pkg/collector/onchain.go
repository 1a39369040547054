package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Eugenepoly/market-agent/pkg/core/ratelimit"
)

// OnchainCollector 链上大额转账采集器（对外导出）
// blockchain.com公开接口限流严格（约10秒1次），依赖共享限流器保护
type OnchainCollector struct {
	baseURL     string
	minBTCValue float64
	client      *http.Client
	limiter     *ratelimit.Limiter
	policy      ratelimit.Policy
}

// NewOnchainCollector 创建链上采集器（对外导出的工厂方法）
func NewOnchainCollector(baseURL string, limiter *ratelimit.Limiter, policy ratelimit.Policy) *OnchainCollector {
	return &OnchainCollector{
		baseURL:     baseURL,
		minBTCValue: 100,
		client:      newHTTPClient(),
		limiter:     limiter,
		policy:      policy,
	}
}

// Name 实现Collector接口
func (c *OnchainCollector) Name() string {
	return "onchain"
}

// Collect 采集链上大额转账
func (c *OnchainCollector) Collect(ctx context.Context) (*Result, error) {
	payload, err := ratelimit.CallWithRetry(ctx, c.limiter, c.Name(), c.policy, func(ctx context.Context) (map[string]interface{}, error) {
		req, err := newRequest(ctx, c.baseURL+"/unconfirmed-transactions?format=json")
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
	if err != nil {
		return nil, fmt.Errorf("采集链上数据失败: %w", err)
	}

	return &Result{
		Source:      "onchain",
		CollectedAt: time.Now().UTC(),
		Data: map[string]interface{}{
			"large_transactions": c.filterLarge(payload),
			"min_btc_value":      c.minBTCValue,
		},
	}, nil
}

// filterLarge 过滤出大额转账（内部方法）
func (c *OnchainCollector) filterLarge(payload map[string]interface{}) []interface{} {
	txs, ok := payload["txs"].([]interface{})
	if !ok {
		return nil
	}

	const satoshiPerBTC = 1e8
	large := make([]interface{}, 0)
	for _, raw := range txs {
		tx, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		outs, ok := tx["out"].([]interface{})
		if !ok {
			continue
		}
		var total float64
		for _, rawOut := range outs {
			if out, ok := rawOut.(map[string]interface{}); ok {
				if v, ok := out["value"].(float64); ok {
					total += v
				}
			}
		}
		if total/satoshiPerBTC >= c.minBTCValue {
			large = append(large, tx)
		}
	}
	return large
}
