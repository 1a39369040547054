package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Aggregate 所有采集器的汇总结果（对外导出）
type Aggregate struct {
	CollectedAt time.Time          `json:"collected_at"`
	Sources     map[string]*Result `json:"sources"`
	Errors      map[string]string  `json:"errors,omitempty"`
}

// Aggregator 数据汇总器（对外导出）
// 顺序运行全部采集器，单个失败只记录不中断
type Aggregator struct {
	collectors []Collector
}

// NewAggregator 创建汇总器（对外导出的工厂方法）
func NewAggregator(collectors ...Collector) *Aggregator {
	return &Aggregator{collectors: collectors}
}

// Run 运行所有采集器并汇总
// 全部失败时返回错误
func (a *Aggregator) Run(ctx context.Context) (*Aggregate, error) {
	agg := &Aggregate{
		CollectedAt: time.Now().UTC(),
		Sources:     make(map[string]*Result),
		Errors:      make(map[string]string),
	}

	for _, c := range a.collectors {
		result, err := c.Collect(ctx)
		if err != nil {
			agg.Errors[c.Name()] = err.Error()
			continue
		}
		agg.Sources[c.Name()] = result
	}

	if len(agg.Sources) == 0 && len(agg.Errors) > 0 {
		return nil, fmt.Errorf("全部采集器失败: %v", agg.Errors)
	}
	if len(agg.Errors) == 0 {
		agg.Errors = nil
	}
	return agg, nil
}

// JSON 汇总结果序列化为JSON文本（对外导出）
// 作为报告生成的输入
func (a *Aggregate) JSON() (string, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化采集汇总失败: %w", err)
	}
	return string(data), nil
}
