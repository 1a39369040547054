package agent

import (
	"fmt"
	"time"
)

// reportPrompt 日报生成提示词（内部函数）
func reportPrompt(collected string) string {
	date := time.Now().Format("2006-01-02")
	prompt := fmt.Sprintf(`### 角色：全球宏观策略分析师

### 任务
检索过去24小时全球市场中波动率或成交量最异常的3个板块，识别当前市场情绪的"风暴眼"资产，
结合核心仓位（NVDA, GOOGL, TSLA, FCX, GLD, BTC）输出结构化研报：
1. 预期差分析：区分"已被定价的噪音"与"未被定价的信号"
2. 跨资产连锁反应：推演异动资产对其他资产的冲击
3. 交易心理分析：判断当前是"一致性预期"还是"分歧点"

### 输出格式
# 每日交易者逻辑更新 [%s]
## 📊 今日市场焦点
## 🔍 核心资产增量跟踪
## 🧭 操作思路`, date)

	if collected != "" {
		prompt += fmt.Sprintf("\n\n### 今日采集数据（VIP社媒/资金流向/链上动向）\n```json\n%s\n```", collected)
	}
	return prompt
}

// analysisPrompt 深度分析提示词（内部函数）
func analysisPrompt(report, topic string) string {
	prompt := "### 角色：深度研究分析师\n\n"
	if topic != "" {
		prompt += fmt.Sprintf("### 指定分析主题\n**%s**\n\n请围绕这个主题进行全面深入的分析。\n\n", topic)
	} else {
		prompt += "### 任务\n从下面的市场报告中提取最值得深挖的一个主题，进行全面深入的分析。\n\n"
	}
	prompt += fmt.Sprintf("### 市场报告\n```\n%s\n```", report)
	return prompt
}

// socialPrompt 社媒草稿提示词（内部函数）
func socialPrompt(report, analysis string) string {
	prompt := fmt.Sprintf(`### 角色：金融内容创作者

### 任务
基于以下内容起草一条X/Twitter帖子：观点鲜明、不超过280字符、不使用投资建议措辞。

### 市场报告
%s`, report)

	if analysis != "" {
		prompt += fmt.Sprintf("\n\n### 深度分析\n```\n%s\n```", analysis)
	}
	return prompt
}
