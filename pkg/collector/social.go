package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Eugenepoly/market-agent/pkg/core/ratelimit"
)

// SocialCollector VIP社媒帖子采集器（对外导出）
// 抓取公开页面并解析帖子正文
type SocialCollector struct {
	baseURL  string
	accounts []string
	maxPosts int
	client   *http.Client
	limiter  *ratelimit.Limiter
	policy   ratelimit.Policy
}

// NewSocialCollector 创建社媒采集器（对外导出的工厂方法）
func NewSocialCollector(baseURL string, accounts []string, limiter *ratelimit.Limiter, policy ratelimit.Policy) *SocialCollector {
	return &SocialCollector{
		baseURL:  strings.TrimRight(baseURL, "/"),
		accounts: accounts,
		maxPosts: 10,
		client:   newHTTPClient(),
		limiter:  limiter,
		policy:   policy,
	}
}

// Name 实现Collector接口
func (c *SocialCollector) Name() string {
	return "social"
}

// Collect 采集所有监控账号的最新帖子
// 单个账号失败不中断整体采集，错误记入结果
func (c *SocialCollector) Collect(ctx context.Context) (*Result, error) {
	posts := make([]map[string]interface{}, 0)
	errs := make([]string, 0)

	for _, handle := range c.accounts {
		accountPosts, err := c.collectAccount(ctx, handle)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", handle, err))
			continue
		}
		posts = append(posts, accountPosts...)
	}

	if len(posts) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("所有账号采集失败: %s", strings.Join(errs, "; "))
	}

	data := map[string]interface{}{
		"posts": posts,
	}
	if len(errs) > 0 {
		data["errors"] = errs
	}
	return &Result{Source: "social", CollectedAt: time.Now().UTC(), Data: data}, nil
}

// collectAccount 采集单个账号的帖子（内部方法）
func (c *SocialCollector) collectAccount(ctx context.Context, handle string) ([]map[string]interface{}, error) {
	url := fmt.Sprintf("%s/@%s", c.baseURL, handle)

	doc, err := ratelimit.CallWithRetry(ctx, c.limiter, c.Name(), c.policy, func(ctx context.Context) (*goquery.Document, error) {
		req, err := newRequest(ctx, url)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/html")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return goquery.NewDocumentFromReader(resp.Body)
	})
	if err != nil {
		return nil, err
	}

	posts := make([]map[string]interface{}, 0, c.maxPosts)
	doc.Find("article .status__content, article p").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= c.maxPosts {
			return false
		}
		content := strings.TrimSpace(sel.Text())
		if content == "" {
			return true
		}
		posts = append(posts, map[string]interface{}{
			"handle":  handle,
			"content": content,
		})
		return true
	})
	return posts, nil
}
