// Package ratelimit 为所有出站API调用提供限流与重试保护
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter 按API名称限流的限流器（对外导出）
// 进程级单例：构造一次，经引用传入所有需要外呼的组件
type Limiter struct {
	mu        sync.Mutex
	intervals map[string]time.Duration // apiName -> 最小调用间隔
	defaults  time.Duration
	apis      map[string]*apiState
}

// apiState 单个API的限流状态（内部结构）
// 持有per-name互斥锁：同名并发Acquire串行化，等待期间不阻塞其他API
type apiState struct {
	mu   sync.Mutex
	last time.Time
}

// NewLimiter 创建Limiter实例（对外导出的工厂方法）
// defaultInterval: 未单独配置的API使用的最小调用间隔
func NewLimiter(defaultInterval time.Duration) *Limiter {
	return &Limiter{
		intervals: make(map[string]time.Duration),
		defaults:  defaultInterval,
		apis:      make(map[string]*apiState),
	}
}

// SetInterval 设置指定API的最小调用间隔（对外导出）
func (l *Limiter) SetInterval(apiName string, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intervals[apiName] = interval
}

// Interval 查询指定API的最小调用间隔（对外导出）
func (l *Limiter) Interval(apiName string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if iv, ok := l.intervals[apiName]; ok {
		return iv
	}
	return l.defaults
}

// state 获取或创建API状态（内部方法）
func (l *Limiter) state(apiName string) *apiState {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.apis[apiName]
	if !ok {
		st = &apiState{}
		l.apis[apiName] = st
	}
	return st
}

// Acquire 阻塞直到距上次对同名API的放行至少经过最小间隔（对外导出）
// 首次调用立即返回；等待期间持有per-name锁，保证同名并发调用串行放行
func (l *Limiter) Acquire(ctx context.Context, apiName string) error {
	st := l.state(apiName)
	st.mu.Lock()
	defer st.mu.Unlock()

	interval := l.Interval(apiName)
	if !st.last.IsZero() {
		wait := interval - time.Since(st.last)
		if wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	st.last = time.Now()
	return nil
}
