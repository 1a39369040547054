package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// 重试默认参数（与Gemini限额实测值对齐）
const (
	DefaultMaxAttempts = 4 // 1次调用 + 3次重试
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxDelay    = 60 * time.Second
	DefaultJitter      = 0.5
)

// Policy 重试策略（对外导出）
// Retryable为空时使用DefaultRetryable
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
	Retryable   func(error) bool
}

// DefaultPolicy 默认重试策略（对外导出）
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Jitter:      DefaultJitter,
		Retryable:   DefaultRetryable,
	}
}

// RetriesExhaustedError 重试次数耗尽（对外导出）
// 携带最后一次底层错误
type RetriesExhaustedError struct {
	APIName  string
	Attempts int
	Last     error
}

// Error 实现error接口
func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("API %s 重试%d次后仍失败: %v", e.APIName, e.Attempts, e.Last)
}

// Unwrap 暴露底层错误
func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}

// DefaultRetryable 默认的可重试错误判定（对外导出）
// 匹配限流/服务过载/瞬时网络错误的常见特征
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	patterns := []string{
		"429", "503", "500",
		"resource_exhausted",
		"unavailable",
		"overloaded",
		"rate limit",
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// CallWithRetry 经限流器放行后执行操作，瞬时失败按指数退避重试（对外导出）
// 不可重试的错误立即返回；重试耗尽返回*RetriesExhaustedError
func CallWithRetry[T any](ctx context.Context, l *Limiter, apiName string, policy Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultBaseDelay
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = DefaultMaxDelay
	}
	retryable := policy.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := l.Acquire(ctx, apiName); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) {
			return zero, err
		}
		if attempt == policy.MaxAttempts-1 {
			break
		}

		// 指数退避 + 随机抖动
		delay := policy.BaseDelay * (1 << attempt)
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
		delay += time.Duration(float64(delay) * policy.Jitter * rand.Float64())

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, &RetriesExhaustedError{APIName: apiName, Attempts: policy.MaxAttempts, Last: lastErr}
}
