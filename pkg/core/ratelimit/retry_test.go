package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastPolicy 测试用的快速重试策略
func fastPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Retryable:   DefaultRetryable,
	}
}

// TestCallWithRetry 测试重试逻辑
func TestCallWithRetry(t *testing.T) {
	t.Run("首次成功不重试", func(t *testing.T) {
		l := NewLimiter(0)
		calls := 0

		result, err := CallWithRetry(context.Background(), l, "gemini", fastPolicy(4), func(ctx context.Context) (string, error) {
			calls++
			return "ok", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 1, calls)
	})

	t.Run("瞬时失败后重试成功", func(t *testing.T) {
		l := NewLimiter(0)
		calls := 0

		result, err := CallWithRetry(context.Background(), l, "gemini", fastPolicy(4), func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("429 rate limit exceeded")
			}
			return "ok", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("不可重试错误立即返回", func(t *testing.T) {
		l := NewLimiter(0)
		calls := 0
		permErr := errors.New("invalid api key")

		_, err := CallWithRetry(context.Background(), l, "gemini", fastPolicy(4), func(ctx context.Context) (string, error) {
			calls++
			return "", permErr
		})

		assert.ErrorIs(t, err, permErr)
		assert.Equal(t, 1, calls)

		var exhausted *RetriesExhaustedError
		assert.False(t, errors.As(err, &exhausted))
	})

	t.Run("重试耗尽返回RetriesExhaustedError", func(t *testing.T) {
		l := NewLimiter(0)
		calls := 0
		lastErr := errors.New("503 service unavailable")

		_, err := CallWithRetry(context.Background(), l, "gemini", fastPolicy(3), func(ctx context.Context) (string, error) {
			calls++
			return "", lastErr
		})

		assert.Equal(t, 3, calls)

		var exhausted *RetriesExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, "gemini", exhausted.APIName)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.ErrorIs(t, err, lastErr)
	})

	t.Run("自定义Retryable判定", func(t *testing.T) {
		l := NewLimiter(0)
		policy := fastPolicy(4)
		policy.Retryable = func(err error) bool { return false }

		calls := 0
		_, err := CallWithRetry(context.Background(), l, "gemini", policy, func(ctx context.Context) (string, error) {
			calls++
			return "", errors.New("429 rate limit")
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("退避等待期间ctx取消", func(t *testing.T) {
		l := NewLimiter(0)
		policy := Policy{
			MaxAttempts: 4,
			BaseDelay:   time.Minute,
			MaxDelay:    time.Minute,
			Retryable:   DefaultRetryable,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := CallWithRetry(ctx, l, "gemini", policy, func(ctx context.Context) (string, error) {
			return "", errors.New("503 unavailable")
		})

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})
}

// TestDefaultRetryable 测试默认可重试判定
func TestDefaultRetryable(t *testing.T) {
	t.Run("限流与过载类错误可重试", func(t *testing.T) {
		retryable := []string{
			"got 429 too many requests",
			"RESOURCE_EXHAUSTED: quota",
			"server returned 503",
			"model is overloaded",
			"rate limit exceeded",
			"dial tcp: connection refused",
			"read: connection reset by peer",
			"request timeout",
		}
		for _, msg := range retryable {
			assert.True(t, DefaultRetryable(errors.New(msg)), "msg=%s", msg)
		}
	})

	t.Run("业务错误不可重试", func(t *testing.T) {
		assert.False(t, DefaultRetryable(nil))
		assert.False(t, DefaultRetryable(errors.New("invalid api key")))
		assert.False(t, DefaultRetryable(errors.New("请求参数错误")))
	})

	t.Run("ctx取消不可重试_超时可重试", func(t *testing.T) {
		assert.False(t, DefaultRetryable(context.Canceled))
		assert.True(t, DefaultRetryable(context.DeadlineExceeded))
	})
}
