package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// RetryConfig 重试配置
type RetryConfig struct {
	// MaxRetries 最大重试次数 (不含首次请求)
	MaxRetries int
	// InitialDelay 首次重试前的等待
	InitialDelay time.Duration
	// MaxDelay 最大等待
	MaxDelay time.Duration
	// BackoffMultiplier 退避倍数
	BackoffMultiplier float64
	// OnRetry 重试前的回调
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        2,
		InitialDelay:      200 * time.Millisecond,
		MaxDelay:          2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// isRetryable 网络错误、超时、5xx 与 429 可以重试；context 取消不重试
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func backoff(attempt int, cfg *RetryConfig) time.Duration {
	delay := float64(cfg.InitialDelay)
	for i := 0; i < attempt; i++ {
		delay *= cfg.BackoffMultiplier
	}
	if d := time.Duration(delay); d < cfg.MaxDelay {
		return d
	}
	return cfg.MaxDelay
}

// withRetry 带重试的函数执行器
func withRetry(ctx context.Context, cfg *RetryConfig, fn func() error) error {
	if cfg == nil {
		return fn()
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= cfg.MaxRetries || !isRetryable(err) {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt, cfg)):
		}
	}

	if cfg.MaxRetries > 0 && isRetryable(lastErr) {
		return fmt.Errorf("after %d attempts: %w", cfg.MaxRetries+1, lastErr)
	}
	return lastErr
}
