// Package utils 提供重试/退避与错误包装等通用工具
package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryWithBackoff 带指数退避的重试。retryable 返回 false 的错误立即返回，
// ctx 取消时返回最后一次错误与 ctx 错误的组合。
func RetryWithBackoff(ctx context.Context, maxAttempts int, initialDelay, maxDelay time.Duration, retryable func(error) bool, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := initialDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (retry aborted: %v)", lastErr, ctx.Err())
		case <-timer.C:
		}

		// 指数退避
		delay = time.Duration(float64(delay) * 1.5)
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return lastErr
}

// ErrorWrapper 错误包装器，HTTP 层的错误响应体
type ErrorWrapper struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

// NewErrorWrapper 创建错误包装器
func NewErrorWrapper(code, message string, cause error) *ErrorWrapper {
	return &ErrorWrapper{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithDetails 添加错误详情
func (ew *ErrorWrapper) WithDetails(details any) *ErrorWrapper {
	ew.Details = details
	return ew
}

// Error 实现 error 接口
func (ew *ErrorWrapper) Error() string {
	if ew.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", ew.Code, ew.Message, ew.Cause)
	}
	return fmt.Sprintf("[%s] %s", ew.Code, ew.Message)
}

// Unwrap 支持 errors.Is/As
func (ew *ErrorWrapper) Unwrap() error {
	return ew.Cause
}
