// Package retry 提供可复用的重试策略
package retry

import (
	"context"
	"time"
)

// Class 错误分类，决定重试行为
type Class int

const (
	// ClassFatal 不可重试，立即终止
	ClassFatal Class = iota
	// ClassBackoff 指数退避后重试
	ClassBackoff
	// ClassFixedDelay 固定间隔后重试
	ClassFixedDelay
)

// Classifier 判定一次失败属于哪类错误
type Classifier func(err error) Class

// Policy 重试策略：最大尝试次数 + 退避参数 + 错误分类器。
// 策略本身与调用点无关，可被任意操作复用。
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	FixedDelay  time.Duration
	Classify    Classifier
}

// DefaultPolicy 返回默认策略
func DefaultPolicy(classify Classifier) Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		FixedDelay:  5 * time.Second,
		Classify:    classify,
	}
}

// BackoffDelay 返回第 attempt 次失败后的指数退避间隔 (base * 2^attempt)，上限 MaxDelay。
// attempt 从 0 开始计。
func (p Policy) BackoffDelay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// OnRetry 每次重试前回调，可用于记录指标与日志
type OnRetry func(attempt int, class Class, delay time.Duration, err error)

// Do 按策略执行 fn，返回最后一次错误。
// 分类为 ClassFatal 的错误不重试；sleep 可被 ctx 取消打断。
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error, onRetry OnRetry) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		class := ClassFatal
		if p.Classify != nil {
			class = p.Classify(lastErr)
		}
		if class == ClassFatal || attempt == p.MaxAttempts-1 {
			return lastErr
		}

		var delay time.Duration
		switch class {
		case ClassBackoff:
			delay = p.BackoffDelay(attempt)
		case ClassFixedDelay:
			delay = p.FixedDelay
		}
		if onRetry != nil {
			onRetry(attempt, class, delay, lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
