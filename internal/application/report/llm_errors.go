package report

import (
	"strings"

	"mss-report-engine/pkg/retry"
)

// classifyLLMError 按错误文本对 LLM 调用失败分类：
// 限流类指数退避重试，连接类固定间隔重试，其余 API 错误立即终止。
func classifyLLMError(err error) retry.Class {
	if err == nil {
		return retry.ClassFatal
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "rate_limit"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "429"),
		strings.Contains(msg, "quota"):
		return retry.ClassBackoff
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "i/o timeout"),
		strings.Contains(msg, "context deadline exceeded"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "eof"),
		strings.Contains(msg, "dial tcp"):
		return retry.ClassFixedDelay
	default:
		return retry.ClassFatal
	}
}

// retryClassLabel 指标标签用的错误类别名
func retryClassLabel(c retry.Class) string {
	switch c {
	case retry.ClassBackoff:
		return "rate_limit"
	case retry.ClassFixedDelay:
		return "connection"
	default:
		return "fatal"
	}
}
