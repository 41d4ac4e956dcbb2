package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"mss-report-engine/internal/config"
	"mss-report-engine/internal/domain/entity"
	"mss-report-engine/internal/infrastructure/llm"
	apperrors "mss-report-engine/pkg/errors"
	"mss-report-engine/pkg/logger"
	"mss-report-engine/pkg/metrics"
	"mss-report-engine/pkg/retry"
)

// AI 生成失败或被禁用时的确定性兜底内容
const (
	fallbackText       = "（内容待补充：AI 生成未启用或失败）"
	fallbackBulletText = "• 内容待补充：AI 生成未启用或失败"
)

// FallbackValue 返回指定占位符类型的兜底内容
func FallbackValue(t entity.PlaceholderType) string {
	if t == entity.PlaceholderBulletList {
		return fallbackBulletText
	}
	return fallbackText
}

// Generator 负责调用 LLM 并解析响应。
// 调用失败与解析失败都通过兜底填充在本地恢复，从不使整个生成请求失败。
type Generator struct {
	factory  llm.ChatModelFactory
	provider string
	model    string
	policy   retry.Policy
}

// NewGenerator 创建 LLM 生成器
func NewGenerator(factory llm.ChatModelFactory, cfg *config.LLMConfig) *Generator {
	policy := retry.DefaultPolicy(classifyLLMError)
	if cfg != nil {
		if cfg.Retry.MaxAttempts > 0 {
			policy.MaxAttempts = cfg.Retry.MaxAttempts
		}
		if cfg.Retry.BaseDelay > 0 {
			policy.BaseDelay = cfg.Retry.BaseDelay
		}
		if cfg.Retry.MaxDelay > 0 {
			policy.MaxDelay = cfg.Retry.MaxDelay
		}
		if cfg.Retry.FixedDelay > 0 {
			policy.FixedDelay = cfg.Retry.FixedDelay
		}
	}
	g := &Generator{factory: factory, policy: policy}
	if cfg != nil {
		g.provider = cfg.DefaultProvider
		if p, ok := cfg.Providers[cfg.DefaultProvider]; ok {
			g.model = p.Model
		}
	}
	return g
}

// GenerateOutput 一次 LLM 生成的结果
type GenerateOutput struct {
	// Slides slide_key -> {token -> 值}，bullet_list 的值可能是字符串数组
	Slides map[string]map[string]any

	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Generate 调用 LLM 并解析为按幻灯片分组的占位符内容。
// 重试耗尽、不可重试错误或响应不可解析时返回 LLMGenerationFailed。
func (g *Generator) Generate(ctx context.Context, built *BuiltPrompt) (*GenerateOutput, error) {
	if g == nil || g.factory == nil {
		return nil, apperrors.New(apperrors.CodeLLMGenerationFailed, "llm client not initialized")
	}

	chatModel, err := g.factory.Get(ctx, g.provider)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeLLMGenerationFailed, "failed to get chat model")
	}

	msgs := []*schema.Message{
		schema.SystemMessage(built.System),
		schema.UserMessage(built.User),
	}

	out := &GenerateOutput{Provider: g.provider, Model: g.model}
	start := time.Now()

	err = retry.Do(ctx, g.policy, func(ctx context.Context) error {
		resp, callErr := chatModel.Generate(ctx, msgs)
		if callErr != nil {
			return callErr
		}
		if resp == nil || strings.TrimSpace(resp.Content) == "" {
			return fmt.Errorf("empty llm response")
		}

		slides, parseErr := parseSlidesPayload(resp.Content)
		if parseErr != nil {
			// 响应不可解析不属于可重试的 API 错误，直接终止
			return parseErr
		}

		out.Slides = slides
		if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
			out.PromptTokens = resp.ResponseMeta.Usage.PromptTokens
			out.CompletionTokens = resp.ResponseMeta.Usage.CompletionTokens
		}
		return nil
	}, func(attempt int, class retry.Class, delay time.Duration, err error) {
		metrics.LLMCallRetries.WithLabelValues(g.provider, retryClassLabel(class)).Inc()
		logger.Warn(ctx, "llm call failed, retrying",
			"attempt", attempt+1, "class", retryClassLabel(class), "delay", delay.String(), "error", err.Error())
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeLLMGenerationFailed, "llm generation failed")
	}

	metrics.LLMCallDuration.WithLabelValues(g.provider, out.Model).Observe(time.Since(start).Seconds())
	metrics.LLMTokensUsed.WithLabelValues(g.provider, out.Model, "prompt").Add(float64(out.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(g.provider, out.Model, "completion").Add(float64(out.CompletionTokens))
	return out, nil
}

// parseSlidesPayload 清洗并解析模型响应。
// 缺失 slides 键是硬性解析失败。
func parseSlidesPayload(raw string) (map[string]map[string]any, error) {
	text := sanitizeJSONResponse(raw)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, fmt.Errorf("response is not a json object: %w", err)
	}
	rawSlides, ok := envelope["slides"]
	if !ok {
		return nil, fmt.Errorf("response json missing slides key")
	}

	var items []struct {
		SlideKey     string         `json:"slide_key"`
		Placeholders map[string]any `json:"placeholders"`
	}
	if err := json.Unmarshal(rawSlides, &items); err != nil {
		return nil, fmt.Errorf("slides is not a valid list: %w", err)
	}

	out := make(map[string]map[string]any, len(items))
	for _, item := range items {
		if item.SlideKey == "" || item.Placeholders == nil {
			continue
		}
		out[item.SlideKey] = item.Placeholders
	}
	return out, nil
}
