package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"mss-report-engine/internal/application/report/prompt"
	"mss-report-engine/internal/domain/entity"
)

// PromptBuilder 由 AI 占位符构造 system + user 两条提示词。
// 相同输入必须产出字节一致的结果（无随机性、无时间戳），保证可测试。
type PromptBuilder struct {
	registry *prompt.Registry
}

// NewPromptBuilder 创建提示词构造器
func NewPromptBuilder(registry *prompt.Registry) *PromptBuilder {
	return &PromptBuilder{registry: registry}
}

// BuiltPrompt 构造结果
type BuiltPrompt struct {
	System string
	User   string
	// AICount 模板中 ai_generate 占位符总数,为 0 时无需调用 LLM
	AICount int
}

// Build 构造提示词。user 消息包含租户/周期元信息、原样序列化的原始数据、
// 按幻灯片分组的 AI 指令及约束，以及要求的输出结构示例。
// 非 ai_generate 占位符从不进入提示词。
func (b *PromptBuilder) Build(input entity.TenantInput, tpl *entity.TemplateDescriptor) (*BuiltPrompt, error) {
	system, err := b.registry.System(prompt.ForAudience(tpl.Audience))
	if err != nil {
		return nil, fmt.Errorf("failed to load system prompt: %w", err)
	}

	var sb strings.Builder
	writeMetadata(&sb, input)

	rawJSON, err := json.MarshalIndent(map[string]any(input), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tenant input: %w", err)
	}
	sb.WriteString("## 原始数据\n")
	sb.Write(rawJSON)
	sb.WriteString("\n\n## 需要生成的占位符\n")

	aiCount := 0
	for _, slide := range tpl.Slides {
		phs := slide.AIPlaceholders()
		if len(phs) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n### 幻灯片 %d: %s (slide_key=%s)\n", slide.SlideNo, slide.Title, slide.SlideKey)
		for _, ph := range phs {
			aiCount++
			fmt.Fprintf(&sb, "- %s (%s): %s%s\n", ph.Token, ph.Type, ph.AIInstruction, constraintNote(ph))
		}
	}

	sb.WriteString("\n## 输出格式示例\n")
	sb.WriteString(`{"slides": [{"slide_key": "executive_summary", "placeholders": {"SUMMARY_TEXT": "..."}}]}`)
	sb.WriteString("\n")

	return &BuiltPrompt{System: system, User: sb.String(), AICount: aiCount}, nil
}

// writeMetadata 写入租户与报告周期元信息
func writeMetadata(sb *strings.Builder, input entity.TenantInput) {
	sb.WriteString("## 报告元信息\n")
	tenant := input.GetMap("tenant")
	if name, _ := tenant["name"].(string); name != "" {
		fmt.Fprintf(sb, "- 客户名称: %s\n", name)
	} else if id, _ := tenant["id"].(string); id != "" {
		fmt.Fprintf(sb, "- 客户标识: %s\n", id)
	}
	period := input.GetMap("period")
	start, _ := period["start"].(string)
	end, _ := period["end"].(string)
	switch {
	case start != "" && end != "":
		fmt.Fprintf(sb, "- 报告周期: %s ~ %s\n", start, end)
	default:
		if label, _ := period["label"].(string); label != "" {
			fmt.Fprintf(sb, "- 报告周期: %s\n", label)
		}
	}
	sb.WriteString("\n")
}

// constraintNote 把长度/条数约束拼为提示词注记
func constraintNote(ph entity.PlaceholderDefinition) string {
	var parts []string
	if ph.MaxLength > 0 {
		parts = append(parts, fmt.Sprintf("不超过%d字", ph.MaxLength))
	}
	if ph.MaxItems > 0 {
		parts = append(parts, fmt.Sprintf("最多%d条", ph.MaxItems))
	}
	if ph.MaxCharsPerItem > 0 {
		parts = append(parts, fmt.Sprintf("每条不超过%d字", ph.MaxCharsPerItem))
	}
	if len(parts) == 0 {
		return ""
	}
	return "（" + strings.Join(parts, "，") + "）"
}
