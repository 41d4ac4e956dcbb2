package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mss-report-engine/internal/application/report/prompt"
	"mss-report-engine/internal/domain/entity"
)

func promptTestTemplate() *entity.TemplateDescriptor {
	return &entity.TemplateDescriptor{
		TemplateID: "mss_management_v1",
		Audience:   entity.AudienceManagement,
		Slides: []entity.SlideDefinition{
			{
				SlideNo:  1,
				SlideKey: "cover",
				Title:    "封面",
				Placeholders: []entity.PlaceholderDefinition{
					{Token: "CUSTOMER_NAME", Type: entity.PlaceholderText, Source: "tenant.name"},
				},
			},
			{
				SlideNo:  2,
				SlideKey: "executive_summary",
				Title:    "执行摘要",
				Placeholders: []entity.PlaceholderDefinition{
					{Token: "KPI_ALERTS_TOTAL", Type: entity.PlaceholderKPI, Source: "alerts.total"},
					{
						Token: "EXEC_SUMMARY", Type: entity.PlaceholderParagraph,
						AIGenerate: true, AIInstruction: "面向管理层总结本期安全态势",
						MaxLength: 200,
					},
					{
						Token: "KEY_RISKS", Type: entity.PlaceholderBulletList,
						AIGenerate: true, AIInstruction: "列出关键风险",
						MaxItems: 3, MaxCharsPerItem: 60,
					},
				},
			},
		},
	}
}

func TestPromptBuilderDeterministic(t *testing.T) {
	b := NewPromptBuilder(prompt.NewRegistry())
	input := entity.TenantInput{
		"tenant": map[string]any{"name": "Acme"},
		"period": map[string]any{"start": "2026-07-01", "end": "2026-07-31"},
		"alerts": map[string]any{"total": float64(1284)},
	}
	tpl := promptTestTemplate()

	first, err := b.Build(input, tpl)
	require.NoError(t, err)
	second, err := b.Build(input, tpl)
	require.NoError(t, err)

	assert.Equal(t, first.System, second.System)
	assert.Equal(t, first.User, second.User)
	assert.Equal(t, 2, first.AICount)
}

func TestPromptBuilderContent(t *testing.T) {
	b := NewPromptBuilder(prompt.NewRegistry())
	input := entity.TenantInput{
		"tenant": map[string]any{"name": "Acme"},
		"period": map[string]any{"label": "2026年7月"},
		"alerts": map[string]any{"total": float64(1284)},
	}
	built, err := b.Build(input, promptTestTemplate())
	require.NoError(t, err)

	assert.NotEmpty(t, built.System)
	assert.Contains(t, built.User, "客户名称: Acme")
	assert.Contains(t, built.User, "报告周期: 2026年7月")
	// AI 占位符及其约束进入提示词
	assert.Contains(t, built.User, "EXEC_SUMMARY")
	assert.Contains(t, built.User, "不超过200字")
	assert.Contains(t, built.User, "最多3条")
	assert.Contains(t, built.User, "每条不超过60字")
	// 非 AI 占位符从不进入提示词
	assert.NotContains(t, built.User, "CUSTOMER_NAME")
	assert.NotContains(t, built.User, "KPI_ALERTS_TOTAL")
	// 原始数据原样序列化
	assert.Contains(t, built.User, `"total": 1284`)
}

func TestPromptBuilderAudienceSelection(t *testing.T) {
	b := NewPromptBuilder(prompt.NewRegistry())
	input := entity.TenantInput{"tenant": map[string]any{"name": "Acme"}}

	mgmt := promptTestTemplate()
	tech := promptTestTemplate()
	tech.Audience = entity.AudienceTechnical

	mgmtPrompt, err := b.Build(input, mgmt)
	require.NoError(t, err)
	techPrompt, err := b.Build(input, tech)
	require.NoError(t, err)

	assert.NotEqual(t, mgmtPrompt.System, techPrompt.System)
}
