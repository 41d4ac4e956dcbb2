package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"mss-report-engine/internal/domain/entity"
)

func validatorTemplate() *entity.TemplateDescriptor {
	return &entity.TemplateDescriptor{
		TemplateID: "t1",
		Audience:   entity.AudienceManagement,
		Slides: []entity.SlideDefinition{
			{
				SlideNo:  1,
				SlideKey: "executive_summary",
				Placeholders: []entity.PlaceholderDefinition{
					{
						Token: "EXEC_SUMMARY", Type: entity.PlaceholderParagraph,
						AIGenerate: true, Validation: "alerts.total",
					},
				},
			},
		},
	}
}

func validatorSpec(summary any) *entity.SlideSpec {
	return &entity.SlideSpec{
		TemplateID: "t1",
		Slides: []entity.SlideContent{
			{SlideNo: 1, SlideKey: "executive_summary", Placeholders: map[string]any{"EXEC_SUMMARY": summary}},
		},
	}
}

func TestValidateMatch(t *testing.T) {
	v := NewValidator(0.01)
	input := entity.TenantInput{"alerts": map[string]any{"total": float64(100)}}

	warnings := v.Validate(context.Background(),
		input, validatorSpec("本期共监测到100起告警，整体态势平稳。"), validatorTemplate())
	assert.Empty(t, warnings)
}

func TestValidateMismatch(t *testing.T) {
	v := NewValidator(0.01)
	input := entity.TenantInput{"alerts": map[string]any{"total": float64(100)}}

	warnings := v.Validate(context.Background(),
		input, validatorSpec("本期共监测到120起告警。"), validatorTemplate())
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "EXEC_SUMMARY")
	assert.Contains(t, warnings[0], "100")
	assert.Contains(t, warnings[0], "120")
}

func TestValidateNoNumberInText(t *testing.T) {
	v := NewValidator(0.01)
	input := entity.TenantInput{"alerts": map[string]any{"total": float64(100)}}

	warnings := v.Validate(context.Background(),
		input, validatorSpec("整体安全态势平稳，无重大事件。"), validatorTemplate())
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "no numeric value")
}

func TestValidateNonNumericTargetSkipped(t *testing.T) {
	v := NewValidator(0.01)
	// 源数据中该路径不是数值时跳过而不是告警
	input := entity.TenantInput{"alerts": map[string]any{"total": "not recorded"}}

	warnings := v.Validate(context.Background(),
		input, validatorSpec("任意内容"), validatorTemplate())
	assert.Empty(t, warnings)
}

func TestValidateBulletListJoined(t *testing.T) {
	v := NewValidator(0.01)
	input := entity.TenantInput{"alerts": map[string]any{"total": float64(4)}}

	// 字符串数组先拼接再抽取第一个数值
	warnings := v.Validate(context.Background(),
		input, validatorSpec([]any{"本期4起事件均已闭环", "无遗留风险"}), validatorTemplate())
	assert.Empty(t, warnings)
}

func TestValidateTolerance(t *testing.T) {
	v := NewValidator(0.5)
	input := entity.TenantInput{"alerts": map[string]any{"total": 99.8}}

	warnings := v.Validate(context.Background(),
		input, validatorSpec("约100起"), validatorTemplate())
	assert.Empty(t, warnings)
}
