package report

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mss-report-engine/internal/config"
	"mss-report-engine/internal/domain/entity"
	apperrors "mss-report-engine/pkg/errors"
)

type stubTemplateRepo struct {
	tpl *entity.TemplateDescriptor
}

func (s *stubTemplateRepo) List(ctx context.Context) ([]entity.TemplateCatalogEntry, error) {
	return []entity.TemplateCatalogEntry{{TemplateID: s.tpl.TemplateID}}, nil
}

func (s *stubTemplateRepo) Get(ctx context.Context, templateID string) (*entity.TemplateDescriptor, error) {
	if templateID != s.tpl.TemplateID {
		return nil, apperrors.ErrTemplateNotFound
	}
	return s.tpl, nil
}

func (s *stubTemplateRepo) Reload(ctx context.Context) error { return nil }

type stubInputRepo struct {
	input entity.TenantInput
}

func (s *stubInputRepo) List(ctx context.Context) ([]entity.InputCatalogEntry, error) {
	return nil, nil
}

func (s *stubInputRepo) Load(ctx context.Context, inputID string) (entity.TenantInput, error) {
	if s.input == nil {
		return nil, apperrors.ErrInputNotFound
	}
	return s.input, nil
}

type stubSpecStore struct {
	saved *entity.SlideSpec
}

func (s *stubSpecStore) Save(ctx context.Context, inputID string, spec *entity.SlideSpec) (string, error) {
	s.saved = spec
	return filepath.Join("slidespecs", inputID+"_"+spec.TemplateID+".json"), nil
}

func (s *stubSpecStore) Load(ctx context.Context, inputID, templateID string) (*entity.SlideSpec, error) {
	if s.saved == nil {
		return nil, apperrors.ErrSlideSpecNotFound
	}
	return s.saved, nil
}

type stubGenerator struct {
	out *GenerateOutput
	err error
}

func (s *stubGenerator) Generate(ctx context.Context, built *BuiltPrompt) (*GenerateOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

type stubRenderer struct {
	rendered int
}

func (s *stubRenderer) Render(ctx context.Context, tpl *entity.TemplateDescriptor, spec *entity.SlideSpec) ([]byte, error) {
	s.rendered++
	return []byte("PK\x03\x04"), nil
}

func serviceTemplate() *entity.TemplateDescriptor {
	return &entity.TemplateDescriptor{
		TemplateID: "mss_management_v1",
		Audience:   entity.AudienceManagement,
		Slides: []entity.SlideDefinition{
			{
				SlideNo:  1,
				SlideKey: "cover",
				Placeholders: []entity.PlaceholderDefinition{
					{Token: "CUSTOMER_NAME", Type: entity.PlaceholderText, Source: "tenant.name"},
				},
			},
			{
				SlideNo:  2,
				SlideKey: "executive_summary",
				Placeholders: []entity.PlaceholderDefinition{
					{Token: "KPI_ALERTS_TOTAL", Type: entity.PlaceholderKPI, Source: "alerts.total", Validation: "alerts.total"},
					{Token: "EXEC_SUMMARY", Type: entity.PlaceholderParagraph, AIGenerate: true, AIInstruction: "总结", Validation: "alerts.total"},
					{Token: "KEY_RISKS", Type: entity.PlaceholderBulletList, AIGenerate: true, AIInstruction: "风险"},
				},
			},
		},
	}
}

func serviceInput() entity.TenantInput {
	return entity.TenantInput{
		"tenant": map[string]any{"name": "Acme"},
		"alerts": map[string]any{"total": float64(100)},
	}
}

func newTestService(t *testing.T, gen ContentGenerator, llmEnabled bool) (*Service, *stubSpecStore, *stubRenderer) {
	t.Helper()
	specs := &stubSpecStore{}
	renderer := &stubRenderer{}
	cfg := &config.ReportConfig{
		OutputDir:           t.TempDir(),
		ValidationTolerance: 0.01,
		MaxTableRows:        10,
	}
	svc := NewService(
		&stubTemplateRepo{tpl: serviceTemplate()},
		&stubInputRepo{input: serviceInput()},
		specs, nil, gen, renderer, cfg, llmEnabled,
	)
	return svc, specs, renderer
}

func TestJobIDRoundTrip(t *testing.T) {
	jobID := JobID("acme_2026_07", "mss_management_v1")
	assert.Equal(t, "acme_2026_07:mss_management_v1", jobID)

	inputID, templateID, err := SplitJobID(jobID)
	require.NoError(t, err)
	assert.Equal(t, "acme_2026_07", inputID)
	assert.Equal(t, "mss_management_v1", templateID)
}

func TestSplitJobIDInvalid(t *testing.T) {
	for _, jobID := range []string{"", "no-separator", ":tpl", "input:"} {
		_, _, err := SplitJobID(jobID)
		assert.Error(t, err, jobID)
	}
}

func TestGenerateWithoutLLMFallsBack(t *testing.T) {
	svc, specs, renderer := newTestService(t, nil, false)

	result, err := svc.Generate(context.Background(), "acme_2026_07", "mss_management_v1")
	require.NoError(t, err)

	// 两个 AI 占位符全部兜底，抽取占位符正常
	assert.False(t, result.LLMUsed)
	assert.Equal(t, 2, result.FallbackCount)
	assert.Equal(t, 1, renderer.rendered)
	require.NotNil(t, specs.saved)
	require.NoError(t, specs.saved.EnsureComplete(serviceTemplate()))

	summary, _ := result.Spec.SlideByKey("executive_summary")
	assert.Equal(t, "100", summary.Placeholders["KPI_ALERTS_TOTAL"])
	assert.Equal(t, fallbackText, summary.Placeholders["EXEC_SUMMARY"])
	assert.Equal(t, fallbackBulletText, summary.Placeholders["KEY_RISKS"])
}

func TestGenerateWithLLM(t *testing.T) {
	gen := &stubGenerator{out: &GenerateOutput{
		Slides: map[string]map[string]any{
			"executive_summary": {
				"EXEC_SUMMARY": "本期共监测到100起告警，态势平稳。",
				"KEY_RISKS":    []any{"海外 VPN 暴露", "补丁覆盖不足"},
				// LLM 不得覆盖数据抽取结果
				"KPI_ALERTS_TOTAL": "99999",
			},
			"unknown_slide": {"X": "忽略"},
		},
		Provider: "openai", Model: "gpt-4o",
	}}
	svc, _, _ := newTestService(t, gen, true)

	result, err := svc.Generate(context.Background(), "acme_2026_07", "mss_management_v1")
	require.NoError(t, err)

	assert.True(t, result.LLMUsed)
	assert.Zero(t, result.FallbackCount)
	assert.Empty(t, result.Warnings)

	summary, _ := result.Spec.SlideByKey("executive_summary")
	assert.Equal(t, "本期共监测到100起告警，态势平稳。", summary.Placeholders["EXEC_SUMMARY"])
	assert.Equal(t, "100", summary.Placeholders["KPI_ALERTS_TOTAL"])
}

func TestGenerateLLMFailureDegrades(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider unavailable")}
	svc, _, _ := newTestService(t, gen, true)

	result, err := svc.Generate(context.Background(), "acme_2026_07", "mss_management_v1")
	require.NoError(t, err)

	// LLM 失败不致命，AI 占位符兜底
	assert.False(t, result.LLMUsed)
	assert.Equal(t, 2, result.FallbackCount)
}

func TestGenerateValidationWarning(t *testing.T) {
	gen := &stubGenerator{out: &GenerateOutput{
		Slides: map[string]map[string]any{
			"executive_summary": {
				"EXEC_SUMMARY": "本期共监测到120起告警。",
				"KEY_RISKS":    []any{"风险一"},
			},
		},
	}}
	svc, _, _ := newTestService(t, gen, true)

	result, err := svc.Generate(context.Background(), "acme_2026_07", "mss_management_v1")
	require.NoError(t, err)

	// 数值不吻合只产生告警，任务仍然成功
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "EXEC_SUMMARY")
}

func TestGenerateTemplateNotFound(t *testing.T) {
	svc, _, _ := newTestService(t, nil, false)

	_, err := svc.Generate(context.Background(), "acme_2026_07", "no_such_template")
	require.Error(t, err)
	assert.True(t, apperrors.IsAppError(err))
}

func TestRewrite(t *testing.T) {
	svc, specs, renderer := newTestService(t, nil, false)

	result, err := svc.Generate(context.Background(), "acme_2026_07", "mss_management_v1")
	require.NoError(t, err)

	rewritten, err := svc.Rewrite(context.Background(), result.JobID, "executive_summary",
		map[string]any{"EXEC_SUMMARY": "本期共监测到100起告警，已全部闭环。"})
	require.NoError(t, err)

	summary, _ := rewritten.Spec.SlideByKey("executive_summary")
	assert.Equal(t, "本期共监测到100起告警，已全部闭环。", summary.Placeholders["EXEC_SUMMARY"])
	// 未触及的占位符保持原值
	assert.Equal(t, "100", summary.Placeholders["KPI_ALERTS_TOTAL"])
	assert.Equal(t, 2, renderer.rendered)
	require.NotNil(t, specs.saved)
}

func TestRewriteUnknownSlideKey(t *testing.T) {
	svc, _, _ := newTestService(t, nil, false)

	_, err := svc.Generate(context.Background(), "acme_2026_07", "mss_management_v1")
	require.NoError(t, err)

	_, err = svc.Rewrite(context.Background(), "acme_2026_07:mss_management_v1", "no_such_slide", map[string]any{"X": "y"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAppError(err))
}

func TestRewriteBeforeGenerate(t *testing.T) {
	svc, _, _ := newTestService(t, nil, false)

	_, err := svc.Rewrite(context.Background(), "acme_2026_07:mss_management_v1", "cover", map[string]any{"CUSTOMER_NAME": "x"})
	assert.Error(t, err)
}
