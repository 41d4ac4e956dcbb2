package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"mss-report-engine/internal/application/report/prompt"
	"mss-report-engine/internal/config"
	"mss-report-engine/internal/domain/entity"
	"mss-report-engine/internal/domain/repository"
	"mss-report-engine/pkg/errors"
	"mss-report-engine/pkg/logger"
	"mss-report-engine/pkg/metrics"
)

var tracer = otel.Tracer("report")

// ContentGenerator LLM 内容生成入口，便于测试替身
type ContentGenerator interface {
	Generate(ctx context.Context, built *BuiltPrompt) (*GenerateOutput, error)
}

// DeckRenderer SlideSpec 到 pptx 字节的渲染入口
type DeckRenderer interface {
	Render(ctx context.Context, tpl *entity.TemplateDescriptor, spec *entity.SlideSpec) ([]byte, error)
}

// Result 一次生成或重写的结果。
// SlideSpec 始终返回，pptx 落盘路径与告警一并带回。
type Result struct {
	JobID         string            `json:"job_id"`
	Spec          *entity.SlideSpec `json:"slidespec"`
	OutputPath    string            `json:"output_path"`
	SlideSpecPath string            `json:"slidespec_path"`
	LLMUsed       bool              `json:"llm_used"`
	FallbackCount int               `json:"fallback_count"`
	Warnings      []string          `json:"warnings"`
}

// Service 报告生成编排。
// 流水线：加载输入与模板 -> 数据抽取 -> LLM 生成（可跳过）->
// 合并兜底 -> 数值校验 -> 渲染 -> 持久化。
// 校验告警与单占位符渲染失败都不终止任务，
// 输入或模板缺失、渲染整体失败才是致命错误。
type Service struct {
	templates repository.TemplateRepository
	inputs    repository.InputRepository
	specs     repository.SlideSpecRepository
	jobs      repository.ReportJobRepository

	extractor *Extractor
	prompts   *PromptBuilder
	generator ContentGenerator
	validator *Validator
	renderer  DeckRenderer

	cfg        *config.ReportConfig
	llmEnabled bool
}

// NewService 创建报告服务。generator 可为 nil（纯 mock 部署），
// jobs 可为 nil（无数据库的轻量部署，审计降级为日志）。
func NewService(
	templates repository.TemplateRepository,
	inputs repository.InputRepository,
	specs repository.SlideSpecRepository,
	jobs repository.ReportJobRepository,
	generator ContentGenerator,
	renderer DeckRenderer,
	cfg *config.ReportConfig,
	llmEnabled bool,
) *Service {
	return &Service{
		templates:  templates,
		inputs:     inputs,
		specs:      specs,
		jobs:       jobs,
		extractor:  NewExtractor(cfg.MaxTableRows),
		prompts:    NewPromptBuilder(prompt.NewRegistry()),
		generator:  generator,
		validator:  NewValidator(cfg.ValidationTolerance),
		renderer:   renderer,
		cfg:        cfg,
		llmEnabled: llmEnabled,
	}
}

// JobID 组合任务标识，rewrite 以此定位 SlideSpec
func JobID(inputID, templateID string) string {
	return inputID + ":" + templateID
}

// SplitJobID 拆解任务标识
func SplitJobID(jobID string) (inputID, templateID string, err error) {
	parts := strings.SplitN(jobID, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.ErrInvalidParam.WithDetail(
			fmt.Sprintf("job_id %q 不是 input_id:template_id 形式", jobID))
	}
	return parts[0], parts[1], nil
}

// Generate 生成一份报告
func (s *Service) Generate(ctx context.Context, inputID, templateID string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "report.Service.Generate")
	span.SetAttributes(
		attribute.String("report.input_id", inputID),
		attribute.String("report.template_id", templateID),
	)
	defer span.End()

	ctx = logger.WithContext(ctx, logger.JobIDKey, JobID(inputID, templateID))
	ctx = logger.WithContext(ctx, logger.TemplateIDKey, templateID)
	start := time.Now()

	tpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		metrics.ReportGenerationTotal.WithLabelValues(templateID, "failed").Inc()
		return nil, err
	}
	input, err := s.inputs.Load(ctx, inputID)
	if err != nil {
		metrics.ReportGenerationTotal.WithLabelValues(templateID, "failed").Inc()
		return nil, err
	}

	job := entity.NewReportJob(inputID, templateID)
	job.Status = entity.JobStatusRunning
	s.recordJob(ctx, job, false)

	result, err := s.buildAndRender(ctx, input, tpl, inputID, job)

	job.DurationMs = int(time.Since(start).Milliseconds())
	now := time.Now()
	job.CompletedAt = &now
	if err != nil {
		job.Status = entity.JobStatusFailed
		job.ErrorMessage = err.Error()
		s.recordJob(ctx, job, true)
		metrics.ReportGenerationTotal.WithLabelValues(templateID, "failed").Inc()
		return nil, err
	}
	job.Status = entity.JobStatusCompleted
	s.recordJob(ctx, job, true)

	metrics.ReportGenerationTotal.WithLabelValues(templateID, "completed").Inc()
	metrics.ReportGenerationDuration.WithLabelValues(templateID).Observe(time.Since(start).Seconds())
	logger.Info(ctx, "报告生成完成",
		"output", result.OutputPath,
		"llm_used", result.LLMUsed,
		"fallbacks", result.FallbackCount,
		"warnings", len(result.Warnings),
		"duration_ms", job.DurationMs)
	return result, nil
}

// buildAndRender 核心流水线，Generate 负责任务记录与指标
func (s *Service) buildAndRender(ctx context.Context, input entity.TenantInput, tpl *entity.TemplateDescriptor, inputID string, job *entity.ReportJob) (*Result, error) {
	// 数据抽取：非 AI 占位符直接从输入取值
	extracted := s.extractor.Extract(ctx, input, tpl)
	spec := entity.NewSlideSpec(tpl)
	for slideKey, values := range extracted {
		spec.MergeSlide(slideKey, values)
	}

	// AI 占位符：生成、降级或直接兜底
	aiCount := 0
	for i := range tpl.Slides {
		aiCount += len(tpl.Slides[i].AIPlaceholders())
	}

	if aiCount > 0 && s.llmEnabled && !s.cfg.ForceMock && s.generator != nil {
		s.generateAIContent(ctx, input, tpl, spec, job)
	} else if aiCount > 0 {
		logger.Info(ctx, "AI 生成未启用，AI 占位符使用兜底内容", "ai_count", aiCount)
	}
	job.FallbackCount = s.fillFallbacks(tpl, spec)
	if job.FallbackCount > 0 {
		metrics.PlaceholderFallbackTotal.WithLabelValues(tpl.TemplateID).
			Add(float64(job.FallbackCount))
	}

	spec.SortBySlideNo()
	if err := spec.EnsureComplete(tpl); err != nil {
		return nil, errors.Wrap(err, errors.CodeSlideSpecIncomplete, "slidespec 不完整")
	}

	// 数值校验只产生告警
	warnings := s.validator.Validate(ctx, input, spec, tpl)
	job.WarningCount = len(warnings)
	job.Warnings = strings.Join(warnings, "\n")
	if len(warnings) > 0 {
		metrics.ValidationWarningsTotal.WithLabelValues(tpl.TemplateID).
			Add(float64(len(warnings)))
	}

	outputPath, specPath, err := s.persist(ctx, inputID, tpl, spec)
	if err != nil {
		return nil, err
	}
	job.OutputPath = outputPath
	job.SlideSpecPath = specPath

	return &Result{
		JobID:         JobID(inputID, tpl.TemplateID),
		Spec:          spec,
		OutputPath:    outputPath,
		SlideSpecPath: specPath,
		LLMUsed:       job.LLMUsed,
		FallbackCount: job.FallbackCount,
		Warnings:      warnings,
	}, nil
}

// generateAIContent 调用 LLM 并把结果合并进 spec。
// 生成失败不致命，未合并的 AI 占位符随后统一兜底。
func (s *Service) generateAIContent(ctx context.Context, input entity.TenantInput, tpl *entity.TemplateDescriptor, spec *entity.SlideSpec, job *entity.ReportJob) {
	built, err := s.prompts.Build(input, tpl)
	if err != nil {
		logger.Error(ctx, "提示词构建失败，AI 占位符降级为兜底内容", err)
		return
	}
	out, err := s.generator.Generate(ctx, built)
	if err != nil {
		logger.Error(ctx, "LLM 生成失败，AI 占位符降级为兜底内容", err)
		return
	}

	for slideKey, values := range out.Slides {
		sd, ok := tpl.SlideByKey(slideKey)
		if !ok {
			logger.Warn(ctx, "LLM 返回未知 slide_key，已忽略", "slide_key", slideKey)
			continue
		}
		// 只接受模板声明为 AI 生成的 token，LLM 不得覆盖数据抽取结果
		accepted := make(map[string]any, len(values))
		for token, v := range values {
			ph, ok := sd.PlaceholderByToken(token)
			if !ok || !ph.AIGenerate {
				logger.Warn(ctx, "LLM 返回未声明的 token，已忽略",
					"slide_key", slideKey, "token", token)
				continue
			}
			accepted[token] = v
		}
		spec.MergeSlide(slideKey, accepted)
	}

	job.LLMUsed = true
	job.LLMProvider = out.Provider
	job.LLMModel = out.Model
	job.TokensPrompt = out.PromptTokens
	job.TokensComp = out.CompletionTokens
}

// fillFallbacks 给仍然缺值的 AI 占位符填兜底文案，返回兜底数
func (s *Service) fillFallbacks(tpl *entity.TemplateDescriptor, spec *entity.SlideSpec) int {
	count := 0
	for i := range tpl.Slides {
		sd := &tpl.Slides[i]
		slide, ok := spec.SlideByKey(sd.SlideKey)
		if !ok {
			continue
		}
		for _, ph := range sd.AIPlaceholders() {
			if _, ok := slide.Placeholders[ph.Token]; ok {
				continue
			}
			slide.Placeholders[ph.Token] = FallbackValue(ph.Type)
			count++
		}
	}
	return count
}

// persist 渲染 pptx 落盘并保存 SlideSpec
func (s *Service) persist(ctx context.Context, inputID string, tpl *entity.TemplateDescriptor, spec *entity.SlideSpec) (outputPath, specPath string, err error) {
	data, err := s.renderer.Render(ctx, tpl, spec)
	if err != nil {
		return "", "", errors.Wrap(err, errors.CodeRenderFailed, "报告渲染失败")
	}
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}
	outputPath = filepath.Join(s.cfg.OutputDir,
		fmt.Sprintf("%s_%s.pptx", inputID, tpl.TemplateID))
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write pptx: %w", err)
	}

	specPath, err = s.specs.Save(ctx, inputID, spec)
	if err != nil {
		return "", "", err
	}
	return outputPath, specPath, nil
}

// recordJob 写任务审计记录。数据库不可用只降级为日志，不影响生成。
func (s *Service) recordJob(ctx context.Context, job *entity.ReportJob, update bool) {
	if s.jobs == nil {
		return
	}
	var err error
	if update {
		err = s.jobs.Update(ctx, job)
	} else {
		err = s.jobs.Create(ctx, job)
	}
	if err != nil {
		logger.Warn(ctx, "任务审计记录写入失败", "job_id", job.ID, "error", err.Error())
	}
}

// Rewrite 重写单页内容并重新渲染，不重新调用 LLM。
// jobID 为 input_id:template_id。
func (s *Service) Rewrite(ctx context.Context, jobID, slideKey string, values map[string]any) (*Result, error) {
	ctx, span := tracer.Start(ctx, "report.Service.Rewrite")
	span.SetAttributes(
		attribute.String("report.job_id", jobID),
		attribute.String("report.slide_key", slideKey),
	)
	defer span.End()

	inputID, templateID, err := SplitJobID(jobID)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithContext(ctx, logger.JobIDKey, jobID)

	tpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	spec, err := s.specs.Load(ctx, inputID, templateID)
	if err != nil {
		return nil, err
	}
	input, err := s.inputs.Load(ctx, inputID)
	if err != nil {
		return nil, err
	}

	if _, ok := tpl.SlideByKey(slideKey); !ok {
		return nil, errors.ErrInvalidParam.WithDetail(
			fmt.Sprintf("模板 %s 中不存在 slide_key %q", templateID, slideKey))
	}
	spec.MergeSlide(slideKey, values)
	spec.SortBySlideNo()
	if err := spec.EnsureComplete(tpl); err != nil {
		return nil, errors.Wrap(err, errors.CodeSlideSpecIncomplete, "重写后 slidespec 不完整")
	}

	warnings := s.validator.Validate(ctx, input, spec, tpl)
	if len(warnings) > 0 {
		metrics.ValidationWarningsTotal.WithLabelValues(tpl.TemplateID).
			Add(float64(len(warnings)))
	}

	outputPath, specPath, err := s.persist(ctx, inputID, tpl, spec)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "单页重写完成", "slide_key", slideKey, "output", outputPath)
	return &Result{
		JobID:         jobID,
		Spec:          spec,
		OutputPath:    outputPath,
		SlideSpecPath: specPath,
		Warnings:      warnings,
	}, nil
}
