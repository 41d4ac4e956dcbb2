package dto

import (
	"mss-report-engine/internal/domain/entity"
)

// GenerateReportRequest 报告生成请求
type GenerateReportRequest struct {
	InputID    string `json:"input_id" binding:"required"`
	TemplateID string `json:"template_id" binding:"required"`
}

// RewriteSlideRequest 单页重写请求
type RewriteSlideRequest struct {
	SlideKey string         `json:"slide_key" binding:"required"`
	Content  map[string]any `json:"content" binding:"required"`
}

// ReportResult 生成/重写结果
type ReportResult struct {
	JobID         string            `json:"job_id"`
	OutputPath    string            `json:"output_path"`
	SlideSpecPath string            `json:"slidespec_path"`
	LLMUsed       bool              `json:"llm_used"`
	FallbackCount int               `json:"fallback_count"`
	Warnings      []string          `json:"warnings"`
	SlideSpec     *entity.SlideSpec `json:"slidespec"`
}

// CatalogResponse 模板与输入目录
type CatalogResponse struct {
	Templates []entity.TemplateCatalogEntry `json:"templates,omitempty"`
	Inputs    []entity.InputCatalogEntry    `json:"inputs,omitempty"`
}

// JobListResponse 任务列表
type JobListResponse struct {
	Jobs []*entity.ReportJob `json:"jobs"`
}
