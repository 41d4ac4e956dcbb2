package entity

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ReportJob 一次报告生成任务的审计记录
type ReportJob struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	InputID    string    `json:"input_id" gorm:"index"`
	TemplateID string    `json:"template_id" gorm:"index"`
	Status     JobStatus `json:"status"`

	// LLMUsed 为 false 表示 mock 模式或 AI 被禁用
	LLMUsed      bool   `json:"llm_used"`
	LLMProvider  string `json:"llm_provider,omitempty"`
	LLMModel     string `json:"llm_model,omitempty"`
	TokensPrompt int    `json:"tokens_prompt,omitempty"`
	TokensComp   int    `json:"tokens_completion,omitempty" gorm:"column:tokens_completion"`

	// FallbackCount 使用兜底内容填充的 AI 占位符数
	FallbackCount int `json:"fallback_count"`
	// WarningCount 数值校验告警数；告警永不失败整个任务
	WarningCount int    `json:"warning_count"`
	Warnings     string `json:"warnings,omitempty" gorm:"type:text"`

	OutputPath    string `json:"output_path,omitempty"`
	SlideSpecPath string `json:"slidespec_path,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
	DurationMs    int    `json:"duration_ms,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewReportJob 创建新任务记录
func NewReportJob(inputID, templateID string) *ReportJob {
	return &ReportJob{
		ID:         uuid.NewString(),
		InputID:    inputID,
		TemplateID: templateID,
		Status:     JobStatusPending,
		CreatedAt:  time.Now(),
	}
}

// TableName GORM 表名
func (ReportJob) TableName() string {
	return "report_jobs"
}
