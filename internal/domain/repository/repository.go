// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"mss-report-engine/internal/domain/entity"
)

// TemplateRepository 模板描述符仓储接口。
// 描述符加载后按 template_id 进程级缓存，Reload 重建缓存。
type TemplateRepository interface {
	// List 列出目录中的全部模板
	List(ctx context.Context) ([]entity.TemplateCatalogEntry, error)

	// Get 获取并缓存模板描述符
	Get(ctx context.Context, templateID string) (*entity.TemplateDescriptor, error)

	// Reload 清空描述符缓存
	Reload(ctx context.Context) error
}

// InputRepository 租户输入数据仓储接口
type InputRepository interface {
	// List 列出目录中的全部输入数据集
	List(ctx context.Context) ([]entity.InputCatalogEntry, error)

	// Load 加载租户输入数据
	Load(ctx context.Context, inputID string) (entity.TenantInput, error)
}

// SlideSpecRepository SlideSpec 持久化接口。
// 独立于 LLM 调用，支持 rewrite 与重渲染。
type SlideSpecRepository interface {
	// Save 持久化 SlideSpec，返回存储路径
	Save(ctx context.Context, inputID string, spec *entity.SlideSpec) (string, error)

	// Load 加载 SlideSpec
	Load(ctx context.Context, inputID, templateID string) (*entity.SlideSpec, error)
}

// ReportJobRepository 生成任务审计记录仓储接口
type ReportJobRepository interface {
	// Create 创建任务记录
	Create(ctx context.Context, job *entity.ReportJob) error

	// Update 更新任务记录
	Update(ctx context.Context, job *entity.ReportJob) error

	// GetByID 根据 ID 获取任务记录
	GetByID(ctx context.Context, id string) (*entity.ReportJob, error)

	// ListRecent 按创建时间倒序列出最近任务
	ListRecent(ctx context.Context, limit int) ([]*entity.ReportJob, error)
}
