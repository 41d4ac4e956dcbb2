package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mss-report-engine/internal/domain/entity"
	"mss-report-engine/internal/domain/repository"
	"mss-report-engine/pkg/errors"
)

// ReportJobRepository 生成任务审计记录仓储实现
type ReportJobRepository struct {
	client *Client
}

// NewReportJobRepository 创建任务仓储
func NewReportJobRepository(client *Client) *ReportJobRepository {
	return &ReportJobRepository{client: client}
}

var _ repository.ReportJobRepository = (*ReportJobRepository)(nil)

// Create 创建任务记录
func (r *ReportJobRepository) Create(ctx context.Context, job *entity.ReportJob) error {
	ctx, span := tracer.Start(ctx, "postgres.ReportJobRepository.Create")
	defer span.End()

	if err := r.client.db.WithContext(ctx).Create(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create report job: %w", err)
	}
	return nil
}

// Update 更新任务记录
func (r *ReportJobRepository) Update(ctx context.Context, job *entity.ReportJob) error {
	ctx, span := tracer.Start(ctx, "postgres.ReportJobRepository.Update")
	defer span.End()

	if err := r.client.db.WithContext(ctx).Save(job).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update report job: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取任务记录
func (r *ReportJobRepository) GetByID(ctx context.Context, id string) (*entity.ReportJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.ReportJobRepository.GetByID")
	defer span.End()

	var job entity.ReportJob
	if err := r.client.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrJobNotFound.WithDetail(id)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get report job: %w", err)
	}
	return &job, nil
}

// ListRecent 按创建时间倒序列出最近任务
func (r *ReportJobRepository) ListRecent(ctx context.Context, limit int) ([]*entity.ReportJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.ReportJobRepository.ListRecent")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	var jobs []*entity.ReportJob
	err := r.client.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list report jobs: %w", err)
	}
	return jobs, nil
}
