package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"mss-report-engine/internal/domain/repository"
	"mss-report-engine/internal/interfaces/http/dto"
	"mss-report-engine/pkg/errors"
	"mss-report-engine/pkg/logger"
)

// JobHandler 任务审计记录处理器
type JobHandler struct {
	jobs repository.ReportJobRepository
}

// NewJobHandler 创建任务处理器
func NewJobHandler(jobs repository.ReportJobRepository) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// GetJob 获取任务详情
// @Summary 获取任务详情
// @Tags Jobs
// @Produce json
// @Param id path string true "任务记录 ID"
// @Success 200 {object} dto.Response[entity.ReportJob]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	ctx := c.Request.Context()

	job, err := h.jobs.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.IsAppError(err) {
			dto.FromError(c, err)
			return
		}
		logger.Error(ctx, "failed to get job", err)
		dto.InternalError(c, "failed to get job")
		return
	}
	dto.Success(c, job)
}

// ListJobs 列出最近任务
// @Summary 列出最近任务
// @Tags Jobs
// @Produce json
// @Param limit query int false "数量上限，默认 20"
// @Success 200 {object} dto.Response[dto.JobListResponse]
// @Router /v1/jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	ctx := c.Request.Context()

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	jobs, err := h.jobs.ListRecent(ctx, limit)
	if err != nil {
		logger.Error(ctx, "failed to list jobs", err)
		dto.InternalError(c, "failed to list jobs")
		return
	}
	dto.Success(c, dto.JobListResponse{Jobs: jobs})
}
