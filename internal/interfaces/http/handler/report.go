// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"mss-report-engine/internal/application/report"
	"mss-report-engine/internal/interfaces/http/dto"
	"mss-report-engine/pkg/errors"
	"mss-report-engine/pkg/logger"
)

// ReportHandler 报告生成处理器
type ReportHandler struct {
	service *report.Service
}

// NewReportHandler 创建报告处理器
func NewReportHandler(service *report.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

// Generate 生成报告
// @Summary 生成报告
// @Description 按输入数据与模板生成 AI 月报
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body dto.GenerateReportRequest true "生成请求"
// @Success 200 {object} dto.Response[dto.ReportResult]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/reports/generate [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.service.Generate(ctx, req.InputID, req.TemplateID)
	if err != nil {
		if errors.IsAppError(err) {
			dto.FromError(c, err)
			return
		}
		logger.Error(ctx, "failed to generate report", err)
		dto.InternalError(c, "failed to generate report")
		return
	}

	dto.Success(c, toReportResult(result))
}

// Rewrite 重写单页
// @Summary 重写单页
// @Description 替换指定幻灯片的内容并重新渲染，不重新调用 LLM
// @Tags Reports
// @Accept json
// @Produce json
// @Param job_id path string true "任务 ID (input_id:template_id)"
// @Param request body dto.RewriteSlideRequest true "重写请求"
// @Success 200 {object} dto.Response[dto.ReportResult]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/reports/{job_id}/slides [put]
func (h *ReportHandler) Rewrite(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := c.Param("job_id")

	var req dto.RewriteSlideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.service.Rewrite(ctx, jobID, req.SlideKey, req.Content)
	if err != nil {
		if errors.IsAppError(err) {
			dto.FromError(c, err)
			return
		}
		logger.Error(ctx, "failed to rewrite slide", err)
		dto.InternalError(c, "failed to rewrite slide")
		return
	}

	dto.Success(c, toReportResult(result))
}

func toReportResult(r *report.Result) dto.ReportResult {
	return dto.ReportResult{
		JobID:         r.JobID,
		OutputPath:    r.OutputPath,
		SlideSpecPath: r.SlideSpecPath,
		LLMUsed:       r.LLMUsed,
		FallbackCount: r.FallbackCount,
		Warnings:      r.Warnings,
		SlideSpec:     r.Spec,
	}
}
