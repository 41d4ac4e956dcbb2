package handler

import (
	"github.com/gin-gonic/gin"

	"mss-report-engine/internal/domain/repository"
	"mss-report-engine/internal/interfaces/http/dto"
	"mss-report-engine/pkg/logger"
)

// CatalogHandler 模板与输入目录处理器
type CatalogHandler struct {
	templates repository.TemplateRepository
	inputs    repository.InputRepository
}

// NewCatalogHandler 创建目录处理器
func NewCatalogHandler(templates repository.TemplateRepository, inputs repository.InputRepository) *CatalogHandler {
	return &CatalogHandler{templates: templates, inputs: inputs}
}

// ListTemplates 列出模板
// @Summary 列出可用模板
// @Tags Catalog
// @Produce json
// @Success 200 {object} dto.Response[dto.CatalogResponse]
// @Router /v1/templates [get]
func (h *CatalogHandler) ListTemplates(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := h.templates.List(ctx)
	if err != nil {
		logger.Error(ctx, "failed to list templates", err)
		dto.InternalError(c, "failed to list templates")
		return
	}
	dto.Success(c, dto.CatalogResponse{Templates: entries})
}

// ReloadTemplates 清空模板缓存
// @Summary 热加载模板
// @Description 清空描述符缓存，模板文件变更后调用
// @Tags Catalog
// @Produce json
// @Success 200 {object} dto.Response[string]
// @Router /v1/templates/reload [post]
func (h *CatalogHandler) ReloadTemplates(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.templates.Reload(ctx); err != nil {
		logger.Error(ctx, "failed to reload templates", err)
		dto.InternalError(c, "failed to reload templates")
		return
	}
	dto.Success(c, "reloaded")
}

// ListInputs 列出输入数据集
// @Summary 列出可用输入数据集
// @Tags Catalog
// @Produce json
// @Success 200 {object} dto.Response[dto.CatalogResponse]
// @Router /v1/inputs [get]
func (h *CatalogHandler) ListInputs(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := h.inputs.List(ctx)
	if err != nil {
		logger.Error(ctx, "failed to list inputs", err)
		dto.InternalError(c, "failed to list inputs")
		return
	}
	dto.Success(c, dto.CatalogResponse{Inputs: entries})
}
