// Package catalog 基于目录与 catalog.json 清单的模板/输入仓储实现
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"mss-report-engine/internal/domain/entity"
	"mss-report-engine/internal/domain/repository"
	"mss-report-engine/pkg/errors"
	"mss-report-engine/pkg/logger"
)

const catalogFile = "catalog.json"

// templateCatalog catalog.json 的顶层结构
type templateCatalog struct {
	Templates []entity.TemplateCatalogEntry `json:"templates"`
}

// TemplateRepo 模板描述符仓储。描述符文件只在首次使用时解析并校验，
// 之后按 template_id 进程级缓存；singleflight 合并并发首载。
type TemplateRepo struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*entity.TemplateDescriptor
	group singleflight.Group
}

// NewTemplateRepo 创建模板仓储，dir 为模板目录（含 catalog.json）
func NewTemplateRepo(dir string) *TemplateRepo {
	return &TemplateRepo{
		dir:   dir,
		cache: make(map[string]*entity.TemplateDescriptor),
	}
}

var _ repository.TemplateRepository = (*TemplateRepo)(nil)

// List 读取 catalog.json 并返回全部模板条目
func (r *TemplateRepo) List(ctx context.Context) ([]entity.TemplateCatalogEntry, error) {
	cat, err := r.loadCatalog()
	if err != nil {
		return nil, err
	}
	return cat.Templates, nil
}

// Get 获取模板描述符，未缓存时加载、校验并排序
func (r *TemplateRepo) Get(ctx context.Context, templateID string) (*entity.TemplateDescriptor, error) {
	r.mu.RLock()
	if tpl, ok := r.cache[templateID]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	v, err, _ := r.group.Do(templateID, func() (any, error) {
		tpl, err := r.loadDescriptor(ctx, templateID)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[templateID] = tpl
		r.mu.Unlock()
		return tpl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.TemplateDescriptor), nil
}

// Reload 丢弃全部缓存描述符，下次 Get 重新读盘
func (r *TemplateRepo) Reload(ctx context.Context) error {
	r.mu.Lock()
	r.cache = make(map[string]*entity.TemplateDescriptor)
	r.mu.Unlock()
	logger.Info(ctx, "模板描述符缓存已清空", "dir", r.dir)
	return nil
}

func (r *TemplateRepo) loadCatalog() (*templateCatalog, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, catalogFile))
	if err != nil {
		return nil, fmt.Errorf("read template catalog: %w", err)
	}
	var cat templateCatalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}
	return &cat, nil
}

func (r *TemplateRepo) loadDescriptor(ctx context.Context, templateID string) (*entity.TemplateDescriptor, error) {
	cat, err := r.loadCatalog()
	if err != nil {
		return nil, err
	}
	var entry *entity.TemplateCatalogEntry
	for i := range cat.Templates {
		if cat.Templates[i].TemplateID == templateID {
			entry = &cat.Templates[i]
			break
		}
	}
	if entry == nil {
		return nil, errors.ErrTemplateNotFound.WithDetail(templateID)
	}

	data, err := os.ReadFile(filepath.Join(r.dir, entry.DescriptorFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrTemplateNotFound.WithDetail(entry.DescriptorFile)
		}
		return nil, fmt.Errorf("read template descriptor %s: %w", templateID, err)
	}

	var tpl entity.TemplateDescriptor
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, errors.Wrap(err, errors.CodeTemplateInvalid,
			fmt.Sprintf("模板 %s 描述符解析失败", templateID))
	}
	if err := tpl.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CodeTemplateInvalid,
			fmt.Sprintf("模板 %s 校验失败", templateID))
	}
	tpl.Normalize()

	logger.Debug(ctx, "模板描述符已加载",
		"template_id", templateID, "slides", len(tpl.Slides))
	return &tpl, nil
}
