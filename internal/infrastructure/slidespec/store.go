// Package slidespec 提供 SlideSpec 的文件系统持久化。
// 每份已解析的报告内容存为 {input_id}_{template_id}.json，
// rewrite 与重渲染直接基于该文件，无需重新调用 LLM。
package slidespec

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mss-report-engine/internal/domain/entity"
	"mss-report-engine/internal/domain/repository"
	"mss-report-engine/pkg/errors"
	"mss-report-engine/pkg/logger"
)

// Store 文件系统 SlideSpec 仓储
type Store struct {
	dir string
}

// NewStore 创建仓储，dir 不存在时惰性创建
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

var _ repository.SlideSpecRepository = (*Store)(nil)

func (s *Store) specPath(inputID, templateID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", inputID, templateID))
}

// Save 持久化 SlideSpec，返回存储路径。
// 先写临时文件再改名，避免并发读取读到半截 JSON。
func (s *Store) Save(ctx context.Context, inputID string, spec *entity.SlideSpec) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create slidespec dir: %w", err)
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal slidespec: %w", err)
	}

	path := s.specPath(inputID, spec.TemplateID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write slidespec: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("commit slidespec: %w", err)
	}

	logger.Debug(ctx, "slidespec 已保存", "path", path, "slides", len(spec.Slides))
	return path, nil
}

// Load 加载 SlideSpec，不存在时返回 ErrSlideSpecNotFound
func (s *Store) Load(ctx context.Context, inputID, templateID string) (*entity.SlideSpec, error) {
	path := s.specPath(inputID, templateID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrSlideSpecNotFound.WithDetail(inputID + ":" + templateID)
		}
		return nil, fmt.Errorf("read slidespec %s: %w", path, err)
	}
	var spec entity.SlideSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse slidespec %s: %w", path, err)
	}
	return &spec, nil
}
