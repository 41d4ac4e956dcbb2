package catalog

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

// inputCatalog inputs 目录 catalog.json 的顶层结构
type inputCatalog struct {
	Inputs []entity.InputCatalogEntry `json:"inputs"`
}

// InputRepo 租户输入数据仓储。输入数据是外部投递的快照，
// 每次 Load 都重新读盘，不做缓存。
type InputRepo struct {
	dir string
}

// NewInputRepo 创建输入仓储，dir 为输入数据目录（含 catalog.json）
func NewInputRepo(dir string) *InputRepo {
	return &InputRepo{dir: dir}
}

var _ repository.InputRepository = (*InputRepo)(nil)

// List 读取 catalog.json 并返回全部输入条目
func (r *InputRepo) List(ctx context.Context) ([]entity.InputCatalogEntry, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, catalogFile))
	if err != nil {
		return nil, fmt.Errorf("read input catalog: %w", err)
	}
	var cat inputCatalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse input catalog: %w", err)
	}
	return cat.Inputs, nil
}

// Load 加载租户输入数据
func (r *InputRepo) Load(ctx context.Context, inputID string) (entity.TenantInput, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var entry *entity.InputCatalogEntry
	for i := range entries {
		if entries[i].InputID == inputID {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		return nil, errors.ErrInputNotFound.WithDetail(inputID)
	}

	data, err := os.ReadFile(filepath.Join(r.dir, entry.File))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrInputNotFound.WithDetail(entry.File)
		}
		return nil, fmt.Errorf("read tenant input %s: %w", inputID, err)
	}

	var input entity.TenantInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam,
			fmt.Sprintf("输入数据 %s 解析失败", inputID))
	}

	logger.Debug(ctx, "租户输入数据已加载", "input_id", inputID, "keys", len(input))
	return input, nil
}
