// Package prompt 管理内嵌的系统提示词模板
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"mss-report-engine/internal/domain/entity"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// ID 提示词模板标识
type ID string

const (
	SystemManagementV1 ID = "report_management_v1"
	SystemTechnicalV1  ID = "report_technical_v1"
)

// ForAudience 按模板受众选择系统提示词
func ForAudience(a entity.Audience) ID {
	if a == entity.AudienceTechnical {
		return SystemTechnicalV1
	}
	return SystemManagementV1
}

// Registry 缓存内嵌提示词文本
type Registry struct {
	mu    sync.RWMutex
	cache map[ID]string
}

// NewRegistry 创建提示词注册表
func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[ID]string),
	}
}

// System 获取系统提示词文本
func (r *Registry) System(id ID) (string, error) {
	if r == nil {
		return "", fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if text, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return text, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if text, ok := r.cache[id]; ok {
		return text, nil
	}

	path, err := resolvePromptFile(id)
	if err != nil {
		return "", err
	}
	text, err := readEmbeddedText(path)
	if err != nil {
		return "", err
	}
	r.cache[id] = text
	return text, nil
}

func resolvePromptFile(id ID) (string, error) {
	switch id {
	case SystemManagementV1:
		return "templates/report_management_v1.system.txt", nil
	case SystemTechnicalV1:
		return "templates/report_technical_v1.system.txt", nil
	default:
		return "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
