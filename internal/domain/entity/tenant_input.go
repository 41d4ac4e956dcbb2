package entity

// TenantInput 每租户的原始安全遥测数据，无固定 schema，只读。
// 仅通过点分路径和少量约定的顶层键（alerts/incidents/mss_ops/
// vulnerabilities/tenant/period 等）被语义化使用。
type TenantInput map[string]any

// Get 读取顶层键
func (t TenantInput) Get(key string) any {
	if t == nil {
		return nil
	}
	return t[key]
}

// GetMap 读取顶层键并断言为 map，失败时返回 nil
func (t TenantInput) GetMap(key string) map[string]any {
	m, _ := t.Get(key).(map[string]any)
	return m
}

// GetSlice 读取顶层键并断言为 slice，失败时返回 nil
func (t TenantInput) GetSlice(key string) []any {
	s, _ := t.Get(key).([]any)
	return s
}

// InputCatalogEntry 输入数据目录条目
type InputCatalogEntry struct {
	InputID     string `json:"input_id"`
	File        string `json:"file"`
	Description string `json:"description,omitempty"`
}

// TemplateCatalogEntry 模板目录条目
type TemplateCatalogEntry struct {
	TemplateID     string `json:"template_id"`
	Name           string `json:"name,omitempty"`
	Audience       string `json:"audience,omitempty"`
	DescriptorFile string `json:"descriptor_file"`
}
