// Package entity 定义领域实体
package entity

import (
	"fmt"
	"sort"
)

// Audience 模板受众
type Audience string

const (
	AudienceManagement Audience = "management"
	AudienceTechnical  Audience = "technical"
)

// PlaceholderType 占位符类型，封闭枚举，模板加载时校验
type PlaceholderType string

const (
	PlaceholderText           PlaceholderType = "text"
	PlaceholderParagraph      PlaceholderType = "paragraph"
	PlaceholderBulletList     PlaceholderType = "bullet_list"
	PlaceholderKPI            PlaceholderType = "kpi"
	PlaceholderKPIGroup       PlaceholderType = "kpi_group"
	PlaceholderTable          PlaceholderType = "table"
	PlaceholderChartData      PlaceholderType = "chart_data"
	PlaceholderIncidentList   PlaceholderType = "incident_list"
	PlaceholderIncidentDetail PlaceholderType = "incident_detail"
	PlaceholderBarChart       PlaceholderType = "bar_chart"
	PlaceholderPieChart       PlaceholderType = "pie_chart"
	PlaceholderNativeTable    PlaceholderType = "native_table"
)

var validPlaceholderTypes = map[PlaceholderType]struct{}{
	PlaceholderText:           {},
	PlaceholderParagraph:      {},
	PlaceholderBulletList:     {},
	PlaceholderKPI:            {},
	PlaceholderKPIGroup:       {},
	PlaceholderTable:          {},
	PlaceholderChartData:      {},
	PlaceholderIncidentList:   {},
	PlaceholderIncidentDetail: {},
	PlaceholderBarChart:       {},
	PlaceholderPieChart:       {},
	PlaceholderNativeTable:    {},
}

// Valid 判断类型是否为已知类型
func (t PlaceholderType) Valid() bool {
	_, ok := validPlaceholderTypes[t]
	return ok
}

// IsChart 图表类型
func (t PlaceholderType) IsChart() bool {
	return t == PlaceholderBarChart || t == PlaceholderPieChart
}

// IsStructured 结构化负载类型（图表/原生表格），其值不是自由文本
func (t PlaceholderType) IsStructured() bool {
	return t.IsChart() || t == PlaceholderNativeTable
}

// Transform 取值变换
type Transform string

const (
	TransformNone      Transform = ""
	TransformUppercase Transform = "uppercase"
	TransformLowercase Transform = "lowercase"
	TransformPercent   Transform = "percent"
)

// Valid 判断变换是否为已知变换
func (t Transform) Valid() bool {
	switch t {
	case TransformNone, TransformUppercase, TransformLowercase, TransformPercent:
		return true
	}
	return false
}

// Position 形状在幻灯片上的位置与尺寸（英寸）
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ChartConfig 图表占位符配置
type ChartConfig struct {
	// DataSource 指向租户数据的点分路径
	DataSource string `json:"data_source"`
	// XField/YField 柱状图的类目与取值字段
	XField string `json:"x_field,omitempty"`
	YField string `json:"y_field,omitempty"`
	// CategoryNames 饼图类目键到展示名的映射，未命中时使用原始键
	CategoryNames map[string]string `json:"category_names,omitempty"`
	Position      *Position         `json:"position,omitempty"`
}

// TableColumn 原生表格列配置，顺序即渲染顺序
type TableColumn struct {
	Header string `json:"header"`
	Field  string `json:"field"`
	Format string `json:"format,omitempty"`
}

// TableConfig 原生表格占位符配置
type TableConfig struct {
	DataSource string        `json:"data_source"`
	Columns    []TableColumn `json:"columns"`
	MaxRows    int           `json:"max_rows,omitempty"`
	Position   *Position     `json:"position,omitempty"`
}

// PlaceholderDefinition 占位符定义。
// ai_generate=false 时走数据抽取（source/default/format/transform），
// ai_generate=true 时走 LLM 生成（ai_instruction 及长度约束）。
// 只校验与自身 type 相关的字段。
type PlaceholderDefinition struct {
	Token      string          `json:"token"`
	Type       PlaceholderType `json:"type"`
	AIGenerate bool            `json:"ai_generate"`

	Source    string    `json:"source,omitempty"`
	Default   string    `json:"default,omitempty"`
	Format    string    `json:"format,omitempty"`
	Transform Transform `json:"transform,omitempty"`

	AIInstruction   string `json:"ai_instruction,omitempty"`
	MaxLength       int    `json:"max_length,omitempty"`
	MaxItems        int    `json:"max_items,omitempty"`
	MaxCharsPerItem int    `json:"max_chars_per_item,omitempty"`

	// Validation 指向租户数据的点分路径（或 computed.* 聚合键），
	// 渲染后该 token 的数值须与之吻合
	Validation string `json:"validation,omitempty"`

	// Position 文本类占位符在幻灯片上的位置，缺省时按版式顺序堆叠
	Position *Position `json:"position,omitempty"`

	ChartConfig *ChartConfig `json:"chart_config,omitempty"`
	TableConfig *TableConfig `json:"table_config,omitempty"`
}

// SlideDefinition 单页幻灯片定义
type SlideDefinition struct {
	SlideNo      int                     `json:"slide_no"`
	SlideKey     string                  `json:"slide_key"`
	Title        string                  `json:"title"`
	Placeholders []PlaceholderDefinition `json:"placeholders"`
}

// TemplateDescriptor 模板描述符。加载后不可变，按 template_id 进程级缓存。
type TemplateDescriptor struct {
	TemplateID string            `json:"template_id"`
	Name       string            `json:"name,omitempty"`
	Version    string            `json:"version,omitempty"`
	Audience   Audience          `json:"audience"`
	Slides     []SlideDefinition `json:"slides"`
}

// Normalize 按 slide_no 排序，容忍描述文件中的乱序声明
func (d *TemplateDescriptor) Normalize() {
	sort.SliceStable(d.Slides, func(i, j int) bool {
		return d.Slides[i].SlideNo < d.Slides[j].SlideNo
	})
}

// Validate 在模板加载时整体校验描述符，
// 未知类型或缺失的变体配置在任何生成请求使用前即被拒绝。
func (d *TemplateDescriptor) Validate() error {
	if d.TemplateID == "" {
		return fmt.Errorf("template_id is required")
	}
	if d.Audience != AudienceManagement && d.Audience != AudienceTechnical {
		return fmt.Errorf("template %s: unknown audience %q", d.TemplateID, d.Audience)
	}
	if len(d.Slides) == 0 {
		return fmt.Errorf("template %s: no slides", d.TemplateID)
	}

	seenNo := make(map[int]struct{}, len(d.Slides))
	seenKey := make(map[string]struct{}, len(d.Slides))
	for _, slide := range d.Slides {
		if slide.SlideNo < 1 {
			return fmt.Errorf("template %s: slide %q has invalid slide_no %d", d.TemplateID, slide.SlideKey, slide.SlideNo)
		}
		if _, dup := seenNo[slide.SlideNo]; dup {
			return fmt.Errorf("template %s: duplicate slide_no %d", d.TemplateID, slide.SlideNo)
		}
		seenNo[slide.SlideNo] = struct{}{}
		if slide.SlideKey == "" {
			return fmt.Errorf("template %s: slide %d missing slide_key", d.TemplateID, slide.SlideNo)
		}
		if _, dup := seenKey[slide.SlideKey]; dup {
			return fmt.Errorf("template %s: duplicate slide_key %q", d.TemplateID, slide.SlideKey)
		}
		seenKey[slide.SlideKey] = struct{}{}

		seenToken := make(map[string]struct{}, len(slide.Placeholders))
		for _, ph := range slide.Placeholders {
			if err := validatePlaceholder(slide.SlideKey, ph, seenToken); err != nil {
				return fmt.Errorf("template %s: %w", d.TemplateID, err)
			}
		}
	}
	return nil
}

func validatePlaceholder(slideKey string, ph PlaceholderDefinition, seenToken map[string]struct{}) error {
	if ph.Token == "" {
		return fmt.Errorf("slide %s: placeholder missing token", slideKey)
	}
	if _, dup := seenToken[ph.Token]; dup {
		return fmt.Errorf("slide %s: duplicate token %q", slideKey, ph.Token)
	}
	seenToken[ph.Token] = struct{}{}

	if !ph.Type.Valid() {
		return fmt.Errorf("slide %s: token %s has unknown type %q", slideKey, ph.Token, ph.Type)
	}
	if !ph.Transform.Valid() {
		return fmt.Errorf("slide %s: token %s has unknown transform %q", slideKey, ph.Token, ph.Transform)
	}

	switch {
	case ph.Type.IsChart():
		if ph.ChartConfig == nil {
			return fmt.Errorf("slide %s: token %s type %s requires chart_config", slideKey, ph.Token, ph.Type)
		}
		if ph.ChartConfig.DataSource == "" {
			return fmt.Errorf("slide %s: token %s chart_config missing data_source", slideKey, ph.Token)
		}
		if ph.Type == PlaceholderBarChart && (ph.ChartConfig.XField == "" || ph.ChartConfig.YField == "") {
			return fmt.Errorf("slide %s: token %s bar_chart requires x_field and y_field", slideKey, ph.Token)
		}
	case ph.Type == PlaceholderNativeTable:
		if ph.TableConfig == nil {
			return fmt.Errorf("slide %s: token %s type native_table requires table_config", slideKey, ph.Token)
		}
		if ph.TableConfig.DataSource == "" {
			return fmt.Errorf("slide %s: token %s table_config missing data_source", slideKey, ph.Token)
		}
		if len(ph.TableConfig.Columns) == 0 {
			return fmt.Errorf("slide %s: token %s table_config has no columns", slideKey, ph.Token)
		}
		for _, col := range ph.TableConfig.Columns {
			if col.Field == "" {
				return fmt.Errorf("slide %s: token %s table column %q missing field", slideKey, ph.Token, col.Header)
			}
		}
	}

	if ph.Type.IsStructured() && ph.AIGenerate {
		return fmt.Errorf("slide %s: token %s type %s cannot be ai_generate", slideKey, ph.Token, ph.Type)
	}
	if !ph.AIGenerate && !ph.Type.IsStructured() && ph.Source == "" && ph.Default == "" {
		return fmt.Errorf("slide %s: token %s has neither source nor default", slideKey, ph.Token)
	}
	return nil
}

// SlideByKey 按 slide_key 查找幻灯片定义
func (d *TemplateDescriptor) SlideByKey(key string) (*SlideDefinition, bool) {
	for i := range d.Slides {
		if d.Slides[i].SlideKey == key {
			return &d.Slides[i], true
		}
	}
	return nil, false
}

// AIPlaceholders 返回一页中所有 ai_generate 占位符
func (s *SlideDefinition) AIPlaceholders() []PlaceholderDefinition {
	var out []PlaceholderDefinition
	for _, ph := range s.Placeholders {
		if ph.AIGenerate {
			out = append(out, ph)
		}
	}
	return out
}

// PlaceholderByToken 按 token 查找占位符定义
func (s *SlideDefinition) PlaceholderByToken(token string) (*PlaceholderDefinition, bool) {
	for i := range s.Placeholders {
		if s.Placeholders[i].Token == token {
			return &s.Placeholders[i], true
		}
	}
	return nil, false
}
