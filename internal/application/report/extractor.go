package report

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"mss-report-engine/internal/domain/entity"
	"mss-report-engine/pkg/logger"
)

// 已知严重级别键到中文展示名的默认映射
var defaultSeverityNames = map[string]string{
	"critical": "严重",
	"high":     "高危",
	"medium":   "中危",
	"low":      "低危",
	"info":     "信息",
}

// severityRank 已知严重级别的展示顺序
var severityRank = map[string]int{
	"critical": 0,
	"high":     1,
	"medium":   2,
	"low":      3,
	"info":     4,
}

var fieldTemplateRe = regexp.MustCompile(`\{([A-Za-z0-9_.]+)\}`)

// Extractor 从租户数据中解析所有 ai_generate=false 的占位符
type Extractor struct {
	maxTableRows int
}

// NewExtractor 创建数据抽取器。maxTableRows<=0 时使用默认值 10。
func NewExtractor(maxTableRows int) *Extractor {
	if maxTableRows <= 0 {
		maxTableRows = 10
	}
	return &Extractor{maxTableRows: maxTableRows}
}

// Extract 返回 slide_key -> {token -> 值} 的映射。
// 图表/表格负载形状不符时产出空负载并记录日志，从不中断抽取。
func (e *Extractor) Extract(ctx context.Context, input entity.TenantInput, tpl *entity.TemplateDescriptor) map[string]map[string]any {
	out := make(map[string]map[string]any, len(tpl.Slides))
	for _, slide := range tpl.Slides {
		values := make(map[string]any)
		for _, ph := range slide.Placeholders {
			if ph.AIGenerate {
				continue
			}
			switch ph.Type {
			case entity.PlaceholderBarChart:
				values[ph.Token] = e.extractBarChart(ctx, input, slide.SlideKey, ph)
			case entity.PlaceholderPieChart:
				values[ph.Token] = e.extractPieChart(ctx, input, slide.SlideKey, ph)
			case entity.PlaceholderNativeTable:
				values[ph.Token] = e.extractTable(ctx, input, slide.SlideKey, ph)
			default:
				values[ph.Token] = e.extractScalar(input, ph)
			}
		}
		out[slide.SlideKey] = values
	}
	return out
}

// extractScalar 解析文本类占位符：source 取值 -> transform -> format
func (e *Extractor) extractScalar(input entity.TenantInput, ph entity.PlaceholderDefinition) string {
	value := resolveValue(input, ph.Source)
	if value == nil {
		return ph.Default
	}

	if list, ok := value.([]any); ok {
		return e.formatList(list, ph)
	}

	text := applyTransform(value, ph.Transform)
	if strings.Contains(ph.Format, "{") {
		scope := templateScope(value, text)
		return expandFieldTemplate(ph.Format, scope)
	}
	return text
}

// formatList 列表取值：逐项应用 {field} 模板并以项目符号连接，
// join_comma 时用逗号连接，否则对原始项目符号连接。
func (e *Extractor) formatList(list []any, ph entity.PlaceholderDefinition) string {
	switch {
	case strings.Contains(ph.Format, "{"):
		lines := make([]string, 0, len(list))
		for _, item := range list {
			lines = append(lines, "• "+expandFieldTemplate(ph.Format, templateScope(item, stringify(item))))
		}
		return strings.Join(lines, "\n")
	case ph.Format == "join_comma":
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, applyTransform(item, ph.Transform))
		}
		return strings.Join(parts, ", ")
	default:
		lines := make([]string, 0, len(list))
		for _, item := range list {
			lines = append(lines, "• "+applyTransform(item, ph.Transform))
		}
		return strings.Join(lines, "\n")
	}
}

// templateScope {field} 模板的取值范围：映射用其字段，标量命名为 value
func templateScope(value any, transformed string) any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return map[string]any{"value": transformed}
}

// expandFieldTemplate 将 format 中的 {path} 以同一路径解析器替换
func expandFieldTemplate(format string, scope any) string {
	return fieldTemplateRe.ReplaceAllStringFunc(format, func(match string) string {
		path := match[1 : len(match)-1]
		v := resolvePath(scope, path)
		if v == nil {
			return ""
		}
		return stringify(v)
	})
}

// applyTransform 在格式化之前应用取值变换
func applyTransform(value any, tr entity.Transform) string {
	switch tr {
	case entity.TransformPercent:
		f, ok := asFloat(value)
		if !ok {
			return stringify(value)
		}
		return stringify(math.Round(f*100)) + "%"
	case entity.TransformUppercase:
		return strings.ToUpper(stringify(value))
	case entity.TransformLowercase:
		return strings.ToLower(stringify(value))
	default:
		return stringify(value)
	}
}

// extractBarChart 支持两种 source 形状：
// 记录列表时按 x_field/y_field 逐条投影，
// 映射时取 x_field/y_field 两个平行列表。
// 产出 {categories, series:[{name, values}]}
func (e *Extractor) extractBarChart(ctx context.Context, input entity.TenantInput, slideKey string, ph entity.PlaceholderDefinition) map[string]any {
	cfg := ph.ChartConfig
	var xs, ys []any
	switch source := resolveValue(input, cfg.DataSource).(type) {
	case []any:
		for _, item := range source {
			record, ok := item.(map[string]any)
			if !ok {
				continue
			}
			xs = append(xs, record[cfg.XField])
			ys = append(ys, record[cfg.YField])
		}
	case map[string]any:
		var xok, yok bool
		xs, xok = source[cfg.XField].([]any)
		ys, yok = source[cfg.YField].([]any)
		if !xok || !yok || len(xs) != len(ys) {
			logger.Warn(ctx, "bar chart fields missing or unaligned, emitting empty payload",
				"slide_key", slideKey, "token", ph.Token, "x_field", cfg.XField, "y_field", cfg.YField)
			return emptyBarPayload()
		}
	default:
		logger.Warn(ctx, "bar chart source shape mismatch, emitting empty payload",
			"slide_key", slideKey, "token", ph.Token, "data_source", cfg.DataSource)
		return emptyBarPayload()
	}

	categories := make([]any, 0, len(xs))
	for _, x := range xs {
		categories = append(categories, stringify(x))
	}
	values := make([]any, 0, len(ys))
	for _, y := range ys {
		f, ok := asFloat(y)
		if !ok {
			logger.Warn(ctx, "bar chart value not numeric, emitting empty payload",
				"slide_key", slideKey, "token", ph.Token)
			return emptyBarPayload()
		}
		values = append(values, f)
	}

	return map[string]any{
		"categories": categories,
		"series": []any{
			map[string]any{"name": cfg.YField, "values": values},
		},
	}
}

func emptyBarPayload() map[string]any {
	return map[string]any{"categories": []any{}, "series": []any{}}
}

// extractPieChart 期望 source 解析为 类目->计数 的映射，产出 {categories, values}。
// 已知严重级别键走展示名映射并按严重程度排序，其余键按字典序排在其后。
func (e *Extractor) extractPieChart(ctx context.Context, input entity.TenantInput, slideKey string, ph entity.PlaceholderDefinition) map[string]any {
	cfg := ph.ChartConfig
	source, ok := resolveValue(input, cfg.DataSource).(map[string]any)
	if !ok {
		logger.Warn(ctx, "pie chart source shape mismatch, emitting empty payload",
			"slide_key", slideKey, "token", ph.Token, "data_source", cfg.DataSource)
		return map[string]any{"categories": []any{}, "values": []any{}}
	}

	keys := make([]string, 0, len(source))
	for k := range source {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := severityRank[keys[i]]
		rj, jok := severityRank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return keys[i] < keys[j]
		}
	})

	categories := make([]any, 0, len(keys))
	values := make([]any, 0, len(keys))
	for _, k := range keys {
		f, ok := asFloat(source[k])
		if !ok {
			continue
		}
		categories = append(categories, e.displayName(k, cfg.CategoryNames))
		values = append(values, f)
	}
	return map[string]any{"categories": categories, "values": values}
}

// displayName 类目键的展示名：chart_config 映射优先，再查默认严重级别表，否则原样
func (e *Extractor) displayName(key string, overrides map[string]string) string {
	if name, ok := overrides[key]; ok {
		return name
	}
	if name, ok := defaultSeverityNames[key]; ok {
		return name
	}
	return key
}

// extractTable 期望 source 解析为映射列表，按列配置投影为 {headers, rows}，
// 行数截断到 max_rows
func (e *Extractor) extractTable(ctx context.Context, input entity.TenantInput, slideKey string, ph entity.PlaceholderDefinition) map[string]any {
	cfg := ph.TableConfig
	source, ok := resolveValue(input, cfg.DataSource).([]any)
	if !ok {
		logger.Warn(ctx, "table source shape mismatch, emitting empty payload",
			"slide_key", slideKey, "token", ph.Token, "data_source", cfg.DataSource)
		return map[string]any{"headers": []any{}, "rows": []any{}}
	}

	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = e.maxTableRows
	}
	if len(source) > maxRows {
		source = source[:maxRows]
	}

	headers := make([]any, 0, len(cfg.Columns))
	for _, col := range cfg.Columns {
		headers = append(headers, col.Header)
	}

	rows := make([]any, 0, len(source))
	for _, item := range source {
		rowMap, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row := make([]any, 0, len(cfg.Columns))
		for _, col := range cfg.Columns {
			cell := resolvePath(rowMap, col.Field)
			if col.Format == "percent" {
				row = append(row, applyTransform(cell, entity.TransformPercent))
			} else {
				row = append(row, stringify(cell))
			}
		}
		rows = append(rows, row)
	}
	return map[string]any{"headers": headers, "rows": rows}
}
