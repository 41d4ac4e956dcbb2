package render

import (
	"context"
	"fmt"

	"mss-report-engine/internal/domain/entity"
	"mss-report-engine/pkg/logger"
	"mss-report-engine/pkg/metrics"
)

// 结构化占位符的默认落位
var (
	defaultChartPos = entity.Position{X: 1.2, Y: 1.6, W: 10.9, H: 5.3}
	defaultTablePos = entity.Position{X: 0.6, Y: 1.6, W: 12.1, H: 5.2}
)

// Renderer 把模板描述符与完整的 SlideSpec 合成 .pptx 字节。
// 文本类占位符通过 token 替换落位，图表画成 PNG 追加为图片，
// 原生表格铺成形状网格。结构化负载损坏时记警告并跳过该占位符，
// 单个占位符的渲染问题不应废掉整份报告。
type Renderer struct {
	charts  *ChartRenderer
	creator string
}

// NewRenderer 创建渲染器。chartFontPath 传给图表字体加载，可为空。
func NewRenderer(chartFontPath, creator string) *Renderer {
	if creator == "" {
		creator = "MSS Report Engine"
	}
	return &Renderer{charts: NewChartRenderer(chartFontPath), creator: creator}
}

// Render 渲染整份报告。返回 pptx 字节。
func (r *Renderer) Render(ctx context.Context, tpl *entity.TemplateDescriptor, spec *entity.SlideSpec) ([]byte, error) {
	deck := BuildTemplateDeck(tpl)

	textValues := make(map[string]map[string]any, len(spec.Slides))
	for _, sc := range spec.Slides {
		sd, ok := tpl.SlideByKey(sc.SlideKey)
		if !ok {
			logger.Warn(ctx, "slidespec 含模板中不存在的 slide_key", "slide_key", sc.SlideKey)
			continue
		}
		slide, _ := deck.SlideByKey(sc.SlideKey)

		for token, value := range sc.Placeholders {
			ph, ok := sd.PlaceholderByToken(token)
			if !ok {
				logger.Warn(ctx, "slidespec 含模板中不存在的 token",
					"slide_key", sc.SlideKey, "token", token)
				continue
			}
			if !ph.Type.IsStructured() {
				if textValues[sc.SlideKey] == nil {
					textValues[sc.SlideKey] = make(map[string]any)
				}
				textValues[sc.SlideKey][token] = value
				continue
			}
			if err := r.renderStructured(slide, ph, value); err != nil {
				logger.Warn(ctx, "结构化占位符渲染失败，已跳过",
					"slide_key", sc.SlideKey, "token", token, "error", err.Error())
				metrics.ValidationWarningsTotal.WithLabelValues(tpl.TemplateID).Inc()
			}
		}
	}

	SubstituteTokens(deck, textValues)

	data, err := WriteDeck(deck, r.creator)
	if err != nil {
		return nil, fmt.Errorf("render template %s: %w", tpl.TemplateID, err)
	}
	return data, nil
}

func (r *Renderer) renderStructured(slide *Slide, ph *entity.PlaceholderDefinition, value any) error {
	switch ph.Type {
	case entity.PlaceholderBarChart:
		payload, err := decodeBarPayload(value)
		if err != nil {
			return err
		}
		png, err := r.charts.RenderBar(payload)
		if err != nil {
			return err
		}
		slide.AddPicture(chartPosition(ph), png, "image/png")
	case entity.PlaceholderPieChart:
		payload, err := decodePiePayload(value)
		if err != nil {
			return err
		}
		png, err := r.charts.RenderPie(payload)
		if err != nil {
			return err
		}
		slide.AddPicture(chartPosition(ph), png, "image/png")
	case entity.PlaceholderNativeTable:
		payload, err := decodeTablePayload(value)
		if err != nil {
			return err
		}
		AppendTable(slide, tablePosition(ph), payload)
	default:
		return fmt.Errorf("unexpected structured type %s", ph.Type)
	}
	return nil
}

func chartPosition(ph *entity.PlaceholderDefinition) entity.Position {
	if ph.ChartConfig != nil && ph.ChartConfig.Position != nil {
		return *ph.ChartConfig.Position
	}
	return defaultChartPos
}

func tablePosition(ph *entity.PlaceholderDefinition) entity.Position {
	if ph.TableConfig != nil && ph.TableConfig.Position != nil {
		return *ph.TableConfig.Position
	}
	return defaultTablePos
}
