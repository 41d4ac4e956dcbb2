package render

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mss-report-engine/internal/domain/entity"
)

func rendererSpec(tpl *entity.TemplateDescriptor) *entity.SlideSpec {
	spec := entity.NewSlideSpec(tpl)
	spec.MergeSlide("cover", map[string]any{
		"CUSTOMER_NAME": "Acme 制造集团",
		"PERIOD_LABEL":  "2026年7月",
	})
	spec.MergeSlide("overview", map[string]any{
		"KPI_ALERTS_TOTAL": "1284",
		"SEVERITY_PIE": map[string]any{
			"categories": []any{"高危", "中危"},
			"values":     []any{float64(52), float64(473)},
		},
	})
	return spec
}

func TestRenderProducesPPTX(t *testing.T) {
	r := NewRenderer("", "测试")
	tpl := deckTemplate()

	data, err := r.Render(context.Background(), tpl, rendererSpec(tpl))
	require.NoError(t, err)

	// pptx 是 zip 容器
	assert.True(t, bytes.HasPrefix(data, []byte("PK")), "expected zip magic")
}

func TestRenderSkipsBrokenStructuredPayload(t *testing.T) {
	r := NewRenderer("", "测试")
	tpl := deckTemplate()

	spec := rendererSpec(tpl)
	overview, _ := spec.SlideByKey("overview")
	overview.Placeholders["SEVERITY_PIE"] = "损坏的负载"

	// 单个占位符损坏不影响整份报告
	data, err := r.Render(context.Background(), tpl, spec)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestRenderIgnoresUnknownSpecEntries(t *testing.T) {
	r := NewRenderer("", "测试")
	tpl := deckTemplate()

	spec := rendererSpec(tpl)
	spec.Slides = append(spec.Slides, entity.SlideContent{
		SlideNo: 9, SlideKey: "ghost", Placeholders: map[string]any{"X": "y"},
	})
	cover, _ := spec.SlideByKey("cover")
	cover.Placeholders["UNKNOWN_TOKEN"] = "忽略"

	data, err := r.Render(context.Background(), tpl, spec)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestAppendTable(t *testing.T) {
	slide := &Slide{No: 2, Key: "incidents"}
	AppendTable(slide, entity.Position{X: 0.6, Y: 1.6, W: 12.1, H: 3.2}, TablePayload{
		Headers: []string{"级别", "事件", "MTTR(分)"},
		Rows: [][]string{
			{"high", "勒索前兆", "95"},
			{"low", "违规外联", "30"},
		},
	})

	// 每个单元格一个形状：1 行表头 + 2 行数据，各 3 列
	require.Len(t, slide.Shapes, 9)
	header := slide.Shapes[0]
	assert.Equal(t, tableHeaderFill, header.Fill)
	assert.Equal(t, "级别", header.Runs[0].Text)
	assert.True(t, header.Runs[0].Bold)

	// 数值单元格居中
	mttr := slide.Shapes[5]
	assert.Equal(t, "95", mttr.Runs[0].Text)
	assert.Equal(t, AlignCenter, mttr.Align)
}
